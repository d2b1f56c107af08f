package types

import (
	"encoding/binary"

	"github.com/lightvote/lightvote/crypto/merkle"
)

// BankHashTxOffset is the index of the first transaction leaf in the bank
// hash tree. The leaves before it are the header fields, in this order:
// parent bank hash, accounts delta hash, signature count, blockhash.
const BankHashTxOffset = 4

// BankHashLeaves returns the ordered leaves a bank hash commits to.
func BankHashLeaves(parent BankHash, delta Hash, sigCount uint64, blockhash Hash, txs [][]byte) [][]byte {
	count := make([]byte, 8)
	binary.LittleEndian.PutUint64(count, sigCount)

	leaves := make([][]byte, 0, BankHashTxOffset+len(txs))
	leaves = append(leaves, parent.Bytes(), delta.Bytes(), count, blockhash.Bytes())
	return append(leaves, txs...)
}

// ComputeBankHash returns the merkle root of BankHashLeaves.
func ComputeBankHash(parent BankHash, delta Hash, sigCount uint64, blockhash Hash, txs [][]byte) BankHash {
	var h BankHash
	copy(h[:], merkle.HashFromByteSlices(BankHashLeaves(parent, delta, sigCount, blockhash, txs)))
	return h
}

// Transactions flattens the transactions of all entries, in entry order.
func (h *BlockHeader) Transactions() [][]byte {
	var txs [][]byte
	for _, e := range h.Entries {
		txs = append(txs, e.Transactions...)
	}
	return txs
}

// ComputeBankHash recomputes the bank hash from the header fields and the
// transactions carried by its entries.
func (h *BlockHeader) ComputeBankHash() BankHash {
	return ComputeBankHash(h.ParentBankHash, h.AccountsDeltaHash, h.SignatureCount, h.Blockhash, h.Transactions())
}
