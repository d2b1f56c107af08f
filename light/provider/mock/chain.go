package mock

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/lightvote/lightvote/crypto/merkle"
	"github.com/lightvote/lightvote/poh"
	"github.com/lightvote/lightvote/types"
)

const hashesPerEntry = 4

// Chain is an in-memory ledger whose headers, entries, bank hashes and
// inclusion proofs are all consistent with each other.
type Chain struct {
	Headers      map[types.Slot]*types.BlockHeader
	Blocks       map[types.Slot]*types.Block
	Transactions map[types.Signature]*types.Transaction
	Proofs       map[types.Signature]*types.InclusionProof
	Skipped      map[types.Slot]bool

	last *types.BlockHeader
}

// NewChain starts a chain whose root slot has the given blockhash.
func NewChain(genesis types.Hash) *Chain {
	root := &types.BlockHeader{Slot: 0, Blockhash: genesis}
	root.BankHash = sha256.Sum256(genesis[:])
	return &Chain{
		Headers:      map[types.Slot]*types.BlockHeader{0: root},
		Blocks:       map[types.Slot]*types.Block{0: {Slot: 0, Blockhash: genesis}},
		Transactions: make(map[types.Signature]*types.Transaction),
		Proofs:       make(map[types.Signature]*types.InclusionProof),
		Skipped:      make(map[types.Slot]bool),
		last:         root,
	}
}

// Tip returns the header of the newest slot.
func (c *Chain) Tip() *types.BlockHeader { return c.last }

// AppendSlot produces slot on top of the current tip. txs must be signed
// serialized transactions.
func (c *Chain) AppendSlot(slot types.Slot, txs ...[]byte) (*types.BlockHeader, error) {
	parent := c.last
	if slot <= parent.Slot {
		return nil, fmt.Errorf("slot %d is not above tip %d", slot, parent.Slot)
	}

	batches := [][][]byte{{}}
	if len(txs) > 0 {
		batches = append(batches, txs)
	}
	batches = append(batches, [][]byte{})
	entries, err := poh.GenerateEntries(parent.Blockhash, hashesPerEntry, batches)
	if err != nil {
		return nil, err
	}

	var sigCount uint64
	for i, raw := range txs {
		sigs, err := types.Signatures(raw)
		if err != nil {
			return nil, fmt.Errorf("tx #%d: %w", i, err)
		}
		sigCount += uint64(len(sigs))
	}

	var slotBuf [8]byte
	binary.LittleEndian.PutUint64(slotBuf[:], slot)
	h := &types.BlockHeader{
		Slot:              slot,
		ParentSlot:        parent.Slot,
		ParentBankHash:    parent.BankHash,
		AccountsDeltaHash: sha256.Sum256(append(parent.BankHash.Bytes(), slotBuf[:]...)),
		SignatureCount:    sigCount,
		Blockhash:         entries[len(entries)-1].Hash,
		StartBlockhash:    parent.Blockhash,
		Entries:           entries,
	}
	h.BankHash = h.ComputeBankHash()

	leaves := types.BankHashLeaves(h.ParentBankHash, h.AccountsDeltaHash, h.SignatureCount, h.Blockhash, txs)
	_, proofs := merkle.ProofsFromByteSlices(leaves)
	for i, raw := range txs {
		sig, err := types.FirstSignature(raw)
		if err != nil {
			return nil, fmt.Errorf("tx #%d: %w", i, err)
		}
		c.Transactions[sig] = &types.Transaction{Signature: sig, Slot: slot, Raw: raw}
		c.Proofs[sig] = &types.InclusionProof{
			Slot:     slot,
			BankHash: h.BankHash,
			Steps:    proofs[types.BankHashTxOffset+i].Steps(),
		}
	}

	c.Headers[slot] = h
	c.Blocks[slot] = &types.Block{
		Slot:              slot,
		ParentSlot:        parent.Slot,
		Blockhash:         h.Blockhash,
		PreviousBlockhash: parent.Blockhash,
		Transactions:      txs,
	}
	c.last = h
	return h, nil
}

// SkipSlot marks slot as produced by nobody.
func (c *Chain) SkipSlot(slot types.Slot) {
	c.Skipped[slot] = true
}
