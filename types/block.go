package types

import (
	"errors"
	"fmt"
)

// Entry is a Proof-of-History entry: NumHashes sha256 iterations since the
// previous entry, the last of which mixes in Transactions (if any).
type Entry struct {
	NumHashes    uint64   `json:"numHashes"`
	Hash         Hash     `json:"hash"`
	Transactions [][]byte `json:"transactions"` // serialized transactions
}

// IsTick reports whether the entry carries no transactions.
func (e Entry) IsTick() bool {
	return len(e.Transactions) == 0
}

// BlockHeader is the per-slot metadata returned by getBlockHeaders. It
// carries everything needed to recompute the slot's bank hash.
type BlockHeader struct {
	Slot              Slot     `json:"slot"`
	ParentSlot        Slot     `json:"parentSlot"`
	BankHash          BankHash `json:"bankHash"`
	ParentBankHash    BankHash `json:"parentBankHash"`
	AccountsDeltaHash Hash     `json:"accountsDeltaHash"`
	SignatureCount    uint64   `json:"signatureCount"`
	// Blockhash is the hash of the last entry of the slot.
	Blockhash Hash `json:"blockhash"`
	// StartBlockhash is the last entry hash of the parent slot.
	StartBlockhash Hash    `json:"startBlockhash"`
	Entries        []Entry `json:"entries,omitempty"`
}

// ValidateBasic performs stateless sanity checks.
func (h *BlockHeader) ValidateBasic() error {
	if h == nil {
		return errors.New("nil header")
	}
	if h.BankHash.IsZero() {
		return fmt.Errorf("header for slot %d has an empty bank hash", h.Slot)
	}
	if h.Slot > 0 && h.ParentSlot >= h.Slot {
		return fmt.Errorf("parent slot %d must be lower than slot %d", h.ParentSlot, h.Slot)
	}
	for i, e := range h.Entries {
		if e.NumHashes == 0 {
			return fmt.Errorf("entry #%d has zero hashes", i)
		}
	}
	return nil
}

// HasEntries reports whether the node shipped the PoH entries of the slot.
func (h *BlockHeader) HasEntries() bool {
	return len(h.Entries) > 0
}

// Block is the full content of a slot as returned by getBlock.
type Block struct {
	Slot              Slot     `json:"slot"`
	ParentSlot        Slot     `json:"parentSlot"`
	Blockhash         Hash     `json:"blockhash"`
	PreviousBlockhash Hash     `json:"previousBlockhash"`
	Transactions      [][]byte `json:"transactions"`
}

// Transaction is a signed transaction identified by its first signature. Raw
// is its canonical wire serialization, which is what inclusion proofs commit
// to.
type Transaction struct {
	Signature Signature `json:"signature"`
	Slot      Slot      `json:"slot"`
	Raw       []byte    `json:"raw"`
}

// ValidateBasic performs stateless sanity checks.
func (tx Transaction) ValidateBasic() error {
	if tx.Signature.IsZero() {
		return errors.New("transaction has no signature")
	}
	if len(tx.Raw) == 0 {
		return fmt.Errorf("transaction %v has no bytes", tx.Signature)
	}
	return nil
}
