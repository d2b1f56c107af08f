// Package poh verifies Proof-of-History entry chains.
package poh

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/lightvote/lightvote/crypto/merkle"
	"github.com/lightvote/lightvote/types"
)

// HashTransactions returns the mix-in recorded for an entry: the pairwise
// merkle root of every signature of every transaction, in order. Entries
// without signatures mix in the zero hash.
func HashTransactions(txs [][]byte) (types.Hash, error) {
	var leaves [][]byte
	for i, tx := range txs {
		sigs, err := types.Signatures(tx)
		if err != nil {
			return types.Hash{}, fmt.Errorf("tx #%d: %w", i, err)
		}
		for j := range sigs {
			leaves = append(leaves, sigs[j].Bytes())
		}
	}
	var h types.Hash
	copy(h[:], merkle.HashPairwise(leaves))
	return h, nil
}

// NextHash computes the hash of an entry that follows prev after numHashes
// iterations. The last iteration is a tick when txs is empty and a record of
// the transactions mix-in otherwise.
func NextHash(prev types.Hash, numHashes uint64, txs [][]byte) (types.Hash, error) {
	if numHashes == 0 && len(txs) == 0 {
		return prev, nil
	}

	cur := prev
	for n := uint64(1); n < numHashes; n++ {
		cur = sha256.Sum256(cur[:])
	}

	if len(txs) == 0 {
		return sha256.Sum256(cur[:]), nil
	}

	mixin, err := HashTransactions(txs)
	if err != nil {
		return types.Hash{}, err
	}
	return sha256.Sum256(append(cur[:], mixin[:]...)), nil
}

// VerifyEntries checks that entries form an unbroken PoH chain starting at
// start.
func VerifyEntries(start types.Hash, entries []types.Entry) error {
	if len(entries) == 0 {
		return errors.New("no entries")
	}

	cur := start
	for i, e := range entries {
		next, err := NextHash(cur, e.NumHashes, e.Transactions)
		if err != nil {
			return fmt.Errorf("entry #%d: %w", i, err)
		}
		if next != e.Hash {
			return fmt.Errorf("PoH mismatch at entry #%d: expected %v, got %v", i, e.Hash, next)
		}
		cur = next
	}
	return nil
}

// EntriesContainSignature reports whether any transaction in entries is
// identified by sig.
func EntriesContainSignature(entries []types.Entry, sig types.Signature) bool {
	for _, e := range entries {
		for _, tx := range e.Transactions {
			first, err := types.FirstSignature(tx)
			if err == nil && first == sig {
				return true
			}
		}
	}
	return false
}

// GenerateEntries builds a valid entry chain from start. Each element of
// batches becomes one entry; empty batches become ticks.
func GenerateEntries(start types.Hash, hashesPerEntry uint64, batches [][][]byte) ([]types.Entry, error) {
	if hashesPerEntry == 0 {
		return nil, errors.New("hashesPerEntry must be positive")
	}
	entries := make([]types.Entry, 0, len(batches))
	cur := start
	for _, txs := range batches {
		next, err := NextHash(cur, hashesPerEntry, txs)
		if err != nil {
			return nil, err
		}
		entries = append(entries, types.Entry{NumHashes: hashesPerEntry, Hash: next, Transactions: txs})
		cur = next
	}
	return entries, nil
}
