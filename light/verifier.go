package light

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/lightvote/lightvote/crypto/merkle"
	"github.com/lightvote/lightvote/poh"
	"github.com/lightvote/lightvote/types"
)

// VerifyInclusion reports whether proof shows that tx was folded into the
// bank hash claimed. It performs no I/O.
func VerifyInclusion(tx types.Transaction, proof *types.InclusionProof, claimed types.BankHash) bool {
	return VerifyInclusionWithReason(tx, proof, claimed) == nil
}

// VerifyInclusionWithReason is VerifyInclusion returning why the proof was
// rejected. The error is always ErrInvalidProof.
//
// The running digest starts at the leaf hash of the raw transaction; every
// step hashes the sibling on its recorded side. The result must equal claimed
// byte for byte.
func VerifyInclusionWithReason(tx types.Transaction, proof *types.InclusionProof, claimed types.BankHash) error {
	if len(tx.Raw) == 0 {
		return ErrInvalidProof{errors.New("transaction has no bytes")}
	}
	if err := proof.ValidateBasic(); err != nil {
		return ErrInvalidProof{err}
	}
	if tx.Slot != 0 && proof.Slot != 0 && tx.Slot != proof.Slot {
		return ErrInvalidProof{fmt.Errorf("proof is for slot %d, transaction landed in %d", proof.Slot, tx.Slot)}
	}
	if !proof.BankHash.IsZero() && proof.BankHash != claimed {
		return ErrInvalidProof{fmt.Errorf("proof commits to %v, claimed %v", proof.BankHash, claimed)}
	}

	root, err := merkle.ComputeRoot(merkle.LeafHash(tx.Raw), proof.Steps)
	if err != nil {
		return ErrInvalidProof{err}
	}
	if !bytes.Equal(root, claimed.Bytes()) {
		return ErrInvalidProof{fmt.Errorf("proof folds into %X, expected %v", root, claimed)}
	}
	return nil
}

// VerifyHeader checks that h is internally consistent:
//
//	a) it passes ValidateBasic
//	b) its PoH entries chain from StartBlockhash to Blockhash
//	c) sig (if not zero) is the first signature of one of its transactions
//	d) BankHash is the merkle root of its fields and transactions
//
// A header shipped without entries only needs a blockhash, since there is
// nothing to recompute. Any failure is reported as ErrInvalidHeader.
func VerifyHeader(h *types.BlockHeader, sig types.Signature) error {
	if err := h.ValidateBasic(); err != nil {
		return ErrInvalidHeader{err}
	}

	if !h.HasEntries() {
		if h.Blockhash.IsZero() {
			return ErrInvalidHeader{fmt.Errorf("header for slot %d has no blockhash", h.Slot)}
		}
		return nil
	}

	if err := poh.VerifyEntries(h.StartBlockhash, h.Entries); err != nil {
		return ErrInvalidHeader{err}
	}
	if last := h.Entries[len(h.Entries)-1].Hash; last != h.Blockhash {
		return ErrInvalidHeader{fmt.Errorf("last entry hash %v does not match blockhash %v", last, h.Blockhash)}
	}
	if !sig.IsZero() && !poh.EntriesContainSignature(h.Entries, sig) {
		return ErrInvalidHeader{fmt.Errorf("transaction %v is not in the entries of slot %d", sig, h.Slot)}
	}
	if computed := h.ComputeBankHash(); computed != h.BankHash {
		return ErrInvalidHeader{fmt.Errorf("recomputed bank hash %v does not match %v", computed, h.BankHash)}
	}
	return nil
}
