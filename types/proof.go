package types

import (
	"errors"
	"fmt"

	"github.com/lightvote/lightvote/crypto/merkle"
)

// MaxProofSteps bounds the depth of an inclusion proof. A balanced tree of
// 2^64 leaves needs 64 steps; anything deeper is malformed.
const MaxProofSteps = 64

// ProofStep is one level of an inclusion proof.
type ProofStep = merkle.ProofStep

// InclusionProof asserts that a transaction folds into BankHash. It comes from
// an untrusted node.
type InclusionProof struct {
	Slot     Slot        `json:"slot"`
	BankHash BankHash    `json:"bankHash"`
	Steps    []ProofStep `json:"steps"`
}

// ValidateBasic checks the shape of the proof without hashing anything.
func (p *InclusionProof) ValidateBasic() error {
	if p == nil {
		return errors.New("nil proof")
	}
	if len(p.Steps) == 0 {
		return errors.New("proof has no steps")
	}
	if len(p.Steps) > MaxProofSteps {
		return fmt.Errorf("proof has %d steps, max %d", len(p.Steps), MaxProofSteps)
	}
	for i, s := range p.Steps {
		if len(s.Sibling) != HashSize {
			return fmt.Errorf("step #%d: expected %d byte sibling, got %d", i, HashSize, len(s.Sibling))
		}
	}
	return nil
}
