package light

import (
	"errors"
	"fmt"

	"github.com/lightvote/lightvote/light/provider"
	"github.com/lightvote/lightvote/types"
)

// ErrFailedHeaderCrossReferencing is returned when the detector was unable to
// cross reference the header with any of the connected witnesses.
var ErrFailedHeaderCrossReferencing = errors.New("all witnesses have either not responded, don't have the " +
	"header or sent invalid headers. Unable to cross reference the header")

// ErrInvalidHeader means the header failed basic validation, its PoH entries
// do not chain or its bank hash cannot be recomputed from its fields.
type ErrInvalidHeader struct {
	Reason error
}

func (e ErrInvalidHeader) Error() string {
	return fmt.Sprintf("invalid header: %v", e.Reason)
}

func (e ErrInvalidHeader) Unwrap() error { return e.Reason }

// ErrInvalidProof means an inclusion proof does not fold into the claimed
// bank hash.
type ErrInvalidProof struct {
	Reason error
}

func (e ErrInvalidProof) Error() string {
	return fmt.Sprintf("invalid inclusion proof: %v", e.Reason)
}

func (e ErrInvalidProof) Unwrap() error { return e.Reason }

// ErrConflictingHeaders is returned when two different headers are observed
// for the same slot within one run. Witness is nil when the conflict was
// found against a header recorded earlier in the run.
type ErrConflictingHeaders struct {
	Slot types.Slot

	H1      types.BankHash
	Primary provider.Provider

	H2      types.BankHash
	Witness provider.Provider
}

func (e ErrConflictingHeaders) Error() string {
	if e.Witness == nil {
		return fmt.Sprintf("slot %d: bank hash %v from primary %v does not match previously recorded %v",
			e.Slot, e.H1, e.Primary, e.H2)
	}
	return fmt.Sprintf("slot %d: bank hash %v from primary %v does not match %v from witness %v",
		e.Slot, e.H1, e.Primary, e.H2, e.Witness)
}

// ErrRPC is returned when a provider call failed after the provider's own
// retries were exhausted. It aborts the run and is distinct from a negative
// verification result.
type ErrRPC struct {
	Method   string
	Provider provider.Provider
	Reason   error
}

func (e ErrRPC) Error() string {
	return fmt.Sprintf("%s from %v failed: %v", e.Method, e.Provider, e.Reason)
}

// Unwrap returns underlying reason.
func (e ErrRPC) Unwrap() error { return e.Reason }

// errConflictingHeaders is returned by a witness comparison when the witness
// holds a different bank hash for the slot.
type errConflictingHeaders struct {
	Header       *types.BlockHeader
	WitnessIndex int
}

func (e errConflictingHeaders) Error() string {
	return fmt.Sprintf("header with bank hash %v from witness %d conflicts with primary",
		e.Header.BankHash, e.WitnessIndex)
}

type badWitnessCode int

const (
	noResponse badWitnessCode = iota + 1
	invalidHeader
)

// errBadWitness is returned when the witness either does not respond or
// responds with an invalid header.
type errBadWitness struct {
	Reason       error
	Code         badWitnessCode
	WitnessIndex int
}

func (e errBadWitness) Error() string {
	switch e.Code {
	case noResponse:
		return fmt.Sprintf("failed to get a header from witness: %v", e.Reason)
	case invalidHeader:
		return fmt.Sprintf("witness sent us an invalid header: %v", e.Reason)
	default:
		return fmt.Sprintf("unknown code: %d", e.Code)
	}
}
