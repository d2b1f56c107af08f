package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotSkipped is returned when no block was produced at the requested
	// slot. The client treats such a slot as scanned and empty.
	ErrSlotSkipped = errors.New("slot was skipped")
	// ErrBlockNotFound is returned when the provider does not have the block
	// (pruned or not produced yet).
	ErrBlockNotFound = errors.New("block not found")
	// ErrTransactionNotFound is returned when the provider has not seen the
	// transaction.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrNoResponse is returned if the provider doesn't respond to the
	// request in a given time
	ErrNoResponse = errors.New("client failed to respond")
)

// ErrBadResponse is returned when a provider answers with something that
// cannot be parsed or fails basic validation.
type ErrBadResponse struct {
	Reason error
}

func (e ErrBadResponse) Error() string {
	return fmt.Sprintf("client provided bad response: %s", e.Reason.Error())
}

func (e ErrBadResponse) Unwrap() error { return e.Reason }

// IsNotFound reports whether err means the data is absent rather than the
// provider being faulty.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSlotSkipped) ||
		errors.Is(err, ErrBlockNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}
