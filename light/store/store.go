package store

import (
	"errors"
	"fmt"

	"github.com/lightvote/lightvote/types"
)

// ErrHeaderNotFound is returned when no header is recorded for a slot.
var ErrHeaderNotFound = errors.New("header not found")

// ErrStoreFull is returned when saving a header would overflow Size.
var ErrStoreFull = errors.New("header store is full")

// ErrConflictingBankHash is returned when a slot is recorded with a bank hash
// different from the one already stored for it.
type ErrConflictingBankHash struct {
	Slot     types.Slot
	Stored   types.BankHash
	Received types.BankHash
}

func (e ErrConflictingBankHash) Error() string {
	return fmt.Sprintf("slot %d already recorded with bank hash %v, got %v", e.Slot, e.Stored, e.Received)
}

// Store is the registry of headers observed during a session. It guarantees
// that one slot never maps to two bank hashes.
type Store interface {
	// SaveHeader records h. Saving the same bank hash twice is a no-op;
	// saving a different one for an already recorded slot returns
	// ErrConflictingBankHash and leaves the store untouched. A store holding
	// math.MaxUint16 headers returns ErrStoreFull until it is pruned.
	SaveHeader(h *types.BlockHeader) error

	// BlockHeader returns the header recorded for slot.
	//
	// If the slot is not recorded, ErrHeaderNotFound is returned.
	BlockHeader(slot types.Slot) (*types.BlockHeader, error)

	// LastSlot returns the newest recorded slot. ok is false if the store is
	// empty.
	LastSlot() (slot types.Slot, ok bool, err error)

	// FirstSlot returns the oldest recorded slot. ok is false if the store is
	// empty.
	FirstSlot() (slot types.Slot, ok bool, err error)

	// Prune removes the oldest headers until at most size remain.
	Prune(size uint16) error

	// Size returns the number of recorded headers.
	Size() uint16
}
