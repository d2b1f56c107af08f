// Package stake holds the stake snapshot used to weigh validator votes.
package stake

import (
	"errors"
	"fmt"

	lvmath "github.com/lightvote/lightvote/libs/math"
	"github.com/lightvote/lightvote/types"
)

// ErrEmptyLedger is returned when a snapshot carries no stake at all. Such a
// ledger can never finalize anything, so it is rejected up front.
var ErrEmptyLedger = errors.New("stake ledger has zero total stake")

// Ledger maps validator identities to their activated stake at a reference
// slot. It is immutable once built and safe for concurrent reads.
type Ledger struct {
	referenceSlot types.Slot
	stakes        map[types.PubKey]uint64
	total         uint64
}

// NewLedger copies stakes into a new Ledger. Validators with zero stake are
// kept: they are known but carry no weight.
func NewLedger(referenceSlot types.Slot, stakes map[types.PubKey]uint64) (*Ledger, error) {
	l := &Ledger{
		referenceSlot: referenceSlot,
		stakes:        make(map[types.PubKey]uint64, len(stakes)),
	}
	for pk, s := range stakes {
		total, err := lvmath.SafeAddUint64(l.total, s)
		if err != nil {
			return nil, fmt.Errorf("total stake: %w", err)
		}
		l.total = total
		l.stakes[pk] = s
	}
	if l.total == 0 {
		return nil, ErrEmptyLedger
	}
	return l, nil
}

// FromVoteAccounts builds a Ledger from getVoteAccounts output. Current and
// delinquent accounts both count. A validator operating several vote
// accounts gets the sum of their stake, keyed by its node identity.
func FromVoteAccounts(referenceSlot types.Slot, accounts []types.VoteAccount) (*Ledger, error) {
	stakes := make(map[types.PubKey]uint64, len(accounts))
	for _, a := range accounts {
		sum, err := lvmath.SafeAddUint64(stakes[a.NodePubkey], a.ActivatedStake)
		if err != nil {
			return nil, fmt.Errorf("stake of %v: %w", a.NodePubkey, err)
		}
		stakes[a.NodePubkey] = sum
	}
	return NewLedger(referenceSlot, stakes)
}

// WeightOf returns the stake of pk, or 0 if it is unknown.
func (l *Ledger) WeightOf(pk types.PubKey) uint64 {
	return l.stakes[pk]
}

// Has reports whether pk is part of the snapshot.
func (l *Ledger) Has(pk types.PubKey) bool {
	_, ok := l.stakes[pk]
	return ok
}

func (l *Ledger) TotalStake() uint64 { return l.total }

func (l *Ledger) ReferenceSlot() types.Slot { return l.referenceSlot }

func (l *Ledger) Size() int { return len(l.stakes) }

func (l *Ledger) String() string {
	return fmt.Sprintf("Ledger{slot:%d validators:%d total:%d}", l.referenceSlot, len(l.stakes), l.total)
}
