package vote

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	lvmath "github.com/lightvote/lightvote/libs/math"
	"github.com/lightvote/lightvote/stake"
	"github.com/lightvote/lightvote/types"
)

// DefaultThreshold is the stake fraction a bank hash needs to be considered
// final.
var DefaultThreshold = lvmath.MustParseFraction("2/3")

// ValidateThreshold checks that threshold lies in (1/2, 1]. Anything at or
// below a half would let two conflicting bank hashes finalize.
func ValidateThreshold(threshold lvmath.Fraction) error {
	if threshold.Denominator == 0 {
		return errors.New("threshold denominator must not be zero")
	}
	if threshold.Numerator > threshold.Denominator {
		return fmt.Errorf("threshold must be at most 1, got %v", threshold)
	}
	// num/den > 1/2 <=> 2*num > den, computed without overflow
	lhs := new(uint256.Int).Mul(uint256.NewInt(threshold.Numerator), uint256.NewInt(2))
	if !lhs.Gt(uint256.NewInt(threshold.Denominator)) {
		return fmt.Errorf("threshold must be greater than 1/2, got %v", threshold)
	}
	return nil
}

type hashTally struct {
	voters map[types.PubKey]struct{}
	stake  uint64
}

// Tally accumulates stake behind bank hashes. A validator contributes its
// weight at most once per bank hash. Tally is safe for concurrent use but is
// meant to live for a single verification run.
type Tally struct {
	ledger    *stake.Ledger
	threshold lvmath.Fraction

	mtx    sync.Mutex
	hashes map[types.BankHash]*hashTally
}

// NewTally returns an empty tally weighed by ledger.
func NewTally(ledger *stake.Ledger, threshold lvmath.Fraction) (*Tally, error) {
	if ledger == nil {
		return nil, errors.New("nil stake ledger")
	}
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	return &Tally{
		ledger:    ledger,
		threshold: threshold,
		hashes:    make(map[types.BankHash]*hashTally),
	}, nil
}

// RecordVote adds v to the tally. It returns true if this is the first vote
// of v.Voter for v.BankHash. Repeated votes are no-ops. Voters unknown to the
// ledger are recorded with zero weight.
func (t *Tally) RecordVote(v types.VoteRecord) bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	ht, ok := t.hashes[v.BankHash]
	if !ok {
		ht = &hashTally{voters: make(map[types.PubKey]struct{})}
		t.hashes[v.BankHash] = ht
	}
	if _, seen := ht.voters[v.Voter]; seen {
		return false
	}
	ht.voters[v.Voter] = struct{}{}
	// each voter is counted once, so the sum is bounded by the ledger total
	ht.stake += t.ledger.WeightOf(v.Voter)
	return true
}

// AccumulatedStake returns the stake of the distinct validators that voted
// for hash.
func (t *Tally) AccumulatedStake(hash types.BankHash) uint64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if ht, ok := t.hashes[hash]; ok {
		return ht.stake
	}
	return 0
}

// Voters returns the number of distinct validators that voted for hash.
func (t *Tally) Voters(hash types.BankHash) int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if ht, ok := t.hashes[hash]; ok {
		return len(ht.voters)
	}
	return 0
}

// Fraction returns accumulated and total stake for hash.
func (t *Tally) Fraction(hash types.BankHash) (uint64, uint64) {
	return t.AccumulatedStake(hash), t.ledger.TotalStake()
}

// IsFinalized reports whether accumulated * den >= total * num for hash.
func (t *Tally) IsFinalized(hash types.BankHash) bool {
	acc, total := t.Fraction(hash)
	lhs := new(uint256.Int).Mul(uint256.NewInt(acc), uint256.NewInt(t.threshold.Denominator))
	rhs := new(uint256.Int).Mul(uint256.NewInt(total), uint256.NewInt(t.threshold.Numerator))
	return !lhs.Lt(rhs)
}
