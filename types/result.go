package types

import (
	"fmt"
)

// Status is the state of a single verification run.
//
//	Started -> InclusionDenied
//	Started -> VoteScanning -> Finalized | TimedOut
type Status uint8

const (
	StatusStarted Status = iota
	StatusInclusionDenied
	StatusVoteScanning
	StatusFinalized
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusInclusionDenied:
		return "inclusion_denied"
	case StatusVoteScanning:
		return "vote_scanning"
	case StatusFinalized:
		return "finalized"
	case StatusTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for st := StatusStarted; st <= StatusTimedOut; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusInclusionDenied || s == StatusFinalized || s == StatusTimedOut
}

// VerificationResult is the outcome of a verification run. It is only
// produced for runs that completed; I/O failures and fork signals are
// reported as errors instead.
type VerificationResult struct {
	Slot      Slot       `json:"slot"`
	BankHash  BankHash   `json:"bankHash"`
	Signature *Signature `json:"signature,omitempty"` // nil for a bare vote scan
	Status    Status     `json:"status"`

	InclusionConfirmed bool `json:"inclusionConfirmed"`
	FinalityConfirmed  bool `json:"finalityConfirmed"`

	AccumulatedStake uint64 `json:"accumulatedStake"`
	TotalStake       uint64 `json:"totalStake"`
	SlotsScanned     int    `json:"slotsScanned"`
	Votes            int    `json:"votes"`
	Voters           int    `json:"voters"`
	DecodeWarnings   int    `json:"decodeWarnings"`

	// Reason explains a denied inclusion.
	Reason string `json:"reason,omitempty"`
}

// StakeFraction returns accumulated/total stake. It is for display only;
// finality decisions are made with integer arithmetic.
func (r *VerificationResult) StakeFraction() float64 {
	if r.TotalStake == 0 {
		return 0
	}
	return float64(r.AccumulatedStake) / float64(r.TotalStake)
}

func (r *VerificationResult) String() string {
	return fmt.Sprintf("VerificationResult{slot:%d hash:%v status:%v stake:%d/%d scanned:%d}",
		r.Slot, r.BankHash, r.Status, r.AccumulatedStake, r.TotalStake, r.SlotsScanned)
}
