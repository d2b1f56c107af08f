package types

import (
	"fmt"
)

// VoteAccount is one entry of getVoteAccounts: a vote account, the validator
// identity that operates it and its activated stake.
type VoteAccount struct {
	VotePubkey     PubKey `json:"votePubkey"`
	NodePubkey     PubKey `json:"nodePubkey"`
	ActivatedStake uint64 `json:"activatedStake"`
	Delinquent     bool   `json:"delinquent"`
}

// VoteRecord is a single logical vote: validator Voter asserts that BankHash
// is the bank hash of Slot. ObservedIn is the slot of the block that carried
// the vote transaction.
type VoteRecord struct {
	Voter       PubKey    `json:"voter"`
	VoteAccount PubKey    `json:"voteAccount"`
	Slot        Slot      `json:"slot"`
	BankHash    BankHash  `json:"bankHash"`
	Signature   Signature `json:"signature"`
	ObservedIn  Slot      `json:"observedIn"`
}

func (v VoteRecord) String() string {
	return fmt.Sprintf("Vote{%v slot:%d hash:%v in:%d}", v.Voter, v.Slot, v.BankHash, v.ObservedIn)
}
