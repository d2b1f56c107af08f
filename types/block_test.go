package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockHeaderValidateBasic(t *testing.T) {
	testCases := []struct {
		name      string
		malleate  func(h *BlockHeader)
		expectErr bool
	}{
		{"valid", func(h *BlockHeader) {}, false},
		{"empty bank hash", func(h *BlockHeader) { h.BankHash = Hash{} }, true},
		{"parent not lower", func(h *BlockHeader) { h.ParentSlot = h.Slot }, true},
		{"zero hash entry", func(h *BlockHeader) { h.Entries = []Entry{{NumHashes: 0}} }, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h := &BlockHeader{Slot: 10, ParentSlot: 9, BankHash: Hash{0xAA}}
			tc.malleate(h)
			if tc.expectErr {
				assert.Error(t, h.ValidateBasic())
			} else {
				assert.NoError(t, h.ValidateBasic())
			}
		})
	}

	var nilHeader *BlockHeader
	assert.Error(t, nilHeader.ValidateBasic())
}

func TestInclusionProofValidateBasic(t *testing.T) {
	good := ProofStep{Sibling: make([]byte, HashSize)}

	assert.Error(t, (*InclusionProof)(nil).ValidateBasic())
	assert.Error(t, (&InclusionProof{}).ValidateBasic())
	assert.NoError(t, (&InclusionProof{Steps: []ProofStep{good}}).ValidateBasic())
	assert.Error(t, (&InclusionProof{Steps: []ProofStep{good, {Sibling: []byte{1}}}}).ValidateBasic())

	deep := make([]ProofStep, MaxProofSteps+1)
	for i := range deep {
		deep[i] = good
	}
	assert.Error(t, (&InclusionProof{Steps: deep}).ValidateBasic())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusStarted.IsTerminal())
	assert.False(t, StatusVoteScanning.IsTerminal())
	assert.True(t, StatusInclusionDenied.IsTerminal())
	assert.True(t, StatusFinalized.IsTerminal())
	assert.True(t, StatusTimedOut.IsTerminal())
	assert.Equal(t, "timed_out", StatusTimedOut.String())
}

func TestStatusText(t *testing.T) {
	for s := StatusStarted; s <= StatusTimedOut; s++ {
		text, err := s.MarshalText()
		assert.NoError(t, err)
		var parsed Status
		assert.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, s, parsed)
	}
	var s Status
	assert.Error(t, s.UnmarshalText([]byte("done")))
}

func TestVerificationResultJSONSignature(t *testing.T) {
	scan := &VerificationResult{Slot: 3, Status: StatusTimedOut}
	bz, err := json.Marshal(scan)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(bz, &fields))
	assert.NotContains(t, fields, "signature")

	sig := Signature{7}
	verified := &VerificationResult{Slot: 3, Signature: &sig, Status: StatusFinalized}
	bz, err = json.Marshal(verified)
	require.NoError(t, err)
	var decoded VerificationResult
	require.NoError(t, json.Unmarshal(bz, &decoded))
	require.NotNil(t, decoded.Signature)
	assert.Equal(t, sig, *decoded.Signature)
}
