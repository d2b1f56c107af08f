package vote

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightvote/lightvote/types"
)

type testValidator struct {
	identity    solana.PrivateKey
	voteAccount solana.PublicKey
}

func newTestValidator(t *testing.T) testValidator {
	t.Helper()
	identity, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	voteKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return testValidator{identity: identity, voteAccount: voteKey.PublicKey()}
}

func (v testValidator) pubKey() types.PubKey {
	return types.PubKey(v.identity.PublicKey())
}

func (v testValidator) vote(t *testing.T, tag uint32, slot types.Slot, hash types.BankHash) []byte {
	t.Helper()
	raw, err := NewTransaction(v.identity, v.voteAccount, tag, slot, hash, testHash(0xbb))
	require.NoError(t, err)
	return raw
}

func transferTx(t *testing.T) []byte {
	t.Helper()
	from, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	to, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1000, from.PublicKey(), to.PublicKey()).Build()},
		solana.Hash(testHash(0xcc)),
		solana.TransactionPayer(from.PublicKey()),
	)
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from
		}
		return nil
	})
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestExtractVotes(t *testing.T) {
	hash := testHash(1)
	v1, v2 := newTestValidator(t), newTestValidator(t)

	block := &types.Block{
		Slot: 11,
		Transactions: [][]byte{
			transferTx(t),
			v1.vote(t, InstructionTowerSync, 10, hash),
			[]byte("garbage"),
			v2.vote(t, InstructionVote, 10, hash),
		},
	}

	records, warnings := NewDecoder().ExtractVotes(block)
	require.Empty(t, warnings)
	require.Len(t, records, 2)

	assert.Equal(t, v1.pubKey(), records[0].Voter)
	assert.Equal(t, types.PubKey(v1.voteAccount), records[0].VoteAccount)
	assert.EqualValues(t, 10, records[0].Slot)
	assert.Equal(t, hash, records[0].BankHash)
	assert.EqualValues(t, 11, records[0].ObservedIn)
	assert.False(t, records[0].Signature.IsZero())

	assert.Equal(t, v2.pubKey(), records[1].Voter)
}

func TestExtractVotesTruncatedVote(t *testing.T) {
	hash := testHash(2)
	good, bad := newTestValidator(t), newTestValidator(t)

	data, err := EncodeInstruction(InstructionCompactUpdateVoteState, 20, hash)
	require.NoError(t, err)
	truncated, err := NewTransactionWithData(bad.identity, bad.voteAccount, data[:len(data)-5], testHash(0xbb))
	require.NoError(t, err)

	block := &types.Block{
		Slot: 21,
		Transactions: [][]byte{
			good.vote(t, InstructionCompactUpdateVoteState, 20, hash),
			truncated,
		},
	}

	records, warnings := NewDecoder().ExtractVotes(block)
	require.Len(t, records, 1)
	require.Len(t, warnings, 1)
	assert.Equal(t, good.pubKey(), records[0].Voter)
	assert.Equal(t, 1, warnings[0].TxIndex)
	assert.EqualValues(t, 21, warnings[0].Slot)
	assert.Contains(t, warnings[0].Error(), "CompactUpdateVoteState")
}

func TestExtractVotesBadSignature(t *testing.T) {
	hash := testHash(3)
	v := newTestValidator(t)
	raw := v.vote(t, InstructionVote, 30, hash)
	// corrupt the first signature byte, the message is untouched
	raw[1] ^= 0xff

	block := &types.Block{Slot: 31, Transactions: [][]byte{raw}}

	records, warnings := NewDecoder().ExtractVotes(block)
	assert.Empty(t, records)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Reason, "signature")

	records, warnings = NewDecoder(WithSignatureVerification(false)).ExtractVotes(block)
	assert.Len(t, records, 1)
	assert.Empty(t, warnings)
}

func TestExtractVotesDeterministic(t *testing.T) {
	hash := testHash(4)
	var txs [][]byte
	for i := 0; i < 8; i++ {
		txs = append(txs, newTestValidator(t).vote(t, allVoteTags[i%len(allVoteTags)], 40, hash))
	}
	block := &types.Block{Slot: 41, Transactions: txs}

	d := NewDecoder()
	first, _ := d.ExtractVotes(block)
	second, _ := d.ExtractVotes(block)
	require.Len(t, first, 8)
	assert.Equal(t, first, second)
}

func TestIterateStops(t *testing.T) {
	hash := testHash(5)
	block := &types.Block{Slot: 51, Transactions: [][]byte{
		newTestValidator(t).vote(t, InstructionVote, 50, hash),
		newTestValidator(t).vote(t, InstructionVote, 50, hash),
	}}

	seen := 0
	NewDecoder().Iterate(block, func(types.VoteRecord) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)
}

func TestExtractVotesEmpty(t *testing.T) {
	records, warnings := NewDecoder().ExtractVotes(nil)
	assert.Empty(t, records)
	assert.Empty(t, warnings)

	records, warnings = NewDecoder().ExtractVotes(&types.Block{Slot: 1})
	assert.Empty(t, records)
	assert.Empty(t, warnings)
}
