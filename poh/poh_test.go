package poh_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightvote/lightvote/poh"
	"github.com/lightvote/lightvote/types"
)

// fakeTx returns a serialized transaction with one signature per byte of
// sigs, each filled with that byte.
func fakeTx(sigs ...byte) []byte {
	tx := []byte{byte(len(sigs))}
	for _, b := range sigs {
		for i := 0; i < types.SignatureSize; i++ {
			tx = append(tx, b)
		}
	}
	return append(tx, 0xde, 0xad)
}

func TestNextHashTick(t *testing.T) {
	start := types.Hash{7}
	got, err := poh.NextHash(start, 2, nil)
	require.NoError(t, err)

	first := sha256.Sum256(start[:])
	assert.Equal(t, types.Hash(sha256.Sum256(first[:])), got)

	same, err := poh.NextHash(start, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, start, same)
}

func TestVerifyEntries(t *testing.T) {
	start := types.Hash{1}
	entries, err := poh.GenerateEntries(start, 4, [][][]byte{
		nil,
		{fakeTx(1), fakeTx(2)},
		nil,
		{fakeTx(3)},
	})
	require.NoError(t, err)
	require.NoError(t, poh.VerifyEntries(start, entries))

	assert.Error(t, poh.VerifyEntries(types.Hash{2}, entries), "wrong start hash")
	assert.Error(t, poh.VerifyEntries(start, nil))

	tampered := append([]types.Entry(nil), entries...)
	tampered[1].Transactions = [][]byte{fakeTx(1), fakeTx(9)}
	assert.Error(t, poh.VerifyEntries(start, tampered))

	tampered = append([]types.Entry(nil), entries...)
	tampered[2].NumHashes++
	assert.Error(t, poh.VerifyEntries(start, tampered))
}

func TestEntriesContainSignature(t *testing.T) {
	entries, err := poh.GenerateEntries(types.Hash{}, 1, [][][]byte{{fakeTx(5)}})
	require.NoError(t, err)

	var sig types.Signature
	for i := range sig {
		sig[i] = 5
	}
	assert.True(t, poh.EntriesContainSignature(entries, sig))
	sig[0] = 6
	assert.False(t, poh.EntriesContainSignature(entries, sig))
}

func TestHashTransactionsRejectsUnsigned(t *testing.T) {
	_, err := poh.HashTransactions([][]byte{{0}})
	assert.Error(t, err)
}

func TestHashTransactionsKnownAnswers(t *testing.T) {
	testCases := map[string]struct {
		txs  [][]byte
		want string
	}{
		"one signature": {
			[][]byte{fakeTx(1)},
			"931f38af772ca6a076ad98c475dd6cd41bb81457d70189f1844b8fab837706af",
		},
		"multisig tx": {
			[][]byte{fakeTx(1, 2)},
			"d76f40c824581a363abac4eb497e23ca29b35eecae6730924bd9d3c07cde89cb",
		},
		// three leaves, the last one paired with itself
		"signatures across txs": {
			[][]byte{fakeTx(1), fakeTx(2, 3)},
			"10fae83417eb28b3d67e59a4f3fd66cc68d34aad67724d5b9e7d6d4e0f241965",
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			got, err := poh.HashTransactions(tc.txs)
			require.NoError(t, err)
			assert.Equal(t, tc.want, hex.EncodeToString(got[:]))
		})
	}

	empty, err := poh.HashTransactions(nil)
	require.NoError(t, err)
	assert.Equal(t, types.Hash{}, empty)
}

func TestNextHashRecordKnownAnswer(t *testing.T) {
	got, err := poh.NextHash(types.Hash{7}, 3, [][]byte{fakeTx(1, 2)})
	require.NoError(t, err)
	assert.Equal(t, "832dfbf553f051686418f369b4101b60722cf732628b982dd50cf11658be2174", hex.EncodeToString(got[:]))

	// the second signature is part of the mix-in
	other, err := poh.NextHash(types.Hash{7}, 3, [][]byte{fakeTx(1)})
	require.NoError(t, err)
	assert.NotEqual(t, got, other)
}
