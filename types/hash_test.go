package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBase58(t *testing.T) {
	var h Hash
	for i := range h {
		h[i] = byte(i)
	}

	parsed, err := HashFromBase58(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	testCases := map[string]string{
		"empty":         "",
		"invalid chars": "0OIl",
		"too short":     "3yZe7d",
	}
	for name, s := range testCases {
		s := s
		t.Run(name, func(t *testing.T) {
			_, err := HashFromBase58(s)
			assert.Error(t, err)
		})
	}
}

func TestHashJSON(t *testing.T) {
	h := Hash{1, 2, 3}
	bz, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `"`+h.String()+`"`, string(bz))

	var h2 Hash
	require.NoError(t, json.Unmarshal(bz, &h2))
	assert.Equal(t, h, h2)

	assert.Error(t, json.Unmarshal([]byte(`12`), &h2))
}

func TestVoteProgramIDParses(t *testing.T) {
	pk, err := PubKeyFromBase58("Vote111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, "Vote111111111111111111111111111111111111111", pk.String())

	_, err = SignatureFromBase58(pk.String())
	assert.Error(t, err, "a public key is not a signature")
}
