package merkle

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func filled(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestHashPairwise(t *testing.T) {
	s1, s2, s3 := filled(1, 64), filled(2, 64), filled(3, 64)

	testcases := map[string]struct {
		items [][]byte
		want  string
	}{
		"one leaf":     {[][]byte{s1}, "931f38af772ca6a076ad98c475dd6cd41bb81457d70189f1844b8fab837706af"},
		"two leaves":   {[][]byte{s1, s2}, "d76f40c824581a363abac4eb497e23ca29b35eecae6730924bd9d3c07cde89cb"},
		// the third leaf is paired with itself
		"three leaves": {[][]byte{s1, s2, s3}, "10fae83417eb28b3d67e59a4f3fd66cc68d34aad67724d5b9e7d6d4e0f241965"},
	}
	for name, tc := range testcases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, hex.EncodeToString(HashPairwise(tc.items)))
		})
	}

	assert.Nil(t, HashPairwise(nil))
	assert.Equal(t, LeafHash(s1), HashPairwise([][]byte{s1}))
	assert.Equal(t, InnerHash(InnerHash(LeafHash(s1), LeafHash(s2)), InnerHash(LeafHash(s3), LeafHash(s3))),
		HashPairwise([][]byte{s1, s2, s3}))
	assert.NotEqual(t, HashFromByteSlices([][]byte{s1, s2, s3}), HashPairwise([][]byte{s1, s2, s3}))
}
