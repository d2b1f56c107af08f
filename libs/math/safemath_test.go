package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSafeAddUint64(t *testing.T) {
	sum, err := SafeAddUint64(math.MaxUint64-1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, uint64(math.MaxUint64), sum)

	_, err = SafeAddUint64(math.MaxUint64, 1)
	assert.Equal(t, ErrOverflowUint64, err)
}

func TestSafeAddUint64Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64().Draw(t, "a").(uint64)
		b := rapid.Uint64().Draw(t, "b").(uint64)
		sum, err := SafeAddUint64(a, b)
		if err != nil {
			if a+b >= a {
				t.Fatalf("spurious overflow for %d + %d", a, b)
			}
			return
		}
		if sum != a+b || sum < a {
			t.Fatalf("bad sum %d for %d + %d", sum, a, b)
		}
	})
}
