package math

import (
	"errors"
	"math"
)

var ErrOverflowUint64 = errors.New("uint64 overflow")

// SafeAddUint64 adds two uint64 integers.
// If there is an overflow it returns an error.
func SafeAddUint64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflowUint64
	}
	return a + b, nil
}
