package types

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// FirstSignature reads the identifying signature from a serialized
// transaction (a compact-u16 signature count followed by the signatures).
func FirstSignature(raw []byte) (Signature, error) {
	sigs, err := readSignatures(raw, 1)
	if err != nil {
		return Signature{}, err
	}
	return sigs[0], nil
}

// Signatures reads every signature of a serialized transaction, fee payer
// first.
func Signatures(raw []byte) ([]Signature, error) {
	return readSignatures(raw, -1)
}

// readSignatures reads at most limit signatures, all of them if limit < 0.
func readSignatures(raw []byte, limit int) ([]Signature, error) {
	dec := bin.NewBinDecoder(raw)
	n, err := dec.ReadCompactU16()
	if err != nil {
		return nil, fmt.Errorf("reading signature count: %w", err)
	}
	if n == 0 {
		return nil, errors.New("transaction has no signatures")
	}
	if limit >= 0 && n > limit {
		n = limit
	}

	sigs := make([]Signature, n)
	for i := range sigs {
		b, err := dec.ReadNBytes(SignatureSize)
		if err != nil {
			return nil, fmt.Errorf("reading signature #%d: %w", i, err)
		}
		copy(sigs[i][:], b)
	}
	return sigs, nil
}
