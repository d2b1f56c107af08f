package vote

import (
	crand "crypto/rand"
	"errors"

	bin "github.com/gagliardetto/binary"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/lightvote/lightvote/types"
)

// Vote signatures are checked with ZIP-215 rules so that batch and single
// verification agree.
var verifyOptions = &ed25519.Options{
	Verify: ed25519.VerifyOptionsZIP_215,
}

// verifyCandidates batch-verifies the fee payer signature of every
// candidate and reports which ones are valid.
func verifyCandidates(candidates []candidate) []bool {
	bv := ed25519.NewBatchVerifier()
	for _, c := range candidates {
		bv.AddWithOptions(ed25519.PublicKey(c.payer[:]), c.message, c.sig[:], verifyOptions)
	}
	_, valid := bv.Verify(crand.Reader)
	return valid
}

// messageBytes returns the signed part of a serialized transaction: all
// bytes following the signature list.
func messageBytes(raw []byte) ([]byte, error) {
	dec := bin.NewBinDecoder(raw)
	n, err := dec.ReadCompactU16()
	if err != nil {
		return nil, err
	}
	offset := len(raw) - dec.Remaining() + n*types.SignatureSize
	if offset >= len(raw) {
		return nil, errors.New("transaction has no message")
	}
	return raw[offset:], nil
}
