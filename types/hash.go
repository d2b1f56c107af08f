package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

const (
	// HashSize is the size of every digest on the chain (sha256).
	HashSize = 32
	// PubKeySize is the size of an ed25519 validator identity.
	PubKeySize = 32
	// SignatureSize is the size of an ed25519 transaction signature.
	SignatureSize = 64
)

// Slot identifies a unit of block production time.
type Slot = uint64

// Hash is a 32 byte sha256 digest. Bank hashes and blockhashes are both
// represented by it.
type Hash [HashSize]byte

// BankHash commits to the state of a slot's bank after executing the slot.
type BankHash = Hash

// HashFromBytes copies b into a Hash. b must be exactly HashSize bytes long.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("expected %d byte hash, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// HashFromBase58 parses a base58 encoded hash.
func HashFromBase58(s string) (Hash, error) {
	b, err := decodeBase58(s)
	if err != nil {
		return Hash{}, err
	}
	return HashFromBytes(b)
}

// MustHashFromBase58 is like HashFromBase58 but panics on error.
func MustHashFromBase58(s string) Hash {
	h, err := HashFromBase58(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) Equal(o Hash) bool { return bytes.Equal(h[:], o[:]) }

func (h Hash) String() string { return base58.Encode(h[:]) }

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HashFromBase58(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// PubKey identifies a validator (its node identity) or any other account.
type PubKey [PubKeySize]byte

// PubKeyFromBase58 parses a base58 encoded public key.
func PubKeyFromBase58(s string) (PubKey, error) {
	var pk PubKey
	b, err := decodeBase58(s)
	if err != nil {
		return pk, err
	}
	if len(b) != PubKeySize {
		return pk, fmt.Errorf("expected %d byte public key, got %d", PubKeySize, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// MustPubKeyFromBase58 is like PubKeyFromBase58 but panics on error.
func MustPubKeyFromBase58(s string) PubKey {
	pk, err := PubKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func (pk PubKey) Bytes() []byte { return pk[:] }

func (pk PubKey) String() string { return base58.Encode(pk[:]) }

func (pk PubKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

func (pk *PubKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := PubKeyFromBase58(s)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// Signature is an ed25519 signature. The first signature of a transaction is
// its identifier.
type Signature [SignatureSize]byte

// SignatureFromBase58 parses a base58 encoded signature.
func SignatureFromBase58(s string) (Signature, error) {
	var sig Signature
	b, err := decodeBase58(s)
	if err != nil {
		return sig, err
	}
	if len(b) != SignatureSize {
		return sig, fmt.Errorf("expected %d byte signature, got %d", SignatureSize, len(b))
	}
	copy(sig[:], b)
	return sig, nil
}

func (s Signature) Bytes() []byte { return s[:] }

func (s Signature) IsZero() bool { return s == Signature{} }

func (s Signature) String() string { return base58.Encode(s[:]) }

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := SignatureFromBase58(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func decodeBase58(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty base58 string")
	}
	b := base58.Decode(s)
	// base58.Decode signals invalid characters with an empty result
	if len(b) == 0 {
		return nil, fmt.Errorf("invalid base58 string %q", s)
	}
	return b, nil
}
