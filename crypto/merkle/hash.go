package merkle

import (
	"crypto/sha256"
)

// Domain separation prefixes for leaves and inner nodes (RFC 6962).
var (
	leafPrefix  = []byte{0}
	innerPrefix = []byte{1}
)

// Size is the digest size of every node in the tree.
const Size = sha256.Size

// returns tmhash(<empty>)
func emptyHash() []byte {
	h := sha256.Sum256([]byte{})
	return h[:]
}

// LeafHash returns tmhash(0x00 || leaf).
func LeafHash(leaf []byte) []byte {
	h := sha256.New()
	h.Write(leafPrefix)
	h.Write(leaf)
	return h.Sum(nil)
}

// InnerHash returns tmhash(0x01 || left || right).
func InnerHash(left []byte, right []byte) []byte {
	h := sha256.New()
	h.Write(innerPrefix)
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
