package light

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lightvote/lightvote/crypto/merkle"
	mockp "github.com/lightvote/lightvote/light/provider/mock"
	"github.com/lightvote/lightvote/types"
)

// bankTree is a bank hash together with the proofs of its transactions.
type bankTree struct {
	hash   types.BankHash
	txs    [][]byte
	proofs []*types.InclusionProof
}

func newBankTree(parent, delta, blockhash types.Hash, txs [][]byte) bankTree {
	leaves := types.BankHashLeaves(parent, delta, uint64(len(txs)), blockhash, txs)
	root, proofs := merkle.ProofsFromByteSlices(leaves)
	bt := bankTree{txs: txs}
	copy(bt.hash[:], root)
	for i := range txs {
		bt.proofs = append(bt.proofs, &types.InclusionProof{
			BankHash: bt.hash,
			Steps:    proofs[types.BankHashTxOffset+i].Steps(),
		})
	}
	return bt
}

func drawBankTree(t *rapid.T) bankTree {
	n := rapid.IntRange(1, 24).Draw(t, "txs").(int)
	txs := make([][]byte, n)
	for i := range txs {
		body := rapid.SliceOfN(rapid.Byte(), 1, 96).Draw(t, "tx").([]byte)
		// the index prefix keeps transactions distinct
		txs[i] = append([]byte{byte(i >> 8), byte(i)}, body...)
	}
	var parent, delta, blockhash types.Hash
	copy(parent[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "parent").([]byte))
	copy(delta[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "delta").([]byte))
	copy(blockhash[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "blockhash").([]byte))
	return newBankTree(parent, delta, blockhash, txs)
}

func copySteps(steps []types.ProofStep) []types.ProofStep {
	out := make([]types.ProofStep, len(steps))
	for i, s := range steps {
		out[i] = types.ProofStep{Sibling: append([]byte(nil), s.Sibling...), Left: s.Left}
	}
	return out
}

func TestVerifyInclusionCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bt := drawBankTree(t)
		i := rapid.IntRange(0, len(bt.txs)-1).Draw(t, "index").(int)

		tx := types.Transaction{Raw: bt.txs[i]}
		if err := VerifyInclusionWithReason(tx, bt.proofs[i], bt.hash); err != nil {
			t.Fatalf("valid proof rejected: %v", err)
		}
	})
}

func TestVerifyInclusionSoundness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bt := drawBankTree(t)
		if len(bt.txs) < 2 {
			t.Skip("need two transactions")
		}
		i := rapid.IntRange(0, len(bt.txs)-1).Draw(t, "proof").(int)
		j := rapid.IntRange(0, len(bt.txs)-1).Filter(func(v int) bool { return v != i }).Draw(t, "tx").(int)

		// a proof for another transaction proves nothing about this one
		if VerifyInclusion(types.Transaction{Raw: bt.txs[j]}, bt.proofs[i], bt.hash) {
			t.Fatalf("proof #%d accepted for tx #%d", i, j)
		}
	})
}

func TestVerifyInclusionRandomSiblings(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bt := drawBankTree(t)
		i := rapid.IntRange(0, len(bt.txs)-1).Draw(t, "index").(int)

		steps := copySteps(bt.proofs[i].Steps)
		for k := range steps {
			copy(steps[k].Sibling, rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "sibling").([]byte))
		}
		forged := &types.InclusionProof{BankHash: bt.hash, Steps: steps}
		root, err := merkle.ComputeRoot(merkle.LeafHash(bt.txs[i]), bt.proofs[i].Steps)
		require.NoError(t, err)
		forgedRoot, err := merkle.ComputeRoot(merkle.LeafHash(bt.txs[i]), steps)
		require.NoError(t, err)
		if string(root) == string(forgedRoot) {
			t.Skip("drew the original siblings")
		}

		if VerifyInclusion(types.Transaction{Raw: bt.txs[i]}, forged, bt.hash) {
			t.Fatalf("proof with random siblings accepted")
		}
	})
}

func TestVerifyInclusionTamperSensitivity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bt := drawBankTree(t)
		i := rapid.IntRange(0, len(bt.txs)-1).Draw(t, "index").(int)

		steps := copySteps(bt.proofs[i].Steps)
		k := rapid.IntRange(0, len(steps)-1).Draw(t, "step").(int)
		b := rapid.IntRange(0, types.HashSize-1).Draw(t, "byte").(int)
		mask := rapid.ByteRange(1, 255).Draw(t, "mask").(byte)
		steps[k].Sibling[b] ^= mask

		tampered := &types.InclusionProof{BankHash: bt.hash, Steps: steps}
		if VerifyInclusion(types.Transaction{Raw: bt.txs[i]}, tampered, bt.hash) {
			t.Fatalf("tampered step #%d byte #%d accepted", k, b)
		}
	})
}

func TestVerifyInclusionRejects(t *testing.T) {
	bt := newBankTree(types.Hash{1}, types.Hash{2}, types.Hash{3}, [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	valid := bt.proofs[1]
	tx := types.Transaction{Raw: bt.txs[1], Slot: 9}

	withSlot := *valid
	withSlot.Slot = 9
	require.NoError(t, VerifyInclusionWithReason(tx, &withSlot, bt.hash))

	otherSlot := withSlot
	otherSlot.Slot = 10

	shortSibling := *valid
	shortSibling.Steps = copySteps(valid.Steps)
	shortSibling.Steps[0].Sibling = shortSibling.Steps[0].Sibling[:31]

	otherHash := *valid
	otherHash.BankHash = types.Hash{0xff}

	testCases := []struct {
		name  string
		tx    types.Transaction
		proof *types.InclusionProof
		claim types.BankHash
	}{
		{"nil proof", tx, nil, bt.hash},
		{"no steps", tx, &types.InclusionProof{BankHash: bt.hash}, bt.hash},
		{"empty transaction", types.Transaction{}, valid, bt.hash},
		{"short sibling", tx, &shortSibling, bt.hash},
		{"slot mismatch", tx, &otherSlot, bt.hash},
		{"proof for another bank hash", tx, &otherHash, bt.hash},
		{"claim mismatch", tx, valid, types.Hash{0xee}},
		{"different transaction", types.Transaction{Raw: []byte("d")}, valid, bt.hash},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := VerifyInclusionWithReason(tc.tx, tc.proof, tc.claim)
			require.Error(t, err)
			assert.IsType(t, ErrInvalidProof{}, err)
			assert.False(t, VerifyInclusion(tc.tx, tc.proof, tc.claim))
		})
	}
}

func TestVerifyHeader(t *testing.T) {
	chain := mockp.NewChain(sha256.Sum256([]byte("genesis")))
	txs := [][]byte{signedBlob(1), signedBlob(2)}
	h, err := chain.AppendSlot(1, txs...)
	require.NoError(t, err)
	sig, err := types.FirstSignature(txs[1])
	require.NoError(t, err)

	require.NoError(t, VerifyHeader(h, sig))
	require.NoError(t, VerifyHeader(h, types.Signature{}))

	clone := func() *types.BlockHeader {
		c := *h
		c.Entries = append([]types.Entry(nil), h.Entries...)
		return &c
	}

	testCases := []struct {
		name   string
		mutate func(*types.BlockHeader)
		sig    types.Signature
	}{
		{"bank hash", func(h *types.BlockHeader) { h.BankHash[0] ^= 1 }, sig},
		{"parent bank hash", func(h *types.BlockHeader) { h.ParentBankHash[0] ^= 1 }, sig},
		{"signature count", func(h *types.BlockHeader) { h.SignatureCount++ }, sig},
		{"entry hash", func(h *types.BlockHeader) { h.Entries[1].Hash[0] ^= 1 }, sig},
		{"start blockhash", func(h *types.BlockHeader) { h.StartBlockhash[0] ^= 1 }, sig},
		{"blockhash", func(h *types.BlockHeader) { h.Blockhash[0] ^= 1 }, sig},
		{"missing transaction", func(h *types.BlockHeader) {}, types.Signature{9}},
		{"zero hashes", func(h *types.BlockHeader) { h.Entries[0].NumHashes = 0 }, sig},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := clone()
			tc.mutate(c)
			err := VerifyHeader(c, tc.sig)
			require.Error(t, err)
			assert.IsType(t, ErrInvalidHeader{}, err)
		})
	}

	bare := clone()
	bare.Entries = nil
	assert.NoError(t, VerifyHeader(bare, sig))
	bare.Blockhash = types.Hash{}
	assert.Error(t, VerifyHeader(bare, sig))
}

// signedBlob returns a minimal serialized transaction: one signature and a
// body. It is enough for PoH and bank hash computations.
func signedBlob(b byte) []byte {
	raw := []byte{1}
	sig := make([]byte, types.SignatureSize)
	sig[0] = b
	raw = append(raw, sig...)
	return append(raw, []byte("body")...)
}
