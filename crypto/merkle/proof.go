package merkle

import (
	"bytes"
	"errors"
	"fmt"
)

// ProofStep is one level of an inclusion path. Left reports whether Sibling
// is hashed on the left of the running digest.
type ProofStep struct {
	Sibling []byte `json:"sibling"`
	Left    bool   `json:"left"`
}

// Proof represents a Merkle proof.
// NOTE: The convention for proofs is to include leaf hashes but to
// exclude the root hash.
// This convention is implemented across IAVL range proofs as well.
// Keep this consistent unless there's a very good reason to change
// everything.  This also affects the generalized proof system as
// well.
type Proof struct {
	Total    int64    `json:"total"`     // Total number of items.
	Index    int64    `json:"index"`     // Index of item to prove.
	LeafHash []byte   `json:"leaf_hash"` // Hash of item value.
	Aunts    [][]byte `json:"aunts"`     // Hashes from leaf's sibling to a root's child.
}

// ProofsFromByteSlices computes inclusion proof for given items.
// proofs[0] is the proof for items[0].
func ProofsFromByteSlices(items [][]byte) (rootHash []byte, proofs []*Proof) {
	trails, rootSPN := trailsFromByteSlices(items)
	rootHash = rootSPN.Hash
	proofs = make([]*Proof, len(items))
	for i, trail := range trails {
		proofs[i] = &Proof{
			Total:    int64(len(items)),
			Index:    int64(i),
			LeafHash: trail.Hash,
			Aunts:    trail.FlattenAunts(),
		}
	}
	return
}

// Verify that the Proof proves the root hash.
// Check sp.Index/sp.Total manually if needed
func (sp *Proof) Verify(rootHash []byte, leaf []byte) error {
	if sp.Total < 0 {
		return errors.New("proof total must be positive")
	}
	if sp.Index < 0 {
		return errors.New("proof index cannot be negative")
	}
	leafHash := LeafHash(leaf)
	if !bytes.Equal(sp.LeafHash, leafHash) {
		return fmt.Errorf("invalid leaf hash: wanted %X got %X", leafHash, sp.LeafHash)
	}
	computed, err := ComputeRoot(leafHash, sp.Steps())
	if err != nil {
		return err
	}
	if !bytes.Equal(computed, rootHash) {
		return fmt.Errorf("invalid root hash: wanted %X got %X", rootHash, computed)
	}
	return nil
}

// Steps flattens the proof into an ordered list of siblings, leaf to root,
// with the side each sibling sits on.
func (sp *Proof) Steps() []ProofStep {
	steps := make([]ProofStep, 0, len(sp.Aunts))
	collectSteps(sp.Index, sp.Total, sp.Aunts, &steps)
	return steps
}

// collectSteps walks from the root down to the leaf the same way the aunts
// were produced, then appends the steps in leaf-to-root order.
func collectSteps(index, total int64, innerHashes [][]byte, steps *[]ProofStep) {
	if index >= total || index < 0 || total <= 1 || len(innerHashes) == 0 {
		return
	}
	numLeft := getSplitPoint(total)
	last := innerHashes[len(innerHashes)-1]
	if index < numLeft {
		collectSteps(index, numLeft, innerHashes[:len(innerHashes)-1], steps)
		*steps = append(*steps, ProofStep{Sibling: last, Left: false})
		return
	}
	collectSteps(index-numLeft, total-numLeft, innerHashes[:len(innerHashes)-1], steps)
	*steps = append(*steps, ProofStep{Sibling: last, Left: true})
}

// ComputeRoot folds leafHash through steps. A step whose sibling is not a
// full digest is an error.
func ComputeRoot(leafHash []byte, steps []ProofStep) ([]byte, error) {
	running := leafHash
	for i, s := range steps {
		if len(s.Sibling) != Size {
			return nil, fmt.Errorf("step #%d: expected %d byte sibling, got %d", i, Size, len(s.Sibling))
		}
		if s.Left {
			running = InnerHash(s.Sibling, running)
		} else {
			running = InnerHash(running, s.Sibling)
		}
	}
	return running, nil
}

// ProofNode is a helper structure to construct merkle proof.
// The node and the tree is thrown away afterwards.
// Exactly one of node.Left and node.Right is nil, unless node is the root, in which case both are nil.
// node.Parent.Hash = hash(node.Hash, node.Right.Hash) or
// hash(node.Left.Hash, node.Hash), depending on whether node is a left/right child.
type ProofNode struct {
	Hash   []byte
	Parent *ProofNode
	Left   *ProofNode // Left sibling  (only one of Left,Right is set)
	Right  *ProofNode // Right sibling (only one of Left,Right is set)
}

// FlattenAunts will return the inner hashes for the item corresponding to the leaf,
// starting from a leaf ProofNode.
func (spn *ProofNode) FlattenAunts() [][]byte {
	// Nonrecursive impl.
	innerHashes := [][]byte{}
	for spn != nil {
		switch {
		case spn.Left != nil:
			innerHashes = append(innerHashes, spn.Left.Hash)
		case spn.Right != nil:
			innerHashes = append(innerHashes, spn.Right.Hash)
		default:
			break
		}
		spn = spn.Parent
	}
	return innerHashes
}

// trails[0].Hash is the leaf hash for items[0].
// trails[i].Parent.Parent....Parent == root for all i.
func trailsFromByteSlices(items [][]byte) (trails []*ProofNode, root *ProofNode) {
	// Recursive impl.
	switch len(items) {
	case 0:
		return []*ProofNode{}, &ProofNode{emptyHash(), nil, nil, nil}
	case 1:
		trail := &ProofNode{LeafHash(items[0]), nil, nil, nil}
		return []*ProofNode{trail}, trail
	default:
		k := getSplitPoint(int64(len(items)))
		lefts, leftRoot := trailsFromByteSlices(items[:k])
		rights, rightRoot := trailsFromByteSlices(items[k:])
		rootHash := InnerHash(leftRoot.Hash, rightRoot.Hash)
		root := &ProofNode{rootHash, nil, nil, nil}
		leftRoot.Parent = root
		leftRoot.Right = rightRoot
		rightRoot.Parent = root
		rightRoot.Left = leftRoot
		return append(lefts, rights...), root
	}
}
