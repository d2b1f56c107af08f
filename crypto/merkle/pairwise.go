package merkle

// HashPairwise computes the root of a tree built level by level: adjacent
// nodes are paired left to right and a trailing odd node is paired with
// itself. Leaves and inner nodes use the same prefixes as
// HashFromByteSlices. This is the tree PoH entries commit their
// transactions with. An empty input has no root and returns nil.
func HashPairwise(items [][]byte) []byte {
	if len(items) == 0 {
		return nil
	}

	level := make([][]byte, len(items))
	for i, item := range items {
		level[i] = LeafHash(item)
	}

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, InnerHash(level[i], right))
		}
		level = next
	}
	return level[0]
}
