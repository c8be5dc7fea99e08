// Package merkle implements the Merkle tree of spec §4.C5: an implicit
// complete binary tree over a power-of-two leaf count, stored as a
// contiguous heap-indexed node array, with the FIFO-ordered
// decommitment and verification algorithms the spec pins down exactly
// (the wire order of decommitment hashes is observable and must be
// reproduced byte-for-byte by any compatible implementation).
package merkle

import (
	"fmt"
	"sort"

	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

// Tree is the implicit binary tree of spec §3 "Merkle tree": nodes[1]
// is the root, nodes[i]'s children are nodes[2i] and nodes[2i+1],
// leaves occupy nodes[N..2N).
type Tree struct {
	hash  xhash.Hash
	n     int // leaf count, a power of two
	nodes []xhash.Digest
}

// New creates an empty tree over n leaves. n must be a power of two.
func New(h xhash.Hash, n int) (*Tree, error) {
	if !isPowerOfTwo(n) {
		return nil, fmt.Errorf("merkle: leaf count must be a power of two, got %d", n)
	}
	return &Tree{hash: h, n: n, nodes: make([]xhash.Digest, 2*n)}, nil
}

// N returns the leaf count.
func (t *Tree) N() int { return t.n }

// AddData writes leaves starting at startIndex and eagerly recomputes
// every ancestor whose both children are now known (spec §3 "AddData
// lifecycle"). It is a programmer error to write past the leaf count
// or to re-derive an already-known leaf with a conflicting value.
func (t *Tree) AddData(leaves []xhash.Digest, startIndex int) {
	if startIndex < 0 || startIndex+len(leaves) > t.n {
		panic(fmt.Sprintf("merkle: AddData range [%d,%d) out of bounds for %d leaves", startIndex, startIndex+len(leaves), t.n))
	}
	for i, leaf := range leaves {
		idx := t.n + startIndex + i
		t.nodes[idx] = append(xhash.Digest(nil), leaf...)
		t.propagateUp(idx)
	}
}

func (t *Tree) propagateUp(idx int) {
	for idx > 1 {
		parent := idx / 2
		left, right := t.nodes[2*parent], t.nodes[2*parent+1]
		if left == nil || right == nil {
			return
		}
		if t.nodes[parent] != nil {
			return
		}
		t.nodes[parent] = t.hash.HashTwo(left, right)
		idx = parent
	}
}

// Root (re)computes the root assuming every node at or below
// minDepthAssumedCorrect (0 = root's own level) is already correctly
// populated, recomputing only the levels strictly above it (spec §3:
// "the root may be (re)computed from a stated 'min depth assumed
// correct'"). Passing 0 trusts AddData's eager propagation entirely;
// passing the tree's full depth recomputes every internal node from
// the leaves.
func (t *Tree) Root(minDepthAssumedCorrect int) (xhash.Digest, error) {
	depth := 0
	for n := t.n; n > 1; n /= 2 {
		depth++
	}
	if minDepthAssumedCorrect < 0 || minDepthAssumedCorrect > depth {
		return nil, fmt.Errorf("merkle: min depth %d out of range [0,%d]", minDepthAssumedCorrect, depth)
	}
	for level := minDepthAssumedCorrect - 1; level >= 0; level-- {
		lo := 1 << uint(level)
		hi := 1 << uint(level+1)
		for i := lo; i < hi; i++ {
			left, right := t.nodes[2*i], t.nodes[2*i+1]
			if left == nil || right == nil {
				return nil, fmt.Errorf("merkle: cannot compute node %d: child not yet known", i)
			}
			t.nodes[i] = t.hash.HashTwo(left, right)
		}
	}
	if t.nodes[1] == nil {
		return nil, fmt.Errorf("merkle: root not computed; call AddData for all leaves first")
	}
	return t.nodes[1], nil
}

// Decommit produces the decommitment stream for query set queries (spec
// §4.C5): push leaf indices q+N into a FIFO, repeatedly pop the front;
// if it's the root, stop; otherwise push its parent and, unless the
// sibling is already waiting in the FIFO (in which case it is consumed
// silently), append the sibling's digest to the output stream. The
// resulting order is the canonical wire order.
func (t *Tree) Decommit(queries []int) ([]xhash.Digest, error) {
	sorted := append([]int(nil), queries...)
	sort.Ints(sorted)

	queue := make([]int, 0, len(sorted))
	for _, q := range sorted {
		if q < 0 || q >= t.n {
			panic(fmt.Sprintf("merkle: query index %d out of range [0,%d)", q, t.n))
		}
		queue = append(queue, t.n+q)
	}

	var out []xhash.Digest
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if i == 1 {
			break
		}
		queue = append(queue, i/2)
		sibling := i ^ 1
		if len(queue) > 0 && queue[0] == sibling {
			queue = queue[1:]
			continue
		}
		if t.nodes[sibling] == nil {
			return nil, fmt.Errorf("merkle: sibling node %d unknown; tree incomplete", sibling)
		}
		out = append(out, t.nodes[sibling])
	}
	return out, nil
}

// RequiredSiblingIndices replays the FIFO dedup logic of Decommit using
// only indices, returning the sibling node indices a verifier must
// fetch from the wire (in the same order the prover emits them) without
// needing the tree itself. Used by a commitment-scheme verifier layer
// to know how many decommitment nodes to read before calling Verify.
func RequiredSiblingIndices(n int, queries []int) []int {
	sorted := append([]int(nil), queries...)
	sort.Ints(sorted)

	queue := make([]int, 0, len(sorted))
	for _, q := range sorted {
		queue = append(queue, n+q)
	}

	var out []int
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if i == 1 {
			break
		}
		queue = append(queue, i/2)
		sibling := i ^ 1
		if len(queue) > 0 && queue[0] == sibling {
			queue = queue[1:]
			continue
		}
		out = append(out, sibling)
	}
	return out
}

// Verify replays the decommitment FIFO algorithm against claimed leaf
// values and a decommitment stream, comparing the final accumulated
// digest to root (spec §4.C5 "Verification reverses the process").
func Verify(h xhash.Hash, n int, root xhash.Digest, queries []int, leafValues map[int]xhash.Digest, decommitment []xhash.Digest) bool {
	sorted := append([]int(nil), queries...)
	sort.Ints(sorted)

	type entry struct {
		index int
		value xhash.Digest
	}
	queue := make([]entry, 0, len(sorted))
	for _, q := range sorted {
		v, ok := leafValues[q]
		if !ok {
			return false
		}
		queue = append(queue, entry{index: n + q, value: v})
	}

	decPos := 0
	nextDec := func() (xhash.Digest, bool) {
		if decPos >= len(decommitment) {
			return nil, false
		}
		d := decommitment[decPos]
		decPos++
		return d, true
	}

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e.index == 1 {
			if len(queue) != 0 || decPos != len(decommitment) {
				return false
			}
			return hashEqual(e.value, root)
		}

		sibling := e.index ^ 1
		var siblingValue xhash.Digest
		if len(queue) > 0 && queue[0].index == sibling {
			siblingValue = queue[0].value
			queue = queue[1:]
		} else {
			d, ok := nextDec()
			if !ok {
				return false
			}
			siblingValue = d
		}

		var parentHash xhash.Digest
		if e.index%2 == 0 {
			parentHash = h.HashTwo(e.value, siblingValue)
		} else {
			parentHash = h.HashTwo(siblingValue, e.value)
		}
		queue = append(queue, entry{index: e.index / 2, value: parentHash})
	}
	return false
}

func hashEqual(a, b xhash.Digest) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
