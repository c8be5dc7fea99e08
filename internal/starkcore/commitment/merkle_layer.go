package commitment

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/merkle"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// MerkleLayer is the terminal prover-side layer of spec §4.C7: it wraps
// one Merkle tree. Its elements are DIGEST_BYTES-wide (its caller is
// expected to be a Packaging layer, which already reduced raw data to
// one digest per package).
type MerkleLayer struct {
	hash    xhash.Hash
	tree    *merkle.Tree
	n       int
	prover  *channel.Prover
	queries []int
}

// NewMerkleLayer creates the terminal layer over n leaves.
func NewMerkleLayer(h xhash.Hash, n int, prover *channel.Prover) (*MerkleLayer, error) {
	tree, err := merkle.New(h, n)
	if err != nil {
		return nil, fmt.Errorf("commitment: merkle layer: %w", err)
	}
	return &MerkleLayer{hash: h, tree: tree, n: n, prover: prover}, nil
}

// AddSegment writes digest-sized leaves starting at element index
// start (spec §4.C7: "add_segment copies each provided digest to its
// leaf slot").
func (m *MerkleLayer) AddSegment(bytes []byte, start int) error {
	digestBytes := m.hash.DigestBytes()
	if len(bytes)%digestBytes != 0 {
		panic(fmt.Sprintf("commitment: merkle layer segment length %d is not a multiple of digest width %d", len(bytes), digestBytes))
	}
	count := len(bytes) / digestBytes
	leaves := make([]xhash.Digest, count)
	for i := 0; i < count; i++ {
		leaves[i] = bytes[i*digestBytes : (i+1)*digestBytes]
	}
	m.tree.AddData(leaves, start)
	return nil
}

// Commit sends the Merkle root to the channel.
func (m *MerkleLayer) Commit() error {
	root, err := m.tree.Root(0)
	if err != nil {
		return fmt.Errorf("commitment: merkle layer commit: %w", err)
	}
	return m.prover.SendCommitmentHash("merkle_root", root)
}

// StartDecommitmentPhase records the queries and needs nothing further
// (spec §4.C7: "records queries, returns an empty 'needs' list").
func (m *MerkleLayer) StartDecommitmentPhase(queries []int) ([]int, error) {
	m.queries = append([]int(nil), queries...)
	return nil, nil
}

// Decommit walks the tree per §4.C5 and sends each decommitment node.
func (m *MerkleLayer) Decommit(map[int][]byte) error {
	dec, err := m.tree.Decommit(m.queries)
	if err != nil {
		return fmt.Errorf("commitment: merkle layer decommit: %w", err)
	}
	for _, d := range dec {
		if err := m.prover.SendDecommitmentNode("merkle_node", d); err != nil {
			return err
		}
	}
	return nil
}

// MerkleVerifierLayer mirrors MerkleLayer on the verifier side.
type MerkleVerifierLayer struct {
	hash     xhash.Hash
	n        int
	verifier *channel.Verifier
	root     xhash.Digest
	queries  []int
}

// NewMerkleVerifierLayer creates the verifier mirror over n leaves.
func NewMerkleVerifierLayer(h xhash.Hash, n int, verifier *channel.Verifier) *MerkleVerifierLayer {
	return &MerkleVerifierLayer{hash: h, n: n, verifier: verifier}
}

// ReadCommitment reads the root digest from the proof.
func (m *MerkleVerifierLayer) ReadCommitment() error {
	digestBytes := m.hash.DigestBytes()
	root, err := m.verifier.ReceiveBytes("merkle_root", digestBytes)
	if err != nil {
		return fmt.Errorf("commitment: merkle verifier layer read commitment: %w", err)
	}
	m.root = root
	return nil
}

// SetQueries records which leaf indices will be checked.
func (m *MerkleVerifierLayer) SetQueries(queries []int) { m.queries = append([]int(nil), queries...) }

// VerifyIntegrity reads the required sibling digests from the channel
// (in the canonical FIFO order, computed from indices alone) and
// replays the Merkle verification algorithm against data.
func (m *MerkleVerifierLayer) VerifyIntegrity(data map[int][]byte) (bool, error) {
	digestBytes := m.hash.DigestBytes()
	siblingIndices := merkle.RequiredSiblingIndices(m.n, m.queries)
	dec := make([]xhash.Digest, 0, len(siblingIndices))
	for range siblingIndices {
		d, err := m.verifier.ReceiveBytes("merkle_node", digestBytes)
		if err != nil {
			return false, fmt.Errorf("commitment: merkle verifier layer verify integrity: %w", err)
		}
		dec = append(dec, d)
	}
	leaves := make(map[int]xhash.Digest, len(data))
	for idx, b := range data {
		leaves[idx] = b
	}
	return merkle.Verify(m.hash, m.n, m.root, m.queries, leaves, dec), nil
}
