// Package commitment implements the composable commitment scheme stack
// of spec §4.C7: a segment-streamed prover side with pluggable inner
// layers (Merkle, Packaging, Caching) and a mirrored verifier side that
// never materializes the whole committed structure.
package commitment

// ProverLayer is the shared interface every prover-side layer
// implements (spec §4.C7): segments stream in, a root gets committed,
// and a later decommitment phase reveals exactly the queried data.
type ProverLayer interface {
	// AddSegment writes bytes as consecutive elements starting at
	// element index start.
	AddSegment(bytes []byte, start int) error
	// Commit finalizes the layer and sends whatever the layer owes the
	// channel (a Merkle root, for the terminal layer).
	Commit() error
	// StartDecommitmentPhase records the element indices that will be
	// queried and returns the element indices this layer additionally
	// needs from its caller to compute what it must send.
	StartDecommitmentPhase(queries []int) ([]int, error)
	// Decommit sends the decommitment data for the recorded queries.
	// provided supplies the raw element bytes for every index this
	// layer asked for via StartDecommitmentPhase.
	Decommit(provided map[int][]byte) error
}

// VerifierLayer is the mirror of ProverLayer.
type VerifierLayer interface {
	// ReadCommitment reads whatever the matching ProverLayer.Commit
	// sent (a root digest, for the terminal layer).
	ReadCommitment() error
	// VerifyIntegrity checks data — a map from element index to claimed
	// bytes, covering every index in the queries passed to
	// SetQueries — against the commitment, reading any additional wire
	// data (decommitment nodes) it needs from the channel.
	VerifyIntegrity(data map[int][]byte) (bool, error)
	// SetQueries records the element indices that will be checked.
	SetQueries(queries []int)
}
