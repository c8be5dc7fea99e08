// Package starkcore is the public surface over this module's STARK
// cryptographic core: the Fiat-Shamir channel, the commitment-scheme
// stack, the table view, and the FRI low-degree test (see doc.go).
package starkcore

import (
	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/commitment"
	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/fri"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// FieldElement is the opaque finite-field value type of the data
// model (§3 "Field element F").
type FieldElement = field.Element

// Field is the finite field FieldElement values belong to.
type Field = field.Field

// Digest is a fixed-width hash output (§3 "Digest D").
type Digest = xhash.Digest

// Domain is the evaluation domain over which a polynomial's
// committed values are given (§3 "Evaluation domain").
type Domain = domain.Domain

// CommitmentConfig configures the commitment-scheme stack (§4.C7).
type CommitmentConfig = commitment.Config

// FRIParams collects the FRI protocol parameters (§3 "FRI
// parameters").
type FRIParams = fri.Params

// FirstLayerCallback supplies the first FRI layer's evaluations at
// the verifier's query indices (§4.C11's "callback variant").
type FirstLayerCallback = fri.FirstLayerCallback

// DefaultCommitmentConfig returns the commitment stack configuration
// this module uses unless a caller overrides it: Keccak-256
// throughout, three verifier-friendly terminal layers, 32-byte
// elements.
func DefaultCommitmentConfig() *CommitmentConfig {
	return commitment.DefaultConfig()
}

// Prover runs the FRI prover side of the protocol (§4.C12) over a
// channel seeded from the transcript's initial state.
type Prover struct {
	inner *fri.Prover
}

// NewProver builds a Prover over field f, writing to a fresh channel
// transcript rooted at seed using h, configured by cfg and params.
func NewProver(f *Field, h xhash.Hash, seed []byte, cfg *CommitmentConfig, params FRIParams) (*Prover, *channel.Prover, error) {
	ch := channel.NewProver(h, seed)
	p, err := fri.NewProver(f, ch, cfg, params)
	if err != nil {
		return nil, nil, newError(KindProgrammer, "building FRI prover", err)
	}
	return &Prover{inner: p}, ch, nil
}

// Prove runs the full FRI protocol over firstLayerEvals (the
// evaluations of the polynomial being proven low-degree) on dom, and
// returns the query indices drawn so the caller can also decommit any
// outer commitment (e.g. an AIR trace) at the same points.
func (p *Prover) Prove(firstLayerEvals []FieldElement, dom *Domain) ([]int, error) {
	queries, err := p.inner.Prove(firstLayerEvals, dom)
	if err != nil {
		return nil, newError(KindVerification, "running FRI prover", err)
	}
	return queries, nil
}

// Verifier runs the FRI verifier side of the protocol (§4.C13).
type Verifier struct {
	inner *fri.Verifier
}

// NewVerifier builds a Verifier matching a Prover built with the same
// cfg and params, reading proof from a channel rooted at the same
// seed.
func NewVerifier(f *Field, h xhash.Hash, seed []byte, proof []byte, cfg *CommitmentConfig, params FRIParams) (*Verifier, error) {
	ch := channel.NewVerifier(h, seed, proof)
	v, err := fri.NewVerifier(f, ch, cfg, params)
	if err != nil {
		return nil, newError(KindProgrammer, "building FRI verifier", err)
	}
	return &Verifier{inner: v}, nil
}

// Verify checks the proof against dom and firstLayer. It returns
// (false, nil) for a well-formed proof that fails to verify, and a
// non-nil error only for a malformed proof byte stream.
func (v *Verifier) Verify(dom *Domain, firstLayer FirstLayerCallback) (bool, error) {
	ok, err := v.inner.Verify(dom, firstLayer)
	if err != nil {
		return false, newError(KindProofFormat, "reading FRI proof", err)
	}
	return ok, nil
}
