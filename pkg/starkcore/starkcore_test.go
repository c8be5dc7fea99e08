package starkcore

import (
	"math/big"
	"testing"

	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

func TestProverVerifierRoundTrip(t *testing.T) {
	f, err := field.New(big.NewInt(3221225473)) // 3*2^30+1
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	dom, err := domain.New(f.One(), f.NewInt64(3), 8)
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	evals := make([]FieldElement, 8)
	for i := range evals {
		evals[i] = f.NewInt64(int64(i*i + 1))
	}
	cfg := DefaultCommitmentConfig().WithVerifierFriendlyLayers(1).WithElementSize(f.ByteLen())
	params := FRIParams{
		FriStepList:          []int{1, 1},
		LastLayerDegreeBound: 2,
		NQueries:             2,
		ProofOfWorkBits:      0,
	}
	seed := []byte("starkcore public api test seed")

	prover, ch, err := NewProver(f, xhash.Keccak256{}, seed, cfg, params)
	if err != nil {
		t.Fatalf("NewProver: %v", err)
	}
	if _, err := prover.Prove(append([]FieldElement(nil), evals...), dom); err != nil {
		t.Fatalf("Prove: %v", err)
	}

	verifier, err := NewVerifier(f, xhash.Keccak256{}, seed, ch.Proof(), cfg, params)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	callback := func(indices []int) ([]FieldElement, error) {
		out := make([]FieldElement, len(indices))
		for i, idx := range indices {
			out[i] = evals[idx]
		}
		return out, nil
	}
	ok, err := verifier.Verify(dom, callback)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Errorf("Verify rejected a genuine proof")
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	e1 := newError(KindProofFormat, "truncated read", nil)
	e2 := newError(KindProofFormat, "different message", nil)
	e3 := newError(KindVerification, "fold mismatch", nil)

	if !e1.Is(e2) {
		t.Errorf("errors of the same Kind should match Is()")
	}
	if e1.Is(e3) {
		t.Errorf("errors of different Kind should not match Is()")
	}
}
