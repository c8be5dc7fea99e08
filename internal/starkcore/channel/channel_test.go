package channel

import (
	"math/big"
	"testing"

	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

func testField(t *testing.T) *field.Field {
	t.Helper()
	f, err := field.New(big.NewInt(3221225473))
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	return f
}

// TestFiatShamirDeterminism is spec §8 P1: running the verifier over
// the emitted proof draws the same randomness as the prover at every
// matching point.
func TestFiatShamirDeterminism(t *testing.T) {
	f := testField(t)
	h := xhash.Keccak256{}
	seed := []byte("public input seed")

	prover := NewProver(h, seed)
	a := f.NewInt64(11)
	if err := prover.SendFieldElement("a", a); err != nil {
		t.Fatalf("SendFieldElement: %v", err)
	}
	challenge1 := prover.ReceiveFieldElement(f)
	n1 := prover.ReceiveNumber(1000)

	b := f.NewInt64(22)
	if err := prover.SendFieldElement("b", b); err != nil {
		t.Fatalf("SendFieldElement: %v", err)
	}
	challenge2 := prover.ReceiveFieldElement(f)

	verifier := NewVerifier(h, seed, prover.Proof())
	gotA, err := verifier.ReceiveFieldElement("a", f)
	if err != nil {
		t.Fatalf("verifier ReceiveFieldElement a: %v", err)
	}
	if !gotA.Equal(a) {
		t.Errorf("verifier read a = %v, want %v", gotA, a)
	}
	vChallenge1 := verifier.GetRandomFieldElement(f)
	if !vChallenge1.Equal(challenge1) {
		t.Errorf("challenge1 mismatch: prover %v, verifier %v", challenge1, vChallenge1)
	}
	vN1 := verifier.GetRandomNumber(1000)
	if vN1 != n1 {
		t.Errorf("n1 mismatch: prover %d, verifier %d", n1, vN1)
	}

	gotB, err := verifier.ReceiveFieldElement("b", f)
	if err != nil {
		t.Fatalf("verifier ReceiveFieldElement b: %v", err)
	}
	if !gotB.Equal(b) {
		t.Errorf("verifier read b = %v, want %v", gotB, b)
	}
	vChallenge2 := verifier.GetRandomFieldElement(f)
	if !vChallenge2.Equal(challenge2) {
		t.Errorf("challenge2 mismatch: prover %v, verifier %v", challenge2, vChallenge2)
	}
}

// TestS6PhaseEnforcement is spec §8 S6: construct a verifier, call
// BeginQueryPhase, call GetRandomFieldElement — must abort (panic).
func TestS6PhaseEnforcement(t *testing.T) {
	f := testField(t)
	verifier := NewVerifier(xhash.Keccak256{}, []byte("seed"), nil)
	verifier.BeginQueryPhase()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic calling GetRandomFieldElement after BeginQueryPhase")
		}
	}()
	verifier.GetRandomFieldElement(f)
}

func TestProverReceiveDuringQueryPhasePanics(t *testing.T) {
	f := testField(t)
	prover := NewProver(xhash.Keccak256{}, []byte("seed"))
	prover.BeginQueryPhase()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic calling ReceiveFieldElement after BeginQueryPhase")
		}
	}()
	prover.ReceiveFieldElement(f)
}

func TestReceiveNumberRejectsLargeUpperBound(t *testing.T) {
	prover := NewProver(xhash.Keccak256{}, []byte("seed"))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for upper bound >= 2^48")
		}
	}()
	prover.ReceiveNumber(uint64(1) << 48)
}

func TestTruncatedProofIsNotAPanic(t *testing.T) {
	verifier := NewVerifier(xhash.Keccak256{}, []byte("seed"), []byte{1, 2, 3})
	if _, err := verifier.ReceiveBytes("x", 10); err == nil {
		t.Errorf("expected an error (not a panic) reading past the end of the proof")
	}
}

func TestApplyAndVerifyProofOfWorkRoundTrip(t *testing.T) {
	h := xhash.Keccak256{}
	seed := []byte("pow seed")
	prover := NewProver(h, seed)
	if err := prover.ApplyProofOfWork(10); err != nil {
		t.Fatalf("ApplyProofOfWork: %v", err)
	}

	verifier := NewVerifier(h, seed, prover.Proof())
	ok, err := verifier.VerifyProofOfWork(10)
	if err != nil {
		t.Fatalf("VerifyProofOfWork: %v", err)
	}
	if !ok {
		t.Errorf("VerifyProofOfWork rejected a valid proof of work")
	}
}

func TestAnnotationScopeMismatchDetected(t *testing.T) {
	f := testField(t)
	h := xhash.Keccak256{}
	seed := []byte("seed")

	prover := NewProver(h, seed)
	prover.EnableAnnotations()
	prover.EnterAnnotationScope("round1")
	_ = prover.SendFieldElement("a", f.NewInt64(1))
	prover.ExitAnnotationScope()

	verifier := NewVerifier(h, seed, prover.Proof())
	verifier.SetExpectedAnnotations([]string{"this will not match"})
	if _, err := verifier.ReceiveFieldElement("a", f); err == nil {
		t.Errorf("expected annotation mismatch error")
	}
}

func TestExitAnnotationScopeWithoutEnterPanics(t *testing.T) {
	prover := NewProver(xhash.Keccak256{}, []byte("seed"))
	prover.EnableAnnotations()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic exiting a scope that was never entered")
		}
	}()
	prover.ExitAnnotationScope()
}
