package fri

import (
	"math/big"
	"testing"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/commitment"
	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

func testField(t *testing.T) *field.Field {
	t.Helper()
	f, err := field.New(big.NewInt(3221225473)) // 3*2^30+1
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	return f
}

// TestParamsValidateAllowsLeadingZeroStepOnly checks that a zero fold
// step is accepted as FriStepList[0] and rejected anywhere else.
func TestParamsValidateAllowsLeadingZeroStepOnly(t *testing.T) {
	if err := (Params{FriStepList: []int{0, 1}, LastLayerDegreeBound: 1, NQueries: 1}).validate(); err != nil {
		t.Errorf("FriStepList[0] == 0 should be allowed, got %v", err)
	}
	if err := (Params{FriStepList: []int{1, 0}, LastLayerDegreeBound: 1, NQueries: 1}).validate(); err == nil {
		t.Errorf("FriStepList[1] == 0 should be rejected")
	}
}

// TestFoldIdentity exercises the folder identity of spec §4.C9/P4:
// fold(f(x), f(-x), a, x^-1) == 2*g(x^2) + 2*a*h(x^2), where f is
// decomposed as f(z) = g(z^2) + z*h(z^2) for a tiny concrete
// polynomial.
func TestFoldIdentity(t *testing.T) {
	f := testField(t)
	// f(z) = 3 + 5z + 7z^2 + 11z^3  =>  g(w) = 3 + 7w, h(w) = 5 + 11w
	c0, c1, c2, c3 := f.NewInt64(3), f.NewInt64(5), f.NewInt64(7), f.NewInt64(11)
	evalF := func(x field.Element) field.Element {
		return c0.Add(c1.Mul(x)).Add(c2.Mul(x).Mul(x)).Add(c3.Mul(x).Mul(x).Mul(x))
	}
	evalG := func(w field.Element) field.Element { return c0.Add(c2.Mul(w)) }
	evalH := func(w field.Element) field.Element { return c1.Add(c3.Mul(w)) }

	x := f.NewInt64(9)
	fx := evalF(x)
	fmx := evalF(x.Neg())
	alpha := f.NewInt64(13)
	xInv := x.Inv()

	got := Fold(fx, fmx, alpha, xInv)

	w := x.Mul(x)
	two := f.NewInt64(2)
	want := two.Mul(evalG(w)).Add(two.Mul(alpha).Mul(evalH(w)))

	if !got.Equal(want) {
		t.Errorf("Fold(f(x),f(-x),a,x^-1) = %v, want %v", got, want)
	}
}

func TestFoldLayerMatchesFold(t *testing.T) {
	f := testField(t)
	dom, err := domain.New(f.One(), f.NewInt64(3), 4)
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	evals := []field.Element{f.NewInt64(1), f.NewInt64(2), f.NewInt64(3), f.NewInt64(4)}
	alpha := f.NewInt64(7)

	got, err := FoldLayer(evals, dom, alpha)
	if err != nil {
		t.Fatalf("FoldLayer: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FoldLayer returned %d elements, want 2", len(got))
	}
	for i := 0; i < 2; i++ {
		xInv := dom.At(2 * i).Inv()
		want := Fold(evals[2*i], evals[2*i+1], alpha, xInv)
		if !got[i].Equal(want) {
			t.Errorf("FoldLayer[%d] = %v, want %v", i, got[i], want)
		}
	}
}

// friFixture wires a matching prover/verifier pair of
// channels and commitment config for the FRI round-trip tests.
type friFixture struct {
	f       *field.Field
	h       xhash.Hash
	seed    []byte
	cfg     *commitment.Config
	params  Params
	domain  *domain.Domain
	evals   []field.Element
}

func newFriFixture(t *testing.T) *friFixture {
	t.Helper()
	f := testField(t)
	dom, err := domain.New(f.One(), f.NewInt64(3), 8)
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	evals := make([]field.Element, 8)
	for i := range evals {
		evals[i] = f.NewInt64(int64(i*i + 1))
	}
	cfg := commitment.DefaultConfig().WithVerifierFriendlyLayers(1).WithElementSize(f.ByteLen())
	params := Params{
		FriStepList:          []int{1, 1},
		LastLayerDegreeBound: 2, // last layer has 8/2^2 = 2 elements; bound big enough that any vector qualifies
		NQueries:             2,
		ProofOfWorkBits:      0,
	}
	return &friFixture{
		f: f, h: xhash.Keccak256{}, seed: []byte("fri fixture seed"),
		cfg: cfg, params: params, domain: dom, evals: evals,
	}
}

func TestFRIProverVerifierRoundTrip(t *testing.T) {
	fx := newFriFixture(t)

	prover := channel.NewProver(fx.h, fx.seed)
	fp, err := NewProver(fx.f, prover, fx.cfg, fx.params)
	if err != nil {
		t.Fatalf("NewProver: %v", err)
	}
	if _, err := fp.Prove(append([]field.Element(nil), fx.evals...), fx.domain); err != nil {
		t.Fatalf("Prove: %v", err)
	}

	verifier := channel.NewVerifier(fx.h, fx.seed, prover.Proof())
	fv, err := NewVerifier(fx.f, verifier, fx.cfg, fx.params)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	callback := func(indices []int) ([]field.Element, error) {
		out := make([]field.Element, len(indices))
		for i, idx := range indices {
			out[i] = fx.evals[idx]
		}
		return out, nil
	}
	ok, err := fv.Verify(fx.domain, callback)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Errorf("Verify rejected a genuine FRI proof")
	}
}

// TestFRIProverVerifierRoundTripWithLeadingZeroStep exercises spec
// §4.C12's fri_step_list[0] == 0 case: the first layer is committed
// but kept as-is (no fold, no evaluation point drawn for it).
func TestFRIProverVerifierRoundTripWithLeadingZeroStep(t *testing.T) {
	fx := newFriFixture(t)
	fx.params = Params{
		FriStepList:          []int{0, 1, 1},
		LastLayerDegreeBound: 2,
		NQueries:             2,
		ProofOfWorkBits:      0,
	}

	prover := channel.NewProver(fx.h, fx.seed)
	fp, err := NewProver(fx.f, prover, fx.cfg, fx.params)
	if err != nil {
		t.Fatalf("NewProver: %v", err)
	}
	if _, err := fp.Prove(append([]field.Element(nil), fx.evals...), fx.domain); err != nil {
		t.Fatalf("Prove: %v", err)
	}

	verifier := channel.NewVerifier(fx.h, fx.seed, prover.Proof())
	fv, err := NewVerifier(fx.f, verifier, fx.cfg, fx.params)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	callback := func(indices []int) ([]field.Element, error) {
		out := make([]field.Element, len(indices))
		for i, idx := range indices {
			out[i] = fx.evals[idx]
		}
		return out, nil
	}
	ok, err := fv.Verify(fx.domain, callback)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Errorf("Verify rejected a genuine FRI proof with a leading zero fri step")
	}
}

func TestFRIVerifierRejectsTamperedTrailingByte(t *testing.T) {
	fx := newFriFixture(t)

	prover := channel.NewProver(fx.h, fx.seed)
	fp, _ := NewProver(fx.f, prover, fx.cfg, fx.params)
	if _, err := fp.Prove(append([]field.Element(nil), fx.evals...), fx.domain); err != nil {
		t.Fatalf("Prove: %v", err)
	}

	proof := prover.Proof()
	tampered := append([]byte(nil), proof...)
	tampered[len(tampered)-1] ^= 0x01

	verifier := channel.NewVerifier(fx.h, fx.seed, tampered)
	fv, _ := NewVerifier(fx.f, verifier, fx.cfg, fx.params)
	callback := func(indices []int) ([]field.Element, error) {
		out := make([]field.Element, len(indices))
		for i, idx := range indices {
			out[i] = fx.evals[idx]
		}
		return out, nil
	}
	ok, err := fv.Verify(fx.domain, callback)
	if err == nil && ok {
		t.Errorf("Verify accepted a proof with a tampered trailing byte")
	}
}
