package fri

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// inverseDFTCoeffs recovers the coefficients of the unique degree <
// len(evals) polynomial p such that evals[i] == p(dom.At(i)), by
// direct (O(n^2)) inverse discrete Fourier transform over the coset
// dom. Spec §4.C12 calls for "an inverse FFT" here; a radix-2 FFT
// needs concrete field/root-of-unity machinery this module leaves to
// its callers (see domain package), so the last FRI layer — small by
// construction — is decoded with the textbook direct sum instead,
// keyed off dom.At(i) rather than assuming evals is in plain
// generator-power order (dom's indices are bit-reversed, see the
// domain package doc). Both compute the same coefficients.
func inverseDFTCoeffs(evals []field.Element, dom *domain.Domain) ([]field.Element, error) {
	n := len(evals)
	if n != dom.Size {
		return nil, fmt.Errorf("fri: inverseDFTCoeffs: evaluation count %d does not match domain size %d", n, dom.Size)
	}
	if n == 0 {
		return nil, fmt.Errorf("fri: inverseDFTCoeffs: empty evaluation vector")
	}
	f := dom.Offset.Field()
	nInv := f.NewInt64(int64(n)).Inv()

	xs := make([]field.Element, n)
	for i := 0; i < n; i++ {
		xs[i] = dom.At(i)
	}
	xInvs, err := field.BatchInv(xs)
	if err != nil {
		return nil, fmt.Errorf("fri: inverseDFTCoeffs: %w", err)
	}

	coeffs := make([]field.Element, n)
	terms := make([]field.Element, n)
	for i := range terms {
		terms[i] = f.One()
	}
	for k := 0; k < n; k++ {
		acc := f.Zero()
		for i := 0; i < n; i++ {
			acc = acc.Add(evals[i].Mul(terms[i]))
			terms[i] = terms[i].Mul(xInvs[i])
		}
		coeffs[k] = acc.Mul(nInv)
	}
	return coeffs, nil
}

// evalPolynomial evaluates a coefficient vector (low-degree first,
// padded with implicit zeros beyond len(coeffs)) at every point of dom,
// the inverse of inverseDFTCoeffs — used by the verifier to reconstruct
// the last layer's evaluation from its degree-bounded coefficients.
func evalPolynomial(coeffs []field.Element, dom *domain.Domain) []field.Element {
	out := make([]field.Element, dom.Size)
	for i := 0; i < dom.Size; i++ {
		x := dom.At(i)
		acc := x.Field().Zero()
		power := x.Field().One()
		for _, c := range coeffs {
			acc = acc.Add(c.Mul(power))
			power = power.Mul(x)
		}
		out[i] = acc
	}
	return out
}

// polynomialDegree returns the index of the highest nonzero
// coefficient, or -1 for the zero polynomial.
func polynomialDegree(coeffs []field.Element) int {
	for i := len(coeffs) - 1; i >= 0; i-- {
		if !coeffs[i].IsZero() {
			return i
		}
	}
	return -1
}
