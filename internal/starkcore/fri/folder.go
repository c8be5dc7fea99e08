// Package fri implements the FRI (Fast Reed-Solomon IOP of Proximity)
// low-degree test of spec §4.C9–§4.C13: the algebraic fold, the three
// layer materialization strategies, the committed layer bound to a
// table prover, and the prover/verifier orchestration.
package fri

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// minTaskSize is the empirical min_log_n_fri_task_size knob of spec
// §4.C9 (≈2^12 elements) below which a fold runs on a single goroutine
// rather than paying task-dispatch overhead.
const minTaskSize = 1 << 12

// Fold computes spec §4.C9's algebraic fold:
//
//	fold(f(x), f(-x), a, x^-1) = (f(x)+f(-x)) + a*(f(x)-f(-x))*x^-1
//
// which equals 2*g(x^2) + 2*a*h(x^2) where f(z) = g(z^2) + z*h(z^2).
func Fold(fx, fmx, alpha, xInv field.Element) field.Element {
	sum := fx.Add(fmx)
	diff := fx.Sub(fmx)
	return sum.Add(alpha.Mul(diff).Mul(xInv))
}

// FoldLayer folds a whole evaluation vector over dom in one step,
// producing the half-size next-layer evaluation. dom's bit-reversed
// indexing (see the domain package doc) makes evals[2i] and evals[2i+1] the
// (x, -x) pair the fold at output index i combines. Domain inversion
// is batched via field.BatchInv (spec §4.C9 "domain inversion fused
// into a shift"); the outer loop is parallelized using
// golang.org/x/sync's errgroup in chunks of at least minTaskSize,
// mirroring the teacher's fri_optimized.go worker-chunked style.
func FoldLayer(evals []field.Element, dom *domain.Domain, alpha field.Element) ([]field.Element, error) {
	n := len(evals)
	if n != dom.Size {
		return nil, fmt.Errorf("fri: FoldLayer evaluation length %d does not match domain size %d", n, dom.Size)
	}
	if n%2 != 0 {
		return nil, fmt.Errorf("fri: FoldLayer input size %d must be even", n)
	}
	half := n / 2

	xs := make([]field.Element, half)
	for i := 0; i < half; i++ {
		xs[i] = dom.At(2 * i)
	}
	xInvs, err := field.BatchInv(xs)
	if err != nil {
		return nil, fmt.Errorf("fri: FoldLayer: %w", err)
	}

	out := make([]field.Element, half)
	fold := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = Fold(evals[2*i], evals[2*i+1], alpha, xInvs[i])
		}
	}

	if half <= minTaskSize {
		fold(0, half)
		return out, nil
	}

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	chunk := (half + workers - 1) / workers
	if chunk < minTaskSize {
		chunk = minTaskSize
	}
	var g errgroup.Group
	for lo := 0; lo < half; lo += chunk {
		lo := lo
		hi := lo + chunk
		if hi > half {
			hi = half
		}
		g.Go(func() error {
			fold(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}
