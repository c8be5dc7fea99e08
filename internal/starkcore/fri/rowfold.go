package fri

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// foldRow collapses the 2^step contiguous-block raw values of row (the
// block's local domain is layerDomain.Block(2^step, row)) into the
// single next-layer value at index row, replaying the same step-deep
// fold chain (alpha, alpha^2, alpha^4, ...) the prover used to produce
// that value from the full domain in one pass.
func foldRow(rowVals []field.Element, layerDomain *domain.Domain, row, step int, alpha field.Element) (field.Element, error) {
	cols := 1 << step
	localDom, err := layerDomain.Block(cols, row)
	if err != nil {
		return field.Element{}, fmt.Errorf("fri: foldRow: %w", err)
	}
	vals := rowVals
	a := alpha
	for b := 0; b < step; b++ {
		next, err := FoldLayer(vals, localDom, a)
		if err != nil {
			return field.Element{}, fmt.Errorf("fri: foldRow: %w", err)
		}
		if len(next) > 1 {
			localDom, err = localDom.Halve()
			if err != nil {
				return field.Element{}, fmt.Errorf("fri: foldRow: %w", err)
			}
		}
		vals = next
		a = a.Mul(a)
	}
	if len(vals) != 1 {
		return field.Element{}, fmt.Errorf("fri: foldRow: expected a single folded value, got %d", len(vals))
	}
	return vals[0], nil
}
