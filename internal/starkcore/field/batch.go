package field

import "fmt"

// BatchInv inverts every element of elements using Montgomery's trick:
// one modular inversion plus 3(n-1) multiplications instead of n
// inversions. Grounded on the teacher's core.Field.BatchInversion
// (core/field_batch.go), generalized to the opaque Element type and
// reused by the FRI folder's bulk domain-inversion step (spec §4.C9).
func BatchInv(elements []Element) ([]Element, error) {
	n := len(elements)
	if n == 0 {
		return nil, nil
	}
	for i, e := range elements {
		if e.IsZero() {
			return nil, fmt.Errorf("field: cannot batch-invert a zero element at index %d", i)
		}
	}
	if n == 1 {
		return []Element{elements[0].Inv()}, nil
	}

	acc := make([]Element, n)
	acc[0] = elements[0]
	for i := 1; i < n; i++ {
		acc[i] = acc[i-1].Mul(elements[i])
	}

	accInv := acc[n-1].Inv()

	results := make([]Element, n)
	for i := n - 1; i > 0; i-- {
		results[i] = accInv.Mul(acc[i-1])
		accInv = accInv.Mul(elements[i])
	}
	results[0] = accInv

	return results, nil
}
