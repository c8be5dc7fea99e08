package fri

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/commitment"
	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/table"
)

// FirstLayerCallback supplies the first layer's evaluations at the
// requested domain indices (spec §4.C11 "for the first layer, a
// callback variant is used instead"): the first layer is ordinarily
// already committed by whatever produced it (e.g. an AIR trace
// commitment), so the FRI verifier reads it through a caller-provided
// closure rather than its own table commitment.
type FirstLayerCallback func(indices []int) ([]field.Element, error)

// Verifier runs the C13 orchestration, mirroring Prover.
type Verifier struct {
	field  *field.Field
	ch     *channel.Verifier
	cfg    *commitment.Config
	params Params
}

// NewVerifier builds a FRI verifier matching a Prover built with the
// same cfg and params.
func NewVerifier(f *field.Field, ch *channel.Verifier, cfg *commitment.Config, params Params) (*Verifier, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Verifier{field: f, ch: ch, cfg: cfg, params: params}, nil
}

// Verify reads every committed layer and the last-layer coefficients,
// draws queries behind the proof-of-work gate, and checks each query's
// fold path down to the last layer. firstDomain is the first layer's
// evaluation domain; firstLayer supplies its evaluations at query
// points. Returns false (no error) on any consistency failure, and a
// non-nil error only for malformed proof data.
func (v *Verifier) Verify(firstDomain *domain.Domain, firstLayer FirstLayerCallback) (bool, error) {
	if firstDomain.Size%(1<<v.params.totalFoldSteps()) != 0 {
		return false, fmt.Errorf("fri: first layer size %d cannot shrink by 2^%d", firstDomain.Size, v.params.totalFoldSteps())
	}

	layers := make([]*CommittedVerifierLayer, len(v.params.FriStepList))
	alphas := make([]field.Element, len(v.params.FriStepList))
	domains := make([]*domain.Domain, len(v.params.FriStepList)+1)
	domains[0] = firstDomain

	curSize := firstDomain.Size
	for i, step := range v.params.FriStepList {
		vStack, err := commitment.BuildVerifier(v.cfg, curSize, v.ch)
		if err != nil {
			return false, fmt.Errorf("fri: Verify: %w", err)
		}
		nRows := curSize >> step
		cvl := NewCommittedVerifierLayer(vStack, v.ch, v.field, nRows, step)
		if err := cvl.ReadCommitment(); err != nil {
			return false, fmt.Errorf("fri: Verify: %w", err)
		}
		layers[i] = cvl
		// fri_step_list[0] == 0 keeps the first layer as-is: no fold
		// happens for it, so no evaluation point is drawn either,
		// symmetric with Prover.Prove (spec §4.C12/§4.C13).
		if i == 0 && step == 0 {
			alphas[i] = v.field.Zero()
		} else {
			alphas[i] = v.ch.GetRandomFieldElement(v.field)
		}

		nextDomain, err := domains[i].AtLayer(step)
		if err != nil {
			return false, fmt.Errorf("fri: Verify: %w", err)
		}
		domains[i+1] = nextDomain
		curSize = nRows
	}
	lastDomain := domains[len(domains)-1]

	coeffs := make([]field.Element, v.params.LastLayerDegreeBound)
	for k := range coeffs {
		c, err := v.ch.ReceiveFieldElement("last_layer_coefficient", v.field)
		if err != nil {
			return false, fmt.Errorf("fri: Verify: %w", err)
		}
		coeffs[k] = c
	}
	lastEvals := evalPolynomial(coeffs, lastDomain)

	powOK, err := v.ch.VerifyProofOfWork(v.params.ProofOfWorkBits)
	if err != nil {
		return false, fmt.Errorf("fri: Verify: %w", err)
	}
	if !powOK {
		return false, nil
	}
	queries := make([]int, v.params.NQueries)
	for i := range queries {
		queries[i] = int(v.ch.GetRandomNumber(uint64(firstDomain.Size)))
	}
	v.ch.BeginQueryPhase()

	curValues, err := firstLayer(queries)
	if err != nil {
		return false, fmt.Errorf("fri: Verify: %w", err)
	}
	if len(curValues) != len(queries) {
		return false, fmt.Errorf("fri: Verify: first-layer callback returned %d values for %d queries", len(curValues), len(queries))
	}

	curQueries := append([]int(nil), queries...)
	valueAt := make(map[int]field.Element, len(queries))
	for i, q := range curQueries {
		valueAt[q] = curValues[i]
	}

	for i, step := range v.params.FriStepList {
		integrityValues := make(map[int]field.Element, len(curQueries))
		for _, q := range curQueries {
			integrityValues[q] = valueAt[q]
		}
		cells, ok, err := layers[i].Decommit(curQueries, integrityValues)
		if err != nil {
			return false, fmt.Errorf("fri: Verify: %w", err)
		}
		if !ok {
			return false, nil
		}

		cols := 1 << step
		nextValueAt := make(map[int]field.Element, len(curQueries))
		nextQueries := make([]int, 0, len(curQueries))
		seenRows := map[int]bool{}
		for _, q := range curQueries {
			row := q >> step
			if seenRows[row] {
				continue
			}
			seenRows[row] = true
			rowVals := make([]field.Element, cols)
			for c := 0; c < cols; c++ {
				rc := table.RowCol{Row: row, Col: c}
				val, ok := cells[rc]
				if !ok {
					return false, fmt.Errorf("fri: Verify: missing cell (%d,%d) for layer %d", row, c, i)
				}
				rowVals[c] = val
			}
			folded, err := foldRow(rowVals, domains[i], row, step, alphas[i])
			if err != nil {
				return false, fmt.Errorf("fri: Verify: %w", err)
			}
			nextValueAt[row] = folded
			nextQueries = append(nextQueries, row)
		}

		curQueries = nextQueries
		valueAt = nextValueAt
	}

	for _, q := range curQueries {
		if !valueAt[q].Equal(lastEvals[q]) {
			return false, nil
		}
	}
	return true, nil
}
