package fri

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/commitment"
	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// Params collects the FRI parameters of spec §3 ("FRI parameters"):
// the successive folding widths, the degree bound the final committed
// polynomial must satisfy, the query count and proof-of-work gate.
type Params struct {
	FriStepList          []int
	LastLayerDegreeBound int
	NQueries             int
	ProofOfWorkBits      uint8
}

func (p Params) totalFoldSteps() int {
	total := 0
	for _, s := range p.FriStepList {
		total += s
	}
	return total
}

func (p Params) validate() error {
	if len(p.FriStepList) == 0 {
		return fmt.Errorf("fri: FriStepList must be non-empty")
	}
	for i, s := range p.FriStepList {
		// fri_step_list[0] == 0 is the spec's "keep the first layer
		// as-is" case (§4.C12): no fold, no evaluation point drawn for
		// it. Every other entry must still be strictly positive.
		if s < 0 || (s == 0 && i != 0) {
			return fmt.Errorf("fri: FriStepList[%d] = %d must be positive (or zero at index 0)", i, s)
		}
	}
	if p.LastLayerDegreeBound <= 0 {
		return fmt.Errorf("fri: LastLayerDegreeBound must be positive")
	}
	if p.NQueries <= 0 {
		return fmt.Errorf("fri: NQueries must be positive")
	}
	return nil
}

// Prover runs the C12 orchestration: fold the first layer down through
// fri_step_list, committing each pre-fold layer via C11, reveal the
// degree-bounded last layer, then gate the query phase behind
// proof-of-work and decommit every committed layer along the queries'
// fold path.
type Prover struct {
	field  *field.Field
	ch     *channel.Prover
	cfg    *commitment.Config
	params Params

	layers []*CommittedLayer
}

// NewProver builds a FRI prover over f's field, writing to ch, using
// cfg for every layer's inner commitment scheme.
func NewProver(f *field.Field, ch *channel.Prover, cfg *commitment.Config, params Params) (*Prover, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Prover{field: f, ch: ch, cfg: cfg, params: params}, nil
}

// Prove runs the full protocol over the first layer's evaluation
// (e.g. a composition polynomial's values on its evaluation domain)
// and returns the query indices it drew, for callers that need them
// (e.g. to also decommit an outer trace commitment at the same points).
func (p *Prover) Prove(firstLayerEvals []field.Element, firstDomain *domain.Domain) ([]int, error) {
	if firstDomain.Size%(1<<p.params.totalFoldSteps()) != 0 {
		return nil, fmt.Errorf("fri: first layer size %d cannot shrink by 2^%d", firstDomain.Size, p.params.totalFoldSteps())
	}

	cur, err := NewInMemoryLayer(firstLayerEvals, firstDomain)
	if err != nil {
		return nil, fmt.Errorf("fri: Prove: %w", err)
	}

	p.layers = p.layers[:0]
	for i, step := range p.params.FriStepList {
		stack, err := commitment.Build(p.cfg, cur.LayerSize(), p.ch)
		if err != nil {
			return nil, fmt.Errorf("fri: Prove: %w", err)
		}
		cl, err := NewCommittedLayer(stack, p.ch, cur, step)
		if err != nil {
			return nil, fmt.Errorf("fri: Prove: %w", err)
		}
		p.layers = append(p.layers, cl)

		// fri_step_list[0] == 0 keeps the first layer as-is: the fold
		// loop below runs zero times, so no evaluation point is drawn
		// for it either (spec §4.C12).
		var a field.Element
		if i == 0 && step == 0 {
			a = p.field.Zero()
		} else {
			a = p.ch.ReceiveFieldElement(p.field)
		}
		for b := 0; b < step; b++ {
			nextEvals, err := FoldLayer(cur.GetAllEvaluation(), cur.Domain(), a)
			if err != nil {
				return nil, fmt.Errorf("fri: Prove: %w", err)
			}
			nextDomain, err := cur.Domain().Halve()
			if err != nil {
				return nil, fmt.Errorf("fri: Prove: %w", err)
			}
			cur, err = NewInMemoryLayer(nextEvals, nextDomain)
			if err != nil {
				return nil, fmt.Errorf("fri: Prove: %w", err)
			}
			a = a.Mul(a)
		}
	}

	// Last layer: decode coefficients, check the degree bound, send
	// the first LastLayerDegreeBound of them (padding is implicit).
	lastEvals := cur.GetAllEvaluation()
	lastDomain := cur.Domain()
	coeffs, err := inverseDFTCoeffs(lastEvals, lastDomain)
	if err != nil {
		return nil, fmt.Errorf("fri: Prove: %w", err)
	}
	if deg := polynomialDegree(coeffs); deg >= p.params.LastLayerDegreeBound {
		return nil, fmt.Errorf("fri: last layer degree %d exceeds bound %d", deg, p.params.LastLayerDegreeBound)
	}
	for k := 0; k < p.params.LastLayerDegreeBound; k++ {
		c := p.field.Zero()
		if k < len(coeffs) {
			c = coeffs[k]
		}
		if err := p.ch.SendFieldElement("last_layer_coefficient", c); err != nil {
			return nil, fmt.Errorf("fri: Prove: %w", err)
		}
	}

	if err := p.ch.ApplyProofOfWork(p.params.ProofOfWorkBits); err != nil {
		return nil, fmt.Errorf("fri: Prove: %w", err)
	}
	queries := make([]int, p.params.NQueries)
	for i := range queries {
		queries[i] = int(p.ch.ReceiveNumber(uint64(firstDomain.Size)))
	}
	p.ch.BeginQueryPhase()

	curQueries := append([]int(nil), queries...)
	for i, step := range p.params.FriStepList {
		if err := p.layers[i].Decommit(curQueries); err != nil {
			return nil, fmt.Errorf("fri: Prove: %w", err)
		}
		curQueries = shiftQueries(curQueries, step)
	}

	return queries, nil
}

// shiftQueries maps each query index q into the current layer's
// domain down to its row in the next layer (q >> step, see
// rowColSplit), deduplicating since distinct queries can land in the
// same contiguous block.
func shiftQueries(queries []int, step int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(queries))
	for _, q := range queries {
		row := q >> step
		if seen[row] {
			continue
		}
		seen[row] = true
		out = append(out, row)
	}
	return out
}
