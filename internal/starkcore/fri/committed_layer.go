package fri

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/commitment"
	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/table"
)

// CommittedLayer binds a Layer to a table.Prover (spec §4.C11): the
// layer's evaluations are reshaped into rows of 2^friStep columns (one
// row per eventual folded point, one column per sibling the verifier
// will need to recompute that fold) and committed through the inner
// commitment stack.
type CommittedLayer struct {
	layer   Layer
	friStep int
	cols    int
	nRows   int
	table   *table.Prover
}

// NewCommittedLayer commits layer's full evaluation through stack via
// ch. Rows are the 2^friStep-element contiguous blocks spec §4.C9's
// fold pairing collapses together after friStep successive folds: row
// r holds domain positions r*2^friStep .. r*2^friStep+2^friStep-1
// (element index q decomposes as row = q >> friStep, col = q &
// (2^friStep-1), per spec §4.C13), which is the layout the domain
// package's bit-reversed (x, -x) = (2i, 2i+1) pairing closes under
// repeated adjacent folding.
func NewCommittedLayer(stack commitment.ProverLayer, ch *channel.Prover, layer Layer, friStep int) (*CommittedLayer, error) {
	cols := 1 << friStep
	size := layer.LayerSize()
	if size%cols != 0 {
		return nil, fmt.Errorf("fri: committed layer size %d is not a multiple of 2^%d", size, friStep)
	}
	nRows := size / cols

	tp := table.NewProver(stack, ch, nRows, cols)
	evals := layer.GetAllEvaluation()
	rows := make([][]field.Element, nRows)
	for r := 0; r < nRows; r++ {
		rows[r] = append([]field.Element(nil), evals[r*cols:(r+1)*cols]...)
	}
	if err := tp.AddSegment(rows, 0); err != nil {
		return nil, fmt.Errorf("fri: committed layer: %w", err)
	}
	if err := tp.Commit(); err != nil {
		return nil, fmt.Errorf("fri: committed layer: %w", err)
	}
	return &CommittedLayer{layer: layer, friStep: friStep, cols: cols, nRows: nRows, table: tp}, nil
}

// rowColSplit implements the query split of spec §4.C13: for each
// query q into this layer's domain of size = nRows*cols, row = q >>
// friStep identifies the contiguous block (and the resulting
// next-layer index), col = q & (cols-1) identifies which of the
// block's 2^friStep siblings q itself is. The cell (row, col) is the
// one query q already determines (an integrity check); every other
// column sharing that row must be transmitted as data to complete the
// fold.
func rowColSplit(queries []int, friStep, nRows int) (dataQueries, integrityQueries []table.RowCol) {
	cols := 1 << friStep
	integritySet := map[table.RowCol]bool{}
	rows := map[int]bool{}
	for _, q := range queries {
		row := q >> friStep
		col := q & (cols - 1)
		integritySet[table.RowCol{Row: row, Col: col}] = true
		rows[row] = true
	}
	for row := range rows {
		for c := 0; c < cols; c++ {
			rc := table.RowCol{Row: row, Col: c}
			if integritySet[rc] {
				integrityQueries = append(integrityQueries, rc)
			} else {
				dataQueries = append(dataQueries, rc)
			}
		}
	}
	return dataQueries, integrityQueries
}

// Decommit transmits the data needed to verify every query index's
// fold, withholding only the cells the verifier already knows.
func (c *CommittedLayer) Decommit(queries []int) error {
	dataQueries, integrityQueries := rowColSplit(queries, c.friStep, c.nRows)
	return c.table.Decommit(dataQueries, integrityQueries)
}

// CommittedVerifierLayer mirrors CommittedLayer.
type CommittedVerifierLayer struct {
	friStep int
	cols    int
	nRows   int
	table   *table.Verifier
}

// NewCommittedVerifierLayer mirrors NewCommittedLayer.
func NewCommittedVerifierLayer(stack commitment.VerifierLayer, ch *channel.Verifier, f *field.Field, nRows, friStep int) *CommittedVerifierLayer {
	cols := 1 << friStep
	return &CommittedVerifierLayer{
		friStep: friStep,
		cols:    cols,
		nRows:   nRows,
		table:   table.NewVerifier(stack, ch, f, nRows, cols),
	}
}

func (c *CommittedVerifierLayer) ReadCommitment() error { return c.table.ReadCommitment() }

// Decommit reads the transmitted data, combines it with the caller's
// already-known integrity values (keyed by query index into this
// layer's domain), and checks the reconstructed rows against the inner
// commitment. It returns every row's cells (query index -> next-layer
// input elements), keyed by RowCol for the caller to re-fold.
func (c *CommittedVerifierLayer) Decommit(queries []int, integrityValues map[int]field.Element) (map[table.RowCol]field.Element, bool, error) {
	dataQueries, integrityQueries := rowColSplit(queries, c.friStep, c.nRows)

	byRowCol := make(map[table.RowCol]field.Element, len(queries))
	for _, q := range queries {
		row, col := q>>c.friStep, q&(c.cols-1)
		val, ok := integrityValues[q]
		if !ok {
			return nil, false, fmt.Errorf("fri: committed layer: missing integrity value for query %d", q)
		}
		byRowCol[table.RowCol{Row: row, Col: col}] = val
	}

	cells, ok, err := c.table.Decommit(dataQueries, integrityQueries, byRowCol)
	if err != nil {
		return nil, false, fmt.Errorf("fri: committed layer: %w", err)
	}
	return cells, ok, nil
}
