// Package table implements the row/column view over a commitment
// scheme of spec §4.C8: columns are serialized row-major and forwarded
// to an inner commitment.ProverLayer, and decommitment splits queries
// into those the verifier must receive and those it will recompute
// itself (integrity queries).
package table

import (
	"fmt"
	"sort"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/commitment"
	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// RowCol is a single cell query (spec §3 "Row/column query").
type RowCol struct {
	Row, Col int
}

// Prover is a table view over an inner commitment layer.
type Prover struct {
	nRows, nCols int
	inner        commitment.ProverLayer
	ch           *channel.Prover
	rows         map[int][]field.Element // row -> nCols values
}

// NewProver creates a table of nRows x nCols over inner.
func NewProver(inner commitment.ProverLayer, ch *channel.Prover, nRows, nCols int) *Prover {
	return &Prover{nRows: nRows, nCols: nCols, inner: inner, ch: ch, rows: make(map[int][]field.Element)}
}

// AddSegment writes a contiguous block of rows starting at startRow,
// serializing each row's columns in row-major order and forwarding the
// bytes to the inner scheme (spec §4.C8).
func (p *Prover) AddSegment(rows [][]field.Element, startRow int) error {
	var buf []byte
	for i, row := range rows {
		if len(row) != p.nCols {
			panic(fmt.Sprintf("table: row %d has %d columns, want %d", startRow+i, len(row), p.nCols))
		}
		p.rows[startRow+i] = append([]field.Element(nil), row...)
		for _, v := range row {
			buf = append(buf, v.Bytes()...)
		}
	}
	return p.inner.AddSegment(buf, startRow*p.nCols)
}

func (p *Prover) Commit() error { return p.inner.Commit() }

// Decommit implements spec §4.C8's split: dataQueries are cells the
// verifier cannot derive itself and must receive over the channel;
// integrityQueries are cells the verifier will recompute from other
// data and checks for consistency instead. Every other column of a row
// touched by either query set is also transmitted, since revealing one
// cell of a row commits to data covering the whole row.
func (p *Prover) Decommit(dataQueries, integrityQueries []RowCol) error {
	touchedRows := map[int]bool{}
	integritySet := map[RowCol]bool{}
	for _, q := range dataQueries {
		touchedRows[q.Row] = true
	}
	for _, q := range integrityQueries {
		touchedRows[q.Row] = true
		integritySet[q] = true
	}
	rows := make([]int, 0, len(touchedRows))
	for r := range touchedRows {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	elementIndices := make([]int, 0, len(rows)*p.nCols)
	for _, r := range rows {
		for c := 0; c < p.nCols; c++ {
			elementIndices = append(elementIndices, r*p.nCols+c)
		}
	}
	needed, err := p.inner.StartDecommitmentPhase(elementIndices)
	if err != nil {
		return fmt.Errorf("table: decommit: %w", err)
	}

	for _, r := range rows {
		row, ok := p.rows[r]
		if !ok {
			return fmt.Errorf("table: decommit: row %d was never added", r)
		}
		for c := 0; c < p.nCols; c++ {
			if integritySet[RowCol{r, c}] {
				continue
			}
			if err := p.ch.SendFieldElement("table_cell", row[c]); err != nil {
				return err
			}
		}
	}

	provided := make(map[int][]byte, len(needed))
	for _, idx := range needed {
		row, col := idx/p.nCols, idx%p.nCols
		values, ok := p.rows[row]
		if !ok {
			return fmt.Errorf("table: decommit: inner layer requested row %d, never added", row)
		}
		provided[idx] = values[col].Bytes()
	}
	return p.inner.Decommit(provided)
}

// Verifier mirrors Prover.
type Verifier struct {
	nRows, nCols int
	field        *field.Field
	inner        commitment.VerifierLayer
	ch           *channel.Verifier
}

// NewVerifier mirrors NewProver.
func NewVerifier(inner commitment.VerifierLayer, ch *channel.Verifier, f *field.Field, nRows, nCols int) *Verifier {
	return &Verifier{nRows: nRows, nCols: nCols, field: f, inner: inner, ch: ch}
}

func (v *Verifier) ReadCommitment() error { return v.inner.ReadCommitment() }

// Decommit reads the transmitted cells in the same order the prover
// sent them, combines them with the caller-supplied integrity values,
// verifies the reconstructed rows against the inner commitment, and
// returns the full cell map (data ∪ integrity) for the caller to use.
func (v *Verifier) Decommit(dataQueries, integrityQueries []RowCol, integrityValues map[RowCol]field.Element) (map[RowCol]field.Element, bool, error) {
	touchedRows := map[int]bool{}
	integritySet := map[RowCol]bool{}
	for _, q := range dataQueries {
		touchedRows[q.Row] = true
	}
	for _, q := range integrityQueries {
		touchedRows[q.Row] = true
		integritySet[q] = true
	}
	rows := make([]int, 0, len(touchedRows))
	for r := range touchedRows {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	elementIndices := make([]int, 0, len(rows)*v.nCols)
	for _, r := range rows {
		for c := 0; c < v.nCols; c++ {
			elementIndices = append(elementIndices, r*v.nCols+c)
		}
	}
	v.inner.SetQueries(elementIndices)

	cells := make(map[RowCol]field.Element, len(elementIndices))
	innerData := make(map[int][]byte, len(elementIndices))
	for _, r := range rows {
		for c := 0; c < v.nCols; c++ {
			rc := RowCol{r, c}
			idx := r*v.nCols + c
			if integritySet[rc] {
				val, ok := integrityValues[rc]
				if !ok {
					return nil, false, fmt.Errorf("table: decommit: missing integrity value for row %d col %d", r, c)
				}
				cells[rc] = val
				innerData[idx] = val.Bytes()
				continue
			}
			val, err := v.ch.ReceiveFieldElement("table_cell", v.field)
			if err != nil {
				return nil, false, fmt.Errorf("table: decommit: %w", err)
			}
			cells[rc] = val
			innerData[idx] = val.Bytes()
		}
	}

	ok, err := v.inner.VerifyIntegrity(innerData)
	if err != nil {
		return nil, false, fmt.Errorf("table: decommit: %w", err)
	}
	return cells, ok, nil
}
