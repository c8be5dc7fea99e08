package table

import (
	"math/big"
	"testing"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/commitment"
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

func TestTableCommitDecommitVerify(t *testing.T) {
	f := testField(t)
	h := xhash.Keccak256{}
	seed := []byte("table seed")

	nRows, nCols := 4, 2
	totalElements := nRows * nCols // 8

	prover := channel.NewProver(h, seed)
	cfg := commitment.DefaultConfig().WithVerifierFriendlyLayers(1).WithElementSize(f.ByteLen())
	stack, err := commitment.Build(cfg, totalElements, prover)
	if err != nil {
		t.Fatalf("commitment.Build: %v", err)
	}
	tp := NewProver(stack, prover, nRows, nCols)

	rows := make([][]field.Element, nRows)
	for r := 0; r < nRows; r++ {
		rows[r] = []field.Element{f.NewInt64(int64(r*10 + 1)), f.NewInt64(int64(r*10 + 2))}
	}
	if err := tp.AddSegment(rows, 0); err != nil {
		t.Fatalf("AddSegment: %v", err)
	}
	if err := tp.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	dataQueries := []RowCol{{Row: 1, Col: 0}}
	integrityQueries := []RowCol{{Row: 1, Col: 1}}
	if err := tp.Decommit(dataQueries, integrityQueries); err != nil {
		t.Fatalf("Decommit: %v", err)
	}

	verifier := channel.NewVerifier(h, seed, prover.Proof())
	vStack, err := commitment.BuildVerifier(cfg, totalElements, verifier)
	if err != nil {
		t.Fatalf("BuildVerifier: %v", err)
	}
	tv := NewVerifier(vStack, verifier, f, nRows, nCols)
	if err := tv.ReadCommitment(); err != nil {
		t.Fatalf("ReadCommitment: %v", err)
	}

	integrityValues := map[RowCol]field.Element{
		{Row: 1, Col: 1}: rows[1][1],
	}
	cells, ok, err := tv.Decommit(dataQueries, integrityQueries, integrityValues)
	if err != nil {
		t.Fatalf("Decommit: %v", err)
	}
	if !ok {
		t.Fatalf("table verification rejected a genuine commitment")
	}
	if !cells[RowCol{Row: 1, Col: 0}].Equal(rows[1][0]) {
		t.Errorf("recovered cell (1,0) = %v, want %v", cells[RowCol{Row: 1, Col: 0}], rows[1][0])
	}
}

func TestTableDecommitRejectsTamperedIntegrityValue(t *testing.T) {
	f := testField(t)
	h := xhash.Keccak256{}
	seed := []byte("table tamper seed")

	nRows, nCols := 4, 2
	totalElements := nRows * nCols

	prover := channel.NewProver(h, seed)
	cfg := commitment.DefaultConfig().WithVerifierFriendlyLayers(1).WithElementSize(f.ByteLen())
	stack, _ := commitment.Build(cfg, totalElements, prover)
	tp := NewProver(stack, prover, nRows, nCols)

	rows := make([][]field.Element, nRows)
	for r := 0; r < nRows; r++ {
		rows[r] = []field.Element{f.NewInt64(int64(r*10 + 1)), f.NewInt64(int64(r*10 + 2))}
	}
	_ = tp.AddSegment(rows, 0)
	_ = tp.Commit()

	dataQueries := []RowCol{{Row: 2, Col: 0}}
	integrityQueries := []RowCol{{Row: 2, Col: 1}}
	_ = tp.Decommit(dataQueries, integrityQueries)

	verifier := channel.NewVerifier(h, seed, prover.Proof())
	vStack, _ := commitment.BuildVerifier(cfg, totalElements, verifier)
	tv := NewVerifier(vStack, verifier, f, nRows, nCols)
	_ = tv.ReadCommitment()

	tamperedValues := map[RowCol]field.Element{
		{Row: 2, Col: 1}: f.NewInt64(999999),
	}
	_, ok, err := tv.Decommit(dataQueries, integrityQueries, tamperedValues)
	if err != nil {
		t.Fatalf("Decommit: %v", err)
	}
	if ok {
		t.Errorf("table verification accepted a tampered integrity value")
	}
}
