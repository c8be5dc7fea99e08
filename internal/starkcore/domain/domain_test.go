package domain

import (
	"math/big"
	"testing"

	"github.com/starkcore/starkcore/internal/starkcore/field"
)

func testField(t *testing.T) *field.Field {
	t.Helper()
	f, err := field.New(big.NewInt(3221225473)) // 3*2^30+1
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	return f
}

func TestAtMatchesElements(t *testing.T) {
	f := testField(t)
	gen := f.NewInt64(5)
	d, err := New(f.One(), gen, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	elements := d.Elements()
	for i, want := range elements {
		got := d.At(i)
		if !got.Equal(want) {
			t.Errorf("At(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestHalveSquaresGeneratorAndOffset(t *testing.T) {
	f := testField(t)
	gen := f.NewInt64(5)
	offset := f.NewInt64(3)
	d, _ := New(offset, gen, 8)
	h, err := d.Halve()
	if err != nil {
		t.Fatalf("Halve: %v", err)
	}
	if h.Size != 4 {
		t.Errorf("halved size = %d, want 4", h.Size)
	}
	if !h.Generator.Equal(gen.Mul(gen)) {
		t.Errorf("halved generator mismatch")
	}
	if !h.Offset.Equal(offset.Mul(offset)) {
		t.Errorf("halved offset mismatch")
	}
}

func TestAtLayerChainsHalving(t *testing.T) {
	f := testField(t)
	gen := f.NewInt64(5)
	d, _ := New(f.One(), gen, 16)
	layer2, err := d.AtLayer(2)
	if err != nil {
		t.Fatalf("AtLayer: %v", err)
	}
	want := gen.Mul(gen).Mul(gen.Mul(gen))
	if layer2.Size != 4 {
		t.Errorf("layer2 size = %d, want 4", layer2.Size)
	}
	if !layer2.Generator.Equal(want) {
		t.Errorf("layer2 generator mismatch")
	}
}

func TestSplitCosetsCoverDomain(t *testing.T) {
	f := testField(t)
	gen := f.NewInt64(5)
	d, _ := New(f.One(), gen, 8)
	cosets, err := d.SplitCosets(2)
	if err != nil {
		t.Fatalf("SplitCosets: %v", err)
	}
	if len(cosets) != 4 {
		t.Fatalf("got %d cosets, want 4", len(cosets))
	}
	seen := map[string]bool{}
	for _, c := range cosets {
		for _, e := range c.Elements() {
			seen[e.Hex()] = true
		}
	}
	for _, e := range d.Elements() {
		if !seen[e.Hex()] {
			t.Errorf("element %v missing from coset split", e)
		}
	}
}

func TestBlockMatchesContiguousRun(t *testing.T) {
	f := testField(t)
	gen := f.NewInt64(5)
	d, _ := New(f.One(), gen, 8)
	const blockSize = 2
	for row := 0; row < 4; row++ {
		b, err := d.Block(blockSize, row)
		if err != nil {
			t.Fatalf("Block(%d, %d): %v", blockSize, row, err)
		}
		for col := 0; col < blockSize; col++ {
			want := d.At(row*blockSize + col)
			got := b.At(col)
			if !got.Equal(want) {
				t.Errorf("Block(%d,%d).At(%d) = %v, want %v", blockSize, row, col, got, want)
			}
		}
	}
}

func TestBlockRejectsOutOfRangeRow(t *testing.T) {
	f := testField(t)
	d, _ := New(f.One(), f.NewInt64(5), 8)
	if _, err := d.Block(2, 4); err == nil {
		t.Errorf("expected an error for row out of range")
	}
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	f := testField(t)
	if _, err := New(f.One(), f.NewInt64(5), 6); err == nil {
		t.Errorf("expected an error for a non-power-of-two size")
	}
}
