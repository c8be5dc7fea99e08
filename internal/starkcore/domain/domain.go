// Package domain implements the evaluation domain of the data model
// (§3): a coset of a multiplicative subgroup, viewed as a sequence of
// "FFT bases" — layer k is obtained from layer 0 by squaring both the
// generator and the offset k times, halving the domain size each time.
//
// Domain indices are bit-reversed relative to the plain power sequence
// (index i holds offset*generator^bitrev(i), not offset*generator^i):
// this is what makes adjacent array positions 2i and 2i+1 always an
// (x, -x) pair at every layer, which is the pairing FRI's fold (§4.C9)
// and its row/column query split (§4.C13) are defined in terms of.
package domain

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// Domain is the coset {offset * generator^i : i = 0..size-1}. Finding
// a primitive root of unity for a given field and size is a concrete
// field-arithmetic concern outside this module's scope; callers supply
// generator and offset directly.
type Domain struct {
	Offset    field.Element
	Generator field.Element
	Size      int
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

// New constructs a base domain. size must be a power of two.
func New(offset, generator field.Element, size int) (*Domain, error) {
	if !isPowerOfTwo(size) {
		return nil, fmt.Errorf("domain: size must be a power of two, got %d", size)
	}
	return &Domain{Offset: offset, Generator: generator, Size: size}, nil
}

// At returns the i-th element of the domain in bit-reversed order:
// offset * generator^bitrev(i), via square-and-multiply so callers
// need not materialize the whole domain to read one element.
func (d *Domain) At(i int) field.Element {
	if i < 0 || i >= d.Size {
		panic(fmt.Sprintf("domain: index %d out of range [0,%d)", i, d.Size))
	}
	return d.Offset.Mul(powElement(d.Generator, bitReverse(i, log2(d.Size))))
}

// powElement computes base^exp by square-and-multiply; exp >= 0.
func powElement(base field.Element, exp int) field.Element {
	result := base.Field().One()
	b := base
	e := exp
	for e > 0 {
		if e&1 == 1 {
			result = result.Mul(b)
		}
		b = b.Mul(b)
		e >>= 1
	}
	return result
}

// Elements materializes every element of the domain in order.
func (d *Domain) Elements() []field.Element {
	out := make([]field.Element, d.Size)
	for i := 0; i < d.Size; i++ {
		out[i] = d.At(i)
	}
	return out
}

// bitReverse reverses the low bits-many bits of i.
func bitReverse(i, bits int) int {
	r := 0
	for b := 0; b < bits; b++ {
		r = (r << 1) | (i & 1)
		i >>= 1
	}
	return r
}

// AtLayer returns the domain at FRI layer k: size halved k times,
// generator and offset squared k times (spec §3 "layer k is a domain
// of size 2^(log_size−k) obtained by squaring the previous").
func (d *Domain) AtLayer(k int) (*Domain, error) {
	cur := d
	for i := 0; i < k; i++ {
		next, err := cur.Halve()
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Halve returns the domain of half the size with generator and offset
// squared (not halved).
func (d *Domain) Halve() (*Domain, error) {
	if d.Size < 2 {
		return nil, fmt.Errorf("domain: cannot halve a domain of size %d", d.Size)
	}
	return &Domain{
		Offset:    d.Offset.Mul(d.Offset),
		Generator: d.Generator.Mul(d.Generator),
		Size:      d.Size / 2,
	}, nil
}

// SplitCosets splits the domain into size/cosetSize strided cosets,
// each of cosetSize elements, of the subgroup generated by
// generator^(size/cosetSize). With step = size/cosetSize, coset j
// consists of offset*generator^e for the exponents e congruent to
// bitrev(j, log2(step)) modulo step. Under the domain's bit-reversed
// indexing (At) these are exactly the positions
// [j*cosetSize, (j+1)*cosetSize), so coset j is the same sub-domain
// Block(cosetSize, j) returns. FRI's fold calls Block.
func (d *Domain) SplitCosets(cosetSize int) ([]*Domain, error) {
	if cosetSize <= 0 || d.Size%cosetSize != 0 {
		return nil, fmt.Errorf("domain: coset size %d must divide domain size %d", cosetSize, d.Size)
	}
	step := d.Size / cosetSize
	stepBits := log2(step)
	subgroupGenerator := powElement(d.Generator, step)
	cosets := make([]*Domain, step)
	for j := 0; j < step; j++ {
		cosets[j] = &Domain{
			Offset:    d.Offset.Mul(powElement(d.Generator, bitReverse(j, stepBits))),
			Generator: subgroupGenerator,
			Size:      cosetSize,
		}
	}
	return cosets, nil
}

// Block returns the sub-domain of the contiguous run of blockSize
// domain positions [row*blockSize, (row+1)*blockSize) — the grouping
// spec §4.C13's row/column query split uses: element index q in that
// range decomposes as q = row*blockSize + col, and Block(blockSize,
// row).At(col) equals d.At(q). blockSize must divide d.Size.
func (d *Domain) Block(blockSize, row int) (*Domain, error) {
	if blockSize <= 0 || d.Size%blockSize != 0 {
		return nil, fmt.Errorf("domain: block size %d must divide domain size %d", blockSize, d.Size)
	}
	nRows := d.Size / blockSize
	if row < 0 || row >= nRows {
		return nil, fmt.Errorf("domain: block row %d out of range [0,%d)", row, nRows)
	}
	return &Domain{
		Offset:    d.Offset.Mul(powElement(d.Generator, bitReverse(row, log2(nRows)))),
		Generator: powElement(d.Generator, nRows),
		Size:      blockSize,
	}, nil
}

func log2(n int) int {
	l := 0
	for n > 1 {
		n /= 2
		l++
	}
	return l
}
