// Package packaging implements the packer/hasher of spec §4.C6: groups
// consecutive elements of a layer into fixed-size packages and reduces
// each package to a single digest, so that a commitment over many small
// field elements does not need one hash per element.
package packaging

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// ElementsPerPackage returns the smallest power-of-two package size p,
// capped at totalElements, such that p*elementSize is at least two
// digests wide (spec §4.C6: a package must be large enough that hashing
// it is actually cheaper per element than hashing elements one at a
// time, while never exceeding the layer itself).
func ElementsPerPackage(elementSize, totalElements, digestBytes int) int {
	if elementSize <= 0 || totalElements <= 0 || digestBytes <= 0 {
		panic("packaging: elementSize, totalElements and digestBytes must be positive")
	}
	p := 1
	for p < totalElements && p*elementSize < 2*digestBytes {
		p *= 2
	}
	if p > totalElements {
		p = totalElements
	}
	return p
}

// packageBounds returns the half-open element range [start, end) of
// package index pkg, clipped to totalElements (the last package may be
// partial when packageSize does not evenly divide totalElements).
func packageBounds(pkg, packageSize, totalElements int) (int, int) {
	start := pkg * packageSize
	end := start + packageSize
	if end > totalElements {
		end = totalElements
	}
	return start, end
}

// PackAndHash reduces elements to one digest per package. When
// isMerkleLayer is true the elements are themselves already hash
// digests (the layer directly below a Merkle tree), so packages pass
// through unchanged rather than being rehashed (spec §4.C6: "a
// packaging layer sitting directly on a Merkle layer must not hash
// already-hashed data").
func PackAndHash(h xhash.Hash, elements [][]byte, packageSize int, isMerkleLayer bool) ([]xhash.Digest, error) {
	if packageSize <= 0 {
		return nil, fmt.Errorf("packaging: packageSize must be positive, got %d", packageSize)
	}
	total := len(elements)
	packageCount := (total + packageSize - 1) / packageSize
	out := make([]xhash.Digest, 0, packageCount)
	for pkg := 0; pkg < packageCount; pkg++ {
		start, end := packageBounds(pkg, packageSize, total)
		if isMerkleLayer {
			if end-start != 1 {
				return nil, fmt.Errorf("packaging: merkle layer packages must contain exactly one element, got %d", end-start)
			}
			out = append(out, append(xhash.Digest(nil), elements[start]...))
			continue
		}
		var buf []byte
		for i := start; i < end; i++ {
			buf = append(buf, elements[i]...)
		}
		out = append(out, h.HashBytesWithLength(buf))
	}
	return out, nil
}

// ElementsRequiredToComputeHashes returns, for the given package
// indices, the element indices not already present in known that must
// still be fetched before those packages' hashes can be computed (spec
// §4.C6, used by the commitment package's PackagingLayer to request
// the minimal missing data from the prover).
func ElementsRequiredToComputeHashes(neededPackages []int, known map[int]bool, packageSize, totalElements int) []int {
	var out []int
	for _, pkg := range neededPackages {
		start, end := packageBounds(pkg, packageSize, totalElements)
		for i := start; i < end; i++ {
			if !known[i] {
				out = append(out, i)
			}
		}
	}
	return out
}

// GetElementsInPackages flattens a set of package indices into the
// element indices they contain (spec §4.C6).
func GetElementsInPackages(packages []int, packageSize, totalElements int) []int {
	var out []int
	for _, pkg := range packages {
		start, end := packageBounds(pkg, packageSize, totalElements)
		for i := start; i < end; i++ {
			out = append(out, i)
		}
	}
	return out
}
