package commitment

import (
	"fmt"
	"sort"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/packaging"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// PackagingLayer wraps an inner ProverLayer, reducing elementSize-wide
// raw elements to one digest per package before forwarding to inner
// (spec §4.C7 "Packaging layer"). Segments are assumed aligned to
// package boundaries — the common case, since the factory sizes every
// layer's segment count in multiples of the package size; a caller
// streaming unaligned segments gets a panic rather than silently wrong
// packages.
type PackagingLayer struct {
	hash          xhash.Hash
	elementSize   int
	packageSize   int
	totalElements int
	isMerkleLayer bool
	inner         ProverLayer
	prover        *channel.Prover

	queries    []int
	touchedPkg []int
	known      map[int]bool
}

// NewPackagingLayer creates a packaging layer over totalElements
// elements of elementSize bytes each, feeding a terminal or further
// packaging layer.
func NewPackagingLayer(h xhash.Hash, elementSize, totalElements int, isMerkleLayer bool, inner ProverLayer, prover *channel.Prover) *PackagingLayer {
	p := packaging.ElementsPerPackage(elementSize, totalElements, h.DigestBytes())
	return NewPackagingLayerWithPackageSize(h, elementSize, totalElements, p, isMerkleLayer, inner, prover)
}

// NewPackagingLayerWithPackageSize is NewPackagingLayer with an
// explicit package size instead of one derived from spec §4.C6's
// formula — used by the factory (Build), which must pick a package
// size that divides totalElements down to an exact inner element
// count rather than whatever size the formula would otherwise choose.
func NewPackagingLayerWithPackageSize(h xhash.Hash, elementSize, totalElements, packageSize int, isMerkleLayer bool, inner ProverLayer, prover *channel.Prover) *PackagingLayer {
	return &PackagingLayer{
		hash:          h,
		elementSize:   elementSize,
		packageSize:   packageSize,
		totalElements: totalElements,
		isMerkleLayer: isMerkleLayer,
		inner:         inner,
		prover:        prover,
	}
}

// PackageSize exposes the derived elements-per-package, e.g. for a
// caller sizing its own segment writes to align with package
// boundaries.
func (p *PackagingLayer) PackageSize() int { return p.packageSize }

func (p *PackagingLayer) AddSegment(bytes []byte, start int) error {
	if start%p.packageSize != 0 {
		panic(fmt.Sprintf("commitment: packaging layer segment start %d is not package-aligned (package size %d)", start, p.packageSize))
	}
	count := len(bytes) / p.elementSize
	if count*p.elementSize != len(bytes) {
		panic(fmt.Sprintf("commitment: packaging layer segment length %d is not a multiple of element size %d", len(bytes), p.elementSize))
	}
	elements := make([][]byte, count)
	for i := 0; i < count; i++ {
		elements[i] = bytes[i*p.elementSize : (i+1)*p.elementSize]
	}
	hashes, err := packaging.PackAndHash(p.hash, elements, p.packageSize, p.isMerkleLayer)
	if err != nil {
		return fmt.Errorf("commitment: packaging layer add segment: %w", err)
	}
	packed := make([]byte, 0, len(hashes)*p.hash.DigestBytes())
	for _, h := range hashes {
		packed = append(packed, h...)
	}
	return p.inner.AddSegment(packed, start/p.packageSize)
}

func (p *PackagingLayer) Commit() error { return p.inner.Commit() }

// StartDecommitmentPhase computes, per spec §4.C7, the within-package
// elements this layer needs from its caller to recompute the package
// hashes the verifier will check, unioned with whatever the inner
// layer additionally requires (translated through this layer's package
// indices, since the inner layer's elements ARE this layer's packages).
func (p *PackagingLayer) StartDecommitmentPhase(queries []int) ([]int, error) {
	p.queries = append([]int(nil), queries...)
	p.known = make(map[int]bool, len(queries))
	for _, q := range queries {
		p.known[q] = true
	}
	pkgSet := map[int]bool{}
	for _, q := range queries {
		pkgSet[q/p.packageSize] = true
	}
	p.touchedPkg = make([]int, 0, len(pkgSet))
	for pkg := range pkgSet {
		p.touchedPkg = append(p.touchedPkg, pkg)
	}
	sort.Ints(p.touchedPkg)

	missing := packaging.ElementsRequiredToComputeHashes(p.touchedPkg, p.known, p.packageSize, p.totalElements)

	innerNeeded, err := p.inner.StartDecommitmentPhase(p.touchedPkg)
	if err != nil {
		return nil, fmt.Errorf("commitment: packaging layer start decommitment phase: %w", err)
	}
	// The inner layer's elements are this layer's packages; translate
	// its needed package indices back into this layer's raw element
	// indices so the caller can supply them the same way.
	innerMissing := packaging.GetElementsInPackages(innerNeeded, p.packageSize, p.totalElements)
	out := append(missing, innerMissing...)
	sort.Ints(out)
	return dedupeInts(out), nil
}

// Decommit sends the within-package missing elements on the wire (as
// decommitment nodes when this layer sits directly on a Merkle layer,
// as raw bytes otherwise), then calls the inner layer's Decommit with
// no data. It does not repack elements for an inner layer that
// requested any; the Merkle layer, the only inner layer Build places
// under a PackagingLayer, requests none.
func (p *PackagingLayer) Decommit(provided map[int][]byte) error {
	elementIdx := packaging.ElementsRequiredToComputeHashes(p.touchedPkg, p.known, p.packageSize, p.totalElements)
	for _, idx := range elementIdx {
		b, ok := provided[idx]
		if !ok {
			return fmt.Errorf("commitment: packaging layer decommit: missing element %d", idx)
		}
		if p.isMerkleLayer {
			if err := p.prover.SendDecommitmentNode("packaging_element", b); err != nil {
				return err
			}
		} else {
			if err := p.prover.SendBytes("packaging_element", b); err != nil {
				return err
			}
		}
	}
	return p.inner.Decommit(nil)
}

func dedupeInts(sorted []int) []int {
	out := sorted[:0]
	var last int
	first := true
	for _, v := range sorted {
		if first || v != last {
			out = append(out, v)
			last = v
			first = false
		}
	}
	return out
}

// PackagingVerifierLayer mirrors PackagingLayer.
type PackagingVerifierLayer struct {
	hash          xhash.Hash
	elementSize   int
	packageSize   int
	totalElements int
	isMerkleLayer bool
	inner         VerifierLayer
	verifier      *channel.Verifier

	queries    []int
	touchedPkg []int
}

// NewPackagingVerifierLayer mirrors NewPackagingLayer.
func NewPackagingVerifierLayer(h xhash.Hash, elementSize, totalElements int, isMerkleLayer bool, inner VerifierLayer, verifier *channel.Verifier) *PackagingVerifierLayer {
	p := packaging.ElementsPerPackage(elementSize, totalElements, h.DigestBytes())
	return NewPackagingVerifierLayerWithPackageSize(h, elementSize, totalElements, p, isMerkleLayer, inner, verifier)
}

// NewPackagingVerifierLayerWithPackageSize mirrors
// NewPackagingLayerWithPackageSize.
func NewPackagingVerifierLayerWithPackageSize(h xhash.Hash, elementSize, totalElements, packageSize int, isMerkleLayer bool, inner VerifierLayer, verifier *channel.Verifier) *PackagingVerifierLayer {
	return &PackagingVerifierLayer{
		hash:          h,
		elementSize:   elementSize,
		packageSize:   packageSize,
		totalElements: totalElements,
		isMerkleLayer: isMerkleLayer,
		inner:         inner,
		verifier:      verifier,
	}
}

func (p *PackagingVerifierLayer) ReadCommitment() error { return p.inner.ReadCommitment() }

func (p *PackagingVerifierLayer) SetQueries(queries []int) {
	p.queries = append([]int(nil), queries...)
	pkgSet := map[int]bool{}
	for _, q := range queries {
		pkgSet[q/p.packageSize] = true
	}
	p.touchedPkg = make([]int, 0, len(pkgSet))
	for pkg := range pkgSet {
		p.touchedPkg = append(p.touchedPkg, pkg)
	}
	sort.Ints(p.touchedPkg)
	p.inner.SetQueries(p.touchedPkg)
}

// VerifyIntegrity reads the within-package missing elements off the
// wire, recomputes each touched package's hash, and hands those
// package hashes to the inner layer's integrity check.
func (p *PackagingVerifierLayer) VerifyIntegrity(data map[int][]byte) (bool, error) {
	known := make(map[int]bool, len(data))
	for idx := range data {
		known[idx] = true
	}
	missing := packaging.ElementsRequiredToComputeHashes(p.touchedPkg, known, p.packageSize, p.totalElements)

	elements := make(map[int][]byte, len(data)+len(missing))
	for idx, b := range data {
		elements[idx] = b
	}
	for _, idx := range missing {
		var b []byte
		var err error
		if p.isMerkleLayer {
			b, err = p.verifier.ReceiveBytes("packaging_element", p.hash.DigestBytes())
		} else {
			b, err = p.verifier.ReceiveBytes("packaging_element", p.elementSize)
		}
		if err != nil {
			return false, fmt.Errorf("commitment: packaging verifier layer verify integrity: %w", err)
		}
		elements[idx] = b
	}

	innerData := make(map[int][]byte, len(p.touchedPkg))
	for _, pkg := range p.touchedPkg {
		start := pkg * p.packageSize
		end := start + p.packageSize
		if end > p.totalElements {
			end = p.totalElements
		}
		pkgElements := make([][]byte, 0, end-start)
		for i := start; i < end; i++ {
			b, ok := elements[i]
			if !ok {
				return false, fmt.Errorf("commitment: packaging verifier layer: element %d missing to recompute package %d", i, pkg)
			}
			pkgElements = append(pkgElements, b)
		}
		hashes, err := packaging.PackAndHash(p.hash, pkgElements, end-start, p.isMerkleLayer)
		if err != nil {
			return false, fmt.Errorf("commitment: packaging verifier layer: %w", err)
		}
		innerData[pkg] = hashes[0]
	}
	return p.inner.VerifyIntegrity(innerData)
}
