package commitment

import "fmt"

// CachingLayer is a prover-only optimization (spec §4.C7 "Caching
// layer"): it retains every byte committed so far so that later
// decommitment requests are served from memory instead of recomputing
// or re-streaming data the prover already produced. It has no verifier
// counterpart — the verifier never holds the full committed data.
type CachingLayer struct {
	elementSize int
	inner       ProverLayer
	store       map[int][]byte // element index -> raw bytes
}

// NewCachingLayer wraps inner, caching elementSize-wide elements.
func NewCachingLayer(elementSize int, inner ProverLayer) *CachingLayer {
	return &CachingLayer{elementSize: elementSize, inner: inner, store: make(map[int][]byte)}
}

func (c *CachingLayer) AddSegment(bytes []byte, start int) error {
	count := len(bytes) / c.elementSize
	if count*c.elementSize != len(bytes) {
		panic(fmt.Sprintf("commitment: caching layer segment length %d is not a multiple of element size %d", len(bytes), c.elementSize))
	}
	for i := 0; i < count; i++ {
		elem := bytes[i*c.elementSize : (i+1)*c.elementSize]
		c.store[start+i] = append([]byte(nil), elem...)
	}
	return c.inner.AddSegment(bytes, start)
}

func (c *CachingLayer) Commit() error { return c.inner.Commit() }

func (c *CachingLayer) StartDecommitmentPhase(queries []int) ([]int, error) {
	needed, err := c.inner.StartDecommitmentPhase(queries)
	if err != nil {
		return nil, err
	}
	// Anything the inner layer needs that this layer already cached is
	// served immediately rather than bubbled up further.
	var stillNeeded []int
	for _, idx := range needed {
		if _, ok := c.store[idx]; !ok {
			stillNeeded = append(stillNeeded, idx)
		}
	}
	return stillNeeded, nil
}

// Decommit fills in anything this layer has cached before forwarding
// to inner.
func (c *CachingLayer) Decommit(provided map[int][]byte) error {
	merged := make(map[int][]byte, len(provided)+len(c.store))
	for idx, b := range c.store {
		merged[idx] = b
	}
	for idx, b := range provided {
		merged[idx] = b
	}
	return c.inner.Decommit(merged)
}
