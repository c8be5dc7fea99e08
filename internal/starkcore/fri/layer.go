package fri

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// Layer is the shared contract of spec §4.C10's three layer
// materialization strategies: a FRI layer is a named evaluation vector
// over a domain, readable by chunk (for committing) or by point (for
// query answering).
type Layer interface {
	// LayerSize is the number of evaluations in this layer.
	LayerSize() int
	// ChunkSize is this layer's preferred read granularity: InMemory
	// reads the whole vector as one chunk, OutOfMemory and Proxy read
	// in smaller pieces to bound peak memory.
	ChunkSize() int
	// GetChunk returns requestedSize evaluations starting at
	// chunkIndex*requestedSize.
	GetChunk(requestedSize, chunkIndex int) ([]field.Element, error)
	// GetAllEvaluation materializes the entire layer.
	GetAllEvaluation() []field.Element
	// EvalAtPoints returns the evaluations at the given domain indices.
	EvalAtPoints(indices []int) []field.Element
	// Domain is this layer's evaluation domain.
	Domain() *domain.Domain
}

// InMemoryLayer holds the full evaluation vector (spec §4.C10 "stores
// the full vector; chunk_size = layer_size"), the simplest of the
// three strategies and the one used whenever a layer comfortably fits
// in memory.
type InMemoryLayer struct {
	evals []field.Element
	dom   *domain.Domain
}

// NewInMemoryLayer wraps an already-computed evaluation vector.
func NewInMemoryLayer(evals []field.Element, dom *domain.Domain) (*InMemoryLayer, error) {
	if len(evals) != dom.Size {
		return nil, fmt.Errorf("fri: InMemoryLayer evaluation count %d does not match domain size %d", len(evals), dom.Size)
	}
	return &InMemoryLayer{evals: evals, dom: dom}, nil
}

func (l *InMemoryLayer) LayerSize() int        { return len(l.evals) }
func (l *InMemoryLayer) ChunkSize() int        { return len(l.evals) }
func (l *InMemoryLayer) Domain() *domain.Domain { return l.dom }

func (l *InMemoryLayer) GetChunk(requestedSize, chunkIndex int) ([]field.Element, error) {
	start := chunkIndex * requestedSize
	end := start + requestedSize
	if start < 0 || end > len(l.evals) {
		return nil, fmt.Errorf("fri: InMemoryLayer.GetChunk [%d,%d) out of range [0,%d)", start, end, len(l.evals))
	}
	return append([]field.Element(nil), l.evals[start:end]...), nil
}

func (l *InMemoryLayer) GetAllEvaluation() []field.Element {
	return append([]field.Element(nil), l.evals...)
}

func (l *InMemoryLayer) EvalAtPoints(indices []int) []field.Element {
	out := make([]field.Element, len(indices))
	for i, idx := range indices {
		out[i] = l.evals[idx]
	}
	return out
}

// OutOfMemoryLayer is spec §4.C10's second strategy: rather than
// holding every evaluation, a real implementation keeps one low-degree
// extension coset resident at a time and regenerates the rest from the
// committed polynomial's coefficients on demand. That regeneration is
// concrete field/FFT machinery this module treats as an external
// collaborator (the data-model note in §3 leaves "finding a root of
// unity" and related arithmetic to the field package's caller), so
// this type is a structural stand-in: it satisfies the Layer contract
// and is addressed by chunk like a real LDE manager would be, but is
// backed by the same fully materialized vector as InMemoryLayer. A
// full out-of-core LDE manager would replace the backing store without
// changing this type's public shape.
type OutOfMemoryLayer struct {
	evals     []field.Element
	dom       *domain.Domain
	chunkSize int
}

// NewOutOfMemoryLayer wraps evals with the given read chunk size.
func NewOutOfMemoryLayer(evals []field.Element, dom *domain.Domain, chunkSize int) (*OutOfMemoryLayer, error) {
	if len(evals) != dom.Size {
		return nil, fmt.Errorf("fri: OutOfMemoryLayer evaluation count %d does not match domain size %d", len(evals), dom.Size)
	}
	if chunkSize <= 0 || dom.Size%chunkSize != 0 {
		return nil, fmt.Errorf("fri: OutOfMemoryLayer chunk size %d must divide layer size %d", chunkSize, dom.Size)
	}
	return &OutOfMemoryLayer{evals: evals, dom: dom, chunkSize: chunkSize}, nil
}

func (l *OutOfMemoryLayer) LayerSize() int        { return len(l.evals) }
func (l *OutOfMemoryLayer) ChunkSize() int        { return l.chunkSize }
func (l *OutOfMemoryLayer) Domain() *domain.Domain { return l.dom }

func (l *OutOfMemoryLayer) GetChunk(requestedSize, chunkIndex int) ([]field.Element, error) {
	start := chunkIndex * requestedSize
	end := start + requestedSize
	if start < 0 || end > len(l.evals) {
		return nil, fmt.Errorf("fri: OutOfMemoryLayer.GetChunk [%d,%d) out of range [0,%d)", start, end, len(l.evals))
	}
	return append([]field.Element(nil), l.evals[start:end]...), nil
}

func (l *OutOfMemoryLayer) GetAllEvaluation() []field.Element {
	return append([]field.Element(nil), l.evals...)
}

func (l *OutOfMemoryLayer) EvalAtPoints(indices []int) []field.Element {
	out := make([]field.Element, len(indices))
	for i, idx := range indices {
		out[i] = l.evals[idx]
	}
	return out
}

// ProxyLayer is spec §4.C10's third strategy: it owns no evaluation
// data at all. Each chunk is produced by requesting the two
// corresponding chunks from the previous (twice as large) layer and
// folding them with Fold (spec §4.C9), on demand.
type ProxyLayer struct {
	prev      Layer
	alpha     field.Element
	dom       *domain.Domain
	chunkSize int
}

// NewProxyLayer builds the folded view of prev under evaluation point
// alpha. chunkSize bounds how many folded evaluations are computed per
// GetChunk call; it is clamped to the new (halved) layer size.
func NewProxyLayer(prev Layer, alpha field.Element, chunkSize int) (*ProxyLayer, error) {
	dom, err := prev.Domain().Halve()
	if err != nil {
		return nil, fmt.Errorf("fri: NewProxyLayer: %w", err)
	}
	if chunkSize <= 0 || chunkSize > dom.Size {
		chunkSize = dom.Size
	}
	return &ProxyLayer{prev: prev, alpha: alpha, dom: dom, chunkSize: chunkSize}, nil
}

func (l *ProxyLayer) LayerSize() int        { return l.dom.Size }
func (l *ProxyLayer) ChunkSize() int        { return l.chunkSize }
func (l *ProxyLayer) Domain() *domain.Domain { return l.dom }

func (l *ProxyLayer) GetChunk(requestedSize, chunkIndex int) ([]field.Element, error) {
	start := chunkIndex * requestedSize
	end := start + requestedSize
	if start < 0 || end > l.dom.Size {
		return nil, fmt.Errorf("fri: ProxyLayer.GetChunk [%d,%d) out of range [0,%d)", start, end, l.dom.Size)
	}
	indices := make([]int, end-start)
	for i := range indices {
		indices[i] = start + i
	}
	return l.EvalAtPoints(indices), nil
}

func (l *ProxyLayer) GetAllEvaluation() []field.Element {
	out, err := l.GetChunk(l.dom.Size, 0)
	if err != nil {
		panic(err)
	}
	return out
}

// EvalAtPoints folds the previous layer's paired evaluations f(x) and
// f(-x) at each requested index to produce this layer's value there.
// In this layer's own (bit-reversed) domain, index i was produced by
// squaring the previous layer's point at index 2i (and its negation
// at the adjacent index 2i+1, see the domain package doc).
func (l *ProxyLayer) EvalAtPoints(indices []int) []field.Element {
	prevDom := l.prev.Domain()

	plain := make([]int, len(indices))
	negated := make([]int, len(indices))
	for i, idx := range indices {
		plain[i] = 2 * idx
		negated[i] = 2*idx + 1
	}
	fx := l.prev.EvalAtPoints(plain)
	fmx := l.prev.EvalAtPoints(negated)

	xs := make([]field.Element, len(indices))
	for i, idx := range indices {
		xs[i] = prevDom.At(2 * idx)
	}
	xInvs, err := field.BatchInv(xs)
	if err != nil {
		panic(fmt.Sprintf("fri: ProxyLayer.EvalAtPoints: %v", err))
	}

	out := make([]field.Element, len(indices))
	for i := range indices {
		out[i] = Fold(fx[i], fmx[i], l.alpha, xInvs[i])
	}
	return out
}
