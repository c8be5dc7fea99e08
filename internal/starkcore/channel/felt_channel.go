package channel

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/feltposeidon"
	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// maxFeltNumberUpperBound mirrors maxNumberUpperBound for the felt
// channel's ReceiveNumber/GetRandomNumber (spec §4.C4).
const maxFeltNumberUpperBound = uint64(1) << 48

// feltChain is the felt-native analog of hashchain.HashChain (spec
// §4.C2/§4.C4 "a field-native hash (Poseidon) with a state felt and a
// counter felt"): state and counter are both field elements, and
// randomness is drawn by permuting (state, counter, 0) instead of
// re-hashing bytes.
type feltChain struct {
	perm  *feltposeidon.Permutation
	f     *field.Field
	state field.Element
	ctr   field.Element
}

func newFeltChain(perm *feltposeidon.Permutation, f *field.Field, seed field.Element) *feltChain {
	return &feltChain{perm: perm, f: f, state: perm.Digest([]field.Element{seed}), ctr: f.Zero()}
}

func (c *feltChain) randomFelt() field.Element {
	out := c.perm.Permute([feltposeidon.Width]field.Element{c.state, c.ctr, c.f.Zero()})
	c.ctr = c.ctr.Add(c.f.One())
	return out[0]
}

func (c *feltChain) mix(elem field.Element, seedIncrement uint64) {
	incremented := c.state.Add(c.f.NewUint64(seedIncrement))
	c.state = c.perm.Digest([]field.Element{incremented, elem})
	c.ctr = c.f.Zero()
}

func (c *feltChain) update(elem field.Element) { c.mix(elem, 0) }

// FeltProver is the felt channel variant of Prover (spec §4.C4's
// second channel variant): identical Fiat-Shamir contract — every
// send mixes into the transcript, every receive draws from it, the
// query-phase latch blocks further draws — but both the transcript
// payload and its internal PRNG state live entirely in field
// elements, so the whole transcript can be replayed by an in-circuit
// verifier without ever leaving the field.
type FeltProver struct {
	f          *field.Field
	chain      *feltChain
	proof      []field.Element
	queryPhase bool
	stats      Stats
	annot      annotations
}

// NewFeltProver seeds a felt prover channel from seed, a field element
// standing in for spec §6's "Transcript seeds" (the byte channel
// takes an opaque digest; the felt channel takes an opaque field
// element for the same role).
func NewFeltProver(perm *feltposeidon.Permutation, f *field.Field, seed field.Element) *FeltProver {
	return &FeltProver{f: f, chain: newFeltChain(perm, f, seed)}
}

func (p *FeltProver) EnableAnnotations()              { p.annot.enabled = true }
func (p *FeltProver) EnterAnnotationScope(name string) { p.annot.enterScope(name) }
func (p *FeltProver) ExitAnnotationScope()             { p.annot.exitScope() }
func (p *FeltProver) AnnotationLines() []string        { return p.annot.Lines() }
func (p *FeltProver) InQueryPhase() bool               { return p.queryPhase }
func (p *FeltProver) Stats() Stats                     { return p.stats }
func (p *FeltProver) Proof() []field.Element           { return append([]field.Element(nil), p.proof...) }

// SendFeltElement appends f to the proof and, outside the query
// phase, mixes it into the felt transcript.
func (p *FeltProver) SendFeltElement(label string, f field.Element) error {
	start := len(p.proof)
	p.proof = append(p.proof, f)
	p.stats.FieldElementsSent++
	if !p.queryPhase {
		p.chain.update(f)
	}
	return p.annot.record(fmt.Sprintf("P->V[%d:%d]: %s: %s", start, len(p.proof), p.annot.scopePath(), label))
}

// SendFeltElementSpan sends a span of field elements in order.
func (p *FeltProver) SendFeltElementSpan(label string, fs []field.Element) error {
	for i, f := range fs {
		if err := p.SendFeltElement(fmt.Sprintf("%s[%d]", label, i), f); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveFeltElement draws a field element from the felt transcript
// PRNG. It is a programmer error to call this during the query phase.
func (p *FeltProver) ReceiveFeltElement() field.Element {
	if p.queryPhase {
		panic("channel: FeltProver.ReceiveFeltElement called during query phase")
	}
	out := p.chain.randomFelt()
	_ = p.annot.record(fmt.Sprintf("V->P: %s: felt", p.annot.scopePath()))
	return out
}

// ReceiveNumber draws a uniform integer in [0, upperBound) from the
// felt transcript PRNG, reducing the low 64 bits of the drawn
// element's canonical big-integer representative (big.Int.Uint64)
// modulo upperBound. upperBound must be
// less than 2^48 (spec §4.C4).
func (p *FeltProver) ReceiveNumber(upperBound uint64) uint64 {
	if p.queryPhase {
		panic("channel: FeltProver.ReceiveNumber called during query phase")
	}
	if upperBound >= maxFeltNumberUpperBound {
		panic(fmt.Sprintf("channel: FeltProver.ReceiveNumber upper bound %d must be < 2^48", upperBound))
	}
	n := p.chain.randomFelt().Big().Uint64()
	result := n % upperBound
	_ = p.annot.record(fmt.Sprintf("V->P: %s: number mod %d", p.annot.scopePath(), upperBound))
	return result
}

// BeginQueryPhase latches the channel.
func (p *FeltProver) BeginQueryPhase() { p.queryPhase = true }

// FeltVerifier is the dual of FeltProver.
type FeltVerifier struct {
	f          *field.Field
	chain      *feltChain
	proof      []field.Element
	cursor     int
	queryPhase bool
	annot      annotations
}

// NewFeltVerifier constructs a felt verifier channel over proof,
// seeded identically to the prover that produced it.
func NewFeltVerifier(perm *feltposeidon.Permutation, f *field.Field, seed field.Element, proof []field.Element) *FeltVerifier {
	return &FeltVerifier{f: f, chain: newFeltChain(perm, f, seed), proof: proof}
}

func (v *FeltVerifier) EnableAnnotations()              { v.annot.enabled = true }
func (v *FeltVerifier) EnterAnnotationScope(name string) { v.annot.enterScope(name) }
func (v *FeltVerifier) ExitAnnotationScope()             { v.annot.exitScope() }
func (v *FeltVerifier) AnnotationLines() []string        { return v.annot.Lines() }
func (v *FeltVerifier) InQueryPhase() bool               { return v.queryPhase }

// SetExpectedAnnotations supplies the prover's annotation trace for
// verbatim comparison (spec §4.C4).
func (v *FeltVerifier) SetExpectedAnnotations(lines []string) {
	v.annot.enabled = true
	v.annot.expected = lines
}

// ReceiveFeltElement reads and returns the next field element from the
// proof, advancing the cursor and, outside the query phase, mixing it
// into the transcript exactly as SendFeltElement did.
func (v *FeltVerifier) ReceiveFeltElement(label string) (field.Element, error) {
	if v.cursor >= len(v.proof) {
		return field.Element{}, fmt.Errorf("channel: felt proof truncated: need 1 element at offset %d, have %d", v.cursor, len(v.proof))
	}
	start := v.cursor
	f := v.proof[v.cursor]
	v.cursor++
	if !v.queryPhase {
		v.chain.update(f)
	}
	if err := v.annot.record(fmt.Sprintf("P->V[%d:%d]: %s: %s", start, v.cursor, v.annot.scopePath(), label)); err != nil {
		return field.Element{}, err
	}
	return f, nil
}

// GetRandomFeltElement draws from the transcript PRNG without
// touching the proof cursor.
func (v *FeltVerifier) GetRandomFeltElement() field.Element {
	if v.queryPhase {
		panic("channel: FeltVerifier.GetRandomFeltElement called during query phase")
	}
	out := v.chain.randomFelt()
	_ = v.annot.record(fmt.Sprintf("V->P: %s: felt", v.annot.scopePath()))
	return out
}

// GetRandomNumber draws a uniform integer in [0, upperBound) from the
// transcript PRNG.
func (v *FeltVerifier) GetRandomNumber(upperBound uint64) uint64 {
	if v.queryPhase {
		panic("channel: FeltVerifier.GetRandomNumber called during query phase")
	}
	if upperBound >= maxFeltNumberUpperBound {
		panic(fmt.Sprintf("channel: FeltVerifier.GetRandomNumber upper bound %d must be < 2^48", upperBound))
	}
	n := v.chain.randomFelt().Big().Uint64()
	result := n % upperBound
	_ = v.annot.record(fmt.Sprintf("V->P: %s: number mod %d", v.annot.scopePath(), upperBound))
	return result
}

// BeginQueryPhase latches the channel.
func (v *FeltVerifier) BeginQueryPhase() { v.queryPhase = true }
