// Package channel implements the Fiat-Shamir transcript channel (spec
// §4.C4): an ordered byte stream between a prover and a verifier, with
// randomness drawn deterministically from everything sent so far, a
// query-phase latch, and a nested annotation scope for debugging and
// cross-implementation verification.
package channel

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/hashchain"
	"github.com/starkcore/starkcore/internal/starkcore/pow"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// maxNumberUpperBound enforces spec §4.C4: "upper_bound < 2^48 is
// required to keep modular bias ≤ 2⁻¹⁶".
const maxNumberUpperBound = uint64(1) << 48

// Stats tallies what has crossed the channel, mirroring the kind of
// bookkeeping the teacher keeps inline in its channel (utils/channel.go
// records every send as a proof log entry); broken out here into a
// struct so both the byte and felt channel variants can share it.
type Stats struct {
	BytesSent         int
	FieldElementsSent int
	CommitmentsSent   int
	DecommitmentsSent int
}

// annotations is the nested scope-stack machinery shared by the prover
// and verifier channel (spec §4.C4 "Annotations").
type annotations struct {
	enabled  bool
	scopes   []string
	lines    []string
	expected []string // optional; when set, each appended line is checked against it
}

func (a *annotations) enterScope(name string) {
	if !a.enabled {
		return
	}
	a.scopes = append(a.scopes, name)
}

func (a *annotations) exitScope() {
	if !a.enabled {
		return
	}
	if len(a.scopes) == 0 {
		panic("channel: exit_annotation_scope called with no open scope")
	}
	a.scopes = a.scopes[:len(a.scopes)-1]
}

func (a *annotations) scopePath() string {
	if len(a.scopes) == 0 {
		return ""
	}
	return "/" + strings.Join(a.scopes, "/")
}

// record appends one annotation line and, if an expected trace was
// supplied, checks it matches verbatim (spec §4.C4: "an optional
// 'expected annotations' vector lets the verifier check its own
// annotation trace matches the prover's verbatim").
func (a *annotations) record(line string) error {
	if !a.enabled {
		return nil
	}
	idx := len(a.lines)
	a.lines = append(a.lines, line)
	if a.expected != nil {
		if idx >= len(a.expected) || a.expected[idx] != line {
			return fmt.Errorf("channel: annotation mismatch at line %d: got %q", idx, line)
		}
	}
	return nil
}

// Lines returns the recorded annotation trace, one per send/receive.
func (a *annotations) Lines() []string {
	return append([]string(nil), a.lines...)
}

// Prover is the append-only side of the channel (spec §4.C4 "Prover
// channel").
type Prover struct {
	hash       xhash.Hash
	chain      *hashchain.HashChain
	proof      []byte
	queryPhase bool
	stats      Stats
	annot      annotations
}

// NewProver creates a prover channel seeded from the public-input
// transcript seed (spec §6 "Transcript seeds"): an opaque,
// caller-supplied digest of whatever public input the deployment
// agrees on.
func NewProver(h xhash.Hash, seed []byte) *Prover {
	return &Prover{
		hash:  h,
		chain: hashchain.NewFromSeed(h, seed),
	}
}

// EnableAnnotations turns on annotation recording for this channel.
func (p *Prover) EnableAnnotations() { p.annot.enabled = true }

// EnterAnnotationScope pushes name onto the annotation scope stack.
func (p *Prover) EnterAnnotationScope(name string) { p.annot.enterScope(name) }

// ExitAnnotationScope pops the innermost annotation scope. It is a
// programmer error to call this with no open scope.
func (p *Prover) ExitAnnotationScope() { p.annot.exitScope() }

// AnnotationLines returns every annotation line recorded so far.
func (p *Prover) AnnotationLines() []string { return p.annot.Lines() }

// Proof returns the full proof byte stream emitted so far.
func (p *Prover) Proof() []byte { return append([]byte(nil), p.proof...) }

// Stats reports counters about what has been sent.
func (p *Prover) Stats() Stats { return p.stats }

// InQueryPhase reports whether BeginQueryPhase has been called.
func (p *Prover) InQueryPhase() bool { return p.queryPhase }

// SendBytes appends b to the proof and, outside the query phase, mixes
// it into the transcript (spec §4.C4).
func (p *Prover) SendBytes(label string, b []byte) error {
	start := len(p.proof)
	p.proof = append(p.proof, b...)
	p.stats.BytesSent += len(b)
	if !p.queryPhase {
		p.chain.UpdateHashChain(b)
	}
	return p.annot.record(fmt.Sprintf("P->V[%d:%d]: %s: %s", start, len(p.proof), p.annot.scopePath(), label))
}

// SendFieldElement serializes f and sends it.
func (p *Prover) SendFieldElement(label string, f field.Element) error {
	p.stats.FieldElementsSent++
	return p.SendBytes(label, f.Bytes())
}

// SendFieldElementSpan serializes and sends a span of field elements
// in order.
func (p *Prover) SendFieldElementSpan(label string, fs []field.Element) error {
	buf := make([]byte, 0)
	for _, f := range fs {
		buf = append(buf, f.Bytes()...)
	}
	p.stats.FieldElementsSent += len(fs)
	return p.SendBytes(label, buf)
}

// SendCommitmentHash sends a Merkle/commitment root digest.
func (p *Prover) SendCommitmentHash(label string, d xhash.Digest) error {
	p.stats.CommitmentsSent++
	return p.SendBytes(label, d)
}

// SendDecommitmentNode sends a single decommitment digest.
func (p *Prover) SendDecommitmentNode(label string, d xhash.Digest) error {
	p.stats.DecommitmentsSent++
	return p.SendBytes(label, d)
}

// ReceiveFieldElement samples a field element from the transcript
// PRNG. It is a programmer error to call this inside the query phase
// (spec §4.C4 "forbidden inside query phase").
func (p *Prover) ReceiveFieldElement(f *field.Field) field.Element {
	if p.queryPhase {
		panic("channel: ReceiveFieldElement called during query phase")
	}
	out := p.chain.GetRandomBytes(f.ByteLen())
	elem := f.FromBytes(out)
	_ = p.annot.record(fmt.Sprintf("V->P: %s: field_element", p.annot.scopePath()))
	return elem
}

// ReceiveNumber samples a uniform integer in [0, upperBound). upperBound
// must be less than 2^48 (spec §4.C4).
func (p *Prover) ReceiveNumber(upperBound uint64) uint64 {
	if p.queryPhase {
		panic("channel: ReceiveNumber called during query phase")
	}
	if upperBound >= maxNumberUpperBound {
		panic(fmt.Sprintf("channel: ReceiveNumber upper bound %d must be < 2^48", upperBound))
	}
	raw := p.chain.GetRandomBytes(8)
	n := field.Uint64BigEndian(raw)
	result := n % upperBound
	_ = p.annot.record(fmt.Sprintf("V->P: %s: number mod %d", p.annot.scopePath(), upperBound))
	return result
}

// ApplyProofOfWork runs the prover side of the POW gate (spec §4.C3)
// against the current transcript state as seed, then sends the found
// nonce. bits == 0 is a no-op: nothing is sent, nothing is checked.
func (p *Prover) ApplyProofOfWork(bits uint8) error {
	if bits == 0 {
		return nil
	}
	nonce, err := pow.Find(p.hash, p.chain.State(), bits)
	if err != nil {
		return fmt.Errorf("channel: proof of work: %w", err)
	}
	var nonceBytes [8]byte
	field.PutUint64BigEndian(nonceBytes[:], nonce)
	return p.SendBytes("proof_of_work", nonceBytes[:])
}

// BeginQueryPhase latches the channel: no further randomness may be
// drawn after this call (spec §4.C4).
func (p *Prover) BeginQueryPhase() { p.queryPhase = true }

// Verifier is the dual of Prover: it consumes a proof byte stream in
// the same order and draws identical randomness at every matching
// point (spec §4.C4 "Invariant (Fiat-Shamir)").
type Verifier struct {
	hash       xhash.Hash
	chain      *hashchain.HashChain
	proof      []byte
	cursor     int
	queryPhase bool
	annot      annotations
}

// NewVerifier constructs a verifier channel over proof, seeded
// identically to the prover that produced it.
func NewVerifier(h xhash.Hash, seed []byte, proof []byte) *Verifier {
	return &Verifier{
		hash:  h,
		chain: hashchain.NewFromSeed(h, seed),
		proof: proof,
	}
}

// EnableAnnotations turns on annotation recording.
func (v *Verifier) EnableAnnotations() { v.annot.enabled = true }

// SetExpectedAnnotations supplies the prover's annotation trace so
// every subsequent recorded line is checked against it verbatim (spec
// §4.C4).
func (v *Verifier) SetExpectedAnnotations(lines []string) {
	v.annot.enabled = true
	v.annot.expected = lines
}

// EnterAnnotationScope pushes name onto the annotation scope stack.
func (v *Verifier) EnterAnnotationScope(name string) { v.annot.enterScope(name) }

// ExitAnnotationScope pops the innermost annotation scope.
func (v *Verifier) ExitAnnotationScope() { v.annot.exitScope() }

// AnnotationLines returns every annotation line recorded so far.
func (v *Verifier) AnnotationLines() []string { return v.annot.Lines() }

// InQueryPhase reports whether BeginQueryPhase has been called.
func (v *Verifier) InQueryPhase() bool { return v.queryPhase }

// ReceiveBytes reads and returns the next n bytes from the proof,
// advancing the cursor, and, outside the query phase, mixes them into
// the transcript exactly as the prover's SendBytes did. Truncated
// proofs are a proof-format error, not a programmer error (spec §7),
// so this returns an error rather than panicking.
func (v *Verifier) ReceiveBytes(label string, n int) ([]byte, error) {
	if v.cursor+n > len(v.proof) {
		return nil, fmt.Errorf("channel: proof truncated: need %d bytes at offset %d, have %d", n, v.cursor, len(v.proof))
	}
	start := v.cursor
	b := v.proof[v.cursor : v.cursor+n]
	v.cursor += n
	if !v.queryPhase {
		v.chain.UpdateHashChain(b)
	}
	if err := v.annot.record(fmt.Sprintf("P->V[%d:%d]: %s: %s", start, v.cursor, v.annot.scopePath(), label)); err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ReceiveFieldElement reads and parses one field element from the
// proof. A value that does not fit the field's canonical range is
// still accepted because field.Field.FromBytes always reduces modulo
// the modulus (spec §7 calls out "element failing to parse into a
// field element (value ≥ modulus)" as a possible proof-format error
// for stricter wire encodings than this module defines; this module's
// FromBytes is total by construction, matching spec §3's "uniform
// sampling from a byte stream").
func (v *Verifier) ReceiveFieldElement(label string, f *field.Field) (field.Element, error) {
	b, err := v.ReceiveBytes(label, f.ByteLen())
	if err != nil {
		return field.Element{}, err
	}
	return f.FromBytes(b), nil
}

// GetRandomFieldElement draws from the transcript PRNG without
// touching the proof cursor. It is a programmer error to call this
// inside the query phase.
func (v *Verifier) GetRandomFieldElement(f *field.Field) field.Element {
	if v.queryPhase {
		panic("channel: GetRandomFieldElement called during query phase")
	}
	out := v.chain.GetRandomBytes(f.ByteLen())
	elem := f.FromBytes(out)
	_ = v.annot.record(fmt.Sprintf("V->P: %s: field_element", v.annot.scopePath()))
	return elem
}

// GetRandomNumber draws a uniform integer in [0, upperBound) from the
// transcript PRNG. upperBound must be less than 2^48.
func (v *Verifier) GetRandomNumber(upperBound uint64) uint64 {
	if v.queryPhase {
		panic("channel: GetRandomNumber called during query phase")
	}
	if upperBound >= maxNumberUpperBound {
		panic(fmt.Sprintf("channel: GetRandomNumber upper bound %d must be < 2^48", upperBound))
	}
	raw := v.chain.GetRandomBytes(8)
	n := field.Uint64BigEndian(raw)
	result := n % upperBound
	_ = v.annot.record(fmt.Sprintf("V->P: %s: number mod %d", v.annot.scopePath(), upperBound))
	return result
}

// VerifyProofOfWork reads the nonce the prover sent (if bits != 0) and
// checks it against the POW gate. bits == 0 is a no-op that reads
// nothing (spec §4.C3).
func (v *Verifier) VerifyProofOfWork(bits uint8) (bool, error) {
	if bits == 0 {
		return true, nil
	}
	// The prover searched against the state before the nonce was mixed
	// in, so capture it before ReceiveBytes updates the chain.
	seed := v.chain.State()
	nonceBytes, err := v.ReceiveBytes("proof_of_work", 8)
	if err != nil {
		return false, err
	}
	nonce := field.Uint64BigEndian(nonceBytes)
	return pow.Verify(v.hash, seed, bits, nonce), nil
}

// BeginQueryPhase latches the channel: no further randomness may be
// drawn after this call.
func (v *Verifier) BeginQueryPhase() { v.queryPhase = true }

// BigIntFromBytes is a small helper re-exported for callers building
// custom field encodings on top of the channel (e.g. a felt channel
// variant); it mirrors field.Field.FromBytes's big-endian convention.
func BigIntFromBytes(b []byte) *big.Int { return new(big.Int).SetBytes(b) }
