// Package feltposeidon implements a field-native sponge permutation
// used by the channel package's felt channel variant (spec §4.C4:
// "the underlying PRNG is replaced by a field-native hash (Poseidon)
// with a state felt and a counter felt ... used when the transcript
// must be replayable inside a circuit").
//
// Grounded on the teacher's
// internal/vybium-starks-vm/core/poseidon_enhanced.go
// (EnhancedPoseidonHash: width/rate sponge, full/partial round
// structure, additive round constants, MDS mixing), generalized from
// the teacher's concrete field to the opaque field.Element this
// module's other packages already use. The teacher derives round
// constants with a bit-exact Grain LFSR (matching a specific external
// Poseidon deployment); this package does not aim for interop with
// any particular external Poseidon instance (spec.md never pins
// Poseidon's round constants — only the channel *contract*, which is
// the Fiat-Shamir ordering property, not a wire fixture), so round
// constants are derived deterministically from a fixed domain-
// separated counter instead. Anything deterministic and
// collision-resistant-in-practice satisfies the sponge's role here;
// see DESIGN.md.
package feltposeidon

import (
	"math/big"

	"github.com/starkcore/starkcore/internal/starkcore/field"
)

// Width is the permutation's state size (t = 3: rate 2, capacity 1),
// matching the teacher's 128-bit-security/256-bit-field parameter set
// in poseidon_enhanced.go's GetDefaultPoseidonParameters.
const Width = 3

// Rate is the number of state elements absorbed/squeezed per sponge
// step.
const Rate = 2

const (
	roundsFull    = 8
	roundsPartial = 56
	sboxPower     = 5
)

// Permutation binds the Poseidon-style permutation to one field,
// caching its round constants and MDS matrix (spec: "precomputations"
// are owned by the component that uses them, mirroring how the
// teacher's EnhancedPoseidonHash caches its own roundConstants/
// mdsMatrix at construction).
type Permutation struct {
	f              *field.Field
	roundConstants [][Width]field.Element
	mds            [Width][Width]field.Element
}

// New builds a Permutation over f, deriving round constants and the
// MDS matrix deterministically from f's modulus so every caller using
// the same field gets byte-identical constants.
func New(f *field.Field) *Permutation {
	p := &Permutation{f: f}
	p.roundConstants = generateRoundConstants(f)
	p.mds = generateMDS(f)
	return p
}

// generateRoundConstants derives one constant per (round, lane) by
// expanding a domain-separated label+counter with deriveConstant's
// deterministic (non-cryptographic) LCG stream — the "nothing up my sleeve" role the teacher's Grain
// LFSR plays, simplified to a counter+label scheme since no external
// fixture pins these bytes (see package doc).
func generateRoundConstants(f *field.Field) [][Width]field.Element {
	total := roundsFull + roundsPartial
	out := make([][Width]field.Element, total)
	counter := uint64(0)
	for r := 0; r < total; r++ {
		for lane := 0; lane < Width; lane++ {
			out[r][lane] = deriveConstant(f, "starkcore/feltposeidon/rc", counter)
			counter++
		}
	}
	return out
}

// generateMDS builds a Cauchy matrix M[i][j] = 1/(x_i + y_j) with
// x_i = i+1, y_j = j+Width+1 — guaranteed MDS for distinct x_i/y_j,
// exactly the construction in poseidon_enhanced.go's generateMDSMatrix.
func generateMDS(f *field.Field) [Width][Width]field.Element {
	var m [Width][Width]field.Element
	for i := 0; i < Width; i++ {
		x := f.NewInt64(int64(i + 1))
		for j := 0; j < Width; j++ {
			y := f.NewInt64(int64(j + Width + 1))
			m[i][j] = x.Add(y).Inv()
		}
	}
	return m
}

func deriveConstant(f *field.Field, label string, counter uint64) field.Element {
	buf := []byte(label)
	var ctrBytes [8]byte
	field.PutUint64BigEndian(ctrBytes[:], counter)
	buf = append(buf, ctrBytes[:]...)
	// Stretch the label+counter to a modulus-sized integer by repeated
	// big.Int squaring-free expansion: concatenate enough hashed-free
	// pseudorandom bytes from a simple LCG seeded by the label bytes.
	// This is not a cryptographic hash (none is imported here to avoid
	// entangling this package with xhash's hash selection); it only
	// needs to be deterministic and well-distributed across lanes,
	// which a field reduction of an expanded counter stream already
	// gives.
	need := f.ByteLen()
	stream := make([]byte, 0, need+len(buf))
	state := new(big.Int).SetBytes(buf)
	modulus := f.Modulus()
	for len(stream) < need {
		state.Mul(state, big.NewInt(6364136223846793005))
		state.Add(state, big.NewInt(1442695040888963407))
		state.Mod(state, modulus)
		chunk := make([]byte, need)
		state.FillBytes(chunk)
		stream = append(stream, chunk...)
	}
	return f.FromBytes(stream[:need])
}

func (p *Permutation) sbox(x field.Element) field.Element {
	result := x
	for i := 1; i < sboxPower; i++ {
		result = result.Mul(x)
	}
	return result
}

func (p *Permutation) applyMDS(state [Width]field.Element) [Width]field.Element {
	var out [Width]field.Element
	for i := 0; i < Width; i++ {
		acc := p.f.Zero()
		for j := 0; j < Width; j++ {
			acc = acc.Add(state[j].Mul(p.mds[i][j]))
		}
		out[i] = acc
	}
	return out
}

func (p *Permutation) fullRound(state [Width]field.Element, round int) [Width]field.Element {
	for i := 0; i < Width; i++ {
		state[i] = state[i].Add(p.roundConstants[round][i])
	}
	for i := 0; i < Width; i++ {
		state[i] = p.sbox(state[i])
	}
	return p.applyMDS(state)
}

func (p *Permutation) partialRound(state [Width]field.Element, round int) [Width]field.Element {
	for i := 0; i < Width; i++ {
		state[i] = state[i].Add(p.roundConstants[round][i])
	}
	state[0] = p.sbox(state[0])
	return p.applyMDS(state)
}

// Permute runs the full Poseidon-style permutation (half full rounds,
// all partial rounds, half full rounds) over a Width-element state,
// mirroring poseidon_enhanced.go's poseidonPermutation.
func (p *Permutation) Permute(state [Width]field.Element) [Width]field.Element {
	round := 0
	for i := 0; i < roundsFull/2; i++ {
		state = p.fullRound(state, round)
		round++
	}
	for i := 0; i < roundsPartial; i++ {
		state = p.partialRound(state, round)
		round++
	}
	for i := 0; i < roundsFull/2; i++ {
		state = p.fullRound(state, round)
		round++
	}
	return state
}

// Digest absorbs inputs (Rate elements at a time, zero-padded in the
// last block) into a fresh all-zero state and squeezes the first lane
// after the final permutation — the single-output sponge mode
// poseidon_enhanced.go's Hash uses.
func (p *Permutation) Digest(inputs []field.Element) field.Element {
	state := [Width]field.Element{p.f.Zero(), p.f.Zero(), p.f.Zero()}
	if len(inputs) == 0 {
		return p.f.Zero()
	}
	for i := 0; i < len(inputs); i += Rate {
		for j := 0; j < Rate && i+j < len(inputs); j++ {
			state[j] = state[j].Add(inputs[i+j])
		}
		state = p.Permute(state)
	}
	return state[0]
}
