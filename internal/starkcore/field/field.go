// Package field defines the finite field F that every other starkcore
// component treats as an opaque collaborator (spec §1, §3, §9): the
// concrete modulus and curve-level arithmetic are out of scope, but a
// total, side-effect-free implementation is required so the channel,
// commitment, and FRI packages have something concrete to compile and
// test against.
package field

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
)

// Field is a prime field Z/pZ. All FieldElements created from the same
// Field share its modulus; mixing elements across Fields is a
// programmer error and panics.
type Field struct {
	modulus *big.Int
	byteLen int
}

// New creates a prime field with the given modulus. modulus must be
// greater than 2; this is the only validation performed (spec §3:
// "All field operations are total except inv(0)").
func New(modulus *big.Int) (*Field, error) {
	if modulus.Cmp(big.NewInt(2)) <= 0 {
		return nil, fmt.Errorf("field: modulus must be greater than 2, got %s", modulus.String())
	}
	byteLen := (modulus.BitLen() + 7) / 8
	if byteLen == 0 {
		byteLen = 1
	}
	return &Field{modulus: new(big.Int).Set(modulus), byteLen: byteLen}, nil
}

// MustNew is New, panicking on error. Useful for package-level field
// constants in tests and examples.
func MustNew(modulus *big.Int) *Field {
	f, err := New(modulus)
	if err != nil {
		panic(err)
	}
	return f
}

// Modulus returns a copy of the field modulus.
func (f *Field) Modulus() *big.Int { return new(big.Int).Set(f.modulus) }

// ByteLen is the fixed width used for big/little-endian encoding of
// elements of this field (spec §6: "Field element: fixed-width
// big-endian standard-form integer, FIELD_BYTES wide").
func (f *Field) ByteLen() int { return f.byteLen }

// Element is an opaque value of F. The zero value is not a valid
// element; always construct via a Field method.
type Element struct {
	f *Field
	v *big.Int
}

// New reduces value modulo the field and returns the resulting element.
func (f *Field) New(value *big.Int) Element {
	return Element{f: f, v: new(big.Int).Mod(value, f.modulus)}
}

// NewUint64 is a convenience constructor for small constants.
func (f *Field) NewUint64(value uint64) Element {
	return f.New(new(big.Int).SetUint64(value))
}

// NewInt64 is a convenience constructor for small signed constants.
func (f *Field) NewInt64(value int64) Element {
	return f.New(big.NewInt(value))
}

// Zero returns the additive identity.
func (f *Field) Zero() Element { return Element{f: f, v: big.NewInt(0)} }

// One returns the multiplicative identity.
func (f *Field) One() Element { return Element{f: f, v: big.NewInt(1)} }

// Random samples a uniform element using crypto/rand.
func (f *Field) Random() (Element, error) {
	v, err := rand.Int(rand.Reader, f.modulus)
	if err != nil {
		return Element{}, fmt.Errorf("field: random sample failed: %w", err)
	}
	return Element{f: f, v: v}, nil
}

// FromBytes samples an element uniformly from a byte stream by
// interpreting it as a big-endian integer and reducing modulo the
// field (spec §3: "uniform sampling from a byte stream").
func (f *Field) FromBytes(b []byte) Element {
	return f.New(new(big.Int).SetBytes(b))
}

// FromHex parses a hex string (with or without 0x prefix) into an
// element, round-tripping with Element.Hex.
func (f *Field) FromHex(s string) (Element, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return Element{}, fmt.Errorf("field: invalid hex string %q", s)
	}
	return f.New(v), nil
}

func (e Element) checkField(other Element) {
	if e.f != other.f {
		panic("field: operands belong to different fields")
	}
}

// Add returns e + other mod p.
func (e Element) Add(other Element) Element {
	e.checkField(other)
	return Element{f: e.f, v: new(big.Int).Mod(new(big.Int).Add(e.v, other.v), e.f.modulus)}
}

// Sub returns e - other mod p.
func (e Element) Sub(other Element) Element {
	e.checkField(other)
	return Element{f: e.f, v: new(big.Int).Mod(new(big.Int).Sub(e.v, other.v), e.f.modulus)}
}

// Mul returns e * other mod p.
func (e Element) Mul(other Element) Element {
	e.checkField(other)
	return Element{f: e.f, v: new(big.Int).Mod(new(big.Int).Mul(e.v, other.v), e.f.modulus)}
}

// Neg returns -e mod p.
func (e Element) Neg() Element {
	return Element{f: e.f, v: new(big.Int).Mod(new(big.Int).Neg(e.v), e.f.modulus)}
}

// Inv returns the multiplicative inverse of e. Calling Inv on the zero
// element is a programmer error (spec §3: "inv(0) ... must not be
// invoked by any algorithm below") and panics.
func (e Element) Inv() Element {
	if e.IsZero() {
		panic("field: inverse of zero requested")
	}
	return Element{f: e.f, v: new(big.Int).ModInverse(e.v, e.f.modulus)}
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool { return e.v.Sign() == 0 }

// Equal reports whether e and other carry the same value in the same
// field.
func (e Element) Equal(other Element) bool {
	if e.f != other.f {
		return false
	}
	return e.v.Cmp(other.v) == 0
}

// Big returns a copy of the element's canonical representative in
// [0, modulus).
func (e Element) Big() *big.Int { return new(big.Int).Set(e.v) }

// Field returns the Field this element belongs to.
func (e Element) Field() *Field { return e.f }

// Bytes encodes e as a fixed-width big-endian byte slice, Field.ByteLen
// wide (spec §6 wire format).
func (e Element) Bytes() []byte {
	out := make([]byte, e.f.byteLen)
	e.v.FillBytes(out)
	return out
}

// LittleEndianBytes encodes e as a fixed-width little-endian byte
// slice, Field.ByteLen wide.
func (e Element) LittleEndianBytes() []byte {
	b := e.Bytes()
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// Hex renders e as a "0x"-prefixed hex string.
func (e Element) Hex() string { return fmt.Sprintf("0x%x", e.v) }

// String implements fmt.Stringer.
func (e Element) String() string { return e.v.String() }

// PutUint64BigEndian writes v as 8 big-endian bytes into out, which
// must have length >= 8. Shared helper for the nonce/length wire
// encoding used throughout the channel and POW gate (spec §6: "64-bit
// integer (nonces, lengths): 8 bytes big-endian").
func PutUint64BigEndian(out []byte, v uint64) {
	binary.BigEndian.PutUint64(out, v)
}

// Uint64BigEndian is the Bytes()->uint64 decode counterpart of
// PutUint64BigEndian.
func Uint64BigEndian(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
