// Package xhash implements the hash traits of spec §4.C1: fixed-width
// digests, byte hashing, two-to-one hashing, and the verifier-friendly
// masked variant. Named xhash (not hash) to avoid colliding with the
// standard library's hash package import path convention.
package xhash

import (
	"fmt"
)

// Digest is a fixed-width hash output. Its length is whatever the
// producing Hash's DigestBytes() reports; callers must not assume a
// particular width without asking the Hash.
type Digest []byte

// Hash is the trait every concrete hash family (Keccak-256,
// Blake2s-256, Pedersen, and their masked variants) implements (spec
// §4.C1). Operations are deterministic and total.
type Hash interface {
	// Name is the protocol selector string from the closed set in
	// spec §6.
	Name() string

	// DigestBytes is the fixed digest width in bytes.
	DigestBytes() int

	// InitFrom bit-copies bytes into a Digest without hashing. It is a
	// programmer error to call this with len(bytes) != DigestBytes().
	InitFrom(bytes []byte) Digest

	// HashBytesWithLength computes a stateful hash of an arbitrary
	// byte stream.
	HashBytesWithLength(bytes []byte) Digest

	// HashTwo hashes two digests two-to-one. Invariant (spec §4.C1):
	// HashTwo(a, b) == HashBytesWithLength(a||b).
	HashTwo(a, b Digest) Digest
}

// hashTwoByConcat is the shared implementation of the HashTwo
// invariant, used by every concrete Hash below so the invariant can
// never drift out of sync between implementations.
func hashTwoByConcat(h Hash, a, b Digest) Digest {
	if len(a) != h.DigestBytes() || len(b) != h.DigestBytes() {
		panic(fmt.Sprintf("xhash: HashTwo operands must be %d bytes, got %d and %d", h.DigestBytes(), len(a), len(b)))
	}
	buf := make([]byte, 0, len(a)+len(b))
	buf = append(buf, a...)
	buf = append(buf, b...)
	return h.HashBytesWithLength(buf)
}

func initFrom(digestBytes int, name string, bytes []byte) Digest {
	if len(bytes) != digestBytes {
		panic(fmt.Sprintf("xhash: %s.InitFrom requires %d bytes, got %d", name, digestBytes, len(bytes)))
	}
	out := make(Digest, digestBytes)
	copy(out, bytes)
	return out
}

// ByName resolves a hash implementation by its protocol selector
// string from the closed set in spec §6:
// { "keccak256", "blake256", "pedersen",
//   "keccak256_masked160_msb", "keccak256_masked160_lsb",
//   "blake256_masked160_msb", "blake256_masked160_lsb" }.
func ByName(name string) (Hash, error) {
	switch name {
	case "keccak256":
		return Keccak256{}, nil
	case "blake256":
		return Blake2s256{}, nil
	case "pedersen":
		return Pedersen{}, nil
	case "keccak256_masked160_msb":
		return NewMasked(Keccak256{}, 20, MaskMSB), nil
	case "keccak256_masked160_lsb":
		return NewMasked(Keccak256{}, 20, MaskLSB), nil
	case "blake256_masked160_msb":
		return NewMasked(Blake2s256{}, 20, MaskMSB), nil
	case "blake256_masked160_lsb":
		return NewMasked(Blake2s256{}, 20, MaskLSB), nil
	default:
		return nil, fmt.Errorf("xhash: unknown hash name %q", name)
	}
}
