// Package hashchain implements the deterministic PRNG seeded by a
// digest (spec §4.C2): a hash-chain state that can emit an arbitrary
// number of pseudorandom bytes and be reseeded by mixing in further
// bytes, with the exact byte-for-byte drain scheme spec §4.C2 calls
// out as observable and required to be preserved.
package hashchain

import (
	"math/big"

	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// HashChain is the state machine of spec §4.C2: a digest h, a spare
// buffer holding the unread tail of the last drawn block, and a 64-bit
// counter.
type HashChain struct {
	hash  xhash.Hash
	state xhash.Digest
	spare []byte // leftover bytes from the last partially-consumed block
	ctr   uint64
}

// NewFromSeed seeds a fresh chain: h <- H.HashBytesWithLength(seed); spare
// and counter reset to zero.
func NewFromSeed(h xhash.Hash, seed []byte) *HashChain {
	return &HashChain{
		hash:  h,
		state: h.HashBytesWithLength(seed),
		spare: nil,
		ctr:   0,
	}
}

// State returns a copy of the current digest state, primarily for
// tests and for channels that need to fold the chain state into their
// own transcript bookkeeping.
func (c *HashChain) State() xhash.Digest {
	out := make(xhash.Digest, len(c.state))
	copy(out, c.state)
	return out
}

// GetRandomBytes fills and returns n pseudorandom bytes. Each full
// DIGEST_BYTES chunk is produced by hashing h||be64(counter) from
// scratch and incrementing counter; a final partial chunk's remainder
// is kept as spare so the next call to GetRandomBytes resumes from
// where this one left off (spec §4.C2).
func (c *HashChain) GetRandomBytes(n int) []byte {
	out := make([]byte, n)
	pos := 0

	if len(c.spare) > 0 {
		take := len(c.spare)
		if take > n {
			take = n
		}
		copy(out[:take], c.spare[:take])
		c.spare = c.spare[take:]
		pos = take
	}

	for pos < n {
		var ctrBytes [8]byte
		field.PutUint64BigEndian(ctrBytes[:], c.ctr)
		c.ctr++

		block := c.hash.HashBytesWithLength(append(append([]byte{}, c.state...), ctrBytes[:]...))

		remaining := n - pos
		if remaining >= len(block) {
			copy(out[pos:], block)
			pos += len(block)
		} else {
			copy(out[pos:], block[:remaining])
			c.spare = append([]byte{}, block[remaining:]...)
			pos = n
		}
	}

	return out
}

// MixSeedWithBytes reinterprets h as a big-endian unsigned integer,
// adds seedIncrement, serializes back to the digest width, concatenates
// with bytes, and rehashes; spare and counter are reset to zero (spec
// §4.C2).
func (c *HashChain) MixSeedWithBytes(bytes []byte, seedIncrement uint64) {
	asInt := new(big.Int).SetBytes(c.state)
	asInt.Add(asInt, new(big.Int).SetUint64(seedIncrement))

	digestBytes := c.hash.DigestBytes()
	serialized := make([]byte, digestBytes)
	// Mirrors a field element's fixed-width big-endian encode: silently
	// wraps modulo 2^(8*digestBytes) if the addition overflowed the
	// digest width, which cannot happen for any seedIncrement used by
	// this module (spec never increments by more than a small constant).
	asInt.Mod(asInt, new(big.Int).Lsh(big.NewInt(1), uint(8*digestBytes)))
	asInt.FillBytes(serialized)

	buf := make([]byte, 0, len(serialized)+len(bytes))
	buf = append(buf, serialized...)
	buf = append(buf, bytes...)

	c.state = c.hash.HashBytesWithLength(buf)
	c.spare = nil
	c.ctr = 0
}

// UpdateHashChain is MixSeedWithBytes(bytes, 0) (spec §4.C2).
func (c *HashChain) UpdateHashChain(bytes []byte) {
	c.MixSeedWithBytes(bytes, 0)
}
