package xhash

import "golang.org/x/crypto/blake2s"

// Blake2s256 is the Blake2s-256 hash named "blake256" in spec §6.
// Grounded on golang.org/x/crypto, the same module family the teacher
// already depends on for sha3.
type Blake2s256 struct{}

const blake2s256DigestBytes = 32

func (Blake2s256) Name() string      { return "blake256" }
func (Blake2s256) DigestBytes() int  { return blake2s256DigestBytes }
func (h Blake2s256) InitFrom(b []byte) Digest { return initFrom(h.DigestBytes(), h.Name(), b) }

func (Blake2s256) HashBytesWithLength(bytes []byte) Digest {
	sum := blake2s.Sum256(bytes)
	return sum[:]
}

func (h Blake2s256) HashTwo(a, b Digest) Digest { return hashTwoByConcat(h, a, b) }
