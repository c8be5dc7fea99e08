package xhash

import "golang.org/x/crypto/sha3"

// Keccak256 is the legacy (pre-NIST-finalization) Keccak-256 hash, the
// variant used throughout Ethereum-adjacent tooling and the one named
// "keccak256" in spec §6. Grounded on the teacher's use of
// golang.org/x/crypto/sha3 in utils/channel.go, switched from the
// NIST sha3.Sum256 to the legacy Keccak permutation to match the
// fixture in spec §8 S1.
type Keccak256 struct{}

const keccak256DigestBytes = 32

func (Keccak256) Name() string      { return "keccak256" }
func (Keccak256) DigestBytes() int  { return keccak256DigestBytes }
func (h Keccak256) InitFrom(b []byte) Digest { return initFrom(h.DigestBytes(), h.Name(), b) }

func (Keccak256) HashBytesWithLength(bytes []byte) Digest {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(bytes)
	return hasher.Sum(nil)
}

func (h Keccak256) HashTwo(a, b Digest) Digest { return hashTwoByConcat(h, a, b) }
