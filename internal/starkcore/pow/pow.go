// Package pow implements the proof-of-work grinding gate attached to
// the channel (spec §4.C3): given a seed and a difficulty in leading
// zero bits, find or verify a short nonce.
package pow

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// Magic is the fixed 8-byte protocol constant prefixed to every POW
// challenge (spec §4.C3).
const Magic uint64 = 0x0123456789abcded

// MaxBits is the largest difficulty this gate accepts (spec §3: "bits
// ∈ [0, 64]").
const MaxBits = 64

func challengeDigest(h xhash.Hash, seed []byte, bits uint8) xhash.Digest {
	var magicBytes [8]byte
	binary.BigEndian.PutUint64(magicBytes[:], Magic)

	buf := make([]byte, 0, 8+len(seed)+1)
	buf = append(buf, magicBytes[:]...)
	buf = append(buf, seed...)
	buf = append(buf, bits)
	return h.HashBytesWithLength(buf)
}

// leadingZeroBitsAtLeast reports whether d, read as a big-endian
// unsigned integer, has at least bits leading zero bits. Digests up
// to 32 bytes (every concrete hash in this module's closed set, masked
// variants included — masking only zeroes bytes, it never widens the
// digest) are counted via uint256.Int.BitLen, the same fixed-width
// 256-bit integer type the pack's chain-integration repos
// (parsdao-pars, wyf-ACCEPT-eth2030) use for this kind of big-endian
// bit-length arithmetic; wider digests fall back to a byte-at-a-time
// scan.
func leadingZeroBitsAtLeast(d xhash.Digest, bits uint8) bool {
	if len(d) <= 32 {
		var buf [32]byte
		copy(buf[32-len(d):], d)
		v := new(uint256.Int).SetBytes32(buf[:])
		leadingZeros := len(d)*8 - v.BitLen()
		return leadingZeros >= int(bits)
	}

	need := int(bits)
	for _, b := range d {
		if need <= 0 {
			return true
		}
		if need >= 8 {
			if b != 0 {
				return false
			}
			need -= 8
			continue
		}
		// Fewer than 8 zero bits required from this byte: the top
		// `need` bits of b must all be zero.
		mask := byte(0xFF << (8 - need))
		return b&mask == 0
	}
	return need <= 0
}

// Find searches for a 64-bit nonce n such that
// H(magic || nonce) has at least bits leading zero bits, where magic
// is derived from seed and bits as in spec §4.C3. bits == 0 is a
// programmer error to call Find for — the channel layer must treat it
// as a no-op before reaching this package (spec §4.C3: "bits == 0 is a
// no-op: nothing sent, nothing checked").
//
// The search is parallelized: each of runtime.NumCPU() workers scans a
// disjoint residue class of the nonce space, and the first worker to
// find a valid nonce wins — any valid nonce is acceptable, not
// necessarily the least (spec §4.C3 "Workers scan disjoint ranges in
// parallel").
func Find(h xhash.Hash, seed []byte, bits uint8) (uint64, error) {
	if bits == 0 || bits > MaxBits {
		return 0, fmt.Errorf("pow: bits must be in (0, %d], got %d", MaxBits, bits)
	}

	magic := challengeDigest(h, seed, bits)
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	results := make(chan uint64, workers)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := uint64(w)
		stride := uint64(workers)
		g.Go(func() error {
			var nonceBytes [8]byte
			for n := w; ; n += stride {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				binary.BigEndian.PutUint64(nonceBytes[:], n)
				candidate := h.HashBytesWithLength(append(append([]byte{}, magic...), nonceBytes[:]...))
				if leadingZeroBitsAtLeast(candidate, bits) {
					select {
					case results <- n:
						cancel()
					default:
					}
					return nil
				}
				if n > ^uint64(0)-stride {
					return nil
				}
			}
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	nonce, ok := <-results
	if !ok {
		return 0, fmt.Errorf("pow: exhausted nonce space without finding a valid proof of work")
	}
	return nonce, nil
}

// Verify recomputes magic from seed and bits, hashes nonce, and checks
// the leading-zero condition (spec §4.C3).
func Verify(h xhash.Hash, seed []byte, bits uint8, nonce uint64) bool {
	if bits == 0 {
		return true
	}
	if bits > MaxBits {
		return false
	}
	magic := challengeDigest(h, seed, bits)
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	candidate := h.HashBytesWithLength(append(append([]byte{}, magic...), nonceBytes[:]...))
	return leadingZeroBitsAtLeast(candidate, bits)
}
