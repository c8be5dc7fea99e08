package xhash

import "fmt"

// MaskSide selects which end of the inner digest survives masking
// (spec §4.C1: "zeroes all but the most- or least-significant k
// bytes").
type MaskSide int

const (
	// MaskMSB keeps the most-significant k bytes (the prefix), zeroing
	// the rest.
	MaskMSB MaskSide = iota
	// MaskLSB keeps the least-significant k bytes (the suffix),
	// zeroing the rest.
	MaskLSB
)

// Masked wraps an inner Hash and zeroes all but a chosen number of
// most- or least-significant bytes of every digest it produces, so
// that a full-width proof transcript aligns with an external
// verifier's reduced word width (spec §4.C1 "used on the wire to
// align with an external verifier's reduced word width").
type Masked struct {
	inner Hash
	k     int
	side  MaskSide
}

// NewMasked builds a masked hash keeping k bytes of inner's full-width
// digest. k must not exceed inner.DigestBytes().
func NewMasked(inner Hash, k int, side MaskSide) Masked {
	if k <= 0 || k > inner.DigestBytes() {
		panic(fmt.Sprintf("xhash: masked hash k=%d out of range for inner digest of %d bytes", k, inner.DigestBytes()))
	}
	return Masked{inner: inner, k: k, side: side}
}

func (m Masked) Name() string {
	suffix := "msb"
	if m.side == MaskLSB {
		suffix = "lsb"
	}
	return fmt.Sprintf("%s_masked%d_%s", m.inner.Name(), m.k*8, suffix)
}

// DigestBytes of a masked hash is still the inner hash's full width:
// masking zeroes bytes, it does not shorten the digest (spec §4.C1,
// §6: masked variants are selected by name but still produce
// full-width digests on the wire with the non-kept bytes zeroed).
func (m Masked) DigestBytes() int { return m.inner.DigestBytes() }

func (m Masked) InitFrom(b []byte) Digest { return initFrom(m.DigestBytes(), m.Name(), b) }

func (m Masked) mask(d Digest) Digest {
	out := make(Digest, len(d))
	switch m.side {
	case MaskMSB:
		copy(out[:m.k], d[:m.k])
	case MaskLSB:
		copy(out[len(out)-m.k:], d[len(d)-m.k:])
	}
	return out
}

// HashBytesWithLength delegates to the inner hash on full-width
// digests, then masks the result (spec §4.C1: "All hash operations
// delegate to the inner hash on full-width digests, then mask the
// result").
func (m Masked) HashBytesWithLength(bytes []byte) Digest {
	return m.mask(m.inner.HashBytesWithLength(bytes))
}

func (m Masked) HashTwo(a, b Digest) Digest {
	return m.mask(m.inner.HashTwo(a, b))
}
