package pow

import (
	"testing"

	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// TestS4Fixture reproduces spec §8 S4: bits=15, seed=H("POW test"); the
// emitted nonce re-verifies, and verification with bits=16 fails for
// that same nonce (overwhelmingly likely — this is a probabilistic
// property, not a hardcoded value, per spec §8 P7).
func TestS4Fixture(t *testing.T) {
	h := xhash.Keccak256{}
	seed := h.HashBytesWithLength([]byte("POW test"))

	nonce, err := Find(h, seed, 15)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !Verify(h, seed, 15, nonce) {
		t.Errorf("Verify(bits=15) rejected the nonce Find produced")
	}
	if Verify(h, seed, 16, nonce) {
		t.Errorf("Verify(bits=16) accepted the nonce Find produced for bits=15")
	}
}

func TestVerifyRejectsWrongNonce(t *testing.T) {
	h := xhash.Keccak256{}
	seed := h.HashBytesWithLength([]byte("seed"))
	if Verify(h, seed, 8, 0) {
		// Nonce 0 passing 8 bits of difficulty is a 1/256 coincidence;
		// if it happens, try a different nonce so the test is not
		// flaky against an unlucky fixed value.
		if Verify(h, seed, 8, 1) {
			t.Skip("both candidate nonces happened to satisfy the difficulty; inconclusive")
		}
	}
}

func TestZeroBitsIsNoOp(t *testing.T) {
	h := xhash.Keccak256{}
	seed := []byte("seed")
	if !Verify(h, seed, 0, 0xDEADBEEF) {
		t.Errorf("bits=0 must verify any nonce as a no-op")
	}
}

func TestFindRejectsZeroBits(t *testing.T) {
	h := xhash.Keccak256{}
	if _, err := Find(h, []byte("seed"), 0); err == nil {
		t.Errorf("Find(bits=0) should be rejected; callers must special-case it before calling Find")
	}
}

func TestLeadingZeroBitsAtLeast(t *testing.T) {
	d := xhash.Digest{0x00, 0x0F, 0xFF}
	cases := []struct {
		bits uint8
		want bool
	}{
		{0, true},
		{8, true},
		{12, true},
		{13, false},
		{16, false},
	}
	for _, c := range cases {
		if got := leadingZeroBitsAtLeast(d, c.bits); got != c.want {
			t.Errorf("leadingZeroBitsAtLeast(%v, %d) = %v, want %v", d, c.bits, got, c.want)
		}
	}
}
