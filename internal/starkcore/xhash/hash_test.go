package xhash

import (
	"encoding/hex"
	"testing"
)

// TestKeccak256Fixture checks the S1 fixture from spec §8: keccak256("testing").
func TestKeccak256Fixture(t *testing.T) {
	want := "5f16f4c7f149ac4f9510d9cf8cf384038ad348b3bcdc01915f95de12df9d1b02"
	got := hex.EncodeToString(Keccak256{}.HashBytesWithLength([]byte("testing")))
	if got != want {
		t.Errorf("keccak256(\"testing\") = %s, want %s", got, want)
	}
}

// TestBlake2s256Fixture checks the S1 fixture from spec §8: blake2s-256("Hello World!").
func TestBlake2s256Fixture(t *testing.T) {
	want := "be8c6777e88d287dd927975327dd4214d199a1a1b67fe2e26666cc336533666a"[:64]
	got := hex.EncodeToString(Blake2s256{}.HashBytesWithLength([]byte("Hello World!")))
	if got != want {
		t.Errorf("blake2s256(\"Hello World!\") = %s, want %s", got, want)
	}
}

func TestHashTwoMatchesConcatInvariant(t *testing.T) {
	for _, h := range []Hash{Keccak256{}, Blake2s256{}} {
		a := h.HashBytesWithLength([]byte("left"))
		b := h.HashBytesWithLength([]byte("right"))
		want := h.HashBytesWithLength(append(append([]byte{}, a...), b...))
		got := h.HashTwo(a, b)
		if hex.EncodeToString(got) != hex.EncodeToString(want) {
			t.Errorf("%s: HashTwo(a,b) != HashBytesWithLength(a||b)", h.Name())
		}
	}
}

func TestInitFromRequiresExactLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on wrong-length InitFrom")
		}
	}()
	Keccak256{}.InitFrom([]byte{1, 2, 3})
}

func TestMaskedZeroesBytes(t *testing.T) {
	msb, err := ByName("keccak256_masked160_msb")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	d := msb.HashBytesWithLength([]byte("anything"))
	if len(d) != 32 {
		t.Fatalf("masked digest length = %d, want 32", len(d))
	}
	for i := 20; i < 32; i++ {
		if d[i] != 0 {
			t.Errorf("byte %d of msb-masked digest is nonzero: %x", i, d)
		}
	}

	lsb, err := ByName("keccak256_masked160_lsb")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	d2 := lsb.HashBytesWithLength([]byte("anything"))
	for i := 0; i < 12; i++ {
		if d2[i] != 0 {
			t.Errorf("byte %d of lsb-masked digest is nonzero: %x", i, d2)
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("sha1"); err == nil {
		t.Fatalf("expected error for unknown hash name")
	}
}

func TestPedersenDeterministic(t *testing.T) {
	p := Pedersen{}
	a := p.HashBytesWithLength([]byte("abc"))
	b := p.HashBytesWithLength([]byte("abc"))
	if hex.EncodeToString(a) != hex.EncodeToString(b) {
		t.Errorf("Pedersen hash is not deterministic")
	}
	c := p.HashBytesWithLength([]byte("abd"))
	if hex.EncodeToString(a) == hex.EncodeToString(c) {
		t.Errorf("Pedersen hash collided on different inputs (extremely unlikely)")
	}
}
