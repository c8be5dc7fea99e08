package hashchain

import (
	"encoding/hex"
	"testing"

	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

// TestS2Fixture reproduces spec §8 S2: seed u64_be(0xDEADBEEF), draw
// 1000 consecutive u64's via GetRandomBytes; the 1000th eight-byte
// chunk must equal 0xD17478D231C2AF63 under Keccak-256. After
// UpdateHashChain(u64_be(0xDABADABADA)), the next draw must equal
// 0xA0DABD71EEAB82AC.
func TestS2Fixture(t *testing.T) {
	var seed [8]byte
	field.PutUint64BigEndian(seed[:], 0xDEADBEEF)

	chain := NewFromSeed(xhash.Keccak256{}, seed[:])

	var last []byte
	for i := 0; i < 1000; i++ {
		last = chain.GetRandomBytes(8)
	}
	if got := hex.EncodeToString(last); got != "d17478d231c2af63" {
		t.Errorf("1000th draw = %s, want d17478d231c2af63", got)
	}

	var increment [8]byte
	field.PutUint64BigEndian(increment[:], 0xDABADABADA)
	chain.UpdateHashChain(increment[:])

	next := chain.GetRandomBytes(8)
	if got := hex.EncodeToString(next); got != "a0dabd71eeab82ac" {
		t.Errorf("draw after UpdateHashChain = %s, want a0dabd71eeab82ac", got)
	}
}

func TestGetRandomBytesIsDeterministicPerSeed(t *testing.T) {
	a := NewFromSeed(xhash.Keccak256{}, []byte("seed"))
	b := NewFromSeed(xhash.Keccak256{}, []byte("seed"))

	for i := 0; i < 10; i++ {
		x := a.GetRandomBytes(5)
		y := b.GetRandomBytes(5)
		if hex.EncodeToString(x) != hex.EncodeToString(y) {
			t.Fatalf("draw %d diverged between identically seeded chains", i)
		}
	}
}

func TestSpareBufferSurvivesAcrossCalls(t *testing.T) {
	// Drawing 1 byte at a time must reproduce the same stream as
	// drawing it all in one call, proving the spare buffer correctly
	// carries partial blocks between invocations.
	one := NewFromSeed(xhash.Keccak256{}, []byte("x"))
	bulk := NewFromSeed(xhash.Keccak256{}, []byte("x"))

	bulkOut := bulk.GetRandomBytes(40)

	var oneOut []byte
	for i := 0; i < 40; i++ {
		oneOut = append(oneOut, one.GetRandomBytes(1)...)
	}

	if hex.EncodeToString(oneOut) != hex.EncodeToString(bulkOut) {
		t.Errorf("byte-at-a-time stream diverged from bulk stream")
	}
}

func TestUpdateHashChainChangesState(t *testing.T) {
	c := NewFromSeed(xhash.Keccak256{}, []byte("seed"))
	before := c.State()
	c.UpdateHashChain([]byte("more"))
	after := c.State()
	if hex.EncodeToString(before) == hex.EncodeToString(after) {
		t.Errorf("UpdateHashChain did not change state")
	}
}
