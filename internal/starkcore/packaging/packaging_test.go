package packaging

import (
	"testing"

	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

func TestElementsPerPackage(t *testing.T) {
	cases := []struct {
		elementSize, total, digest int
		want                       int
	}{
		{elementSize: 4, total: 1024, digest: 32, want: 16},
		{elementSize: 32, total: 1024, digest: 32, want: 2},
		{elementSize: 64, total: 1024, digest: 32, want: 1},
		{elementSize: 4, total: 8, digest: 32, want: 8}, // capped at total
	}
	for _, c := range cases {
		got := ElementsPerPackage(c.elementSize, c.total, c.digest)
		if got != c.want {
			t.Errorf("ElementsPerPackage(%d,%d,%d) = %d, want %d", c.elementSize, c.total, c.digest, got, c.want)
		}
	}
}

// TestP3RoundTripRecoversElementMembership is spec §8 P3: every element
// belongs to exactly one package, and GetElementsInPackages /
// ElementsRequiredToComputeHashes agree on package membership.
func TestP3RoundTripRecoversElementMembership(t *testing.T) {
	total := 10
	packageSize := 4 // packages: [0-3], [4-7], [8-9]

	got := GetElementsInPackages([]int{0, 1, 2}, packageSize, total)
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("GetElementsInPackages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %d, want %d", i, got[i], want[i])
		}
	}

	known := map[int]bool{0: true, 1: true, 4: true}
	missing := ElementsRequiredToComputeHashes([]int{0, 1}, known, packageSize, total)
	wantMissing := []int{2, 3, 5, 6, 7}
	if len(missing) != len(wantMissing) {
		t.Fatalf("missing = %v, want %v", missing, wantMissing)
	}
	for i := range wantMissing {
		if missing[i] != wantMissing[i] {
			t.Errorf("missing[%d] = %d, want %d", i, missing[i], wantMissing[i])
		}
	}
}

func TestPackAndHashNonMerkleLayer(t *testing.T) {
	h := xhash.Keccak256{}
	elements := [][]byte{{1}, {2}, {3}, {4}, {5}}
	out, err := PackAndHash(h, elements, 2, false)
	if err != nil {
		t.Fatalf("PackAndHash: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d packages, want 3", len(out))
	}
	want0 := h.HashBytesWithLength([]byte{1, 2})
	if !hashEqual(out[0], want0) {
		t.Errorf("package 0 = %x, want %x", out[0], want0)
	}
	want2 := h.HashBytesWithLength([]byte{5})
	if !hashEqual(out[2], want2) {
		t.Errorf("package 2 (partial) = %x, want %x", out[2], want2)
	}
}

func TestPackAndHashMerkleLayerPassesThrough(t *testing.T) {
	h := xhash.Keccak256{}
	d1 := h.HashBytesWithLength([]byte("a"))
	d2 := h.HashBytesWithLength([]byte("b"))
	out, err := PackAndHash(h, [][]byte{d1, d2}, 1, true)
	if err != nil {
		t.Fatalf("PackAndHash: %v", err)
	}
	if !hashEqual(out[0], d1) || !hashEqual(out[1], d2) {
		t.Errorf("merkle layer packaging must pass digests through unchanged")
	}
}

func hashEqual(a, b xhash.Digest) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
