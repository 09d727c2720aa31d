package bloom

import (
	"fmt"
	"testing"
)

// TestNoFalseNegatives covers spec §8: every hash actually added must
// always test as possibly-contained.
func TestNoFalseNegatives(t *testing.T) {
	f := New(10_000)
	hashes := make([]uint64, 10_000)
	for i := range hashes {
		hashes[i] = HashString(fmt.Sprintf("key-%d", i))
	}
	f.BuildFromHashes(hashes, nil)

	for i, h := range hashes {
		if !f.PossiblyContains(h) {
			t.Fatalf("hash %d (key-%d) added but PossiblyContains reports absent", i, i)
		}
	}
}

// TestFalsePositiveRateBound samples keys never added and checks the
// observed false-positive rate stays within a loose bound of the target
// 5% — the filter is sized via bitsPerKeyForFPR(targetFPR), so with a
// reasonably large disjoint sample the fraction of false hits should not
// grossly exceed that target.
func TestFalsePositiveRateBound(t *testing.T) {
	const n = 50_000
	f := New(n)
	for i := 0; i < n; i++ {
		f.Add(HashString(fmt.Sprintf("present-%d", i)))
	}

	falsePositives := 0
	const probes = 50_000
	for i := 0; i < probes; i++ {
		h := HashString(fmt.Sprintf("absent-%d", i))
		if f.PossiblyContains(h) {
			falsePositives++
		}
	}

	fpr := float64(falsePositives) / float64(probes)
	if fpr > 0.10 {
		t.Fatalf("observed false-positive rate %.4f exceeds generous bound 0.10 (target %.2f)", fpr, targetFPR)
	}
}

// TestSkipNullSkipsAddition confirms BuildFromHashes honors skipNull,
// keeping a row's hash out of the filter entirely when asked.
func TestSkipNullSkipsAddition(t *testing.T) {
	f := New(100)
	hashes := []uint64{HashString("a"), HashString("b"), HashString("c")}
	f.BuildFromHashes(hashes, func(i int) bool { return i == 1 })

	if !f.PossiblyContains(hashes[0]) {
		t.Errorf("hash 0 should have been added")
	}
	if !f.PossiblyContains(hashes[2]) {
		t.Errorf("hash 2 should have been added")
	}
	// hash 1 was skipped; we can't assert it's absent (it may collide with
	// another added bit pattern), only that the no-false-negative guarantee
	// doesn't apply to it since it was never Add()-ed.
}

// TestPossiblyContainsManyMatchesSingleProbe confirms the vectorized probe
// agrees with repeated single-hash probes.
func TestPossiblyContainsManyMatchesSingleProbe(t *testing.T) {
	f := New(1000)
	var hashes []uint64
	for i := 0; i < 100; i++ {
		h := HashString(fmt.Sprintf("v-%d", i))
		hashes = append(hashes, h)
		if i%2 == 0 {
			f.Add(h)
		}
	}

	got := f.PossiblyContainsMany(hashes)
	for i, h := range hashes {
		want := f.PossiblyContains(h)
		if got[i] != want {
			t.Errorf("PossiblyContainsMany[%d] = %v, want %v", i, got[i], want)
		}
	}
}
