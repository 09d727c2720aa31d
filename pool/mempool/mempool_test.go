package mempool

import (
	"bytes"
	"testing"
)

func TestCommitReadRoundTrip(t *testing.T) {
	p := New(64)
	ref := p.Commit([]byte("hello"))
	if ref == invalidRef {
		t.Fatalf("Commit returned invalidRef")
	}
	got, ok := p.Read(ref, false, false)
	if !ok {
		t.Fatalf("Read(%d) ok=false", ref)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("Read(%d) = %q, want %q", ref, got, "hello")
	}
}

func TestCommitOversizedFails(t *testing.T) {
	p := New(4)
	if ref := p.Commit([]byte("too long")); ref != invalidRef {
		t.Fatalf("Commit(8 bytes into 4-byte arena) = %d, want invalidRef", ref)
	}
}

// TestCommitTriggersCoalesce covers spec §4.B's L1 path: two adjacent
// freed segments must merge into one contiguous free run without needing
// a full compaction.
func TestCommitTriggersCoalesce(t *testing.T) {
	p := New(10)
	a := p.Commit([]byte("aaaaa"))
	b := p.Commit([]byte("bbbbb"))
	p.Release(a)
	p.Release(b)

	c := p.Commit(bytes.Repeat([]byte("c"), 10))
	if c == invalidRef {
		t.Fatalf("Commit(10 bytes) failed after releasing two adjacent 5-byte segments; coalesce should have merged them")
	}
	got, _ := p.Read(c, false, false)
	if !bytes.Equal(got, bytes.Repeat([]byte("c"), 10)) {
		t.Fatalf("Read(c) = %q, want 10 c's", got)
	}
}

// TestCompactRelocatesAroundLatch covers spec §4.B/§8: a latched segment
// is never relocated by compaction, while unlatched segments sharing the
// arena are slid down to make room, and every ref remains readable with
// its original bytes regardless of relocation.
func TestCompactRelocatesAroundLatch(t *testing.T) {
	p := New(20)
	a := p.Commit([]byte("AAAAA"))
	b := p.Commit([]byte("BBBBB"))
	c := p.Commit([]byte("CCCCC"))

	// Latch a (it sits at offset 0, so no preceding free run can be lost
	// ahead of it) and free b to fragment the arena.
	if _, ok := p.Read(a, true, true); !ok {
		t.Fatalf("Read(a, latch=true) ok=false")
	}
	p.Release(b)

	// Neither the two 5-byte free runs alone nor a coalesce satisfy an
	// 8-byte request (they aren't adjacent), forcing a full compaction.
	d := p.Commit(bytes.Repeat([]byte("D"), 8))
	if d == invalidRef {
		t.Fatalf("Commit(8 bytes) failed; expected L2 compaction to free enough contiguous space")
	}

	gotA, _ := p.Read(a, false, false)
	if !bytes.Equal(gotA, []byte("AAAAA")) {
		t.Fatalf("Read(a) after compaction = %q, want %q (latched segment must not move or corrupt)", gotA, "AAAAA")
	}
	gotC, _ := p.Read(c, false, false)
	if !bytes.Equal(gotC, []byte("CCCCC")) {
		t.Fatalf("Read(c) after compaction = %q, want %q (relocated segment must keep its bytes)", gotC, "CCCCC")
	}
	gotD, _ := p.Read(d, false, false)
	if !bytes.Equal(gotD, bytes.Repeat([]byte("D"), 8)) {
		t.Fatalf("Read(d) = %q, want 8 D's", gotD)
	}

	p.Unlatch(a)
	gotA2, ok := p.Read(a, false, false)
	if !ok || !bytes.Equal(gotA2, []byte("AAAAA")) {
		t.Fatalf("Read(a) after Unlatch = (%q, %v), want (%q, true)", gotA2, ok, "AAAAA")
	}
}

func TestReleaseThenReadMisses(t *testing.T) {
	p := New(16)
	ref := p.Commit([]byte("bytes"))
	p.Release(ref)
	if _, ok := p.Read(ref, false, false); ok {
		t.Fatalf("Read after Release returned ok=true, want false")
	}
}

func TestFreeBytesAccounting(t *testing.T) {
	p := New(10)
	if got := p.FreeBytes(); got != 10 {
		t.Fatalf("FreeBytes() on empty pool = %d, want 10", got)
	}
	ref := p.Commit([]byte("12345"))
	if got := p.FreeBytes(); got != 5 {
		t.Fatalf("FreeBytes() after committing 5 bytes = %d, want 5", got)
	}
	p.Release(ref)
	if got := p.FreeBytes(); got != 10 {
		t.Fatalf("FreeBytes() after Release = %d, want 10", got)
	}
}
