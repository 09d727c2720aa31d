package flathash

import "testing"

func TestMapInsertGet(t *testing.T) {
	m := NewMap(4)

	if isNew := m.Insert(42, 100); !isNew {
		t.Fatalf("Insert(42, 100) reported not-new on first insert")
	}
	if isNew := m.Insert(42, 200); isNew {
		t.Fatalf("Insert(42, 200) reported new on a repeat key")
	}

	got := m.Get(42)
	want := []int64{100, 200}
	if len(got) != len(want) {
		t.Fatalf("Get(42) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Get(42)[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	if got := m.Get(999); got != nil {
		t.Errorf("Get(999) = %v, want nil for absent key", got)
	}
	if m.Items() != 1 {
		t.Errorf("Items() = %d, want 1", m.Items())
	}
}

func TestMapSentinelKeysDoNotAlias(t *testing.T) {
	m := NewMap(4)
	m.Insert(empty, 1)
	m.Insert(tombstone, 2)

	if got := m.Get(empty); len(got) != 1 || got[0] != 1 {
		t.Errorf("Get(empty) = %v, want [1]", got)
	}
	if got := m.Get(tombstone); len(got) != 1 || got[0] != 2 {
		t.Errorf("Get(tombstone) = %v, want [2]", got)
	}
	if m.Items() != 2 {
		t.Errorf("Items() = %d, want 2 (sentinel keys must not collide)", m.Items())
	}
}

func TestMapDeleteLeavesTombstoneProbePastIt(t *testing.T) {
	m := NewMap(4)
	// Force two keys into the same initial slot so the second only
	// resolves via probing past the first.
	cap0 := len(m.keys)
	a := uint64(1)
	b := a + uint64(cap0) // same (key & mask) as a, so it lands on a's probe chain

	m.Insert(a, 10)
	m.Insert(b, 20)

	if !m.Delete(a) {
		t.Fatalf("Delete(a) = false, want true")
	}
	if got := m.Get(b); len(got) != 1 || got[0] != 20 {
		t.Fatalf("Get(b) after deleting a = %v, want [20] (tombstone must not block the probe)", got)
	}
	if got := m.Get(a); got != nil {
		t.Errorf("Get(a) after Delete = %v, want nil", got)
	}
}

func TestMapGrowPreservesEntries(t *testing.T) {
	m := NewMap(4)
	const n = 200
	for i := uint64(0); i < n; i++ {
		m.Insert(i, int64(i))
	}
	for i := uint64(0); i < n; i++ {
		got := m.Get(i)
		if len(got) != 1 || got[0] != int64(i) {
			t.Fatalf("Get(%d) = %v, want [%d] after growth", i, got, i)
		}
	}
	if m.Items() != n {
		t.Errorf("Items() = %d, want %d", m.Items(), n)
	}
}

func TestMapEachVisitsEveryLiveEntry(t *testing.T) {
	m := NewMap(4)
	want := map[uint64]int64{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		m.Insert(k, v)
	}
	m.Delete(2)
	delete(want, 2)

	seen := map[uint64][]int64{}
	m.Each(func(key uint64, values []int64) {
		seen[key] = values
	})

	if len(seen) != len(want) {
		t.Fatalf("Each visited %d keys, want %d", len(seen), len(want))
	}
	for k, v := range want {
		if len(seen[k]) != 1 || seen[k][0] != v {
			t.Errorf("Each key %d = %v, want [%d]", k, seen[k], v)
		}
	}
}

func TestSetAddContainsLen(t *testing.T) {
	s := NewSet(4)
	if !s.Add(7) {
		t.Fatalf("Add(7) = false on first add")
	}
	if s.Add(7) {
		t.Fatalf("Add(7) = true on repeat add")
	}
	if !s.Contains(7) {
		t.Errorf("Contains(7) = false, want true")
	}
	if s.Contains(8) {
		t.Errorf("Contains(8) = true, want false")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
