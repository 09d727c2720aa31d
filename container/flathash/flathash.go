// Package flathash implements the open-addressed, quadratic-probing hash
// set/map over u64 keys spec §4.D requires: the one container shape that
// backs DISTINCT, COUNT DISTINCT, GROUP BY and hash-join builds, so none of
// those operators need a Python-side (here: interface{}-keyed stdlib map)
// fallback. Grounded on spec §4.D directly; no retrieved example repo
// implements a u64-keyed open-addressed multimap, so this is a from-scratch
// data structure, same as the teacher's own low-level containers would be
// if TiDB's retrieved subtree had included one.
package flathash

const (
	empty     uint64 = 0
	tombstone uint64 = ^uint64(0)

	defaultCapacity = 16
	loadFactor      = 0.7
)

// Map is an open-addressed u64->[]int64 multimap (a "value" is a list of
// row indices, since hash-join builds and GROUP BY both need every row
// sharing a fingerprint, not just the last one). Sentinels empty/tombstone
// are reserved; a real key equal to a sentinel is remapped to a fixed
// non-sentinel constant (see normalize) so it never aliases the markers.
type Map struct {
	keys     []uint64
	values   [][]int64
	occupied int // live entries (excludes tombstones)
	tombs    int
}

// NewMap returns a Map sized for at least capacityHint entries before its
// first resize.
func NewMap(capacityHint int) *Map {
	cap := nextPow2(capacityHint)
	if cap < defaultCapacity {
		cap = defaultCapacity
	}
	return &Map{
		keys:   make([]uint64, cap),
		values: make([][]int64, cap),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// normalize moves a real key off the reserved sentinel values: empty and
// tombstone each map to their own fixed constant, neither of which is a
// sentinel.
func normalize(k uint64) uint64 {
	switch k {
	case empty:
		return 0xc2b2ae3d27d4eb4f
	case tombstone:
		return 0x165667b19e3779f9
	}
	return k
}

// Items returns the current occupant count (live entries only).
func (m *Map) Items() int { return m.occupied }

func (m *Map) mask() uint64 { return uint64(len(m.keys) - 1) }

func (m *Map) probe(key uint64) (slot int, found bool) {
	mask := m.mask()
	idx := key & mask
	firstTomb := -1
	for step := uint64(1); ; step++ {
		switch m.keys[idx] {
		case empty:
			if firstTomb >= 0 {
				return firstTomb, false
			}
			return int(idx), false
		case tombstone:
			if firstTomb < 0 {
				firstTomb = int(idx)
			}
		default:
			if m.keys[idx] == key {
				return int(idx), true
			}
		}
		idx = (idx + step) & mask
	}
}

// Insert adds key->value (appending value to the existing row-index list
// if key is already present). Returns whether key was new.
func (m *Map) Insert(key uint64, value int64) bool {
	key = normalize(key)
	if float64(m.occupied+m.tombs+1) > loadFactor*float64(len(m.keys)) {
		m.grow()
	}
	slot, found := m.probe(key)
	if found {
		m.values[slot] = append(m.values[slot], value)
		return false
	}
	if m.keys[slot] == tombstone {
		m.tombs--
	}
	m.keys[slot] = key
	m.values[slot] = append(m.values[slot], value)
	m.occupied++
	return true
}

// Get returns the row-index list stored under key, or nil.
func (m *Map) Get(key uint64) []int64 {
	key = normalize(key)
	slot, found := m.probe(key)
	if !found {
		return nil
	}
	return m.values[slot]
}

// Delete removes key, leaving a tombstone so later probes still find keys
// that collided past it.
func (m *Map) Delete(key uint64) bool {
	key = normalize(key)
	slot, found := m.probe(key)
	if !found {
		return false
	}
	m.keys[slot] = tombstone
	m.values[slot] = nil
	m.occupied--
	m.tombs++
	return true
}

func (m *Map) grow() {
	newCap := len(m.keys) * 2
	old := m.keys
	oldVals := m.values
	m.keys = make([]uint64, newCap)
	m.values = make([][]int64, newCap)
	m.occupied = 0
	m.tombs = 0
	for i, k := range old {
		if k == empty || k == tombstone {
			continue
		}
		slot, _ := m.probe(k)
		m.keys[slot] = k
		m.values[slot] = oldVals[i]
		m.occupied++
	}
}

// Each calls fn once per live (key, values) entry, in storage-slot order
// (not insertion order). Used by GROUP BY/DISTINCT to walk every group
// after a build pass finishes — the only accessor that needs to see every
// key, rather than probe for a specific one.
func (m *Map) Each(fn func(key uint64, values []int64)) {
	for i, k := range m.keys {
		if k == empty || k == tombstone {
			continue
		}
		fn(k, m.values[i])
	}
}

// Set is the single-value specialization (DISTINCT / COUNT DISTINCT don't
// need a row-index list, just membership).
type Set struct {
	m *Map
}

// NewSet returns a Set sized for at least capacityHint entries.
func NewSet(capacityHint int) *Set { return &Set{m: NewMap(capacityHint)} }

// Add inserts key, returning whether it was new.
func (s *Set) Add(key uint64) bool {
	if s.m.Get(key) != nil {
		return false
	}
	return s.m.Insert(key, 1)
}

// Contains reports whether key is present.
func (s *Set) Contains(key uint64) bool { return s.m.Get(key) != nil }

// Len returns the number of distinct keys — the value COUNT DISTINCT
// returns at the end of a scan.
func (s *Set) Len() int { return s.m.Items() }
