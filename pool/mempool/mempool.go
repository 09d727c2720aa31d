// Package mempool implements the fixed-capacity byte arena spec §4.B
// describes: morsel payloads are committed into it and read back by
// reference id, with latch-aware relocation so zero-copy readers can hold
// a borrow while the pool is compacted underneath other callers. Grounded
// on spec §4.B/§8 directly; no retrieved example implements a latch-aware
// relocatable arena, so this is a from-scratch structure built to the
// spec's stated contract (commit tries free-slot, then L1 coalesce, then
// L2 compact, then fails).
package mempool

import "sync"

// RefID identifies a committed segment. -1 is the reserved "commit failed"
// sentinel.
type RefID int64

const invalidRef RefID = -1

type segment struct {
	ref    RefID
	offset int
	length int
	used   bool
	latch  int // latch counter; >0 means "do not relocate"
}

// Pool is a single fixed-capacity byte arena. All mutation is serialized
// under one lock (spec §4.B: "thread-safe under a single pool lock; reads
// under latch are concurrent" — concurrent reads are safe here because a
// latched segment's bytes never move while the latch is held, so callers
// can read the returned slice without re-acquiring the pool lock).
type Pool struct {
	mu       sync.Mutex
	buf      []byte
	capacity int
	segments []*segment // ordered by offset
	nextRef  RefID
	byRef    map[RefID]*segment
}

// New returns an arena of the given byte capacity, initially one large
// free segment.
func New(capacity int) *Pool {
	p := &Pool{
		buf:      make([]byte, capacity),
		capacity: capacity,
		byRef:    make(map[RefID]*segment),
	}
	p.segments = []*segment{{offset: 0, length: capacity, used: false}}
	return p
}

func (p *Pool) freeBytes() int {
	total := 0
	for _, s := range p.segments {
		if !s.used {
			total += s.length
		}
	}
	return total
}

// findFreeSlot returns the first free segment at least len bytes long
// (first-fit), or -1.
func (p *Pool) findFreeSlot(length int) int {
	for i, s := range p.segments {
		if !s.used && s.length >= length {
			return i
		}
	}
	return -1
}

// coalesce (L1) merges adjacent free segments, without moving any used
// segment. Cheap, and sufficient when fragmentation is mild.
func (p *Pool) coalesce() {
	out := p.segments[:0]
	for _, s := range p.segments {
		if len(out) > 0 {
			last := out[len(out)-1]
			if !last.used && !s.used {
				last.length += s.length
				continue
			}
		}
		out = append(out, s)
	}
	p.segments = out
}

// compact (L2) slides every non-latched used segment toward offset 0,
// rebuilding the free list as one trailing free segment plus a free
// segment for any gap left in front of a latched segment. A latched
// segment is never relocated — compaction instead slides everything after
// it down to abut it.
func (p *Pool) compact() {
	newSegments := make([]*segment, 0, len(p.segments))
	cursor := 0
	for _, s := range p.segments {
		if !s.used {
			continue
		}
		if s.latch > 0 {
			// Cannot move; keep the gap in front of it as a free segment.
			if cursor < s.offset {
				newSegments = append(newSegments, &segment{offset: cursor, length: s.offset - cursor, used: false})
			}
			newSegments = append(newSegments, s)
			cursor = s.offset + s.length
			continue
		}
		if s.offset != cursor {
			copy(p.buf[cursor:cursor+s.length], p.buf[s.offset:s.offset+s.length])
			s.offset = cursor
		}
		newSegments = append(newSegments, s)
		cursor += s.length
	}
	if cursor < p.capacity {
		newSegments = append(newSegments, &segment{offset: cursor, length: p.capacity - cursor, used: false})
	}
	p.segments = newSegments
}

// Commit copies data into the arena and returns an opaque ref id, or -1 if
// even a full L1+L2 compaction cannot free len(data) contiguous bytes
// (spec §4.B/§8: "commit succeeds after at most one L1 and one L2
// compaction" for any allocation sequence totaling <= capacity).
func (p *Pool) Commit(data []byte) RefID {
	p.mu.Lock()
	defer p.mu.Unlock()

	length := len(data)
	if length > p.capacity {
		return invalidRef
	}

	if idx := p.findFreeSlot(length); idx >= 0 {
		return p.commitInto(idx, data)
	}

	p.coalesce()
	if idx := p.findFreeSlot(length); idx >= 0 {
		return p.commitInto(idx, data)
	}

	if p.freeBytes() < length {
		return invalidRef
	}

	p.compact()
	if idx := p.findFreeSlot(length); idx >= 0 {
		return p.commitInto(idx, data)
	}
	return invalidRef
}

// commitInto carves a used segment of len(data) bytes out of the free
// segment at segments[idx], splitting off any remainder as a new free
// segment immediately after it.
func (p *Pool) commitInto(idx int, data []byte) RefID {
	free := p.segments[idx]
	length := len(data)

	p.nextRef++
	ref := p.nextRef

	used := &segment{ref: ref, offset: free.offset, length: length, used: true}
	copy(p.buf[used.offset:used.offset+length], data)

	if free.length == length {
		p.segments[idx] = used
	} else {
		remainder := &segment{offset: free.offset + length, length: free.length - length, used: false}
		newSegs := make([]*segment, 0, len(p.segments)+1)
		newSegs = append(newSegs, p.segments[:idx]...)
		newSegs = append(newSegs, used, remainder)
		newSegs = append(newSegs, p.segments[idx+1:]...)
		p.segments = newSegs
	}
	p.byRef[ref] = used
	return ref
}

// Read returns the bytes for ref. If zeroCopy is true, the returned slice
// aliases the arena's backing array directly (the caller must not retain
// it past release/relocation); otherwise a defensive copy is returned. If
// latch is true, the segment is pinned and will not be relocated by a
// future Commit's compaction until Unlatch is called.
func (p *Pool) Read(ref RefID, zeroCopy bool, latch bool) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.byRef[ref]
	if !ok || !s.used {
		return nil, false
	}
	if latch {
		s.latch++
	}
	if zeroCopy {
		return p.buf[s.offset : s.offset+s.length], true
	}
	out := make([]byte, s.length)
	copy(out, p.buf[s.offset:s.offset+s.length])
	return out, true
}

// Unlatch decrements a segment's latch counter. Once it reaches zero the
// segment is eligible for relocation by a future compaction.
func (p *Pool) Unlatch(ref RefID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.byRef[ref]; ok && s.latch > 0 {
		s.latch--
	}
}

// Release returns a committed segment to the free list. It is an error
// (silently ignored) to release a still-latched segment from outside the
// pool's own bookkeeping; callers are expected to Unlatch fully first.
func (p *Pool) Release(ref RefID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.byRef[ref]
	if !ok {
		return
	}
	s.used = false
	s.ref = 0
	delete(p.byRef, ref)
}

// FreeBytes reports the current total free capacity (fragmented or not).
func (p *Pool) FreeBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freeBytes()
}
