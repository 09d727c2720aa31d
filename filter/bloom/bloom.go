// Package bloom implements the split-block Bloom filter spec §4.E
// describes: the first-stage prefilter hash joins use to drop probe rows
// that cannot possibly match before paying for a hash-table lookup.
// Grounded on spec §4.E's cardinality/FPR sizing rule and on the bit-
// matching idiom in other_examples' go-ethereum bloombits matcher (split
// block layout), using the teacher's github.com/spaolacci/murmur3
// dependency for the k-hash-position mixing.
package bloom

import (
	"math"

	"github.com/spaolacci/murmur3"
)

const (
	blockBits  = 256 // one split block = 256 bits; see wordsInBlk
	wordBits   = 64
	wordsInBlk = blockBits / wordBits // 4 words per block
	targetFPR  = 0.05

	// DefaultBuildThreshold is the minimum build-side row count below
	// which a hash join skips constructing a prefilter: a filter sized for
	// a handful of rows saves no probe work worth the allocation.
	DefaultBuildThreshold = 10_000
)

// Filter is a split-block Bloom filter: the bit array is divided into
// fixed-size blocks, and each key only ever sets/tests bits within one
// block (chosen by a coarse hash), which keeps probes cache-local.
type Filter struct {
	blocks    [][wordsInBlk]uint64
	numBlocks uint64
	k         int // hash functions per key
}

// k for a given bits-per-key budget, minimizing false positive rate:
// k = ln(2) * (m/n).
func optimalK(bitsPerKey float64) int {
	k := int(math.Round(bitsPerKey * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > 8 {
		k = 8
	}
	return k
}

// bitsPerKeyForFPR solves m/n from the target false-positive rate:
// fpr = (1 - e^(-kn/m))^k, approximated via m/n = -ln(p) / (ln2)^2 for the
// optimal k, then optimalK derives k from that budget.
func bitsPerKeyForFPR(fpr float64) float64 {
	return -math.Log(fpr) / (math.Ln2 * math.Ln2)
}

// New sizes a filter for expectedCardinality rows at a false-positive rate
// no worse than targetFPR (spec §4.E: "target FPR <= 5%").
func New(expectedCardinality int) *Filter {
	if expectedCardinality < 1 {
		expectedCardinality = 1
	}
	bitsPerKey := bitsPerKeyForFPR(targetFPR)
	totalBits := bitsPerKey * float64(expectedCardinality)
	numBlocks := uint64(math.Ceil(totalBits / blockBits))
	if numBlocks < 1 {
		numBlocks = 1
	}
	return &Filter{
		blocks:    make([][wordsInBlk]uint64, numBlocks),
		numBlocks: numBlocks,
		k:         optimalK(bitsPerKey),
	}
}

// blockAndBits derives the target block index and the k bit positions
// within that block from a single 64-bit hash, using the high bits to pick
// the block and a cheap re-mix (double hashing) to spread the k probes.
func (f *Filter) blockAndBits(h uint64) (block uint64, bits [8]uint32) {
	block = (h >> 32) % f.numBlocks
	h1 := uint32(h)
	h2 := uint32(h >> 32)
	for i := 0; i < f.k; i++ {
		bits[i] = (h1 + uint32(i)*h2) % blockBits
	}
	return block, bits
}

func setBit(block *[wordsInBlk]uint64, bit uint32) {
	word := bit / wordBits
	off := bit % wordBits
	block[word] |= 1 << off
}

func testBit(block *[wordsInBlk]uint64, bit uint32) bool {
	word := bit / wordBits
	off := bit % wordBits
	return block[word]&(1<<off) != 0
}

// Add sets the k bit positions derived from hash h.
func (f *Filter) Add(h uint64) {
	block, bits := f.blockAndBits(h)
	b := &f.blocks[block]
	for i := 0; i < f.k; i++ {
		setBit(b, bits[i])
	}
}

// BuildFromHashes adds every hash in hashes (non-null rows only — callers
// pass pre-filtered hash-key hashes, skipping any row with a null in the
// key set, consistent with null keys never matching in §4.F).
func (f *Filter) BuildFromHashes(hashes []uint64, skipNull func(i int) bool) {
	for i, h := range hashes {
		if skipNull != nil && skipNull(i) {
			continue
		}
		f.Add(h)
	}
}

// PossiblyContains probes a single hash. No false negatives: every value
// actually added returns true.
func (f *Filter) PossiblyContains(h uint64) bool {
	block, bits := f.blockAndBits(h)
	b := &f.blocks[block]
	for i := 0; i < f.k; i++ {
		if !testBit(b, bits[i]) {
			return false
		}
	}
	return true
}

// PossiblyContainsMany vectorizes the probe over a batch of hashes,
// returning one bit (as a bool) per input row — used to build the survive
// mask a hash-join probe leg applies before the full equality re-check.
func (f *Filter) PossiblyContainsMany(hashes []uint64) []bool {
	out := make([]bool, len(hashes))
	for i, h := range hashes {
		out[i] = f.PossiblyContains(h)
	}
	return out
}

// HashString is a convenience for callers probing on string literals (e.g.
// the optimizer synthesizing a point-lookup bloom probe from a Parquet
// bloom filter offset/length, per the Decoder contract in spec §6).
func HashString(s string) uint64 {
	return murmur3.Sum64([]byte(s))
}
