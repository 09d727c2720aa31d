package rowhash

import (
	"math"
	"testing"

	"github.com/vectorq/vectorq/morsel"
)

func int64Column(vals []int64, nulls []bool) *morsel.Column {
	return &morsel.Column{Field: morsel.Field{Type: morsel.Int64}, Int64s: vals, Nulls: nulls}
}

// TestColumnSliceInvariance covers spec §8: hashing a column must agree
// with hashing a zero-copy slice view of the same rows.
func TestColumnSliceInvariance(t *testing.T) {
	c := int64Column([]int64{10, 20, 30, 40, 50}, nil)
	full := Column(c)

	sliced := c.Slice(1, 4)
	slicedHashes := Column(sliced)

	for i := range slicedHashes {
		if slicedHashes[i] != full[i+1] {
			t.Errorf("Column(slice)[%d] = %d, want %d (Column(full)[%d])", i, slicedHashes[i], full[i+1], i+1)
		}
	}
}

// TestRowNullAlwaysReturnsNullHash ensures a null in any key column yields
// the fixed NullHash sentinel, regardless of the other columns' values.
func TestRowNullAlwaysReturnsNullHash(t *testing.T) {
	withNull := int64Column([]int64{1, 0, 3}, []bool{false, true, false})
	other := int64Column([]int64{100, 200, 300}, nil)

	h := Row([]*morsel.Column{withNull, other}, 1)
	if h != NullHash {
		t.Errorf("Row() with a null key column = %#x, want NullHash %#x", h, NullHash)
	}
}

// TestRowDeterministicAndDiscriminating checks that equal inputs hash
// equal and that (most) different inputs hash differently.
func TestRowDeterministicAndDiscriminating(t *testing.T) {
	a := int64Column([]int64{1, 2, 3}, nil)
	b := int64Column([]int64{1, 2, 3}, nil)
	c := int64Column([]int64{1, 2, 4}, nil)

	h1 := Row([]*morsel.Column{a}, 0)
	h2 := Row([]*morsel.Column{b}, 0)
	if h1 != h2 {
		t.Errorf("Row() not deterministic for identical inputs: %#x != %#x", h1, h2)
	}

	h3 := Row([]*morsel.Column{a}, 2)
	h4 := Row([]*morsel.Column{c}, 2)
	if h3 == h4 {
		t.Errorf("Row() collided for distinct values 3 and 4 at the same position")
	}
}

// TestRowsMatchesPerRowRow confirms the batch Rows() helper agrees with
// calling Row() at each index individually.
func TestRowsMatchesPerRowRow(t *testing.T) {
	cols := []*morsel.Column{int64Column([]int64{5, 6, 7}, []bool{false, true, false})}
	batch := Rows(cols)
	for i := range batch {
		want := Row(cols, i)
		if batch[i] != want {
			t.Errorf("Rows()[%d] = %#x, want %#x", i, batch[i], want)
		}
	}
}

// TestFloatCanonicalization checks -0 and +0 hash identically, per cell
// hashing's canonicalization rule.
func TestFloatCanonicalization(t *testing.T) {
	neg := &morsel.Column{Field: morsel.Field{Type: morsel.Float64}, Float64s: []float64{0}}
	pos := &morsel.Column{Field: morsel.Field{Type: morsel.Float64}, Float64s: []float64{0}}
	neg.Float64s[0] = math.Copysign(0, -1)
	pos.Float64s[0] = 0

	if Row([]*morsel.Column{neg}, 0) != Row([]*morsel.Column{pos}, 0) {
		t.Errorf("-0 and +0 hashed differently, want equal per canonicalization")
	}
}
