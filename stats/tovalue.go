package stats

import "math"

// ToInt is the total normalization function spec §4.C requires: every
// comparable value, of whatever physical type, is folded to a signed
// 64-bit integer such that ordering is preserved as closely as the target
// width allows. It never fails — values outside representable range
// saturate, and values with no stable ordering (NaN, non-comparable types)
// map to NullSentinel.
func ToInt(v interface{}) int64 {
	switch x := v.(type) {
	case nil:
		return NullSentinel
	case bool:
		if x {
			return 1
		}
		return 0
	case int:
		return clampInt64(int64(x))
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return clampInt64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(x)
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case string:
		return stringPrefixToInt(x)
	case []byte:
		return bytesPrefixToInt(x)
	default:
		return NullSentinel
	}
}

// clampInt64 reserves MinInt64 for the null sentinel: the true minimum
// representable bound is MinInt64+1.
func clampInt64(v int64) int64 {
	if v == math.MinInt64 {
		return math.MinInt64 + 1
	}
	return v
}

func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return NullSentinel
	case math.IsInf(f, 1):
		return math.MaxInt64
	case math.IsInf(f, -1):
		return math.MinInt64 + 1
	case f > math.MaxInt64:
		return math.MaxInt64
	case f < math.MinInt64+1:
		return math.MinInt64 + 1
	default:
		return int64(f) // truncated integer part, per spec §4.C
	}
}

// stringPrefixToInt packs the first 8 bytes of s, big-endian, into an i64.
// This is a documented, known-lossy limitation (spec §4.C/§9): ordering of
// strings beyond the 8-byte prefix is not preserved. Preserved verbatim
// rather than "fixed" — see DESIGN.md Open Question decisions.
func stringPrefixToInt(s string) int64 {
	return bytesPrefixToInt([]byte(s))
}

func bytesPrefixToInt(b []byte) int64 {
	var buf [8]byte
	n := copy(buf[:], b)
	_ = n
	var u uint64
	for i := 0; i < 8; i++ {
		u = (u << 8) | uint64(buf[i])
	}
	// Fold into signed range by flipping the top bit, so big-endian
	// unsigned byte ordering maps onto signed integer ordering.
	return int64(u ^ (1 << 63))
}
