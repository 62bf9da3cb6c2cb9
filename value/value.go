package value

import (
	"math"
	"math/big"
)

// MaxSafeInt is the largest integer exactly representable as a float64.
// Values outside [-MaxSafeInt, MaxSafeInt] are rejected by the "int" and
// "uint" schema tags even when the host integer type could hold them.
const MaxSafeInt = 1<<53 - 1

// absent is the unexported sentinel type behind Absent.
type absent struct{}

// Absent marks a value that is not present at all, as opposed to an explicit
// null. An object field holding Absent is treated exactly like a missing key.
var Absent any = absent{}

// IsAbsent reports whether v is the absence sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// Float returns v as a float64 if v is any non-big numeric type.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Int64 returns v as an exact int64 if v is a non-big numeric type holding an
// integral value that fits in an int64. Fractional floats, NaN, infinities,
// and out-of-range values all return false.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return Int64(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || math.Trunc(n) != n {
			return 0, false
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// IsNumber reports whether v is a non-big numeric value.
func IsNumber(v any) bool {
	_, ok := Float(v)
	return ok
}

// Equal reports strict scalar equality between two values.
//
// Strings, booleans, and nulls must match in both type and content. Numbers
// compare numerically across host integer and float representations (the wire
// formats this package targets have a single number type), but never equal a
// big integer, a string, or a boolean. Big integers compare by mathematical
// value. Non-scalar values are never equal.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && x.Cmp(y) == 0
	}
	if ia, ok := Int64(a); ok {
		if ib, ok := Int64(b); ok {
			return ia == ib
		}
	}
	fa, aok := Float(a)
	fb, bok := Float(b)
	return aok && bok && fa == fb
}

// IsScalar reports whether v is a value usable in literal and enum schemas:
// null, boolean, number, big integer, or string.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, *big.Int:
		return true
	}
	return IsNumber(v)
}
