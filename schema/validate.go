package schema

import (
	"math"
	"math/big"

	"github.com/google/uuid"

	"github.com/conform-io/conform/value"
)

// IsValid reports whether v structurally and semantically conforms to s.
//
// It is a pure function, total over any schema-shaped input: malformed or
// unrecognized schema forms simply validate nothing, and validation failure
// is a normal boolean outcome, never an error.
//
// Object validation is excess-property-tolerant: keys present in the value
// but not declared in the schema do not fail validation. Use Strip to remove
// them.
//
// Schemas may recurse through Lazy; validated values must themselves be
// finite. Guarding against cyclic value graphs is the caller's
// responsibility.
func IsValid(v any, s Schema) bool {
	switch sc := s.(type) {
	case Primitive:
		return validPrimitive(v, sc)

	case *ObjectSchema:
		m, ok := v.(map[string]any)
		if !ok {
			// Covers nil as well: null is never an object.
			return false
		}
		for _, f := range sc.fields {
			fv, present := m[f.Name]
			if present && value.IsAbsent(fv) {
				present = false
			}
			if !present {
				if f.Optional {
					continue
				}
				return false
			}
			if !IsValid(fv, f.Schema) {
				return false
			}
		}
		return true

	case *ArraySchema:
		elems, ok := v.([]any)
		if !ok {
			return false
		}
		for _, e := range elems {
			if !IsValid(e, sc.Elem) {
				return false
			}
		}
		return true

	case *AnyOfSchema:
		for _, alt := range sc.Alts {
			if IsValid(v, alt) {
				return true
			}
		}
		return false

	case *OptionalSchema:
		return value.IsAbsent(v) || IsValid(v, sc.Elem)

	case *LiteralSchema:
		return value.IsScalar(sc.Value) && value.Equal(v, sc.Value)

	case *EnumSchema:
		for _, allowed := range sc.Values {
			if value.IsScalar(allowed) && value.Equal(v, allowed) {
				return true
			}
		}
		return false

	case *RegexSchema:
		str, ok := v.(string)
		if !ok {
			return false
		}
		re, err := sc.compile()
		if err != nil {
			return false
		}
		return re.MatchString(str)

	case *ExprSchema:
		return sc.eval(v)

	case *LazySchema:
		inner := sc.resolve()
		if inner == nil {
			return false
		}
		return IsValid(v, inner)

	default:
		// Unrecognized form, including the poison form from a malformed
		// wire document.
		return false
	}
}

func validPrimitive(v any, p Primitive) bool {
	switch p {
	case Null:
		return v == nil
	case String:
		_, ok := v.(string)
		return ok
	case Boolean:
		_, ok := v.(bool)
		return ok
	case Number:
		return value.IsNumber(v)
	case BigInt:
		_, ok := v.(*big.Int)
		return ok
	case Int:
		return intInRange(v, -value.MaxSafeInt, value.MaxSafeInt)
	case Int8:
		return intInRange(v, math.MinInt8, math.MaxInt8)
	case Int32:
		return intInRange(v, math.MinInt32, math.MaxInt32)
	case Uint:
		return intInRange(v, 0, value.MaxSafeInt)
	case Uint8:
		return intInRange(v, 0, math.MaxUint8)
	case Uint32:
		return intInRange(v, 0, math.MaxUint32)
	case UUID:
		str, ok := v.(string)
		return ok && uuid.Validate(str) == nil
	default:
		return false
	}
}

// intInRange checks for an integral number within [lo, hi], inclusive on
// both ends.
func intInRange(v any, lo, hi int64) bool {
	n, ok := value.Int64(v)
	return ok && n >= lo && n <= hi
}
