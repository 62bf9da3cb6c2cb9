package schema

import (
	"errors"
	"fmt"

	"github.com/conform-io/conform/value"
)

var (
	// ErrNotValid is returned by Strip when the input does not conform to
	// the schema. Nothing is stripped; no partial result is produced.
	ErrNotValid = errors.New("value does not conform to schema")

	// ErrInternal is returned when the rebuild pass encounters a
	// schema/value mismatch after validation already passed. This indicates
	// the validator and stripper have diverged and should be treated as a
	// programming error, not a recoverable condition.
	ErrInternal = errors.New("stripper diverged from validator")
)

// Strip returns a copy of v containing only the fields declared in s.
//
// The input is validated first; if it does not conform, Strip returns
// ErrNotValid and no value. On success the result is a new value: arrays and
// objects are rebuilt (objects keep only declared keys actually present,
// absent optional fields are omitted entirely), scalars are returned as-is.
// The input is never mutated.
//
// For anyOf and optional forms the stripper re-derives the matching
// alternative with the same left-to-right, first-match rule the validator
// uses, so both passes always agree on ambiguous values.
func Strip(v any, s Schema) (any, error) {
	if !IsValid(v, s) {
		return nil, ErrNotValid
	}
	return strip(v, s)
}

func strip(v any, s Schema) (any, error) {
	switch sc := s.(type) {
	case Primitive, *LiteralSchema, *EnumSchema, *RegexSchema, *ExprSchema:
		// Scalars are immutable; no copy needed.
		return v, nil

	case *ObjectSchema:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, mismatch(v, s)
		}
		out := make(map[string]any, len(sc.fields))
		for _, f := range sc.fields {
			fv, present := m[f.Name]
			if present && value.IsAbsent(fv) {
				present = false
			}
			if !present {
				if f.Optional {
					continue
				}
				return nil, mismatch(v, s)
			}
			sv, err := strip(fv, f.Schema)
			if err != nil {
				return nil, err
			}
			out[f.Name] = sv
		}
		return out, nil

	case *ArraySchema:
		elems, ok := v.([]any)
		if !ok {
			return nil, mismatch(v, s)
		}
		out := make([]any, len(elems))
		for i, e := range elems {
			se, err := strip(e, sc.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = se
		}
		return out, nil

	case *AnyOfSchema:
		// Same order and short-circuit rule as IsValid.
		for _, alt := range sc.Alts {
			if IsValid(v, alt) {
				return strip(v, alt)
			}
		}
		return nil, mismatch(v, s)

	case *OptionalSchema:
		if value.IsAbsent(v) {
			return value.Absent, nil
		}
		return strip(v, sc.Elem)

	case *LazySchema:
		inner := sc.resolve()
		if inner == nil {
			return nil, mismatch(v, s)
		}
		return strip(v, inner)

	default:
		return nil, mismatch(v, s)
	}
}

func mismatch(v any, s Schema) error {
	return fmt.Errorf("stripping %T against %T: %w", v, s, ErrInternal)
}
