package schema

import (
	"fmt"

	"github.com/conform-io/conform/value"
)

// Check verifies that a schema is well-formed: recognized tags, compiling
// patterns and expressions, scalar literal/enum values, and at least one
// anyOf alternative.
//
// Validation itself never needs this (malformed schemas just validate
// nothing); Check exists so schemas can be rejected up front before being
// stored or shared.
func Check(s Schema) error {
	return check(s, make(map[*LazySchema]bool))
}

func check(s Schema, seen map[*LazySchema]bool) error {
	switch sc := s.(type) {
	case Primitive:
		if !knownPrimitive(sc) {
			return fmt.Errorf("unrecognized primitive tag %q", string(sc))
		}
		return nil

	case *ObjectSchema:
		for _, f := range sc.fields {
			if err := check(f.Schema, seen); err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
		}
		return nil

	case *ArraySchema:
		if err := check(sc.Elem, seen); err != nil {
			return fmt.Errorf("array element: %w", err)
		}
		return nil

	case *AnyOfSchema:
		if len(sc.Alts) == 0 {
			return fmt.Errorf("anyOf requires at least one alternative")
		}
		for i, alt := range sc.Alts {
			if err := check(alt, seen); err != nil {
				return fmt.Errorf("anyOf alternative %d: %w", i, err)
			}
		}
		return nil

	case *OptionalSchema:
		return check(sc.Elem, seen)

	case *LiteralSchema:
		if !value.IsScalar(sc.Value) {
			return fmt.Errorf("literal value %T is not a scalar", sc.Value)
		}
		return nil

	case *EnumSchema:
		if len(sc.Values) == 0 {
			return fmt.Errorf("enum requires at least one value")
		}
		for i, v := range sc.Values {
			if !value.IsScalar(v) {
				return fmt.Errorf("enum value %d (%T) is not a scalar", i, v)
			}
		}
		return nil

	case *RegexSchema:
		if _, err := sc.compile(); err != nil {
			return fmt.Errorf("regex %q: %w", sc.Pattern, err)
		}
		return nil

	case *ExprSchema:
		if _, err := sc.compile(); err != nil {
			return fmt.Errorf("expr %q: %w", sc.Source, err)
		}
		return nil

	case *LazySchema:
		if seen[sc] {
			// Already being checked further up the spine; recursion is the
			// point of Lazy.
			return nil
		}
		seen[sc] = true
		inner := sc.resolve()
		if inner == nil {
			return fmt.Errorf("lazy schema resolved to nil")
		}
		return check(inner, seen)

	case invalid:
		return fmt.Errorf("unrecognized schema tag %q", sc.tag)

	default:
		return fmt.Errorf("unrecognized schema form %T", s)
	}
}
