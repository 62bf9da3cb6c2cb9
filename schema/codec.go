package schema

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Wire grammar. Schemas serialize to plain JSON-compatible data:
//
//	"string"                          primitive tag
//	{"name": S, "age": ["optional", S]}  object schema
//	["array", S]                      sequence form
//	["anyOf", S, S, ...]              union form
//	["optional", S]                   standalone optional form
//	["literal", v]                    exact scalar; big integers as
//	                                  ["literal", ["bigint", "<digits>"]]
//	["enum", v, v, ...]               scalar set
//	["regex", "<pattern>"]            full-match string pattern
//	["expr", "<cel source>"]          CEL refinement
//
// The same shapes work for YAML documents, since YAML decodes to the same
// map/slice/scalar Go values.

// Marshal serializes a schema to its canonical JSON wire form.
//
// Deferred (Lazy) schemas are resolved during marshalling; a schema graph
// that is cyclic through Lazy is not wire-representable.
func Marshal(s Schema) ([]byte, error) {
	data, err := json.Marshal(ToWire(s))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema: %w", err)
	}
	return data, nil
}

// Parse deserializes a schema from its JSON wire form. Only JSON syntax
// errors are reported: unrecognized tags and malformed forms decode to a
// poison schema that validates nothing, keeping validation total over
// documents from untrusted sources.
func Parse(data []byte) (Schema, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	return FromWire(raw), nil
}

// ToWire converts a schema to its wire shape as plain Go data.
func ToWire(s Schema) any {
	switch sc := s.(type) {
	case Primitive:
		return string(sc)
	case *ObjectSchema:
		out := make(map[string]any, len(sc.fields))
		for _, f := range sc.fields {
			w := ToWire(f.Schema)
			if f.Optional {
				w = []any{"optional", w}
			}
			out[f.Name] = w
		}
		return out
	case *ArraySchema:
		return []any{"array", ToWire(sc.Elem)}
	case *AnyOfSchema:
		out := make([]any, 0, len(sc.Alts)+1)
		out = append(out, "anyOf")
		for _, alt := range sc.Alts {
			out = append(out, ToWire(alt))
		}
		return out
	case *OptionalSchema:
		return []any{"optional", ToWire(sc.Elem)}
	case *LiteralSchema:
		return []any{"literal", scalarToWire(sc.Value)}
	case *EnumSchema:
		out := make([]any, 0, len(sc.Values)+1)
		out = append(out, "enum")
		for _, v := range sc.Values {
			out = append(out, scalarToWire(v))
		}
		return out
	case *RegexSchema:
		return []any{"regex", sc.Pattern}
	case *ExprSchema:
		return []any{"expr", sc.Source}
	case *LazySchema:
		inner := sc.resolve()
		if inner == nil {
			return []any{}
		}
		return ToWire(inner)
	case invalid:
		return sc.tag
	default:
		return []any{}
	}
}

// FromWire converts plain wire data (parsed JSON or YAML) to a schema.
// It never fails: shapes outside the grammar become the poison form.
func FromWire(raw any) Schema {
	switch w := raw.(type) {
	case string:
		if knownPrimitive(Primitive(w)) {
			return Primitive(w)
		}
		return invalid{tag: w}

	case map[string]any:
		props := make(map[string]Schema, len(w))
		for name, p := range w {
			props[name] = propertyFromWire(p)
		}
		return Object(props)

	case []any:
		return formFromWire(w)

	default:
		return invalid{}
	}
}

// propertyFromWire decodes one object property, recognizing the optional
// wrapper in property position.
func propertyFromWire(raw any) Schema {
	if seq, ok := raw.([]any); ok && len(seq) == 2 {
		if tag, ok := seq[0].(string); ok && tag == "optional" {
			return Optional(FromWire(seq[1]))
		}
	}
	return FromWire(raw)
}

func formFromWire(seq []any) Schema {
	if len(seq) == 0 {
		return invalid{}
	}
	tag, ok := seq[0].(string)
	if !ok {
		return invalid{}
	}

	switch tag {
	case "optional":
		if len(seq) != 2 {
			return invalid{tag: tag}
		}
		return Optional(FromWire(seq[1]))
	case "array":
		if len(seq) != 2 {
			return invalid{tag: tag}
		}
		return Array(FromWire(seq[1]))
	case "anyOf":
		if len(seq) < 2 {
			return invalid{tag: tag}
		}
		alts := make([]Schema, 0, len(seq)-1)
		for _, alt := range seq[1:] {
			alts = append(alts, FromWire(alt))
		}
		return AnyOf(alts...)
	case "literal":
		if len(seq) != 2 {
			return invalid{tag: tag}
		}
		return Literal(scalarFromWire(seq[1]))
	case "enum":
		if len(seq) < 2 {
			return invalid{tag: tag}
		}
		values := make([]any, 0, len(seq)-1)
		for _, v := range seq[1:] {
			values = append(values, scalarFromWire(v))
		}
		return EnumOf(values...)
	case "regex":
		if len(seq) != 2 {
			return invalid{tag: tag}
		}
		pat, ok := seq[1].(string)
		if !ok {
			return invalid{tag: tag}
		}
		return Regex(pat)
	case "expr":
		if len(seq) != 2 {
			return invalid{tag: tag}
		}
		src, ok := seq[1].(string)
		if !ok {
			return invalid{tag: tag}
		}
		return Expr(src)
	default:
		return invalid{tag: tag}
	}
}

// scalarToWire maps literal/enum scalars to wire shapes. Big integers are
// not natively JSON-representable, so they travel as a tagged pair.
func scalarToWire(v any) any {
	if b, ok := v.(*big.Int); ok {
		return []any{"bigint", b.String()}
	}
	return v
}

func scalarFromWire(raw any) any {
	if seq, ok := raw.([]any); ok && len(seq) == 2 {
		if tag, ok := seq[0].(string); ok && tag == "bigint" {
			if digits, ok := seq[1].(string); ok {
				if b, ok := new(big.Int).SetString(digits, 10); ok {
					return b
				}
			}
		}
	}
	// Non-scalar shapes survive here unchanged; a literal holding one
	// simply validates nothing.
	return raw
}

func knownPrimitive(p Primitive) bool {
	switch p {
	case Null, String, Boolean, Number, BigInt,
		Int, Int8, Int32, Uint, Uint8, Uint32, UUID:
		return true
	}
	return false
}
