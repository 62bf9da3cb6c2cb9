package schema

import (
	"regexp"
	"sort"
	"sync"
)

// Schema describes the expected shape of a dynamic value. It is a closed
// union: the only implementations are the types in this package. Schemas are
// plain data, constructed once and treated as immutable; all operations on
// them are pure and safe for concurrent use.
type Schema interface {
	// schemaNode seals the union.
	schemaNode()
}

// Primitive is an atomic kind tag.
//
// The numeric tags check both kind and range: "int" and "uint" restrict to
// the safe-integer range (exactly representable as a float64), and the sized
// variants to their bit widths, inclusive on both ends. An unrecognized tag
// validates nothing.
type Primitive string

const (
	Null    Primitive = "null"
	String  Primitive = "string"
	Boolean Primitive = "boolean"
	Number  Primitive = "number"
	BigInt  Primitive = "bigint"
	Int     Primitive = "int"
	Int8    Primitive = "int8"
	Int32   Primitive = "int32"
	Uint    Primitive = "uint"
	Uint8   Primitive = "uint8"
	Uint32  Primitive = "uint32"

	// UUID accepts strings in canonical UUID form.
	UUID Primitive = "uuid"
)

func (Primitive) schemaNode() {}

// Field is one declared property of an object schema. An optional field may
// be missing from a value entirely; when present its value must still conform.
type Field struct {
	Name     string
	Schema   Schema
	Optional bool
}

// ObjectSchema declares the set of fields a mapping value must carry.
// Validation is open-world: keys not declared here are ignored, which is
// exactly what Strip exists to remove. Field order affects only the wire
// form, never the validation outcome.
type ObjectSchema struct {
	fields []Field
	index  map[string]int
}

func (*ObjectSchema) schemaNode() {}

// Fields returns the declared fields in wire order.
func (o *ObjectSchema) Fields() []Field {
	out := make([]Field, len(o.fields))
	copy(out, o.fields)
	return out
}

// Field returns the declared field with the given name.
func (o *ObjectSchema) Field(name string) (Field, bool) {
	i, ok := o.index[name]
	if !ok {
		return Field{}, false
	}
	return o.fields[i], true
}

// ArraySchema accepts sequences whose every element conforms to Elem.
// The empty sequence always conforms.
type ArraySchema struct {
	Elem Schema
}

func (*ArraySchema) schemaNode() {}

// AnyOfSchema accepts a value conforming to at least one alternative,
// tried left to right with short-circuit on the first match.
type AnyOfSchema struct {
	Alts []Schema
}

func (*AnyOfSchema) schemaNode() {}

// OptionalSchema accepts the absence sentinel or a value conforming to Elem.
// As an object property it marks the field as omissible; anywhere else it is
// checked like any other form.
type OptionalSchema struct {
	Elem Schema
}

func (*OptionalSchema) schemaNode() {}

// LiteralSchema accepts exactly one scalar, compared by strict equality.
type LiteralSchema struct {
	Value any
}

func (*LiteralSchema) schemaNode() {}

// EnumSchema accepts any one of a fixed set of scalars.
type EnumSchema struct {
	Values []any
}

func (*EnumSchema) schemaNode() {}

// RegexSchema accepts strings fully matching Pattern. The pattern is
// compiled on first use; a pattern that does not compile validates nothing.
type RegexSchema struct {
	Pattern string

	once sync.Once
	re   *regexp.Regexp
	err  error
}

func (*RegexSchema) schemaNode() {}

// compile anchors the pattern so the whole string must match.
func (s *RegexSchema) compile() (*regexp.Regexp, error) {
	s.once.Do(func() {
		s.re, s.err = regexp.Compile("^(?:" + s.Pattern + ")$")
	})
	return s.re, s.err
}

// LazySchema defers to a zero-argument producer, resolved only when the
// recursive branch is actually visited and cached thereafter. This is the
// one indirection through which recursive schema definitions are allowed.
type LazySchema struct {
	thunk func() Schema

	once     sync.Once
	resolved Schema
}

func (*LazySchema) schemaNode() {}

func (s *LazySchema) resolve() Schema {
	s.once.Do(func() {
		if s.thunk != nil {
			s.resolved = s.thunk()
		}
	})
	return s.resolved
}

// invalid is the poison form produced when a wire document carries an
// unrecognized tag. It validates nothing: a malformed schema means
// "does not conform", never a panic or error.
type invalid struct {
	tag string
}

func (invalid) schemaNode() {}

// Object builds an object schema from a property map. Wrap a property with
// Optional to mark the field omissible. Fields are stored in name order so
// the wire form is deterministic.
func Object(props map[string]Schema) *ObjectSchema {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, newField(name, props[name]))
	}
	return objectOf(fields)
}

func newField(name string, s Schema) Field {
	if opt, ok := s.(*OptionalSchema); ok {
		return Field{Name: name, Schema: opt.Elem, Optional: true}
	}
	return Field{Name: name, Schema: s}
}

func objectOf(fields []Field) *ObjectSchema {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	return &ObjectSchema{fields: fields, index: index}
}

// Optional wraps a schema so that absence is also acceptable.
func Optional(s Schema) *OptionalSchema {
	return &OptionalSchema{Elem: s}
}

// Array builds a sequence schema with a single element schema.
func Array(elem Schema) *ArraySchema {
	return &ArraySchema{Elem: elem}
}

// AnyOf builds a union schema over the given alternatives.
func AnyOf(alts ...Schema) *AnyOfSchema {
	return &AnyOfSchema{Alts: alts}
}

// Literal builds an exact-match schema for a single scalar.
func Literal(v any) *LiteralSchema {
	return &LiteralSchema{Value: v}
}

// EnumOf builds an exact-match schema over a set of scalars.
func EnumOf(values ...any) *EnumSchema {
	return &EnumSchema{Values: values}
}

// Regex builds a string schema constrained to fully match pattern.
func Regex(pattern string) *RegexSchema {
	return &RegexSchema{Pattern: pattern}
}

// Lazy builds a deferred schema from a producer, enabling self- and mutually
// recursive definitions. The producer runs at most once.
func Lazy(fn func() Schema) *LazySchema {
	return &LazySchema{thunk: fn}
}

// Nullable is shorthand for a value that is either s or null.
func Nullable(s Schema) *AnyOfSchema {
	return AnyOf(s, Null)
}

// Omit returns a copy of an object schema with the named fields removed.
func Omit(o *ObjectSchema, names ...string) *ObjectSchema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	fields := make([]Field, 0, len(o.fields))
	for _, f := range o.fields {
		if !drop[f.Name] {
			fields = append(fields, f)
		}
	}
	return objectOf(fields)
}
