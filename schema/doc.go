// Package schema implements a small structural type-checker over dynamic
// values: a serializable schema description, a validator, and a field
// stripper.
//
// Schemas are plain data (strings, sequences, and field maps), not code, so
// they can be stored, transmitted, or generated. The engine walks a
// schema/value pair in lock-step and either answers a conformance question
// or rebuilds the value with every undeclared field removed.
//
// # Building Schemas
//
// Schemas are assembled from pure data constructors:
//
//	user := schema.Object(map[string]schema.Schema{
//		"id":    schema.UUID,
//		"name":  schema.String,
//		"age":   schema.Optional(schema.Uint8),
//		"roles": schema.Array(schema.EnumOf("admin", "viewer")),
//	})
//
// Recursive shapes go through Lazy, which defers resolution to the moment
// the recursive branch is actually visited:
//
//	var node *schema.ObjectSchema
//	node = schema.Object(map[string]schema.Schema{
//		"label":    schema.String,
//		"children": schema.Array(schema.Lazy(func() schema.Schema { return node })),
//	})
//
// # Validating and Stripping
//
// IsValid answers yes or no; it never returns an error:
//
//	schema.IsValid(map[string]any{"name": "Alice", "extra": 1}, user)
//
// Object validation tolerates undeclared keys. Strip is the complement: it
// validates, then returns a copy holding only the declared fields:
//
//	clean, err := schema.Strip(doc, user) // err == schema.ErrNotValid if doc fails
//
// # Wire Form
//
// Marshal and Parse move schemas through a JSON-compatible wire grammar, and
// FromWire accepts the same shapes from any source that decodes to plain Go
// data (YAML included). Unrecognized tags in a wire document do not fail
// parsing; they produce a schema that validates nothing.
//
// All operations are pure and safe for concurrent use; schema values are
// immutable after construction and candidate values are never mutated.
package schema
