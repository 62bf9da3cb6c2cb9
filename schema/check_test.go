package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckWellFormed(t *testing.T) {
	good := []Schema{
		String,
		Object(map[string]Schema{"a": Optional(Number)}),
		Array(AnyOf(String, Null)),
		Literal(nil),
		EnumOf("a", 1),
		Regex("^ab?c$"),
		Expr("self > 0"),
	}
	for _, s := range good {
		assert.NoError(t, Check(s))
	}
}

func TestCheckMalformed(t *testing.T) {
	tests := []struct {
		name string
		s    Schema
	}{
		{"unknown primitive", Primitive("datetime")},
		{"empty anyOf", AnyOf()},
		{"non-scalar literal", Literal(map[string]any{})},
		{"empty enum", EnumOf()},
		{"non-scalar enum value", EnumOf("a", []any{1})},
		{"bad regex", Regex("(unclosed")},
		{"bad expression", Expr("self >")},
		{"nil lazy", Lazy(nil)},
		{"nested failure surfaces", Object(map[string]Schema{"f": Regex("(")})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Check(tt.s))
		})
	}
}

func TestCheckRecursiveSchemaTerminates(t *testing.T) {
	var node Schema
	lazy := Lazy(func() Schema { return node })
	node = Object(map[string]Schema{
		"next": Optional(lazy),
	})

	assert.NoError(t, Check(node))
}
