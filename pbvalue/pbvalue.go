// Package pbvalue bridges protobuf Struct/Value payloads and the dynamic
// value domain checked by the schema engine, so gRPC request bodies can be
// validated and stripped like any parsed-JSON document.
package pbvalue

import (
	"fmt"
	"math/big"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/conform-io/conform/value"
)

// FromProto converts a structpb.Value into canonical form: nil, bool,
// float64, string, []any, or map[string]any.
func FromProto(v *structpb.Value) any {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_NumberValue:
		return k.NumberValue
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_ListValue:
		values := k.ListValue.GetValues()
		out := make([]any, len(values))
		for i, e := range values {
			out[i] = FromProto(e)
		}
		return out
	case *structpb.Value_StructValue:
		return FromStruct(k.StructValue)
	default:
		// An unset Value is a null on the wire
		return nil
	}
}

// FromStruct converts a structpb.Struct into a map[string]any.
func FromStruct(s *structpb.Struct) map[string]any {
	fields := s.GetFields()
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		out[name] = FromProto(v)
	}
	return out
}

// ToProto converts a canonical value into a structpb.Value. Big integers and
// the absence sentinel have no protobuf Struct representation and are
// rejected; integer kinds are carried as protobuf numbers (float64), which is
// lossless within the safe-integer range.
func ToProto(v any) (*structpb.Value, error) {
	if value.IsAbsent(v) {
		return nil, fmt.Errorf("absent value has no protobuf representation")
	}

	switch x := v.(type) {
	case nil:
		return structpb.NewNullValue(), nil
	case bool:
		return structpb.NewBoolValue(x), nil
	case string:
		return structpb.NewStringValue(x), nil
	case *big.Int:
		return nil, fmt.Errorf("big integer %s has no protobuf representation", x)
	case []any:
		values := make([]*structpb.Value, len(x))
		for i, e := range x {
			pv, err := ToProto(e)
			if err != nil {
				return nil, err
			}
			values[i] = pv
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
	case map[string]any:
		s, err := ToStruct(x)
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(s), nil
	}

	if f, ok := value.Float(v); ok {
		return structpb.NewNumberValue(f), nil
	}
	return nil, fmt.Errorf("value of type %T has no protobuf representation", v)
}

// ToStruct converts a canonical mapping into a structpb.Struct.
func ToStruct(m map[string]any) (*structpb.Struct, error) {
	fields := make(map[string]*structpb.Value, len(m))
	for name, v := range m {
		// Absent fields are simply omitted, mirroring JSON serialization
		if value.IsAbsent(v) {
			continue
		}
		pv, err := ToProto(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = pv
	}
	return &structpb.Struct{Fields: fields}, nil
}
