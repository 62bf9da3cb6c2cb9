package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// DecodeJSON parses a JSON document into the canonical value form used by the
// validator: nil, bool, string, int64/float64, *big.Int, []any, and
// map[string]any.
//
// Unlike a plain json.Unmarshal, integers are kept exact: an integral number
// that fits in an int64 decodes to int64, a larger integral number decodes to
// *big.Int, and only genuinely fractional or exponent-form numbers decode to
// float64.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON document")
	}

	return fromRaw(raw)
}

// EncodeJSON serializes a canonical value back to JSON. Big integers are
// written as plain JSON numbers. The absence sentinel is not serializable.
func EncodeJSON(v any) ([]byte, error) {
	if IsAbsent(v) {
		return nil, fmt.Errorf("absent value cannot be serialized")
	}
	data, err := json.Marshal(toRaw(v))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize value: %w", err)
	}
	return data, nil
}

func fromRaw(raw any) (any, error) {
	switch v := raw.(type) {
	case json.Number:
		return convertNumber(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			c, err := fromRaw(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			c, err := fromRaw(e)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	default:
		// nil, bool, string pass through unchanged
		return v, nil
	}
}

func convertNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	// Integral but beyond int64: keep exact as a big integer
	if b, ok := new(big.Int).SetString(n.String(), 10); ok {
		return b, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("failed to parse number %q: %w", n.String(), err)
	}
	return f, nil
}

func toRaw(v any) any {
	switch x := v.(type) {
	case *big.Int:
		return json.RawMessage(x.String())
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toRaw(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = toRaw(e)
		}
		return out
	default:
		return v
	}
}
