// Package value defines the canonical dynamic value domain checked by the
// schema engine, along with the helpers the engine needs to inspect it.
//
// Candidate values are ordinary parsed-JSON Go data: nil, bool, string,
// numbers, []any, and map[string]any. Two additions round out the domain:
//
//   - *big.Int carries integers too large for float64 or int64, matching the
//     "bigint" schema tag.
//   - Absent is an explicit sentinel for "no value at all", distinct from an
//     explicit null. Optional schema forms accept it; nothing else does.
//
// DecodeJSON produces values in this canonical form while preserving integer
// precision, which a plain json.Unmarshal (everything to float64) does not.
package value
