// Package enumcodec translates between wire-level representations of
// enumerated fields and their canonical internal labels. Wire input is
// untrusted: it may arrive as a label, an ordinal code, a JSON-serialized
// list, or garbage. Every function in this package is total: malformed or
// unknown input yields the caller's fallback (or an empty set), never an
// error or a panic.
package enumcodec

import (
	"encoding/json"
	"strconv"
)

// Decode returns value unchanged when it is a string and a member of known.
// Anything else (absent, wrong type, unknown label) yields fallback.
func Decode(value any, known []string, fallback string) string {
	s, ok := value.(string)
	if !ok {
		return fallback
	}
	for _, k := range known {
		if s == k {
			return s
		}
	}
	return fallback
}

// DecodeIndexed resolves a small integer code against a fixed ordinal table.
// Numeric wire values may arrive as any Go integer type, a float64 (JSON
// numbers), a json.Number, or a numeric string. Out-of-range or non-numeric
// input yields fallback.
func DecodeIndexed(value any, table []string, fallback string) string {
	idx, ok := toIndex(value)
	if !ok || idx < 0 || idx >= len(table) {
		return fallback
	}
	return table[idx]
}

func toIndex(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Encode is the inverse of Decode. Internal storage only ever holds
// validated labels, so encoding is the identity and always succeeds.
func Encode(label string) string {
	return label
}

// EncodeSet serializes a label set to its wire form, a JSON array string.
func EncodeSet(labels []string) string {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeSet maps a wire-level list to the deduplicated subset of known
// labels, preserving first-occurrence order. The wire form may be a
// []string, a []any, a JSON-serialized string, or nil. Unknown tags are
// dropped; parse failures and non-array input yield an empty set.
func DecodeSet(value any, known []string) []string {
	var raw []string
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		if err := json.Unmarshal([]byte(v), &raw); err != nil {
			return []string{}
		}
	default:
		return []string{}
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}

	seen := make(map[string]struct{}, len(raw))
	out := []string{}
	for _, s := range raw {
		if _, ok := knownSet[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
