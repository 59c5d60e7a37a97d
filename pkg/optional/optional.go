// Package optional provides a JSON-aware optional type for partial update
// payloads, where "field absent" (leave unchanged) must be distinguished
// from "field explicitly null" (clear the value).
package optional

import "encoding/json"

// Value wraps a field of a partial update payload. A zero Value means the
// field was absent from the payload.
type Value[T any] struct {
	set   bool
	valid bool
	value T
}

// Of returns a set, non-null Value holding v.
func Of[T any](v T) Value[T] {
	return Value[T]{set: true, valid: true, value: v}
}

// Null returns a set Value holding an explicit null.
func Null[T any]() Value[T] {
	return Value[T]{set: true}
}

// IsSet reports whether the field was present in the payload at all.
func (v Value[T]) IsSet() bool { return v.set }

// IsNull reports whether the field was present and explicitly null.
func (v Value[T]) IsNull() bool { return v.set && !v.valid }

// Get returns the held value and whether it is set and non-null.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.set && v.valid
}

// UnmarshalJSON is only invoked for fields present in the payload, so a
// successfully decoded Value is always marked set.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.set = true
	if string(data) == "null" {
		v.valid = false
		var zero T
		v.value = zero
		return nil
	}
	if err := json.Unmarshal(data, &v.value); err != nil {
		return err
	}
	v.valid = true
	return nil
}

// MarshalJSON emits null for unset or null values.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.set || !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}
