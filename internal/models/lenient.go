package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Object is a JSON object decoded one level deep. Device payloads are read
// field by field so a single mistyped field counts as absent instead of
// discarding its siblings.
type Object map[string]json.RawMessage

// DecodeObject fails only when b is not a JSON object.
func DecodeObject(b []byte) (Object, error) {
	var o Object
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if o == nil {
		return Object{}, nil
	}
	return o, nil
}

func (o Object) raw(key string) (json.RawMessage, bool) {
	v, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

// Field returns o[key] decoded as T, or nil when the key is absent, null or
// of another type.
func Field[T any](o Object, key string) *T {
	v, ok := o.raw(key)
	if !ok {
		return nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return nil
	}
	return &out
}

// IntField reads a whole number. Fractional values are truncated, as the
// firmware serializes some counters as floats.
func IntField(o Object, key string) *int64 {
	f := Field[float64](o, key)
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) ||
		*f > math.MaxInt64 || *f < math.MinInt64 {
		return nil
	}
	n := int64(*f)
	return &n
}
