package sqlite

import (
	"encoding/json"
	"fmt"
	"time"
)

// encodeValue renders a raw field value as JSON for the events table.
// It returns nil (SQL NULL) when the value has no JSON form.
func encodeValue(v any) interface{} {
	data, err := json.Marshal(normaliseValue(v))
	if err != nil {
		return nil
	}
	return string(data)
}

// decodeValue reverses encodeValue. ok is false for SQL NULL.
func decodeValue(s *string) (v any, ok bool, err error) {
	if s == nil {
		return nil, false, nil
	}
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		return nil, false, fmt.Errorf("decoding value: %w", err)
	}
	return v, true, nil
}

// normaliseValue converts times to UTC and stringifies non-string map keys
// so the JSON round trip preserves the value's hash.
func normaliseValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normaliseValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normaliseValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normaliseValue(item)
		}
		return out
	default:
		return v
	}
}
