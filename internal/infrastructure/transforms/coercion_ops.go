package transforms

import (
	"context"
	"encoding/json"
)

func registerCoercionOps(r *Registry) {
	r.Register("TO_STRING", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		return asString(value), nil
	})
	r.Register("TO_NUMBER", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return nil, nil
		}
		return f, nil
	})
	r.Register("TO_BOOLEAN", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		b, ok := parseBool(value)
		if !ok {
			return nil, nil
		}
		return b, nil
	})
	r.Register("TO_ARRAY", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		if arr, ok := value.([]any); ok {
			return arr, nil
		}
		if value == nil {
			return []any{}, nil
		}
		return []any{value}, nil
	})
	r.Register("TO_JSON", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		raw, err := json.Marshal(value)
		if err != nil {
			return value, nil
		}
		return string(raw), nil
	})
	r.Register("PARSE_JSON", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return value, nil
		}
		return out, nil
	})
}
