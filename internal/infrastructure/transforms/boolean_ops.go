package transforms

import (
	"context"
	"strconv"
	"strings"
)

func parseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		switch s {
		case "true", "1", "yes", "y":
			return true, true
		case "false", "0", "no", "n", "":
			return false, true
		}
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			return false, false
		}
		return parsed, true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	default:
		return false, false
	}
}

func registerBooleanOps(r *Registry) {
	r.Register("PARSE_BOOLEAN", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		b, ok := parseBool(value)
		if !ok {
			return nil, nil
		}
		return b, nil
	})
	r.Register("NEGATE", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		b, ok := parseBool(value)
		if !ok {
			return value, nil
		}
		return !b, nil
	})
}
