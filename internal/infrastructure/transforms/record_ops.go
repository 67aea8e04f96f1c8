package transforms

import "context"

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

func registerRecordOps(r *Registry) {
	r.Register("IF_ELSE", func(_ context.Context, value any, cfg map[string]any, record map[string]any) (any, error) {
		field := cfgString(cfg, "field", "")
		op := cfgString(cfg, "operator", "eq")
		cmpTo := cfg["value"]
		var subject any = value
		if field != "" {
			subject = record[field]
		}
		matched := compare(subject, op, cmpTo)
		if matched {
			if v, ok := cfg["then"]; ok {
				return v, nil
			}
			return value, nil
		}
		if v, ok := cfg["else"]; ok {
			return v, nil
		}
		return value, nil
	})
	r.Register("COALESCE", func(_ context.Context, value any, cfg map[string]any, record map[string]any) (any, error) {
		if !isEmpty(value) {
			return value, nil
		}
		if fields, ok := cfg["fields"].([]any); ok {
			for _, f := range fields {
				if name, ok := f.(string); ok {
					if v, ok := record[name]; ok && !isEmpty(v) {
						return v, nil
					}
				}
			}
		}
		return cfg["default"], nil
	})
	r.Register("DEFAULT", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		if isEmpty(value) {
			return cfg["value"], nil
		}
		return value, nil
	})
	r.Register("FIRST", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		arr, ok := value.([]any)
		if !ok || len(arr) == 0 {
			return nil, nil
		}
		return arr[0], nil
	})
	r.Register("LAST", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		arr, ok := value.([]any)
		if !ok || len(arr) == 0 {
			return nil, nil
		}
		return arr[len(arr)-1], nil
	})
	r.Register("NTH", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		arr, ok := value.([]any)
		if !ok {
			return nil, nil
		}
		n := cfgInt(cfg, "index", 0)
		if n < 0 || n >= len(arr) {
			return nil, nil
		}
		return arr[n], nil
	})
	r.Register("FILTER", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		arr, ok := value.([]any)
		if !ok {
			return value, nil
		}
		op := cfgString(cfg, "operator", "eq")
		cmpTo := cfg["value"]
		out := make([]any, 0, len(arr))
		for _, item := range arr {
			if compare(item, op, cmpTo) {
				out = append(out, item)
			}
		}
		return out, nil
	})
	r.Register("MAP_ARRAY", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		arr, ok := value.([]any)
		if !ok {
			return value, nil
		}
		field := cfgString(cfg, "field", "")
		if field == "" {
			return arr, nil
		}
		out := make([]any, 0, len(arr))
		for _, item := range arr {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m[field])
			}
		}
		return out, nil
	})
	r.Register("FLATTEN", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		arr, ok := value.([]any)
		if !ok {
			return value, nil
		}
		out := make([]any, 0, len(arr))
		for _, item := range arr {
			if nested, ok := item.([]any); ok {
				out = append(out, nested...)
				continue
			}
			out = append(out, item)
		}
		return out, nil
	})
	r.Register("EXPRESSION", func(_ context.Context, value any, cfg map[string]any, record map[string]any) (any, error) {
		return evalExpression(cfgString(cfg, "expression", ""), value, record), nil
	})
}

func compare(subject any, op string, target any) bool {
	switch op {
	case "eq":
		return equalAny(subject, target)
	case "neq":
		return !equalAny(subject, target)
	case "exists":
		return !isEmpty(subject)
	case "notExists":
		return isEmpty(subject)
	case "gt", "gte", "lt", "lte":
		a, aok := asFloat(subject)
		b, bok := asFloat(target)
		if !aok || !bok {
			return false
		}
		switch op {
		case "gt":
			return a > b
		case "gte":
			return a >= b
		case "lt":
			return a < b
		default:
			return a <= b
		}
	default:
		return false
	}
}

func equalAny(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	return asString(a) == asString(b)
}
