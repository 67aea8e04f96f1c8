package transforms

import (
	"context"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

func parseDate(s string, layout string) (time.Time, error) {
	if layout != "" {
		return time.Parse(layout, s)
	}
	var lastErr error
	for _, l := range dateLayouts {
		t, err := time.Parse(l, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func registerDateOps(r *Registry) {
	r.Register("PARSE_DATE", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		s := asString(value)
		if s == "" {
			return nil, nil
		}
		t, err := parseDate(s, cfgString(cfg, "layout", ""))
		if err != nil {
			return value, nil
		}
		return t, nil
	})
	r.Register("FORMAT_DATE", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		layout := cfgString(cfg, "layout", time.RFC3339)
		switch t := value.(type) {
		case time.Time:
			return t.Format(layout), nil
		case string:
			parsed, err := parseDate(t, "")
			if err != nil {
				return value, nil
			}
			return parsed.Format(layout), nil
		default:
			return value, nil
		}
	})
	r.Register("NOW", func(_ context.Context, _ any, _ map[string]any, _ map[string]any) (any, error) {
		return time.Now().UTC(), nil
	})
}
