package transforms

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/flowforge/streamline/internal/ports"
)

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func cfgString(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func cfgBool(cfg map[string]any, key string, def bool) bool {
	if v, ok := cfg[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func cfgInt(cfg map[string]any, key string, def int) int {
	if v, ok := cfg[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	lower := strings.ToLower(s)
	slug := slugPattern.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

func registerStringOps(r *Registry) {
	r.Register("TRIM", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		return strings.TrimSpace(asString(value)), nil
	})
	r.Register("LOWERCASE", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		return strings.ToLower(asString(value)), nil
	})
	r.Register("UPPERCASE", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		return strings.ToUpper(asString(value)), nil
	})
	r.Register("SLUGIFY", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		return slugify(asString(value)), nil
	})
	r.Register("TRUNCATE", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		s := asString(value)
		length := cfgInt(cfg, "length", 255)
		if len(s) <= length {
			return s, nil
		}
		return s[:length], nil
	})
	r.Register("PAD", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		s := asString(value)
		length := cfgInt(cfg, "length", 0)
		char := cfgString(cfg, "char", " ")
		side := cfgString(cfg, "side", "left")
		if char == "" {
			char = " "
		}
		for len(s) < length {
			if side == "right" {
				s = s + char
			} else {
				s = char + s
			}
		}
		return s, nil
	})
	r.Register("REPLACE", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		s := asString(value)
		search := cfgString(cfg, "search", "")
		replacement := cfgString(cfg, "replacement", "")
		if cfgBool(cfg, "global", false) {
			return strings.ReplaceAll(s, search, replacement), nil
		}
		return strings.Replace(s, search, replacement, 1), nil
	})
	r.Register("REGEX_REPLACE", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		pattern, err := regexp.Compile(cfgString(cfg, "pattern", ""))
		if err != nil {
			return value, err
		}
		return pattern.ReplaceAllString(asString(value), cfgString(cfg, "replacement", "")), nil
	})
	r.Register("REGEX_EXTRACT", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		pattern, err := regexp.Compile(cfgString(cfg, "pattern", ""))
		if err != nil {
			return value, err
		}
		match := pattern.FindStringSubmatch(asString(value))
		if match == nil {
			return nil, nil
		}
		group := cfgInt(cfg, "group", 0)
		if group >= len(match) {
			return nil, nil
		}
		return match[group], nil
	})
	r.Register("SPLIT", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		sep := cfgString(cfg, "separator", ",")
		parts := strings.Split(asString(value), sep)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	})
	r.Register("JOIN", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		sep := cfgString(cfg, "separator", ",")
		arr, ok := value.([]any)
		if !ok {
			return asString(value), nil
		}
		parts := make([]string, len(arr))
		for i, v := range arr {
			parts[i] = asString(v)
		}
		return strings.Join(parts, sep), nil
	})
	r.Register("CONCAT", func(_ context.Context, value any, cfg map[string]any, record map[string]any) (any, error) {
		var b strings.Builder
		b.WriteString(asString(value))
		if parts, ok := cfg["parts"].([]any); ok {
			for _, p := range parts {
				b.WriteString(asString(resolveTemplatePart(p, record)))
			}
		}
		return b.String(), nil
	})
	r.Register("TEMPLATE", func(_ context.Context, value any, cfg map[string]any, record map[string]any) (any, error) {
		tmpl := cfgString(cfg, "template", "{{value}}")
		out := strings.ReplaceAll(tmpl, "{{value}}", asString(value))
		for k, v := range record {
			out = strings.ReplaceAll(out, "{{"+k+"}}", asString(v))
		}
		return out, nil
	})
	r.Register("STRIP_HTML", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		return htmlTagPattern.ReplaceAllString(asString(value), ""), nil
	})
	r.Register("ESCAPE_HTML", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		return html.EscapeString(asString(value)), nil
	})
	r.Register("TITLE_CASE", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		return strings.Title(strings.ToLower(asString(value))), nil
	})
	r.Register("SENTENCE_CASE", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		s := strings.ToLower(asString(value))
		if s == "" {
			return s, nil
		}
		return strings.ToUpper(s[:1]) + s[1:], nil
	})
}

func resolveTemplatePart(p any, record map[string]any) any {
	if s, ok := p.(string); ok && strings.HasPrefix(s, "$") {
		field := strings.TrimPrefix(s, "$")
		if v, ok := record[field]; ok {
			return v
		}
		return ""
	}
	return p
}
