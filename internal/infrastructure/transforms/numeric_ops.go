package transforms

import (
	"context"
	"math"
	"strconv"
)

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func roundTo(v float64, precision int) float64 {
	mult := math.Pow(10, float64(precision))
	return math.Round(v*mult) / mult
}

func registerNumericOps(r *Registry) {
	r.Register("PARSE_NUMBER", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return nil, nil
		}
		return f, nil
	})
	r.Register("PARSE_INT", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return nil, nil
		}
		return int64(f), nil
	})
	r.Register("PARSE_FLOAT", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return nil, nil
		}
		return f, nil
	})
	r.Register("ROUND", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return value, nil
		}
		return roundTo(f, cfgInt(cfg, "precision", 0)), nil
	})
	r.Register("FLOOR", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return value, nil
		}
		return math.Floor(f), nil
	})
	r.Register("CEIL", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return value, nil
		}
		return math.Ceil(f), nil
	})
	r.Register("ABS", func(_ context.Context, value any, _ map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return value, nil
		}
		return math.Abs(f), nil
	})
	// TO_CENTS(x) = round(x * 10^d), d defaults to 2. FROM_CENTS is the
	// inverse when d matches — the round-trip property §8 requires.
	r.Register("TO_CENTS", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return value, nil
		}
		d := cfgInt(cfg, "decimals", 2)
		return int64(math.Round(f * math.Pow(10, float64(d)))), nil
	})
	r.Register("FROM_CENTS", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return value, nil
		}
		d := cfgInt(cfg, "decimals", 2)
		return roundTo(f/math.Pow(10, float64(d)), d), nil
	})
	r.Register("MATH", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		f, ok := asFloat(value)
		if !ok {
			return value, nil
		}
		operand, _ := asFloat(cfg["operand"])
		var out float64
		switch cfgString(cfg, "operation", "add") {
		case "add":
			out = f + operand
		case "sub":
			out = f - operand
		case "mul":
			out = f * operand
		case "div":
			if operand == 0 {
				return nil, errDivideByZero
			}
			out = f / operand
		default:
			out = f
		}
		if precision, ok := cfg["precision"]; ok {
			p := cfgInt(map[string]any{"precision": precision}, "precision", -1)
			if p >= 0 {
				out = roundTo(out, p)
			}
		}
		return out, nil
	})
}

type mathError string

func (e mathError) Error() string { return string(e) }

const errDivideByZero = mathError("division by zero")
