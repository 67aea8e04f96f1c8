package transforms

import "strings"

// evalExpression evaluates a tiny "field operator literal" expression
// language, the minimal subset the EXPRESSION transform needs.
// Unrecognized expressions return value unchanged,
// matching the resilience-over-strictness policy the rest of the engine
// follows.
func evalExpression(expr string, value any, record map[string]any) any {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return value
	}
	for _, op := range []string{"!=", ">=", "<=", "==", ">", "<"} {
		if idx := strings.Index(expr, op); idx >= 0 {
			left := strings.TrimSpace(expr[:idx])
			right := strings.Trim(strings.TrimSpace(expr[idx+len(op):]), `"'`)
			subject := lookupOperand(left, value, record)
			return EvaluatePredicate(subject, op, right)
		}
	}
	return lookupOperand(expr, value, record)
}

func lookupOperand(name string, value any, record map[string]any) any {
	if name == "value" || name == "" {
		return value
	}
	if v, ok := record[name]; ok {
		return v
	}
	return name
}

// EvaluatePredicate evaluates subject <op> literal for GATE and BRANCH step
// predicates, which are expressions over the record (§4.1).
func EvaluatePredicate(subject any, op string, literal string) bool {
	switch op {
	case "==":
		return compare(subject, "eq", literal)
	case "!=":
		return compare(subject, "neq", literal)
	case ">":
		return compare(subject, "gt", literal)
	case ">=":
		return compare(subject, "gte", literal)
	case "<":
		return compare(subject, "lt", literal)
	case "<=":
		return compare(subject, "lte", literal)
	default:
		return false
	}
}
