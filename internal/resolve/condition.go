package resolve

import (
	"fmt"
	"strconv"
	"strings"
)

// EvalCondition evaluates a declaration condition against the resolved
// parameter record. Supported forms are the ones templates actually use:
// boolean flags (optionally negated), equality against a literal, and
// collection emptiness checks.
//
//	""                    always true
//	"flag" / "!flag"      boolean parameter
//	"empty(p)"            parameter is nil, "", [] or {}
//	"notEmpty(p)"         negation of empty(p)
//	"p == literal"        literal is true/false, an integer or a "string"
//	"p != literal"
func EvalCondition(expr string, params map[string]any) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}

	switch expr {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	if rest, ok := strings.CutPrefix(expr, "!"); ok {
		v, err := EvalCondition(rest, params)
		if err != nil {
			return false, err
		}
		return !v, nil
	}

	if name, ok := cutCall(expr, "empty"); ok {
		v, err := paramValue(name, params)
		if err != nil {
			return false, err
		}
		return isEmpty(v), nil
	}
	if name, ok := cutCall(expr, "notEmpty"); ok {
		v, err := paramValue(name, params)
		if err != nil {
			return false, err
		}
		return !isEmpty(v), nil
	}

	if lhs, op, rhs, ok := cutOperator(expr); ok {
		eq, err := evalEquality(lhs, rhs, params)
		if err != nil {
			return false, err
		}
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil
	}

	// Bare identifier: must be a boolean parameter.
	v, err := paramValue(expr, params)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q: parameter is not a bool (got %T)", expr, v)
	}
	return b, nil
}

func evalEquality(lhs, rhs string, params map[string]any) (bool, error) {
	v, err := paramValue(strings.TrimSpace(lhs), params)
	if err != nil {
		return false, err
	}
	lit, err := parseLiteral(strings.TrimSpace(rhs))
	if err != nil {
		return false, err
	}
	return fmt.Sprintf("%v", v) == fmt.Sprintf("%v", lit), nil
}

func paramValue(name string, params map[string]any) (any, error) {
	v, ok := params[name]
	if !ok {
		return nil, fmt.Errorf("condition references unknown parameter %q", name)
	}
	return v, nil
}

// cutOperator splits an equality expression on the first == or != that
// appears outside a quoted literal.
func cutOperator(expr string) (lhs, op, rhs string, ok bool) {
	inQuote := false
	for i := 0; i < len(expr)-1; i++ {
		switch {
		case expr[i] == '"':
			inQuote = !inQuote
		case !inQuote && (expr[i] == '=' || expr[i] == '!') && expr[i+1] == '=':
			return expr[:i], expr[i : i+2], expr[i+2:], true
		}
	}
	return "", "", "", false
}

// cutCall matches "fn(arg)" and returns the argument.
func cutCall(expr, fn string) (string, bool) {
	if strings.HasPrefix(expr, fn+"(") && strings.HasSuffix(expr, ")") {
		arg := strings.TrimSpace(expr[len(fn)+1 : len(expr)-1])
		if arg != "" {
			return arg, true
		}
	}
	return "", false
}

func parseLiteral(s string) (any, error) {
	switch {
	case s == "true":
		return true, nil
	case s == "false":
		return false, nil
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		return s[1 : len(s)-1], nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	return nil, fmt.Errorf("condition literal %q is not a bool, integer or quoted string", s)
}

// isEmpty reports whether a parameter value counts as an empty collection.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
