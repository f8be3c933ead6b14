package resolve

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

// mergeKey marks a property value as a layered record merge.
// {"$merge": [layerA, layerB]} merges left to right, later keys win.
const mergeKey = "$merge"

// ValidateParameters merges caller-supplied values over declared defaults
// and checks types and allowed-value constraints. Violations are collected
// so one pass reports every defect in the parameter record.
func ValidateParameters(t *ir.Template, supplied map[string]any) (map[string]any, error) {
	var errs *multierror.Error
	values := make(map[string]any, len(t.Parameters))

	names := make([]string, 0, len(t.Parameters))
	for name := range t.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := t.Parameters[name]
		val, ok := supplied[name]
		if !ok {
			if p.Required {
				errs = multierror.Append(errs, fmt.Errorf("missing required parameter %q", name))
				continue
			}
			val = p.Default
		}
		if val == nil {
			values[name] = nil
			continue
		}

		val = normalizeValue(val)
		coerced, err := checkType(name, p.Type, val)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if err := checkAllowed(name, p, coerced); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		values[name] = coerced
	}

	for name := range supplied {
		if _, ok := t.Parameters[name]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("unknown parameter %q", name))
		}
	}

	return values, errs.ErrorOrNil()
}

// checkType verifies a value against the declared parameter type. Integral
// float64 values (the JSON decoding of whole numbers) are coerced to int.
func checkType(name string, typ ir.ParameterType, val any) (any, error) {
	switch typ {
	case ir.TypeString:
		if s, ok := val.(string); ok {
			return s, nil
		}
	case ir.TypeBool:
		if b, ok := val.(bool); ok {
			return b, nil
		}
	case ir.TypeInt:
		switch n := val.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n == float64(int(n)) {
				return int(n), nil
			}
		}
	case ir.TypeObject:
		if m, ok := val.(map[string]any); ok {
			return m, nil
		}
	case ir.TypeArray:
		if a, ok := val.([]any); ok {
			return a, nil
		}
	default:
		return nil, fmt.Errorf("parameter %q declares unsupported type %q", name, typ)
	}
	return nil, fmt.Errorf("parameter %q: type mismatch, expected %s, got %T", name, typ, val)
}

// checkAllowed enforces an enumerated allowed-value set, if declared.
func checkAllowed(name string, p *ir.Parameter, val any) error {
	if len(p.Allowed) == 0 {
		return nil
	}
	for _, allowed := range p.Allowed {
		if allowedEqual(allowed, val) {
			return nil
		}
	}
	return fmt.Errorf("parameter %q: value %v is not in the allowed set %v", name, val, p.Allowed)
}

// allowedEqual compares an allowed-set entry with a parameter value without
// collapsing types to strings: 1 is not "1". Numeric entries compare across
// int and float64 since decoded JSON blurs the two.
func allowedEqual(allowed, val any) bool {
	if a, ok := numericValue(allowed); ok {
		v, ok := numericValue(val)
		return ok && a == v
	}
	return reflect.DeepEqual(allowed, val)
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// ParseValue converts a raw command-line string into the parameter's
// declared type. Objects and arrays are decoded as JSON.
func ParseValue(typ ir.ParameterType, raw string) (any, error) {
	switch typ {
	case ir.TypeString:
		return raw, nil
	case ir.TypeBool:
		return strconv.ParseBool(raw)
	case ir.TypeInt:
		return strconv.Atoi(raw)
	case ir.TypeObject:
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("invalid object literal: %w", err)
		}
		return m, nil
	case ir.TypeArray:
		var a []any
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("invalid array literal: %w", err)
		}
		return a, nil
	}
	return nil, fmt.Errorf("unsupported parameter type %q", typ)
}

// Merge layers records left to right; keys of later layers win. Used for
// composing default tags and app settings with caller overrides.
func Merge(layers ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, layer := range layers {
		for k, v := range layer {
			result[k] = v
		}
	}
	return result
}

// evalMerges walks a value and collapses {"$merge": [...]} directives.
// Non-map layers are a template authoring error.
func evalMerges(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if layers, ok := val[mergeKey]; ok && len(val) == 1 {
			list, ok := layers.([]any)
			if !ok {
				return nil, fmt.Errorf("%s expects an array of records, got %T", mergeKey, layers)
			}
			maps := make([]map[string]any, 0, len(list))
			for _, layer := range list {
				collapsed, err := evalMerges(layer)
				if err != nil {
					return nil, err
				}
				m, ok := collapsed.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%s layer must be a record, got %T", mergeKey, layer)
				}
				maps = append(maps, m)
			}
			return Merge(maps...), nil
		}
		result := make(map[string]any, len(val))
		for k, v := range val {
			collapsed, err := evalMerges(v)
			if err != nil {
				return nil, err
			}
			result[k] = collapsed
		}
		return result, nil
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			collapsed, err := evalMerges(v)
			if err != nil {
				return nil, err
			}
			result[i] = collapsed
		}
		return result, nil
	default:
		return v, nil
	}
}

// normalizeValue converts decoder-specific map and number shapes into the
// canonical map[string]any / []any / int forms used throughout resolution.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[any]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[fmt.Sprintf("%v", k)] = normalizeValue(v)
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = normalizeValue(v)
		}
		return result
	default:
		return val
	}
}
