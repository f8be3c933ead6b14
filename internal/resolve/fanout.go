package resolve

import (
	"fmt"
	"strings"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"

	"github.com/hashicorp/go-multierror"
)

// expandFanOut replaces every resource carrying a ForEach with one clone
// per element of the referenced array parameter, preserving input order so
// naming and diagnostics stay deterministic. Duplicate element names are
// rejected here, before anything reaches an apply step.
func expandFanOut(resources []*ir.Resource, params map[string]any) ([]*ir.Resource, error) {
	var errs *multierror.Error
	var expanded []*ir.Resource

	for _, res := range resources {
		if res.ForEach == "" {
			expanded = append(expanded, res)
			continue
		}

		collection, err := fanOutCollection(res, params)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		seen := make(map[string]bool, len(collection))
		for _, elem := range collection {
			name, _ := elem["name"].(string)
			if name == "" {
				errs = multierror.Append(errs, fmt.Errorf("resource %q: fan-out element of %q has no name", res.Name, res.ForEach))
				continue
			}
			if seen[name] {
				errs = multierror.Append(errs, fmt.Errorf("resource %q: duplicate resource name %q in collection %q", res.Name, name, res.ForEach))
				continue
			}
			seen[name] = true

			clone := cloneResource(res)
			clone.Name = fmt.Sprintf("%s[%q]", res.Name, name)
			clone.ForEach = ""
			clone.Properties = substituteEach(clone.Properties, elem)
			expanded = append(expanded, clone)
		}
	}

	return expanded, errs.ErrorOrNil()
}

// fanOutCollection fetches and shape-checks the array parameter a fan-out
// iterates over. Elements must be records.
func fanOutCollection(res *ir.Resource, params map[string]any) ([]map[string]any, error) {
	raw, ok := params[res.ForEach]
	if !ok {
		return nil, fmt.Errorf("resource %q: fan-out references unknown parameter %q", res.Name, res.ForEach)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("resource %q: fan-out parameter %q is not an array (got %T)", res.Name, res.ForEach, raw)
	}

	collection := make([]map[string]any, 0, len(list))
	for i, item := range list {
		elem, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("resource %q: element %d of %q is not a record (got %T)", res.Name, i, res.ForEach, item)
		}
		collection = append(collection, elem)
	}
	return collection, nil
}

func cloneResource(res *ir.Resource) *ir.Resource {
	clone := &ir.Resource{
		Type:      res.Type,
		Name:      res.Name,
		Condition: res.Condition,
		ForEach:   res.ForEach,
		Parent:    res.Parent,
		Scope:     res.Scope,
		Existing:  res.Existing,
	}
	clone.DependsOn = append([]string{}, res.DependsOn...)
	clone.Properties = deepCopyMap(res.Properties)
	return clone
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}
	return result
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		clone := make([]any, len(val))
		for i, item := range val {
			clone[i] = deepCopyValue(item)
		}
		return clone
	default:
		return v
	}
}

// substituteEach resolves ${each.<field>} interpolations and ref://each
// whole values against the current fan-out element. A whole-value reference
// may carry a default after '?', used when the element omits the field.
func substituteEach(props map[string]any, elem map[string]any) map[string]any {
	result := make(map[string]any, len(props))
	for k, v := range props {
		result[k] = substituteEachValue(v, elem)
	}
	return result
}

func substituteEachValue(v any, elem map[string]any) any {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, refEachPrefix) {
			field := val[len(refEachPrefix):]
			var fallback any
			if f, def, ok := strings.Cut(field, "?"); ok {
				field, fallback = f, def
			}
			if ev, ok := elem[field]; ok {
				return ev
			}
			if fallback != nil {
				return fallback
			}
			return val
		}
		result := val
		for field, ev := range elem {
			marker := "${each." + field + "}"
			if strings.Contains(result, marker) {
				result = strings.ReplaceAll(result, marker, fmt.Sprintf("%v", ev))
			}
		}
		return result
	case map[string]any:
		return substituteEach(val, elem)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = substituteEachValue(item, elem)
		}
		return result
	default:
		return v
	}
}
