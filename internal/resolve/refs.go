package resolve

import (
	"fmt"
	"strings"
)

// Reference scheme used inside property bags, names and output values.
//
//	ref://param/<name>             whole-value parameter substitution
//	ref://resource/<symbol>/<attr> attribute of another declaration (graph edge)
//	ref://module/<name>/<output>   output of a sibling module
//	ref://each/<field>             field of the current fan-out element
//	ref://each/<field>?<default>   same, with a default when the field is absent
//
// Strings may additionally interpolate ${param.<name>} and ${each.<field>}.
const (
	refPrefix         = "ref://"
	refParamPrefix    = "ref://param/"
	refResourcePrefix = "ref://resource/"
	refModulePrefix   = "ref://module/"
	refEachPrefix     = "ref://each/"
)

// resourceRef identifies one ref://resource reference.
type ResourceRef struct {
	Symbol string
	Attr   string
}

// parseResourceRef splits "ref://resource/<symbol>/<attr>" into its parts.
func parseResourceRef(s string) (ResourceRef, bool) {
	if !strings.HasPrefix(s, refResourcePrefix) {
		return ResourceRef{}, false
	}
	rest := s[len(refResourcePrefix):]
	idx := strings.LastIndex(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return ResourceRef{}, false
	}
	return ResourceRef{Symbol: rest[:idx], Attr: rest[idx+1:]}, true
}

func formatResourceRef(symbol, attr string) string {
	return refResourcePrefix + symbol + "/" + attr
}

// parseModuleRef splits "ref://module/<name>/<output>" into its parts.
func parseModuleRef(s string) (module, output string, ok bool) {
	if !strings.HasPrefix(s, refModulePrefix) {
		return "", "", false
	}
	parts := strings.SplitN(s[len(refModulePrefix):], "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ResourceRefs walks a property value and collects every ref://resource
// reference it contains.
func ResourceRefs(v any) []ResourceRef {
	var refs []ResourceRef
	switch val := v.(type) {
	case string:
		if ref, ok := parseResourceRef(val); ok {
			refs = append(refs, ref)
		}
	case map[string]any:
		for _, v := range val {
			refs = append(refs, ResourceRefs(v)...)
		}
	case []any:
		for _, v := range val {
			refs = append(refs, ResourceRefs(v)...)
		}
	}
	return refs
}

// substituteParams replaces ref://param whole values and ${param.*}
// interpolations with the resolved parameter values.
func substituteParams(v any, params map[string]any) any {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, refParamPrefix) {
			name := val[len(refParamPrefix):]
			if pv, ok := params[name]; ok {
				return pv
			}
			return val
		}
		result := val
		for name, pv := range params {
			marker := "${param." + name + "}"
			if strings.Contains(result, marker) {
				result = strings.ReplaceAll(result, marker, fmt.Sprintf("%v", pv))
			}
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = substituteParams(v, params)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = substituteParams(v, params)
		}
		return result
	default:
		return v
	}
}

// SubstituteRefs replaces ref://resource references using the supplied
// lookup. References the lookup cannot satisfy are left in place. The
// dispatcher uses this to bind apply-time attributes as nodes complete.
func SubstituteRefs(v any, lookup func(symbol, attr string) (any, bool)) any {
	switch val := v.(type) {
	case string:
		if ref, ok := parseResourceRef(val); ok {
			if resolved, found := lookup(ref.Symbol, ref.Attr); found {
				return resolved
			}
		}
		return val
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, nested := range val {
			result[k] = SubstituteRefs(nested, lookup)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, nested := range val {
			result[i] = SubstituteRefs(nested, lookup)
		}
		return result
	default:
		return v
	}
}

// qualifyRefs rewrites ref://resource symbols declared in the current
// template to their module-qualified form. Symbols not in the local set are
// assumed to be already qualified and left untouched.
func qualifyRefs(v any, prefix string, local map[string]bool) any {
	if prefix == "" {
		return v
	}
	switch val := v.(type) {
	case string:
		if ref, ok := parseResourceRef(val); ok && local[ref.Symbol] {
			return formatResourceRef(qualifySymbol(prefix, ref.Symbol), ref.Attr)
		}
		return val
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = qualifyRefs(v, prefix, local)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = qualifyRefs(v, prefix, local)
		}
		return result
	default:
		return v
	}
}

// qualifySymbol prepends the module prefix to a declaration symbol.
func qualifySymbol(prefix, symbol string) string {
	if prefix == "" {
		return symbol
	}
	return prefix + "." + symbol
}
