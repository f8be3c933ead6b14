package resolve

import "strings"

// RedactedPlaceholder replaces secure values in any diagnostic rendering.
const RedactedPlaceholder = "(sensitive)"

// Redactor tracks the string forms of secure parameter values so that
// diagnostic output never echoes them. The raw values still flow to
// appliers and exporters untouched; this is a pass-through redaction
// contract, not encryption.
type Redactor struct {
	values map[string]bool
}

func NewRedactor() *Redactor {
	return &Redactor{values: make(map[string]bool)}
}

// Add registers a secure value. Record and array values register each
// nested string.
func (r *Redactor) Add(v any) {
	switch val := v.(type) {
	case string:
		if val != "" {
			r.values[val] = true
		}
	case map[string]any:
		for _, nested := range val {
			r.Add(nested)
		}
	case []any:
		for _, nested := range val {
			r.Add(nested)
		}
	}
}

// Mask returns a copy of v with every registered secure value replaced by
// the redaction placeholder. Strings merely containing a secure value are
// masked wholesale rather than partially rewritten.
func (r *Redactor) Mask(v any) any {
	switch val := v.(type) {
	case string:
		return r.maskString(val)
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, nested := range val {
			result[k] = r.Mask(nested)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, nested := range val {
			result[i] = r.Mask(nested)
		}
		return result
	default:
		return v
	}
}

func (r *Redactor) maskString(s string) string {
	if r.values[s] {
		return RedactedPlaceholder
	}
	for secret := range r.values {
		if strings.Contains(s, secret) {
			return RedactedPlaceholder
		}
	}
	return s
}
