// Package templates holds the built-in deployment templates for the
// inventory workload: storage, monitoring, hosting plan, function app,
// and the orchestrating main template that wires them together.
package templates

import (
	"sort"

	"github.com/madebygps/functions-cosmos-inventory/internal/catalog"
	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

// Registry resolves template names to their definitions. It satisfies
// resolve.TemplateSource.
type Registry struct {
	templates map[string]*ir.Template
}

// NewRegistry builds the registry of built-in templates. Azure-specific
// constants (role definition GUIDs, runtime identifiers) come from the
// catalog.
func NewRegistry(cat *catalog.Catalog) *Registry {
	r := &Registry{templates: map[string]*ir.Template{}}
	for _, t := range []*ir.Template{
		Storage(),
		Monitoring(),
		HostingPlan(),
		FunctionApp(cat),
		Main(),
	} {
		r.templates[t.Name] = t
	}
	return r
}

// Lookup returns the template registered under name.
func (r *Registry) Lookup(name string) (*ir.Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Names lists the registered template names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a template, letting callers extend the
// built-in set with templates loaded from disk.
func (r *Registry) Register(t *ir.Template) {
	r.templates[t.Name] = t
}
