package resolve

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
	"github.com/madebygps/functions-cosmos-inventory/internal/logging"
)

// TemplateSource resolves module template names to their definitions.
type TemplateSource interface {
	Lookup(name string) (*ir.Template, bool)
}

// Resolver turns a template plus a parameter record into an ordered
// resource graph. Resolution is a single sequential pass: parameter
// substitution, conditional pruning, fan-out expansion, module output
// threading, then topological ordering and validation. All errors it
// returns are static; nothing has been applied when it fails.
type Resolver struct {
	source   TemplateSource
	redactor *Redactor
}

func New(source TemplateSource) *Resolver {
	return &Resolver{source: source, redactor: NewRedactor()}
}

// Redactor exposes the secure-value tracker populated during resolution,
// for use by diagnostic renderers.
func (r *Resolver) Redactor() *Redactor {
	return r.redactor
}

// Resolve evaluates the template against caller-supplied parameters.
func (r *Resolver) Resolve(t *ir.Template, supplied map[string]any) (*ir.Graph, error) {
	params, err := ValidateParameters(t, supplied)
	if err != nil {
		return nil, err
	}

	c := newCollector()
	if err := r.resolveInto(c, t, params, ""); err != nil {
		return nil, err
	}

	nodes, err := c.link()
	if err != nil {
		return nil, err
	}

	dag, err := BuildDAG(nodes)
	if err != nil {
		return nil, err
	}

	byAddr := make(map[string]*ir.Node, len(nodes))
	for _, n := range nodes {
		byAddr[n.Address] = n
	}
	ordered := make([]*ir.Node, 0, len(nodes))
	for _, addr := range dag.CreationOrder() {
		ordered = append(ordered, byAddr[addr])
	}

	// Second phase: references bind to values only after ordering is known.
	bindStatic(ordered, c.outputs)

	logging.Debug("template resolved", "template", t.Name, "nodes", len(ordered), "outputs", len(c.outputs))

	return &ir.Graph{Template: t.Name, Nodes: ordered, Outputs: c.outputs}, nil
}

// declaration is the resolution-time view of one resource symbol,
// including the excluded and existing ones that never become nodes.
type declaration struct {
	symbol    string
	typ       string
	excluded  bool
	existing  bool
	props     map[string]any // resolved properties for existing declarations
	node      *ir.Node
	parent    string   // qualified symbol
	scope     string   // qualified symbol
	dependsOn []string // qualified symbols
}

type moduleState struct {
	excluded bool
	outputs  map[string]*ir.OutputValue
}

type collector struct {
	order   []string
	decls   map[string]*declaration
	modules map[string]*moduleState
	outputs map[string]*ir.OutputValue
}

func newCollector() *collector {
	return &collector{
		decls:   make(map[string]*declaration),
		modules: make(map[string]*moduleState),
		outputs: make(map[string]*ir.OutputValue),
	}
}

func (c *collector) declare(d *declaration) error {
	if _, exists := c.decls[d.symbol]; exists {
		return fmt.Errorf("duplicate resource name %q", d.symbol)
	}
	c.decls[d.symbol] = d
	c.order = append(c.order, d.symbol)
	return nil
}

// resolveInto resolves one template's resources and modules into the
// collector, qualifying every symbol with the module prefix.
func (r *Resolver) resolveInto(c *collector, t *ir.Template, params map[string]any, prefix string) error {
	for name, p := range t.Parameters {
		if p.Secure {
			r.redactor.Add(params[name])
			logging.Debug("registered secure parameter", logging.Redacted(name))
		}
	}

	local := make(map[string]bool, len(t.Resources))
	for _, res := range t.Resources {
		local[res.Name] = true
	}

	var errs *multierror.Error

	// Conditional pruning before fan-out: an excluded collection host
	// suppresses its children by never reaching expansion.
	var included []*ir.Resource
	for _, res := range t.Resources {
		ok, err := EvalCondition(res.Condition, params)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("resource %q: %w", res.Name, err))
			continue
		}
		if !ok {
			if err := c.declare(&declaration{symbol: qualifySymbol(prefix, res.Name), typ: res.Type, excluded: true}); err != nil {
				errs = multierror.Append(errs, err)
			}
			continue
		}
		included = append(included, res)
	}

	expanded, err := expandFanOut(included, params)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}
	for _, res := range expanded {
		local[res.Name] = true
	}

	for _, res := range expanded {
		props, err := r.resolveProperties(res.Properties, params, prefix, local)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("resource %q: %w", res.Name, err))
			continue
		}

		qsym := qualifySymbol(prefix, res.Name)
		d := &declaration{symbol: qsym, typ: res.Type, existing: res.Existing, props: props}
		if res.Parent != "" {
			d.parent = qualifySymbol(prefix, res.Parent)
		}
		if res.Scope != "" {
			d.scope = qualifySymbol(prefix, res.Scope)
		}
		for _, dep := range res.DependsOn {
			d.dependsOn = append(d.dependsOn, qualifySymbol(prefix, dep))
		}
		if !res.Existing {
			d.node = &ir.Node{
				Address:    nodeAddress(res.Type, qsym),
				Symbol:     qsym,
				Type:       res.Type,
				Module:     prefix,
				Properties: props,
			}
		}
		if err := c.declare(d); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	if err := r.resolveModules(c, t, params, prefix); err != nil {
		return err
	}

	outs := make(map[string]*ir.OutputValue, len(t.Outputs))
	for name, o := range t.Outputs {
		v, err := r.resolveProperty(o.Value, params, prefix, local)
		if err == nil {
			v, err = r.bindModuleRefs(c, prefix, v)
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("output %q: %w", name, err))
			continue
		}
		outs[name] = &ir.OutputValue{Value: v, Secure: o.Secure}
		if o.Secure {
			r.redactor.Add(concreteOnly(v))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	if prefix == "" {
		c.outputs = outs
	} else if ms, ok := c.modules[prefix]; ok {
		ms.outputs = outs
	}

	return nil
}

func (r *Resolver) resolveModules(c *collector, t *ir.Template, params map[string]any, prefix string) error {
	ordered, err := orderModules(t.Modules)
	if err != nil {
		return err
	}

	for _, m := range ordered {
		qmod := qualifySymbol(prefix, m.Name)

		ok, err := EvalCondition(m.Condition, params)
		if err != nil {
			return fmt.Errorf("module %q: %w", m.Name, err)
		}
		if !ok {
			c.modules[qmod] = &moduleState{excluded: true}
			continue
		}

		child, found := r.source.Lookup(m.Template)
		if !found {
			return fmt.Errorf("module %q: unknown template %q", m.Name, m.Template)
		}
		c.modules[qmod] = &moduleState{}

		bound := make(map[string]any, len(m.Parameters))
		for k, v := range m.Parameters {
			v = substituteParams(normalizeValue(v), params)
			v, err = r.bindModuleRefs(c, prefix, v)
			if err != nil {
				return fmt.Errorf("module %q: parameter %q: %w", m.Name, k, err)
			}
			v, err = evalMerges(v)
			if err != nil {
				return fmt.Errorf("module %q: parameter %q: %w", m.Name, k, err)
			}
			bound[k] = v
		}

		childParams, err := ValidateParameters(child, bound)
		if err != nil {
			return fmt.Errorf("module %q: %w", m.Name, err)
		}

		before := len(c.order)
		if err := r.resolveInto(c, child, childParams, qmod); err != nil {
			return fmt.Errorf("module %q: %w", m.Name, err)
		}

		// Module-level DependsOn: every node the module produced is
		// ordered after the referenced declarations or modules.
		if len(m.DependsOn) > 0 {
			var extra []string
			for _, dep := range m.DependsOn {
				qdep := qualifySymbol(prefix, dep)
				if ms, ok := c.modules[qdep]; ok {
					if ms.excluded {
						continue
					}
					extra = append(extra, c.symbolsUnder(qdep)...)
					continue
				}
				extra = append(extra, qdep)
			}
			for _, sym := range c.order[before:] {
				if d := c.decls[sym]; d.node != nil {
					d.dependsOn = append(d.dependsOn, extra...)
				}
			}
		}
	}

	return nil
}

// bindModuleRefs replaces ref://module references with the already-resolved
// outputs of earlier modules. order is guaranteed by orderModules.
func (r *Resolver) bindModuleRefs(c *collector, prefix string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		mod, out, ok := parseModuleRef(val)
		if !ok {
			return val, nil
		}
		qmod := qualifySymbol(prefix, mod)
		ms, found := c.modules[qmod]
		if !found {
			return nil, fmt.Errorf("dangling reference: module %q is not declared", mod)
		}
		if ms.excluded {
			return nil, fmt.Errorf("dangling reference: module %q is excluded by its condition", mod)
		}
		ov, found := ms.outputs[out]
		if !found {
			return nil, fmt.Errorf("dangling reference: module %q has no output %q", mod, out)
		}
		return ov.Value, nil
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, nested := range val {
			bound, err := r.bindModuleRefs(c, prefix, nested)
			if err != nil {
				return nil, err
			}
			result[k] = bound
		}
		return result, nil
	case []any:
		result := make([]any, len(val))
		for i, nested := range val {
			bound, err := r.bindModuleRefs(c, prefix, nested)
			if err != nil {
				return nil, err
			}
			result[i] = bound
		}
		return result, nil
	default:
		return v, nil
	}
}

func (r *Resolver) resolveProperties(props map[string]any, params map[string]any, prefix string, local map[string]bool) (map[string]any, error) {
	resolved, err := r.resolveProperty(props, params, prefix, local)
	if err != nil {
		return nil, err
	}
	m, _ := resolved.(map[string]any)
	return m, nil
}

func (r *Resolver) resolveProperty(v any, params map[string]any, prefix string, local map[string]bool) (any, error) {
	resolved := substituteParams(normalizeValue(v), params)
	resolved, err := evalMerges(resolved)
	if err != nil {
		return nil, err
	}
	return qualifyRefs(resolved, prefix, local), nil
}

// symbolsUnder returns the qualified symbols of all nodes a module produced.
func (c *collector) symbolsUnder(qmod string) []string {
	var syms []string
	for _, sym := range c.order {
		if d := c.decls[sym]; d.node != nil && strings.HasPrefix(sym, qmod+".") {
			syms = append(syms, sym)
		}
	}
	return syms
}

// link turns declarations into nodes: parent, scope, dependsOn and property
// references are checked against the symbol table, edges are materialized
// as addresses, and references to existing declarations are inlined. Every
// dangling reference is reported; none may survive to an apply step.
func (c *collector) link() ([]*ir.Node, error) {
	var errs *multierror.Error
	var nodes []*ir.Node

	for _, sym := range c.order {
		d := c.decls[sym]
		if d.node == nil {
			continue
		}
		n := d.node

		if d.parent != "" {
			target, err := c.target(sym, "parent", d.parent)
			if err != nil {
				errs = multierror.Append(errs, err)
			} else if !target.existing {
				n.Parent = target.node.Address
				n.DependsOn = append(n.DependsOn, target.node.Address)
			}
		}

		if d.scope != "" {
			target, err := c.target(sym, "scope", d.scope)
			if err != nil {
				errs = multierror.Append(errs, err)
			} else if target.existing {
				// Scoping to an already-deployed resource: record its name,
				// no ordering edge.
				n.Scope = fmt.Sprintf("%v", target.props["name"])
			} else {
				n.Scope = target.node.Address
				n.DependsOn = append(n.DependsOn, target.node.Address)
			}
		}

		for _, dep := range d.dependsOn {
			target, err := c.target(sym, "dependsOn", dep)
			if err != nil {
				errs = multierror.Append(errs, err)
			} else if !target.existing {
				n.DependsOn = append(n.DependsOn, target.node.Address)
			}
		}

		for _, ref := range ResourceRefs(n.Properties) {
			target, found := c.decls[ref.Symbol]
			if !found {
				errs = multierror.Append(errs, fmt.Errorf("dangling reference: %q references undeclared resource %q", sym, ref.Symbol))
				continue
			}
			if target.excluded {
				errs = multierror.Append(errs, fmt.Errorf("dangling reference: %q references %q, which is excluded by its condition", sym, ref.Symbol))
			}
		}
		n.Properties = c.inlineExisting(n.Properties, sym, &errs).(map[string]any)

		nodes = append(nodes, n)
	}

	for name, out := range c.outputs {
		out.Value = c.inlineExisting(out.Value, "output "+name, &errs)
		for _, ref := range ResourceRefs(out.Value) {
			target, found := c.decls[ref.Symbol]
			if !found {
				errs = multierror.Append(errs, fmt.Errorf("dangling reference: output %q references undeclared resource %q", name, ref.Symbol))
				continue
			}
			if target.excluded {
				errs = multierror.Append(errs, fmt.Errorf("dangling reference: output %q references %q, which is excluded by its condition", name, ref.Symbol))
			}
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (c *collector) target(from, kind, symbol string) (*declaration, error) {
	target, found := c.decls[symbol]
	if !found {
		return nil, fmt.Errorf("dangling reference: %s of %q names undeclared resource %q", kind, from, symbol)
	}
	if target.excluded {
		return nil, fmt.Errorf("dangling reference: %s of %q names %q, which is excluded by its condition", kind, from, symbol)
	}
	return target, nil
}

// inlineExisting replaces references to existing declarations with their
// statically known attribute values.
func (c *collector) inlineExisting(v any, from string, errs **multierror.Error) any {
	switch val := v.(type) {
	case string:
		ref, ok := parseResourceRef(val)
		if !ok {
			return val
		}
		target, found := c.decls[ref.Symbol]
		if !found || !target.existing {
			return val
		}
		if attr, ok := target.props[ref.Attr]; ok {
			return attr
		}
		*errs = multierror.Append(*errs, fmt.Errorf("dangling reference: %s references attribute %q of existing resource %q, which is not set", from, ref.Attr, ref.Symbol))
		return val
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, nested := range val {
			result[k] = c.inlineExisting(nested, from, errs)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, nested := range val {
			result[i] = c.inlineExisting(nested, from, errs)
		}
		return result
	default:
		return v
	}
}

// orderModules topologically orders module declarations by their output
// references and explicit DependsOn edges, rejecting cycles.
func orderModules(modules []*ir.Module) ([]*ir.Module, error) {
	byName := make(map[string]*ir.Module, len(modules))
	for _, m := range modules {
		byName[m.Name] = m
	}

	deps := make(map[string][]string, len(modules))
	for _, m := range modules {
		seen := make(map[string]bool)
		for _, dep := range m.DependsOn {
			if _, ok := byName[dep]; ok && !seen[dep] {
				deps[m.Name] = append(deps[m.Name], dep)
				seen[dep] = true
			}
		}
		for _, ref := range extractModuleRefs(m.Parameters) {
			if _, ok := byName[ref]; ok && !seen[ref] {
				deps[m.Name] = append(deps[m.Name], ref)
				seen[ref] = true
			}
		}
	}

	var ordered []*ir.Module
	state := make(map[string]int, len(modules)) // 0 unvisited, 1 visiting, 2 done
	var visit func(m *ir.Module) error
	visit = func(m *ir.Module) error {
		switch state[m.Name] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("circular dependency involving module %q", m.Name)
		}
		state[m.Name] = 1
		for _, dep := range deps[m.Name] {
			if err := visit(byName[dep]); err != nil {
				return err
			}
		}
		state[m.Name] = 2
		ordered = append(ordered, m)
		return nil
	}
	for _, m := range modules {
		if err := visit(m); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// extractModuleRefs collects the module names referenced by a value.
func extractModuleRefs(v any) []string {
	var refs []string
	switch val := v.(type) {
	case string:
		if mod, _, ok := parseModuleRef(val); ok {
			refs = append(refs, mod)
		}
	case map[string]any:
		for _, nested := range val {
			refs = append(refs, extractModuleRefs(nested)...)
		}
	case []any:
		for _, nested := range val {
			refs = append(refs, extractModuleRefs(nested)...)
		}
	}
	return refs
}

// bindStatic inlines references whose target attribute is already known at
// resolution time (typically names). Apply-time attributes keep their
// placeholder until an applier produces them.
func bindStatic(nodes []*ir.Node, outputs map[string]*ir.OutputValue) {
	bySymbol := make(map[string]*ir.Node, len(nodes))
	for _, n := range nodes {
		bySymbol[n.Symbol] = n
	}

	bind := func(v any) any {
		return bindStaticValue(v, bySymbol)
	}
	for _, n := range nodes {
		n.Properties = bind(n.Properties).(map[string]any)
	}
	for _, out := range outputs {
		out.Value = bind(out.Value)
	}
}

func bindStaticValue(v any, bySymbol map[string]*ir.Node) any {
	switch val := v.(type) {
	case string:
		ref, ok := parseResourceRef(val)
		if !ok {
			return val
		}
		target, found := bySymbol[ref.Symbol]
		if !found {
			return val
		}
		if attr, ok := target.Properties[ref.Attr]; ok {
			if s, isStr := attr.(string); !isStr || !strings.Contains(s, refPrefix) {
				return attr
			}
		}
		return val
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, nested := range val {
			result[k] = bindStaticValue(nested, bySymbol)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, nested := range val {
			result[i] = bindStaticValue(nested, bySymbol)
		}
		return result
	default:
		return v
	}
}

// concreteOnly strips placeholder strings so the redactor only ever
// registers real secret material.
func concreteOnly(v any) any {
	if s, ok := v.(string); ok && strings.Contains(s, refPrefix) {
		return nil
	}
	return v
}

// nodeAddress forms the stable address of a node: type.symbol.
func nodeAddress(resourceType, symbol string) string {
	return fmt.Sprintf("%s.%s", resourceType, symbol)
}
