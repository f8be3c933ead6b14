package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/madebygps/functions-cosmos-inventory/internal/catalog"
	"github.com/madebygps/functions-cosmos-inventory/internal/eval"
	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
	"github.com/madebygps/functions-cosmos-inventory/internal/resolve"
	"github.com/madebygps/functions-cosmos-inventory/templates"
)

// newRegistry loads the catalog and builds the built-in template registry.
func newRegistry() (*templates.Registry, *catalog.Catalog, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, nil, err
	}
	return templates.NewRegistry(cat), cat, nil
}

// selectTemplate returns the template named by --template, loading and
// registering an external PKL file first when one is given as a
// positional argument.
func selectTemplate(ctx context.Context, reg *templates.Registry, name string, args []string) (*ir.Template, error) {
	if len(args) > 0 {
		absPath, err := filepath.Abs(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", args[0], err)
		}
		evaluator := eval.NewEvaluator(filepath.Dir(absPath))
		t, err := evaluator.LoadTemplate(ctx, filepath.Base(absPath), templateProps)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		reg.Register(t)
		name = t.Name
	}

	t, ok := reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown template %q (available: %v)", name, reg.Names())
	}
	return t, nil
}

// gatherParameters merges a JSON parameters file with --param overrides.
// Flag values are parsed against the declared parameter types; overrides
// win over file values.
func gatherParameters(t *ir.Template, paramsFile string, props map[string]string) (map[string]any, error) {
	supplied := make(map[string]any)

	if paramsFile != "" {
		raw, err := os.ReadFile(paramsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read parameters file %s: %w", paramsFile, err)
		}
		if err := json.Unmarshal(raw, &supplied); err != nil {
			return nil, fmt.Errorf("failed to parse parameters file %s: %w", paramsFile, err)
		}
	}

	for k, raw := range props {
		p, ok := t.Parameters[k]
		if !ok {
			// Let parameter validation report the unknown name.
			supplied[k] = raw
			continue
		}
		v, err := resolve.ParseValue(p.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		supplied[k] = v
	}

	return supplied, nil
}

// resolveTemplate resolves a template into its dependency graph.
func resolveTemplate(reg *templates.Registry, t *ir.Template, supplied map[string]any) (*ir.Graph, error) {
	return resolve.New(reg).Resolve(t, supplied)
}

// recordPath returns the deployment record location under the working
// directory.
func recordPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(wd, ".inventoryctl", "record.json"), nil
}

// renderOutputs prints output values sorted by name, masking secure ones
// unless showSecrets is set.
func renderOutputs(outputs map[string]*ir.OutputValue, showSecrets bool) {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("  %s = %v\n", name, displayValue(outputs[name], showSecrets))
	}
}

func displayValue(o *ir.OutputValue, showSecrets bool) any {
	if o.Secure && !showSecrets {
		return resolve.RedactedPlaceholder
	}
	return o.Value
}

// maskedOutputs returns the graph outputs with secure values replaced by
// the redaction placeholder.
func maskedOutputs(g *ir.Graph) map[string]any {
	out := make(map[string]any, len(g.Outputs))
	for name, o := range g.Outputs {
		out[name] = displayValue(o, false)
	}
	return out
}
