// Package eval loads template definitions written in PKL into IR types.
// The built-in templates are constructed in Go; this path exists for
// user-supplied templates kept outside the binary.
package eval

import (
	"context"
	"fmt"

	"github.com/apple/pkl-go/pkl"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

// Evaluator handles PKL evaluation into IR types.
type Evaluator struct {
	projectDir string
}

func NewEvaluator(projectDir string) *Evaluator {
	return &Evaluator{
		projectDir: projectDir,
	}
}

// LoadTemplate evaluates a template file and returns the IR. Externally
// supplied properties are exposed to the PKL module as read properties.
func (e *Evaluator) LoadTemplate(ctx context.Context, entryPoint string, properties map[string]string) (*ir.Template, error) {
	opts := []func(*pkl.EvaluatorOptions){pkl.PreconfiguredOptions}
	if len(properties) > 0 {
		opts = append(opts, func(o *pkl.EvaluatorOptions) {
			if o.Properties == nil {
				o.Properties = make(map[string]string)
			}
			for k, v := range properties {
				o.Properties[k] = v
			}
		})
	}

	evaluator, err := pkl.NewProjectEvaluator(ctx, e.projectDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create PKL evaluator: %w", err)
	}
	defer evaluator.Close()

	var t ir.Template
	if err := evaluator.EvaluateModule(ctx, pkl.FileSource(entryPoint), &t); err != nil {
		return nil, fmt.Errorf("failed to evaluate template: %w", err)
	}
	if err := checkTemplate(&t, entryPoint); err != nil {
		return nil, err
	}

	return &t, nil
}

// checkTemplate rejects evaluated templates the registry could not serve.
// A template without a name would register under "" and be unreachable.
func checkTemplate(t *ir.Template, entryPoint string) error {
	if t.Name == "" {
		return fmt.Errorf("template %s does not set a name", entryPoint)
	}
	if len(t.Resources) == 0 && len(t.Modules) == 0 {
		return fmt.Errorf("template %s declares no resources or modules", entryPoint)
	}
	return nil
}
