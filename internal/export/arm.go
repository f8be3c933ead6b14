// Package export renders resolved graphs into external formats: an ARM
// deployment template and Graphviz DOT.
package export

import (
	"encoding/json"
	"fmt"

	"github.com/madebygps/functions-cosmos-inventory/internal/catalog"
	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
	"github.com/madebygps/functions-cosmos-inventory/internal/resolve"
)

const (
	armSchema      = "https://schema.management.azure.com/schemas/2019-04-01/deploymentTemplate.json#"
	contentVersion = "1.0.0.0"
)

// ARM template envelope fields that live beside properties rather than
// inside them.
var topLevelFields = map[string]bool{
	"name":     true,
	"location": true,
	"tags":     true,
	"sku":      true,
	"kind":     true,
	"identity": true,
}

// ARMTemplate renders the graph as an ARM deployment template document.
// Unbound attribute references are emitted verbatim; the result is a
// faithful rendering of the resolved graph, not a deployable artifact
// for nodes that still carry placeholders.
func ARMTemplate(g *ir.Graph, cat *catalog.Catalog) ([]byte, error) {
	dag, err := resolve.BuildDAG(g.Nodes)
	if err != nil {
		return nil, err
	}

	resources := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		res := map[string]any{
			"type": n.Type,
		}
		if v := cat.APIVersion(n.Type); v != "" {
			res["apiVersion"] = v
		}
		if n.Scope != "" {
			res["scope"] = n.Scope
		}

		props := make(map[string]any)
		for k, v := range n.Properties {
			if topLevelFields[k] {
				res[k] = v
				continue
			}
			props[k] = v
		}
		if len(props) > 0 {
			res["properties"] = props
		}
		if deps := dag.Dependencies(n.Address); len(deps) > 0 {
			res["dependsOn"] = deps
		}
		resources = append(resources, res)
	}

	outputs := make(map[string]any, len(g.Outputs))
	for name, o := range g.Outputs {
		typ := "string"
		if o.Secure {
			typ = "securestring"
		}
		outputs[name] = map[string]any{
			"type":  typ,
			"value": o.Value,
		}
	}

	doc := map[string]any{
		"$schema":        armSchema,
		"contentVersion": contentVersion,
		"resources":      resources,
		"outputs":        outputs,
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize template: %w", err)
	}
	return append(out, '\n'), nil
}
