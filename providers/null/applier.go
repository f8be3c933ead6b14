// Package null implements an applier that provisions nothing. It
// synthesizes the attributes each resource type would report after a
// real deployment, which makes resolved graphs fully exercisable in
// dry runs and tests.
package null

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

const subscriptionID = "00000000-0000-0000-0000-000000000000"

// Applier fabricates per-type outputs without touching any cloud API.
type Applier struct{}

func New() *Applier {
	return &Applier{}
}

// Apply returns synthesized attributes for the node. The shapes mirror
// what the Azure control plane reports for each type so downstream
// bindings see realistic values.
func (a *Applier) Apply(_ context.Context, node *ir.Node) (map[string]any, error) {
	name, _ := node.Properties["name"].(string)
	if name == "" {
		name = node.Symbol
	}

	id := fmt.Sprintf("/subscriptions/%s/providers/%s/%s", subscriptionID, node.Type, name)
	outputs := map[string]any{
		"id":   id,
		"name": name,
	}

	switch node.Type {
	case "Microsoft.Storage/storageAccounts":
		outputs["primaryBlobEndpoint"] = fmt.Sprintf("https://%s.blob.core.windows.net/", name)
	case "Microsoft.Web/sites":
		outputs["principalId"] = uuid.NewString()
		outputs["defaultHostName"] = fmt.Sprintf("%s.azurewebsites.net", name)
	case "Microsoft.Insights/components":
		key := uuid.NewString()
		outputs["instrumentationKey"] = key
		outputs["connectionString"] = fmt.Sprintf("InstrumentationKey=%s;IngestionEndpoint=https://eastus-0.in.applicationinsights.azure.com/", key)
	case "Microsoft.OperationalInsights/workspaces":
		outputs["customerId"] = uuid.NewString()
	case "Microsoft.Authorization/roleAssignments":
		// Role assignment names are GUIDs minted by the control plane.
		outputs["name"] = uuid.NewString()
	}

	return outputs, nil
}
