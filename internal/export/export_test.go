package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madebygps/functions-cosmos-inventory/internal/catalog"
	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

func exportGraph() *ir.Graph {
	return &ir.Graph{
		Template: "test",
		Nodes: []*ir.Node{
			{
				Address: "Microsoft.Storage/storageAccounts.acct",
				Symbol:  "acct",
				Type:    "Microsoft.Storage/storageAccounts",
				Properties: map[string]any{
					"name":              "invst",
					"location":          "eastus",
					"kind":              "StorageV2",
					"sku":               map[string]any{"name": "Standard_LRS"},
					"tags":              map[string]any{"env": "dev"},
					"minimumTlsVersion": "TLS1_2",
				},
			},
			{
				Address:   "Microsoft.Web/sites.app",
				Symbol:    "app",
				Type:      "Microsoft.Web/sites",
				DependsOn: []string{"Microsoft.Storage/storageAccounts.acct"},
				Properties: map[string]any{
					"name":     "inv-func",
					"location": "eastus",
				},
			},
		},
		Outputs: map[string]*ir.OutputValue{
			"hostName": {Value: "ref://resource/app/defaultHostName"},
			"key":      {Value: "ref://resource/acct/primaryKey", Secure: true},
		},
	}
}

func TestARMTemplate_Envelope(t *testing.T) {
	doc, err := ARMTemplate(exportGraph(), catalog.MustLoad())
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(doc, &parsed))

	assert.Contains(t, parsed["$schema"], "deploymentTemplate.json")
	assert.Equal(t, "1.0.0.0", parsed["contentVersion"])

	resources := parsed["resources"].([]any)
	require.Len(t, resources, 2)

	acct := resources[0].(map[string]any)
	assert.Equal(t, "Microsoft.Storage/storageAccounts", acct["type"])
	assert.Equal(t, "2023-05-01", acct["apiVersion"])
	assert.Equal(t, "invst", acct["name"])
	assert.Equal(t, "StorageV2", acct["kind"])

	// Envelope fields are hoisted, the rest stays under properties.
	props := acct["properties"].(map[string]any)
	assert.Equal(t, "TLS1_2", props["minimumTlsVersion"])
	assert.NotContains(t, props, "name")
	assert.NotContains(t, props, "sku")

	app := resources[1].(map[string]any)
	deps := app["dependsOn"].([]any)
	assert.Contains(t, deps, "Microsoft.Storage/storageAccounts.acct")
}

func TestARMTemplate_OutputTypes(t *testing.T) {
	doc, err := ARMTemplate(exportGraph(), catalog.MustLoad())
	require.NoError(t, err)

	var parsed struct {
		Outputs map[string]struct {
			Type  string `json:"type"`
			Value any    `json:"value"`
		} `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(doc, &parsed))

	assert.Equal(t, "string", parsed.Outputs["hostName"].Type)
	assert.Equal(t, "securestring", parsed.Outputs["key"].Type)
}

func TestDOT_NodesAndEdges(t *testing.T) {
	dot, err := DOT(exportGraph())
	require.NoError(t, err)

	assert.Contains(t, dot, "digraph inventory {")
	assert.Contains(t, dot, `"Microsoft.Storage/storageAccounts.acct";`)
	assert.Contains(t, dot, `"Microsoft.Web/sites.app" -> "Microsoft.Storage/storageAccounts.acct";`)
}
