package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

type mapSource map[string]*ir.Template

func (s mapSource) Lookup(name string) (*ir.Template, bool) {
	t, ok := s[name]
	return t, ok
}

func TestResolve_SimpleGraph(t *testing.T) {
	tmpl := &ir.Template{
		Name: "simple",
		Parameters: map[string]*ir.Parameter{
			"accountName": {Type: ir.TypeString, Required: true},
		},
		Resources: []*ir.Resource{
			{
				Type: "Microsoft.Storage/storageAccounts",
				Name: "acct",
				Properties: map[string]any{
					"name": "${param.accountName}",
				},
			},
		},
		Outputs: map[string]*ir.Output{
			"accountName": {Value: "ref://resource/acct/name"},
			"endpoint":    {Value: "ref://resource/acct/primaryBlobEndpoint"},
		},
	}

	g, err := New(mapSource{}).Resolve(tmpl, map[string]any{"accountName": "invst"})
	require.NoError(t, err)

	require.Len(t, g.Nodes, 1)
	n := g.Nodes[0]
	assert.Equal(t, "Microsoft.Storage/storageAccounts.acct", n.Address)
	assert.Equal(t, "invst", n.Properties["name"])

	// Statically known attributes bind at resolution time; apply-time
	// attributes keep their placeholder.
	assert.Equal(t, "invst", g.Outputs["accountName"].Value)
	assert.Equal(t, "ref://resource/acct/primaryBlobEndpoint", g.Outputs["endpoint"].Value)
}

func TestResolve_ConditionExcludesResource(t *testing.T) {
	tmpl := &ir.Template{
		Name: "cond",
		Parameters: map[string]*ir.Parameter{
			"skipRoleAssignment": {Type: ir.TypeBool, Default: false},
		},
		Resources: []*ir.Resource{
			{Type: "Microsoft.Web/sites", Name: "app", Properties: map[string]any{"name": "app"}},
			{
				Type:      "Microsoft.Authorization/roleAssignments",
				Name:      "role",
				Condition: "!skipRoleAssignment",
				Properties: map[string]any{
					"principalId": "ref://resource/app/principalId",
				},
			},
		},
	}

	g, err := New(mapSource{}).Resolve(tmpl, map[string]any{"skipRoleAssignment": true})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "app", g.Nodes[0].Symbol)

	g, err = New(mapSource{}).Resolve(tmpl, map[string]any{})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
}

func TestResolve_DanglingReferenceToExcluded(t *testing.T) {
	tmpl := &ir.Template{
		Name: "dangling",
		Parameters: map[string]*ir.Parameter{
			"enabled": {Type: ir.TypeBool, Default: false},
		},
		Resources: []*ir.Resource{
			{
				Type:      "Microsoft.Insights/components",
				Name:      "appInsights",
				Condition: "enabled",
				Properties: map[string]any{
					"name": "appi",
				},
			},
			{
				Type: "Microsoft.Web/sites",
				Name: "app",
				Properties: map[string]any{
					"name":               "app",
					"instrumentationKey": "ref://resource/appInsights/instrumentationKey",
				},
			},
		},
	}

	_, err := New(mapSource{}).Resolve(tmpl, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling reference")
	assert.Contains(t, err.Error(), "excluded by its condition")
}

func TestResolve_UndeclaredReference(t *testing.T) {
	tmpl := &ir.Template{
		Name: "undeclared",
		Resources: []*ir.Resource{
			{
				Type: "Microsoft.Web/sites",
				Name: "app",
				Properties: map[string]any{
					"name":   "app",
					"planId": "ref://resource/plan/id",
				},
			},
		},
	}

	_, err := New(mapSource{}).Resolve(tmpl, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undeclared resource "plan"`)
}

func TestResolve_DuplicateName(t *testing.T) {
	tmpl := &ir.Template{
		Name: "dup",
		Resources: []*ir.Resource{
			{Type: "a", Name: "thing", Properties: map[string]any{"name": "x"}},
			{Type: "b", Name: "thing", Properties: map[string]any{"name": "y"}},
		},
	}

	_, err := New(mapSource{}).Resolve(tmpl, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate resource name "thing"`)
}

func TestResolve_CircularDependency(t *testing.T) {
	tmpl := &ir.Template{
		Name: "cycle",
		Resources: []*ir.Resource{
			{Type: "t", Name: "a", DependsOn: []string{"b"}, Properties: map[string]any{"name": "a"}},
			{Type: "t", Name: "b", DependsOn: []string{"a"}, Properties: map[string]any{"name": "b"}},
		},
	}

	_, err := New(mapSource{}).Resolve(tmpl, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func storageLikeTemplate() *ir.Template {
	return &ir.Template{
		Name: "stor",
		Parameters: map[string]*ir.Parameter{
			"accountName": {Type: ir.TypeString, Required: true},
			"containers":  {Type: ir.TypeArray, Default: []any{}},
		},
		Resources: []*ir.Resource{
			{
				Type:       "Microsoft.Storage/storageAccounts",
				Name:       "acct",
				Properties: map[string]any{"name": "${param.accountName}"},
			},
			{
				Type:       "Microsoft.Storage/storageAccounts/blobServices",
				Name:       "blobServices",
				Parent:     "acct",
				Condition:  "notEmpty(containers)",
				Properties: map[string]any{"name": "default"},
			},
			{
				Type:    "Microsoft.Storage/storageAccounts/blobServices/containers",
				Name:    "container",
				Parent:  "blobServices",
				ForEach: "containers",
				Properties: map[string]any{
					"name":         "${each.name}",
					"publicAccess": "ref://each/publicAccess?None",
				},
			},
		},
		Outputs: map[string]*ir.Output{
			"accountName": {Value: "ref://resource/acct/name"},
			"endpoint":    {Value: "ref://resource/acct/primaryBlobEndpoint"},
		},
	}
}

func TestResolve_FanOutAndParents(t *testing.T) {
	g, err := New(mapSource{}).Resolve(storageLikeTemplate(), map[string]any{
		"accountName": "invst",
		"containers": []any{
			map[string]any{"name": "raw"},
			map[string]any{"name": "processed", "publicAccess": "Blob"},
		},
	})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 4)

	// Account first, blob service next, containers in declaration order.
	assert.Equal(t, "acct", g.Nodes[0].Symbol)
	assert.Equal(t, "blobServices", g.Nodes[1].Symbol)
	assert.Equal(t, `container["raw"]`, g.Nodes[2].Symbol)
	assert.Equal(t, `container["processed"]`, g.Nodes[3].Symbol)

	raw := g.Node(`container["raw"]`)
	require.NotNil(t, raw)
	assert.Equal(t, g.Node("blobServices").Address, raw.Parent)
	assert.Contains(t, raw.DependsOn, g.Node("blobServices").Address)
	assert.Equal(t, "None", raw.Properties["publicAccess"])
	assert.Equal(t, "Blob", g.Node(`container["processed"]`).Properties["publicAccess"])
}

func TestResolve_EmptyCollectionSuppressesParent(t *testing.T) {
	g, err := New(mapSource{}).Resolve(storageLikeTemplate(), map[string]any{
		"accountName": "invst",
	})
	require.NoError(t, err)

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "acct", g.Nodes[0].Symbol)
	assert.Empty(t, g.NodesOfType("Microsoft.Storage/storageAccounts/blobServices"))
}

func TestResolve_ModuleOutputThreading(t *testing.T) {
	consumer := &ir.Template{
		Name: "appt",
		Parameters: map[string]*ir.Parameter{
			"storageName": {Type: ir.TypeString, Required: true},
			"endpoint":    {Type: ir.TypeString, Required: true},
		},
		Resources: []*ir.Resource{
			{
				Type: "Microsoft.Web/sites",
				Name: "app",
				Properties: map[string]any{
					"name":     "app",
					"account":  "${param.storageName}",
					"endpoint": "ref://param/endpoint",
				},
			},
		},
	}

	parent := &ir.Template{
		Name: "parent",
		Modules: []*ir.Module{
			{
				Name:     "s",
				Template: "stor",
				Parameters: map[string]any{
					"accountName": "demo",
				},
			},
			{
				Name:     "f",
				Template: "appt",
				Parameters: map[string]any{
					"storageName": "ref://module/s/accountName",
					"endpoint":    "ref://module/s/endpoint",
				},
			},
		},
		Outputs: map[string]*ir.Output{
			"storageName": {Value: "ref://module/s/accountName"},
		},
	}

	source := mapSource{"stor": storageLikeTemplate(), "appt": consumer}
	g, err := New(source).Resolve(parent, nil)
	require.NoError(t, err)

	app := g.Node("f.app")
	require.NotNil(t, app)
	assert.Equal(t, "demo", app.Properties["account"])
	assert.Equal(t, "ref://resource/s.acct/primaryBlobEndpoint", app.Properties["endpoint"])

	// The placeholder creates an ordering edge across the module boundary.
	acct := g.Node("s.acct")
	require.NotNil(t, acct)
	assert.Less(t, nodeIndex(g, "s.acct"), nodeIndex(g, "f.app"))

	assert.Equal(t, "demo", g.Outputs["storageName"].Value)
}

func nodeIndex(g *ir.Graph, symbol string) int {
	for i, n := range g.Nodes {
		if n.Symbol == symbol {
			return i
		}
	}
	return -1
}

func TestResolve_ModuleRefToExcludedModule(t *testing.T) {
	parent := &ir.Template{
		Name: "parent",
		Parameters: map[string]*ir.Parameter{
			"monitoring": {Type: ir.TypeBool, Default: false},
		},
		Modules: []*ir.Module{
			{
				Name:      "mon",
				Template:  "stor",
				Condition: "monitoring",
				Parameters: map[string]any{
					"accountName": "logs",
				},
			},
			{
				Name:     "f",
				Template: "stor",
				Parameters: map[string]any{
					"accountName": "ref://module/mon/accountName",
				},
			},
		},
	}

	_, err := New(mapSource{"stor": storageLikeTemplate()}).Resolve(parent, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module "mon" is excluded by its condition`)
}

func TestResolve_ModuleRefUnknownOutput(t *testing.T) {
	parent := &ir.Template{
		Name: "parent",
		Modules: []*ir.Module{
			{Name: "s", Template: "stor", Parameters: map[string]any{"accountName": "demo"}},
			{Name: "f", Template: "stor", Parameters: map[string]any{"accountName": "ref://module/s/nope"}},
		},
	}

	_, err := New(mapSource{"stor": storageLikeTemplate()}).Resolve(parent, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `has no output "nope"`)
}

func TestResolve_UnknownModuleTemplate(t *testing.T) {
	parent := &ir.Template{
		Name: "parent",
		Modules: []*ir.Module{
			{Name: "s", Template: "missing"},
		},
	}

	_, err := New(mapSource{}).Resolve(parent, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown template "missing"`)
}

func TestResolve_ModuleCycle(t *testing.T) {
	parent := &ir.Template{
		Name: "parent",
		Modules: []*ir.Module{
			{Name: "a", Template: "stor", DependsOn: []string{"b"}, Parameters: map[string]any{"accountName": "a"}},
			{Name: "b", Template: "stor", DependsOn: []string{"a"}, Parameters: map[string]any{"accountName": "b"}},
		},
	}

	_, err := New(mapSource{"stor": storageLikeTemplate()}).Resolve(parent, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency involving module")
}

func TestResolve_ModuleDependsOnResource(t *testing.T) {
	parent := &ir.Template{
		Name: "parent",
		Resources: []*ir.Resource{
			{Type: "Microsoft.Resources/resourceGroups", Name: "rg", Properties: map[string]any{"name": "rg"}},
		},
		Modules: []*ir.Module{
			{
				Name:       "s",
				Template:   "stor",
				DependsOn:  []string{"rg"},
				Parameters: map[string]any{"accountName": "demo"},
			},
		},
	}

	g, err := New(mapSource{"stor": storageLikeTemplate()}).Resolve(parent, nil)
	require.NoError(t, err)

	rg := g.Node("rg")
	acct := g.Node("s.acct")
	require.NotNil(t, rg)
	require.NotNil(t, acct)
	assert.Contains(t, acct.DependsOn, rg.Address)
	assert.Less(t, nodeIndex(g, "rg"), nodeIndex(g, "s.acct"))
}

func TestResolve_ExistingResource(t *testing.T) {
	tmpl := &ir.Template{
		Name: "existing",
		Parameters: map[string]*ir.Parameter{
			"storageAccountName": {Type: ir.TypeString, Required: true},
		},
		Resources: []*ir.Resource{
			{
				Type:       "Microsoft.Storage/storageAccounts",
				Name:       "storage",
				Existing:   true,
				Properties: map[string]any{"name": "${param.storageAccountName}"},
			},
			{
				Type:       "Microsoft.Web/sites",
				Name:       "app",
				Properties: map[string]any{"name": "app"},
			},
			{
				Type:  "Microsoft.Authorization/roleAssignments",
				Name:  "role",
				Scope: "storage",
				Properties: map[string]any{
					"principalId": "ref://resource/app/principalId",
					"account":     "ref://resource/storage/name",
				},
			},
		},
	}

	g, err := New(mapSource{}).Resolve(tmpl, map[string]any{"storageAccountName": "shared"})
	require.NoError(t, err)

	// The existing declaration emits no node.
	require.Len(t, g.Nodes, 2)
	assert.Nil(t, g.Node("storage"))

	role := g.Node("role")
	require.NotNil(t, role)
	assert.Equal(t, "shared", role.Scope)
	assert.Equal(t, "shared", role.Properties["account"])
	assert.Equal(t, "ref://resource/app/principalId", role.Properties["principalId"])
	assert.NotContains(t, role.DependsOn, "Microsoft.Storage/storageAccounts.storage")
}

func TestResolve_ExistingResourceMissingAttribute(t *testing.T) {
	tmpl := &ir.Template{
		Name: "existing",
		Resources: []*ir.Resource{
			{
				Type:       "Microsoft.Storage/storageAccounts",
				Name:       "storage",
				Existing:   true,
				Properties: map[string]any{"name": "shared"},
			},
			{
				Type:       "t",
				Name:       "user",
				Properties: map[string]any{"name": "u", "target": "ref://resource/storage/id"},
			},
		},
	}

	_, err := New(mapSource{}).Resolve(tmpl, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `attribute "id"`)
	assert.Contains(t, err.Error(), "not set")
}

func TestResolve_SecureParameterRedaction(t *testing.T) {
	tmpl := &ir.Template{
		Name: "secure",
		Parameters: map[string]*ir.Parameter{
			"apiKey": {Type: ir.TypeString, Required: true, Secure: true},
		},
		Resources: []*ir.Resource{
			{
				Type: "t",
				Name: "app",
				Properties: map[string]any{
					"name":   "app",
					"apiKey": "${param.apiKey}",
				},
			},
		},
		Outputs: map[string]*ir.Output{
			"apiKey": {Value: "ref://param/apiKey", Secure: true},
		},
	}

	r := New(mapSource{})
	g, err := r.Resolve(tmpl, map[string]any{"apiKey": "hunter2"})
	require.NoError(t, err)

	// The raw value flows into the graph untouched.
	assert.Equal(t, "hunter2", g.Nodes[0].Properties["apiKey"])
	assert.True(t, g.Outputs["apiKey"].Secure)

	// Diagnostic rendering masks it.
	masked := r.Redactor().Mask(g.Nodes[0].Properties).(map[string]any)
	assert.Equal(t, RedactedPlaceholder, masked["apiKey"])
}

func TestResolve_MergeCallerWins(t *testing.T) {
	tmpl := &ir.Template{
		Name: "merge",
		Parameters: map[string]*ir.Parameter{
			"appSettings": {Type: ir.TypeObject, Default: map[string]any{}},
		},
		Resources: []*ir.Resource{
			{
				Type: "Microsoft.Web/sites",
				Name: "app",
				Properties: map[string]any{
					"name": "app",
					"appSettings": map[string]any{
						"$merge": []any{
							map[string]any{
								"FUNCTIONS_EXTENSION_VERSION": "~4",
								"FUNCTIONS_WORKER_RUNTIME":    "python",
							},
							"ref://param/appSettings",
						},
					},
				},
			},
		},
	}

	g, err := New(mapSource{}).Resolve(tmpl, map[string]any{
		"appSettings": map[string]any{
			"FUNCTIONS_WORKER_RUNTIME": "node",
			"CUSTOM_SETTING":           "on",
		},
	})
	require.NoError(t, err)

	settings := g.Nodes[0].Properties["appSettings"].(map[string]any)
	assert.Equal(t, "~4", settings["FUNCTIONS_EXTENSION_VERSION"])
	assert.Equal(t, "node", settings["FUNCTIONS_WORKER_RUNTIME"])
	assert.Equal(t, "on", settings["CUSTOM_SETTING"])
}
