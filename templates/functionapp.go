package templates

import (
	"github.com/madebygps/functions-cosmos-inventory/internal/catalog"
	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

// blobDataOwnerRole is the built-in role granted to the app identity on
// its storage account.
const blobDataOwnerRole = "Storage Blob Data Owner"

// FunctionApp defines a Linux function app with a system-assigned
// identity. The storage account it binds to is deployed elsewhere and
// referenced as an existing resource; a data-plane role assignment on
// that account is created unless skipRoleAssignment is set. When a Log
// Analytics workspace id is supplied, a diagnostic settings binding is
// attached to the app.
func FunctionApp(cat *catalog.Catalog) *ir.Template {
	roleID := cat.RoleDefinitions[blobDataOwnerRole]
	python := cat.Runtimes["python"]

	return &ir.Template{
		Name: "functionapp",
		Parameters: map[string]*ir.Parameter{
			"functionAppName": {
				Type:     ir.TypeString,
				Required: true,
			},
			"location": {
				Type:     ir.TypeString,
				Required: true,
			},
			"storageAccountName": {
				Type:        ir.TypeString,
				Required:    true,
				Description: "Existing storage account backing the function app.",
			},
			"hostingPlanId": {
				Type:     ir.TypeString,
				Required: true,
			},
			"runtime": {
				Type:    ir.TypeString,
				Default: "python",
				Allowed: anySlice(cat.RuntimeNames()),
			},
			"linuxFxVersion": {
				Type:        ir.TypeString,
				Default:     python.LinuxFxVersion,
				Description: "Runtime stack for siteConfig, e.g. Python|3.11.",
			},
			"appSettings": {
				Type:        ir.TypeObject,
				Default:     map[string]any{},
				Description: "Extra app settings merged over the defaults; caller keys win.",
			},
			"skipRoleAssignment": {
				Type:        ir.TypeBool,
				Default:     false,
				Description: "Skip granting the app identity blob access, for subscriptions where role assignment is managed out of band.",
			},
			"workspaceId": {
				Type:        ir.TypeString,
				Default:     "",
				Description: "Log Analytics workspace for diagnostics; empty disables the binding.",
			},
			"tags": {
				Type:    ir.TypeObject,
				Default: map[string]any{},
			},
		},
		Resources: []*ir.Resource{
			{
				Type:     "Microsoft.Storage/storageAccounts",
				Name:     "storage",
				Existing: true,
				Properties: map[string]any{
					"name": "${param.storageAccountName}",
				},
			},
			{
				Type: "Microsoft.Web/sites",
				Name: "functionApp",
				Properties: map[string]any{
					"name":         "${param.functionAppName}",
					"location":     "${param.location}",
					"kind":         "functionapp,linux",
					"identity":     map[string]any{"type": "SystemAssigned"},
					"serverFarmId": "ref://param/hostingPlanId",
					"httpsOnly":    true,
					"siteConfig": map[string]any{
						"linuxFxVersion": "ref://param/linuxFxVersion",
					},
					"appSettings": map[string]any{
						"$merge": []any{
							map[string]any{
								"FUNCTIONS_EXTENSION_VERSION":         "~4",
								"FUNCTIONS_WORKER_RUNTIME":            "${param.runtime}",
								"AzureWebJobsStorage__accountName":    "${param.storageAccountName}",
								"AzureWebJobsStorage__blobServiceUri": "https://${param.storageAccountName}.blob.core.windows.net",
								"WEBSITE_RUN_FROM_PACKAGE":            "1",
							},
							"ref://param/appSettings",
						},
					},
					"tags": "ref://param/tags",
				},
			},
			{
				Type:      "Microsoft.Authorization/roleAssignments",
				Name:      "blobDataOwner",
				Condition: "!skipRoleAssignment",
				Scope:     "storage",
				Properties: map[string]any{
					"roleDefinitionId": "/providers/Microsoft.Authorization/roleDefinitions/" + roleID,
					"principalId":      "ref://resource/functionApp/principalId",
					"principalType":    "ServicePrincipal",
				},
			},
			{
				Type:      "Microsoft.Insights/diagnosticSettings",
				Name:      "diagnostics",
				Condition: "notEmpty(workspaceId)",
				Scope:     "functionApp",
				Properties: map[string]any{
					"name":        "${param.functionAppName}-diagnostics",
					"workspaceId": "ref://param/workspaceId",
					"logs": []any{
						map[string]any{"categoryGroup": "allLogs", "enabled": true},
					},
					"metrics": []any{
						map[string]any{"category": "AllMetrics", "enabled": true},
					},
				},
			},
		},
		Outputs: map[string]*ir.Output{
			"functionAppName": {Value: "${param.functionAppName}"},
			"principalId": {
				Value:       "ref://resource/functionApp/principalId",
				Description: "Object id of the system-assigned identity.",
			},
			"defaultHostName": {Value: "ref://resource/functionApp/defaultHostName"},
		},
	}
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
