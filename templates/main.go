package templates

import "github.com/madebygps/functions-cosmos-inventory/internal/ir"

// Main is the orchestrating template for the inventory workload. It
// deploys the resource group and threads the storage, monitoring and
// hosting-plan module outputs into the function app module.
func Main() *ir.Template {
	return &ir.Template{
		Name: "main",
		Parameters: map[string]*ir.Parameter{
			"namePrefix": {
				Type:        ir.TypeString,
				Default:     "inventory",
				Description: "Prefix applied to every resource name.",
			},
			"location": {
				Type:    ir.TypeString,
				Default: "eastus",
			},
			"runtime": {
				Type:    ir.TypeString,
				Default: "python",
			},
			"containers": {
				Type:    ir.TypeArray,
				Default: []any{},
			},
			"appSettings": {
				Type:    ir.TypeObject,
				Default: map[string]any{},
			},
			"skipRoleAssignment": {
				Type:    ir.TypeBool,
				Default: false,
			},
			"tags": {
				Type:    ir.TypeObject,
				Default: map[string]any{},
			},
		},
		Resources: []*ir.Resource{
			{
				Type: "Microsoft.Resources/resourceGroups",
				Name: "resourceGroup",
				Properties: map[string]any{
					"name":     "${param.namePrefix}-rg",
					"location": "${param.location}",
					"tags": map[string]any{
						"$merge": []any{
							map[string]any{"application": "functions-cosmos-inventory"},
							"ref://param/tags",
						},
					},
				},
			},
		},
		Modules: []*ir.Module{
			{
				Name:      "monitoring",
				Template:  "monitoring",
				DependsOn: []string{"resourceGroup"},
				Parameters: map[string]any{
					"workspaceName":   "${param.namePrefix}-logs",
					"appInsightsName": "${param.namePrefix}-appi",
					"location":        "ref://param/location",
					"tags":            "ref://param/tags",
				},
			},
			{
				Name:      "storage",
				Template:  "storage",
				DependsOn: []string{"resourceGroup"},
				Parameters: map[string]any{
					"storageAccountName": "${param.namePrefix}st",
					"location":           "ref://param/location",
					"containers":         "ref://param/containers",
					"tags":               "ref://param/tags",
				},
			},
			{
				Name:      "hostingPlan",
				Template:  "hostingplan",
				DependsOn: []string{"resourceGroup"},
				Parameters: map[string]any{
					"planName": "${param.namePrefix}-plan",
					"location": "ref://param/location",
					"tags":     "ref://param/tags",
				},
			},
			{
				Name:      "functionApp",
				Template:  "functionapp",
				DependsOn: []string{"resourceGroup", "storage"},
				Parameters: map[string]any{
					"functionAppName":    "${param.namePrefix}-func",
					"location":           "ref://param/location",
					"storageAccountName": "ref://module/storage/storageAccountName",
					"hostingPlanId":      "ref://module/hostingPlan/planId",
					"runtime":            "ref://param/runtime",
					"skipRoleAssignment": "ref://param/skipRoleAssignment",
					"workspaceId":        "ref://module/monitoring/workspaceId",
					"appSettings": map[string]any{
						"$merge": []any{
							map[string]any{
								"APPLICATIONINSIGHTS_CONNECTION_STRING": "ref://module/monitoring/connectionString",
								"APPINSIGHTS_INSTRUMENTATIONKEY":        "ref://module/monitoring/instrumentationKey",
							},
							"ref://param/appSettings",
						},
					},
					"tags": "ref://param/tags",
				},
			},
		},
		Outputs: map[string]*ir.Output{
			"resourceGroupName":   {Value: "${param.namePrefix}-rg"},
			"storageAccountName":  {Value: "ref://module/storage/storageAccountName"},
			"functionAppName":     {Value: "ref://module/functionApp/functionAppName"},
			"functionAppHostName": {Value: "ref://module/functionApp/defaultHostName"},
			"connectionString": {
				Value:  "ref://module/monitoring/connectionString",
				Secure: true,
			},
		},
	}
}
