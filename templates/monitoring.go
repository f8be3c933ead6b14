package templates

import "github.com/madebygps/functions-cosmos-inventory/internal/ir"

// Monitoring defines a Log Analytics workspace and a workspace-backed
// Application Insights component.
func Monitoring() *ir.Template {
	return &ir.Template{
		Name: "monitoring",
		Parameters: map[string]*ir.Parameter{
			"workspaceName": {
				Type:     ir.TypeString,
				Required: true,
			},
			"appInsightsName": {
				Type:     ir.TypeString,
				Required: true,
			},
			"location": {
				Type:     ir.TypeString,
				Required: true,
			},
			"retentionInDays": {
				Type:    ir.TypeInt,
				Default: 30,
			},
			"tags": {
				Type:    ir.TypeObject,
				Default: map[string]any{},
			},
		},
		Resources: []*ir.Resource{
			{
				Type: "Microsoft.OperationalInsights/workspaces",
				Name: "workspace",
				Properties: map[string]any{
					"name":            "${param.workspaceName}",
					"location":        "${param.location}",
					"sku":             map[string]any{"name": "PerGB2018"},
					"retentionInDays": "ref://param/retentionInDays",
					"tags":            "ref://param/tags",
				},
			},
			{
				Type: "Microsoft.Insights/components",
				Name: "appInsights",
				Properties: map[string]any{
					"name":                "${param.appInsightsName}",
					"location":            "${param.location}",
					"kind":                "web",
					"Application_Type":    "web",
					"WorkspaceResourceId": "ref://resource/workspace/id",
					"tags":                "ref://param/tags",
				},
			},
		},
		Outputs: map[string]*ir.Output{
			"workspaceId": {Value: "ref://resource/workspace/id"},
			"instrumentationKey": {
				Value:  "ref://resource/appInsights/instrumentationKey",
				Secure: true,
			},
			"connectionString": {
				Value:       "ref://resource/appInsights/connectionString",
				Secure:      true,
				Description: "Application Insights connection string for telemetry clients.",
			},
		},
	}
}
