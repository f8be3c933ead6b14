package templates

import "github.com/madebygps/functions-cosmos-inventory/internal/ir"

// HostingPlan defines the Linux serverfarm the function app runs on.
// The default Y1 sku is the consumption plan.
func HostingPlan() *ir.Template {
	return &ir.Template{
		Name: "hostingplan",
		Parameters: map[string]*ir.Parameter{
			"planName": {
				Type:     ir.TypeString,
				Required: true,
			},
			"location": {
				Type:     ir.TypeString,
				Required: true,
			},
			"sku": {
				Type:    ir.TypeString,
				Default: "Y1",
				Allowed: []any{"Y1", "EP1", "EP2", "EP3", "B1"},
			},
			"tags": {
				Type:    ir.TypeObject,
				Default: map[string]any{},
			},
		},
		Resources: []*ir.Resource{
			{
				Type: "Microsoft.Web/serverfarms",
				Name: "plan",
				Properties: map[string]any{
					"name":     "${param.planName}",
					"location": "${param.location}",
					"sku":      map[string]any{"name": "ref://param/sku"},
					"reserved": true,
					"tags":     "ref://param/tags",
				},
			},
		},
		Outputs: map[string]*ir.Output{
			"planId":   {Value: "ref://resource/plan/id"},
			"planName": {Value: "${param.planName}"},
		},
	}
}
