package templates

import "github.com/madebygps/functions-cosmos-inventory/internal/ir"

// Storage defines a StorageV2 account with an optional set of blob
// containers. The blob service child is only provisioned when at least
// one container is requested.
func Storage() *ir.Template {
	return &ir.Template{
		Name: "storage",
		Parameters: map[string]*ir.Parameter{
			"storageAccountName": {
				Type:        ir.TypeString,
				Required:    true,
				Description: "Globally unique storage account name.",
			},
			"location": {
				Type:     ir.TypeString,
				Required: true,
			},
			"sku": {
				Type:    ir.TypeString,
				Default: "Standard_LRS",
				Allowed: []any{"Standard_LRS", "Standard_GRS", "Standard_ZRS", "Premium_LRS"},
			},
			"accessTier": {
				Type:    ir.TypeString,
				Default: "Hot",
				Allowed: []any{"Hot", "Cool"},
			},
			"allowBlobPublicAccess": {
				Type:    ir.TypeBool,
				Default: false,
			},
			"containers": {
				Type:        ir.TypeArray,
				Default:     []any{},
				Description: "Blob containers to create, each with a name and optional publicAccess.",
			},
			"tags": {
				Type:    ir.TypeObject,
				Default: map[string]any{},
			},
		},
		Resources: []*ir.Resource{
			{
				Type: "Microsoft.Storage/storageAccounts",
				Name: "storageAccount",
				Properties: map[string]any{
					"name":                     "${param.storageAccountName}",
					"location":                 "${param.location}",
					"kind":                     "StorageV2",
					"sku":                      map[string]any{"name": "ref://param/sku"},
					"accessTier":               "ref://param/accessTier",
					"allowBlobPublicAccess":    "ref://param/allowBlobPublicAccess",
					"minimumTlsVersion":        "TLS1_2",
					"supportsHttpsTrafficOnly": true,
					"tags": map[string]any{
						"$merge": []any{
							map[string]any{"managedBy": "inventoryctl"},
							"ref://param/tags",
						},
					},
				},
			},
			{
				Type:      "Microsoft.Storage/storageAccounts/blobServices",
				Name:      "blobServices",
				Parent:    "storageAccount",
				Condition: "notEmpty(containers)",
				Properties: map[string]any{
					"name": "default",
				},
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
			"storageAccountName": {Value: "${param.storageAccountName}"},
			"storageAccountId":   {Value: "ref://resource/storageAccount/id"},
			"primaryBlobEndpoint": {
				Value:       "ref://resource/storageAccount/primaryBlobEndpoint",
				Description: "Primary blob service endpoint of the account.",
			},
		},
	}
}
