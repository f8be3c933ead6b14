package ir

// Record is the persisted result of a deployment dispatch: the applied
// nodes with their provider-returned outputs, plus the template outputs.
type Record struct {
	Version      int                     `json:"version"`
	Serial       int                     `json:"serial"`
	Lineage      string                  `json:"lineage"`
	DeploymentID string                  `json:"deploymentId"`
	Timestamp    string                  `json:"timestamp"`
	Template     string                  `json:"template"`
	Resources    []*ResourceRecord       `json:"resources"`
	Outputs      map[string]*OutputValue `json:"outputs"`
}

// ResourceRecord captures one applied node.
type ResourceRecord struct {
	Address string         `json:"address"`
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Outputs map[string]any `json:"outputs"`
}
