package ir

// Node is a single resolved resource in the output graph.
type Node struct {
	Address    string         `json:"address"` // type.symbol
	Symbol     string         `json:"symbol"`  // qualified declaration symbol, e.g. "storage.storageAccount"
	Type       string         `json:"type"`
	Module     string         `json:"module,omitempty"` // owning module, empty for root declarations
	Parent     string         `json:"parent,omitempty"` // address of the parent node
	Scope      string         `json:"scope,omitempty"`
	DependsOn  []string       `json:"dependsOn,omitempty"` // addresses this node must be applied after
	Properties map[string]any `json:"properties"`
}

// OutputValue is a resolved template output. Values referencing apply-time
// attributes keep their ref:// placeholder until the graph is applied.
type OutputValue struct {
	Value  any  `json:"value"`
	Secure bool `json:"secure,omitempty"`
}

// Graph is the result of resolving a template against a parameter record.
// Nodes are in topological (creation) order.
type Graph struct {
	Template string                  `json:"template"`
	Nodes    []*Node                 `json:"nodes"`
	Outputs  map[string]*OutputValue `json:"outputs"`
}

// Node returns the node with the given qualified symbol, or nil.
func (g *Graph) Node(symbol string) *Node {
	for _, n := range g.Nodes {
		if n.Symbol == symbol {
			return n
		}
	}
	return nil
}

// NodesOfType returns all nodes with the given resource type, in order.
func (g *Graph) NodesOfType(resourceType string) []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Type == resourceType {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
