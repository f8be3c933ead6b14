package resolve

import (
	"fmt"
	"sort"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

// DAG is the directed acyclic dependency graph over resolved nodes, used
// to compute a deterministic creation order.
type DAG struct {
	nodes map[string]*dagNode
	order []string // topological order (creation order)
}

type dagNode struct {
	addr     string
	edges    []string // addresses this node depends on
	revEdges []string // addresses that depend on this node
}

// BuildDAG constructs the dependency graph from resolved nodes. Edges come
// from DependsOn (which resolution has already populated from parents,
// scopes and ref://resource references) plus any references still embedded
// in properties.
func BuildDAG(nodes []*ir.Node) (*DAG, error) {
	dag := &DAG{nodes: make(map[string]*dagNode, len(nodes))}

	bySymbol := make(map[string]string, len(nodes))
	var insertion []string
	for _, n := range nodes {
		dag.nodes[n.Address] = &dagNode{addr: n.Address}
		bySymbol[n.Symbol] = n.Address
		insertion = append(insertion, n.Address)
	}

	for _, n := range nodes {
		node := dag.nodes[n.Address]
		seen := make(map[string]bool)
		for _, dep := range n.DependsOn {
			if _, ok := dag.nodes[dep]; ok && !seen[dep] {
				node.edges = append(node.edges, dep)
				seen[dep] = true
			}
		}
		for _, ref := range ResourceRefs(n.Properties) {
			if addr, ok := bySymbol[ref.Symbol]; ok && !seen[addr] && addr != n.Address {
				node.edges = append(node.edges, addr)
				seen[addr] = true
			}
		}
	}

	for addr, node := range dag.nodes {
		for _, dep := range node.edges {
			dag.nodes[dep].revEdges = append(dag.nodes[dep].revEdges, addr)
		}
	}

	order, err := dag.topoSort(insertion)
	if err != nil {
		return nil, err
	}
	dag.order = order

	return dag, nil
}

// CreationOrder returns addresses in dependency-respecting creation order.
func (d *DAG) CreationOrder() []string {
	return d.order
}

// Dependencies returns the direct dependencies of the given address.
func (d *DAG) Dependencies(addr string) []string {
	if node, ok := d.nodes[addr]; ok {
		return node.edges
	}
	return nil
}

// topoSort runs Kahn's algorithm. Ties are broken by declaration order so
// resolution output is stable across runs.
func (d *DAG) topoSort(insertion []string) ([]string, error) {
	position := make(map[string]int, len(insertion))
	for i, addr := range insertion {
		position[addr] = i
	}

	inDegree := make(map[string]int, len(d.nodes))
	for addr, node := range d.nodes {
		inDegree[addr] = len(node.edges)
	}

	var queue []string
	for _, addr := range insertion {
		if inDegree[addr] == 0 {
			queue = append(queue, addr)
		}
	}

	var sorted []string
	for len(queue) > 0 {
		addr := queue[0]
		queue = queue[1:]
		sorted = append(sorted, addr)

		ready := make([]string, 0, len(d.nodes[addr].revEdges))
		for _, dependent := range d.nodes[addr].revEdges {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Slice(ready, func(i, j int) bool {
			return position[ready[i]] < position[ready[j]]
		})
		queue = append(queue, ready...)
	}

	if len(sorted) != len(d.nodes) {
		var stuck []string
		for addr, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, addr)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("circular dependency detected among %v", stuck)
	}

	return sorted, nil
}
