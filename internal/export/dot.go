package export

import (
	"fmt"
	"strings"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
	"github.com/madebygps/functions-cosmos-inventory/internal/resolve"
)

// DOT renders the dependency graph in Graphviz DOT format. Pipe the
// output to 'dot' to generate an image.
func DOT(g *ir.Graph) (string, error) {
	dag, err := resolve.BuildDAG(g.Nodes)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("digraph inventory {\n")
	b.WriteString("  rankdir = \"BT\";\n")
	b.WriteString("  node [shape = rect];\n\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %q;\n", n.Address)
	}
	b.WriteString("\n")

	for _, n := range g.Nodes {
		for _, dep := range dag.Dependencies(n.Address) {
			fmt.Fprintf(&b, "  %q -> %q;\n", n.Address, dep)
		}
	}

	b.WriteString("}\n")
	return b.String(), nil
}
