package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

func testNode(typ, symbol string, deps ...string) *ir.Node {
	return &ir.Node{
		Address:    typ + "." + symbol,
		Symbol:     symbol,
		Type:       typ,
		DependsOn:  deps,
		Properties: map[string]any{},
	}
}

func indexOf(order []string, addr string) int {
	for i, a := range order {
		if a == addr {
			return i
		}
	}
	return -1
}

func TestBuildDAG_ExplicitDependsOn(t *testing.T) {
	nodes := []*ir.Node{
		testNode("t", "a", "t.b"),
		testNode("t", "b"),
		testNode("t", "c", "t.a"),
	}

	dag, err := BuildDAG(nodes)
	require.NoError(t, err)

	order := dag.CreationOrder()
	require.Len(t, order, 3)
	assert.Less(t, indexOf(order, "t.b"), indexOf(order, "t.a"))
	assert.Less(t, indexOf(order, "t.a"), indexOf(order, "t.c"))
}

func TestBuildDAG_ImplicitPropertyRef(t *testing.T) {
	site := testNode("Microsoft.Web/sites", "functionApp")
	site.Properties["serverFarmId"] = "ref://resource/plan/id"
	plan := testNode("Microsoft.Web/serverfarms", "plan")

	dag, err := BuildDAG([]*ir.Node{site, plan})
	require.NoError(t, err)

	order := dag.CreationOrder()
	assert.Less(t, indexOf(order, "Microsoft.Web/serverfarms.plan"), indexOf(order, "Microsoft.Web/sites.functionApp"))
	assert.Equal(t, []string{"Microsoft.Web/serverfarms.plan"}, dag.Dependencies("Microsoft.Web/sites.functionApp"))
}

func TestBuildDAG_DeterministicTieBreak(t *testing.T) {
	nodes := []*ir.Node{
		testNode("t", "c"),
		testNode("t", "a"),
		testNode("t", "b"),
	}

	for i := 0; i < 5; i++ {
		dag, err := BuildDAG(nodes)
		require.NoError(t, err)
		assert.Equal(t, []string{"t.c", "t.a", "t.b"}, dag.CreationOrder())
	}
}

func TestBuildDAG_CycleDetection(t *testing.T) {
	a := testNode("t", "a")
	a.Properties["ref"] = "ref://resource/b/id"
	b := testNode("t", "b")
	b.Properties["ref"] = "ref://resource/a/id"

	_, err := BuildDAG([]*ir.Node{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestBuildDAG_SelfRefIgnored(t *testing.T) {
	a := testNode("t", "a")
	a.Properties["self"] = "ref://resource/a/id"

	dag, err := BuildDAG([]*ir.Node{a})
	require.NoError(t, err)
	assert.Empty(t, dag.Dependencies("t.a"))
}
