package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/diagramkit/pkg/dag"
)

func TestSubdivide(t *testing.T) {
	g := dag.New()
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "outer"}))
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "left", Parent: "outer"}))
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "right", Parent: "outer"}))
	require.NoError(t, g.AddNode(dag.Node{ID: "api", Row: 0, Cluster: "left"}))
	require.NoError(t, g.AddNode(dag.Node{ID: "mid", Row: 1}))
	require.NoError(t, g.AddNode(dag.Node{ID: "db", Row: 3, Cluster: "right"}))
	require.NoError(t, g.AddEdge(dag.Edge{ID: "e1", From: "api", To: "db", Reversed: true}))
	require.NoError(t, g.AddEdge(dag.Edge{ID: "e2", From: "api", To: "mid"}))

	chains := Subdivide(g)

	assert.Equal(t, map[string][]string{"e1": {"e1~1", "e1~2"}}, chains)
	assert.Equal(t, 5, g.NodeCount())
	assert.Equal(t, 4, g.EdgeCount())
	require.NoError(t, g.Validate())

	for i, id := range chains["e1"] {
		n, ok := g.Node(id)
		require.True(t, ok)
		assert.True(t, n.IsVirtual())
		assert.Equal(t, "e1", n.EdgeID)
		assert.Equal(t, "outer", n.Cluster)
		assert.Equal(t, i+1, n.Row)
	}

	last, ok := g.Edge("e1")
	require.True(t, ok)
	assert.Equal(t, "e1~2", last.From)
	assert.Equal(t, "db", last.To)
	for _, e := range g.Edges() {
		if e.ID != "e2" {
			assert.True(t, e.Reversed, "edge %s lost Reversed", e.ID)
		}
	}
}

func TestSubdivideAvoidsIDCollisions(t *testing.T) {
	g := dag.New()
	require.NoError(t, g.AddNode(dag.Node{ID: "a", Row: 0}))
	require.NoError(t, g.AddNode(dag.Node{ID: "e~1", Row: 5}))
	require.NoError(t, g.AddNode(dag.Node{ID: "b", Row: 2}))
	require.NoError(t, g.AddEdge(dag.Edge{ID: "e", From: "a", To: "b"}))

	chains := Subdivide(g)
	assert.Equal(t, []string{"e~1__1"}, chains["e"])
}

func TestNormalize(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "lone"}, [][3]string{
		{"e1", "a", "b"}, {"e2", "b", "c"}, {"e3", "a", "c"}, {"e4", "c", "a"},
	})
	res := Normalize(g, 0)

	assert.Equal(t, 1, res.Reversed)
	assert.Equal(t, map[string][]string{"e3": {"e3~1"}, "e4": {"e4~1"}}, res.Chains)
	assert.Equal(t, 3, g.RowCount())
	require.NoError(t, g.Validate())
}
