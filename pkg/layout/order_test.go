package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/diagramkit/pkg/dag"
)

func crossings(g *dag.DAG, rows [][]string) int {
	return dag.CountCrossings(g, rowMap(rows))
}

func TestOrderRowsRemovesCrossing(t *testing.T) {
	g := dag.New()
	for _, n := range []dag.Node{{ID: "a"}, {ID: "b"}, {ID: "c", Row: 1}, {ID: "d", Row: 1}} {
		require.NoError(t, g.AddNode(n))
	}
	require.NoError(t, g.AddEdge(dag.Edge{From: "a", To: "d"}))
	require.NoError(t, g.AddEdge(dag.Edge{From: "b", To: "c"}))
	require.Equal(t, 1, crossings(g, [][]string{{"a", "b"}, {"c", "d"}}))

	rows := orderRows(g, DefaultIterations)
	assert.Equal(t, 0, crossings(g, rows))
	assert.Equal(t, rows[1], dag.NodeIDs(g.NodesInRow(1)))
}

func TestArrangeKeepsClustersContiguous(t *testing.T) {
	g := dag.New()
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "outer"}))
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "inner", Parent: "outer"}))
	nodes := []dag.Node{
		{ID: "o1", Cluster: "outer"},
		{ID: "free"},
		{ID: "i1", Cluster: "inner"},
		{ID: "o2", Cluster: "outer"},
		{ID: "i2", Cluster: "inner"},
	}
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}

	// free wants the middle of outer; it has to stay outside.
	score := map[string]float64{"o1": 0, "free": 2, "i1": 1, "o2": 4, "i2": 3}
	got := arrange(g, []string{"o1", "free", "i1", "o2", "i2"}, score)
	assert.Equal(t, []string{"o1", "i1", "i2", "o2", "free"}, got)
}

// interleaved returns two sibling clusters whose members alternate
// across four ranks.
func interleaved(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New()
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "c1"}))
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "c2"}))
	for i, id := range []string{"a", "b", "c", "d"} {
		cluster := "c1"
		if i%2 == 1 {
			cluster = "c2"
		}
		require.NoError(t, g.AddNode(dag.Node{ID: id, Row: i, Width: 100, Height: 40, Cluster: cluster}))
	}
	return g
}

func TestAlignClusters(t *testing.T) {
	g := dag.New()
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "c1"}))
	require.NoError(t, g.AddCluster(dag.Cluster{ID: "c2"}))
	for _, n := range []dag.Node{
		{ID: "a", Cluster: "c1"}, {ID: "x", Cluster: "c2"},
		{ID: "y", Row: 1, Cluster: "c2"}, {ID: "b", Row: 1, Cluster: "c1"}, {ID: "free", Row: 1},
	} {
		require.NoError(t, g.AddNode(n))
	}

	// Both clusters average position 0.5, so insertion order decides.
	got := alignClusters(g, [][]string{{"a", "x"}, {"y", "b", "free"}})
	assert.Equal(t, [][]string{{"a", "x"}, {"b", "y", "free"}}, got)
}

func TestSeparateInterleavedClusters(t *testing.T) {
	g := interleaved(t)
	opts := DefaultOptions()
	rows := [][]string{{"a"}, {"b"}, {"c"}, {"d"}}
	xs := map[string]float64{"a": 0, "b": 0, "c": 0, "d": 0}

	got := separate(g, rows, xs, gapBetween(g, opts))
	step := 100 + opts.NodeSep + 2*opts.ClusterPadding
	assert.Equal(t, map[string]float64{"a": 0, "b": step, "c": 0, "d": step}, got)
}

func TestSeparateKeepsPlainRanks(t *testing.T) {
	g := dag.New()
	for _, n := range []dag.Node{{ID: "a", Width: 100}, {ID: "b", Width: 100}, {ID: "c", Row: 1, Width: 100}} {
		require.NoError(t, g.AddNode(n))
	}
	rows := [][]string{{"a", "b"}, {"c"}}
	xs := map[string]float64{"a": 0, "b": 150, "c": 75}

	got := separate(g, rows, xs, gapBetween(g, DefaultOptions()))
	assert.Equal(t, xs, got)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name string
		want []float64
		gaps []float64
		out  []float64
	}{
		{"feasible", []float64{0, 50, 200}, []float64{10, 10}, []float64{0, 50, 200}},
		{"collapse", []float64{0, 0, 0}, []float64{10, 10}, []float64{-10, 0, 10}},
		{"partial", []float64{0, 5, 100}, []float64{20, 20}, []float64{-7.5, 12.5, 100}},
		{"empty", nil, nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fit(tt.want, tt.gaps)
			require.Len(t, got, len(tt.out))
			for i := range got {
				assert.InDelta(t, tt.out[i], got[i], 1e-9)
			}
		})
	}
}

func TestMedian(t *testing.T) {
	xs := map[string]float64{"a": 10, "b": 30, "c": 20, "d": 0}
	assert.Equal(t, 20.0, median(xs, []string{"a", "b", "c"}, -1))
	assert.Equal(t, 15.0, median(xs, []string{"a", "c", "d", "b"}, -1))
	assert.Equal(t, -1.0, median(xs, []string{"missing"}, -1))
}
