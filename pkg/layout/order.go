package layout

import (
	"slices"

	"github.com/matzehuels/diagramkit/pkg/dag"
)

// orderRows reduces crossings with alternating barycenter sweeps and a
// transpose pass, and returns the best ordering seen, one slice per rank.
// Members of a cluster stay contiguous throughout: rows are sorted by
// cluster barycenter first and by node barycenter within the cluster.
// Ties on crossings go to the ordering that cuts through fewer clusters.
// Finally sibling clusters are put in one order shared by every rank.
func orderRows(g *dag.DAG, iterations int) [][]string {
	if g.NodeCount() == 0 {
		return nil
	}
	rows := make([][]string, g.MaxRow()+1)
	for r := range rows {
		ids := dag.NodeIDs(g.NodesInRow(r))
		rows[r] = arrange(g, ids, indexScores(ids))
	}

	best := cloneRows(rows)
	bestCrossings := countRows(g, rows)
	for it := 0; it < iterations && bestCrossings.Total > 0; it++ {
		if it%2 == 0 {
			for r := 1; r < len(rows); r++ {
				rows[r] = arrange(g, rows[r], barycenters(rows[r], rows[r-1], g.Parents))
			}
		} else {
			for r := len(rows) - 2; r >= 0; r-- {
				rows[r] = arrange(g, rows[r], barycenters(rows[r], rows[r+1], g.Children))
			}
		}
		transpose(g, rows)

		if c := countRows(g, rows); c.Less(bestCrossings) {
			best, bestCrossings = cloneRows(rows), c
		}
	}

	best = alignClusters(g, best)
	for r, ids := range best {
		g.SetRowOrder(r, ids)
	}
	return best
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}

func countRows(g *dag.DAG, rows [][]string) dag.Crossings {
	return dag.Count(g, rowMap(rows))
}

func rowMap(rows [][]string) map[int][]string {
	orders := make(map[int][]string, len(rows))
	for r, ids := range rows {
		orders[r] = ids
	}
	return orders
}

// clusterOrder fixes the relative order of clusters: by score, then by
// insertion order.
type clusterOrder struct {
	score map[string]float64
	tie   map[string]int
}

// rank breaks score ties: nodes first, then clusters by insertion order.
func (o *clusterOrder) rank(cluster string) int {
	if cluster == "" {
		return -1
	}
	return o.tie[cluster]
}

// alignClusters re-sorts every rank so that two clusters appear in the
// same order on all ranks they share. A cluster is scored by the mean
// position of its members over all ranks; nodes keep their position.
func alignClusters(g *dag.DAG, rows [][]string) [][]string {
	sum, count := make(map[string]float64), make(map[string]int)
	for _, row := range rows {
		for i, id := range row {
			n, _ := g.Node(id)
			for _, c := range g.ClusterPath(n.Cluster) {
				sum[c] += float64(i)
				count[c]++
			}
		}
	}
	if len(count) == 0 {
		return rows
	}

	order := &clusterOrder{score: make(map[string]float64, len(count)), tie: make(map[string]int)}
	for c, n := range count {
		order.score[c] = sum[c] / float64(n)
	}
	for i, c := range g.Clusters() {
		order.tie[c.ID] = i
	}
	out := make([][]string, len(rows))
	for r, row := range rows {
		out[r] = arrangeFixed(g, row, indexScores(row), order)
	}
	return out
}

func indexScores(ids []string) map[string]float64 {
	m := make(map[string]float64, len(ids))
	for i, id := range ids {
		m[id] = float64(i)
	}
	return m
}

// barycenters scores each node by the mean position of its neighbours in
// the fixed row. Nodes without neighbours there keep their position.
func barycenters(row, fixed []string, neighbours func(string) []string) map[string]float64 {
	pos := dag.PosMap(fixed)
	m := make(map[string]float64, len(row))
	for i, id := range row {
		sum, n := 0.0, 0
		for _, nb := range neighbours(id) {
			if p, ok := pos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		if n == 0 {
			m[id] = float64(i)
			continue
		}
		m[id] = sum / float64(n)
	}
	return m
}

// arrange sorts a row by score while keeping every cluster contiguous.
func arrange(g *dag.DAG, ids []string, score map[string]float64) []string {
	return arrangeFixed(g, ids, score, nil)
}

// arrangeFixed is arrange with clusters placed by order instead of by the
// mean score of their members, when order is not nil.
func arrangeFixed(g *dag.DAG, ids []string, score map[string]float64, order *clusterOrder) []string {
	paths := make(map[string][]string, len(ids))
	for _, id := range ids {
		n, _ := g.Node(id)
		paths[id] = g.ClusterPath(n.Cluster)
	}
	return arrangeLevel(ids, 0, paths, score, order)
}

// arrangeLevel orders the members at one nesting depth. Nodes sitting
// directly at this depth are items of their own; deeper nodes form one
// item per cluster, scored by the mean of its members and arranged
// recursively. The sort is stable.
func arrangeLevel(ids []string, depth int, paths map[string][]string, score map[string]float64, order *clusterOrder) []string {
	type item struct {
		cluster string
		score   float64
		ids     []string
	}
	var items []*item
	byCluster := make(map[string]*item)
	for _, id := range ids {
		path := paths[id]
		if len(path) <= depth {
			items = append(items, &item{ids: []string{id}})
			continue
		}
		it, ok := byCluster[path[depth]]
		if !ok {
			it = &item{cluster: path[depth]}
			byCluster[path[depth]] = it
			items = append(items, it)
		}
		it.ids = append(it.ids, id)
	}

	for _, it := range items {
		if it.cluster == "" {
			it.score = score[it.ids[0]]
			continue
		}
		sum := 0.0
		for _, id := range it.ids {
			sum += score[id]
		}
		it.score = sum / float64(len(it.ids))
		if order != nil {
			if s, ok := order.score[it.cluster]; ok {
				it.score = s
			}
		}
		it.ids = arrangeLevel(it.ids, depth+1, paths, score, order)
	}

	slices.SortStableFunc(items, func(a, b *item) int {
		switch {
		case a.score < b.score:
			return -1
		case a.score > b.score:
			return 1
		case order != nil:
			return order.rank(a.cluster) - order.rank(b.cluster)
		}
		return 0
	})

	out := make([]string, 0, len(ids))
	for _, it := range items {
		out = append(out, it.ids...)
	}
	return out
}

// transpose swaps adjacent nodes of the same cluster while that lowers
// the crossings with both neighbouring rows.
func transpose(g *dag.DAG, rows [][]string) {
	for improved, pass := true, 0; improved && pass < 8; pass++ {
		improved = false
		for r, row := range rows {
			var above, below map[string]int
			if r > 0 {
				above = dag.PosMap(rows[r-1])
			}
			if r+1 < len(rows) {
				below = dag.PosMap(rows[r+1])
			}
			for i := 0; i+1 < len(row); i++ {
				a, _ := g.Node(row[i])
				b, _ := g.Node(row[i+1])
				if a.Cluster != b.Cluster {
					continue
				}
				keep := dag.CountPairCrossingsWithPos(g, a.ID, b.ID, above, true) +
					dag.CountPairCrossingsWithPos(g, a.ID, b.ID, below, false)
				swap := dag.CountPairCrossingsWithPos(g, b.ID, a.ID, above, true) +
					dag.CountPairCrossingsWithPos(g, b.ID, a.ID, below, false)
				if swap < keep {
					row[i], row[i+1] = row[i+1], row[i]
					improved = true
				}
			}
		}
	}
}
