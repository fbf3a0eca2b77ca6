package layout

import (
	"math"

	"github.com/matzehuels/diagramkit/pkg/dag"
)

// separate pushes nodes along the rank until no cluster box overlaps a
// sibling: neither a sibling cluster nor a node on one of the ranks the
// cluster spans. The items of every nesting level are put in one
// left-to-right order that agrees with each rank; a node then keeps at
// least the row gap to every node that order puts before it on an
// overlapping item, and to its left neighbour in the rank. Nodes only
// move right.
func separate(g *dag.DAG, rows [][]string, xs map[string]float64, gap gapFunc) map[string]float64 {
	n := newNesting(g, rows, xs)
	seq := n.sequence("", 0)

	pos := make(map[string]int, len(seq))
	for i, id := range seq {
		pos[id] = i
	}
	left := make(map[string]string)
	for _, row := range rows {
		for i := 1; i < len(row); i++ {
			left[row[i]] = row[i-1]
		}
	}

	out := make(map[string]float64, len(xs))
	for j, id := range seq {
		x := xs[id]
		if l, ok := left[id]; ok && pos[l] < j {
			x = math.Max(x, out[l]+gap(l, id))
		}
		for _, prev := range seq[:j] {
			if n.row[prev] != n.row[id] && n.overlap(prev, id) {
				x = math.Max(x, out[prev]+gap(prev, id))
			}
		}
		out[id] = x
	}
	return out
}

// nesting is the cluster tree of one component with the rank span of
// every cluster.
type nesting struct {
	rows  [][]string
	xs    map[string]float64
	paths map[string][]string // node -> enclosing clusters, outermost first
	row   map[string]int
	first map[string]int // cluster -> first rank
	last  map[string]int // cluster -> last rank
	seen  map[string]int // node or cluster -> first appearance
}

func newNesting(g *dag.DAG, rows [][]string, xs map[string]float64) *nesting {
	n := &nesting{
		rows:  rows,
		xs:    xs,
		paths: make(map[string][]string),
		row:   make(map[string]int),
		first: make(map[string]int),
		last:  make(map[string]int),
		seen:  make(map[string]int),
	}
	for r, ids := range rows {
		for _, id := range ids {
			node, _ := g.Node(id)
			path := g.ClusterPath(node.Cluster)
			n.paths[id] = path
			n.row[id] = r
			n.note(id)
			for _, c := range path {
				n.note(c)
				if f, ok := n.first[c]; !ok || r < f {
					n.first[c] = r
				}
				if l, ok := n.last[c]; !ok || r > l {
					n.last[c] = r
				}
			}
		}
	}
	return n
}

func (n *nesting) note(key string) {
	if _, ok := n.seen[key]; !ok {
		n.seen[key] = len(n.seen)
	}
}

// level is one item at some nesting depth: a cluster or a single node.
type level struct {
	key     string
	cluster bool
}

// itemAt returns the item that holds node at the given depth.
func (n *nesting) itemAt(node string, depth int) level {
	path := n.paths[node]
	if len(path) <= depth {
		return level{key: node}
	}
	return level{key: path[depth], cluster: true}
}

// within reports whether node lies in cluster, the root being "".
func (n *nesting) within(node, cluster string, depth int) bool {
	if cluster == "" {
		return true
	}
	path := n.paths[node]
	return len(path) >= depth && path[depth-1] == cluster
}

// sequence returns the nodes inside cluster, which sits at depth, in
// the order of its items, recursively.
func (n *nesting) sequence(cluster string, depth int) []string {
	var items []level
	mean := make(map[level]float64)
	count := make(map[level]int)
	after := make(map[level][]level)
	indeg := make(map[level]int)
	edge := make(map[[2]level]bool)

	for _, row := range n.rows {
		var prev level
		for _, id := range row {
			if !n.within(id, cluster, depth) {
				continue
			}
			it := n.itemAt(id, depth)
			if count[it] == 0 {
				items = append(items, it)
			}
			mean[it] += n.xs[id]
			count[it]++
			if prev.key != "" && prev != it && !edge[[2]level{prev, it}] {
				edge[[2]level{prev, it}] = true
				after[prev] = append(after[prev], it)
				indeg[it]++
			}
			prev = it
		}
	}
	for it := range mean {
		mean[it] /= float64(count[it])
	}

	// Kahn's algorithm, leftmost first. A cycle cannot come out of
	// aligned ranks; if one does, the leftmost waiting item is taken.
	done := make(map[level]bool, len(items))
	var out []string
	for range items {
		var pick level
		found, free := false, false
		for _, it := range items {
			if done[it] {
				continue
			}
			ready := indeg[it] == 0
			if !found || (ready && !free) || (ready == free && n.before(it, pick, mean)) {
				pick, found, free = it, true, ready
			}
		}
		done[pick] = true
		for _, next := range after[pick] {
			indeg[next]--
		}
		if pick.cluster {
			out = append(out, n.sequence(pick.key, depth+1)...)
		} else {
			out = append(out, pick.key)
		}
	}
	return out
}

// before orders items by mean position, then by first appearance.
func (n *nesting) before(a, b level, mean map[level]float64) bool {
	if mean[a] != mean[b] {
		return mean[a] < mean[b]
	}
	return n.seen[a.key] < n.seen[b.key]
}

// overlap reports whether a and b hold items of a common parent whose
// rank spans overlap, one of them being a cluster. Two plain nodes on
// different ranks never overlap.
func (n *nesting) overlap(a, b string) bool {
	pa, pb := n.paths[a], n.paths[b]
	depth := 0
	for depth < len(pa) && depth < len(pb) && pa[depth] == pb[depth] {
		depth++
	}
	ia, ib := n.itemAt(a, depth), n.itemAt(b, depth)
	if !ia.cluster && !ib.cluster {
		return false
	}
	fa, la := n.span(ia)
	fb, lb := n.span(ib)
	return fa <= lb && fb <= la
}

func (n *nesting) span(it level) (first, last int) {
	if !it.cluster {
		return n.row[it.key], n.row[it.key]
	}
	return n.first[it.key], n.last[it.key]
}
