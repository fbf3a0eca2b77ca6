package dag

import (
	"maps"
	"slices"
)

// Crossings is the crossing count of an ordering, broken down by the
// segments involved.
type Crossings struct {
	// Total counts every pair of crossing segments between adjacent rows.
	// Parallel edges count once per edge.
	Total int

	// Cluster counts crossings where a segment running inside a cluster
	// meets one that does not belong to that cluster. Each of them cuts
	// through the cluster's box.
	Cluster int

	// Virtual counts crossings where both segments belong to long edges,
	// that is touch a virtual node.
	Virtual int
}

// Less orders crossing counts by total, then by cluster crossings.
func (c Crossings) Less(o Crossings) bool {
	if c.Total != o.Total {
		return c.Total < o.Total
	}
	return c.Cluster < o.Cluster
}

// segment is an edge between two adjacent rows, by position.
type segment struct {
	up, down int
	cluster  string // innermost cluster holding both endpoints
	long     bool
}

// layerSegments returns the edges from upper to lower sorted by upper
// position, then lower position.
func layerSegments(g *DAG, upper, lower []string, detail bool) []segment {
	lowerPos := PosMap(lower)
	segs := make([]segment, 0, len(upper)*2)
	for i, id := range upper {
		for _, child := range g.Children(id) {
			pos, ok := lowerPos[child]
			if !ok {
				continue
			}
			s := segment{up: i, down: pos}
			if detail {
				a, b := g.nodes[id], g.nodes[child]
				s.cluster = g.CommonCluster(a.Cluster, b.Cluster)
				s.long = a.IsVirtual() || b.IsVirtual()
			}
			segs = append(segs, s)
		}
	}
	slices.SortFunc(segs, func(a, b segment) int {
		if a.up != b.up {
			return a.up - b.up
		}
		return a.down - b.down
	})
	return segs
}

// inversions counts pairs i < j with segs[i].down > segs[j].down using a
// Fenwick tree over lower positions, in O(S log width).
func inversions(segs []segment, width int) int {
	tree := make([]int, width+1)
	count := 0
	for seen, s := range segs {
		atMost := 0
		for q := s.down + 1; q > 0; q -= q & -q {
			atMost += tree[q]
		}
		count += seen - atMost
		for q := s.down + 1; q <= width; q += q & -q {
			tree[q]++
		}
	}
	return count
}

// CountCrossings returns the number of crossings of the given row orders,
// summed over every pair of consecutive rows. Rows missing from orders
// are treated as empty.
//
//	orders := map[int][]string{
//	    0: {"api", "web"},
//	    1: {"db", "cache", "queue"},
//	}
//	n := dag.CountCrossings(g, orders)
func CountCrossings(g *DAG, orders map[int][]string) int {
	total := 0
	for _, r := range slices.Sorted(maps.Keys(orders)) {
		total += CountLayerCrossings(g, orders[r], orders[r+1])
	}
	return total
}

// CountLayerCrossings counts the crossings between two adjacent rows. Two
// edges (u1,v1) and (u2,v2) cross when u1 is left of u2 and v1 right of
// v2, so sorting by upper position reduces the count to the inversions
// of the lower positions.
func CountLayerCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	segs := layerSegments(g, upper, lower, false)
	if len(segs) < 2 {
		return 0
	}
	return inversions(segs, len(lower))
}

// Count is [CountCrossings] with the cluster and long-edge breakdown. The
// breakdown compares segment pairs directly, so it costs O(S²) per layer.
func Count(g *DAG, orders map[int][]string) Crossings {
	var c Crossings
	for _, r := range slices.Sorted(maps.Keys(orders)) {
		upper, lower := orders[r], orders[r+1]
		if len(upper) == 0 || len(lower) == 0 {
			continue
		}
		segs := layerSegments(g, upper, lower, true)
		c.Total += inversions(segs, len(lower))
		for i, s := range segs {
			for _, t := range segs[i+1:] {
				if s.up == t.up || s.down <= t.down {
					continue
				}
				if g.cuts(s, t) || g.cuts(t, s) {
					c.Cluster++
				}
				if s.long && t.long {
					c.Virtual++
				}
			}
		}
	}
	return c
}

// cuts reports whether s runs inside a cluster that t does not belong to.
func (d *DAG) cuts(s, t segment) bool {
	return s.cluster != "" && !slices.Contains(d.ClusterPath(t.cluster), s.cluster)
}

// CountPairCrossings counts the crossings between the edges of two
// neighbours, left then right, and the adjacent row given in order. With
// useParents the row above is used, otherwise the row below. The
// transpose pass compares it for both arrangements of a pair.
func CountPairCrossings(g *DAG, left, right string, adjOrder []string, useParents bool) int {
	return CountPairCrossingsWithPos(g, left, right, PosMap(adjOrder), useParents)
}

// CountPairCrossingsWithPos is [CountPairCrossings] with a precomputed
// position map of the adjacent row. Neighbours outside the map are
// ignored.
func CountPairCrossingsWithPos(g *DAG, left, right string, adjPos map[string]int, useParents bool) int {
	neighbours := g.Children
	if useParents {
		neighbours = g.Parents
	}

	count := 0
	for _, ln := range neighbours(left) {
		lp, ok := adjPos[ln]
		if !ok {
			continue
		}
		for _, rn := range neighbours(right) {
			if rp, ok := adjPos[rn]; ok && lp > rp {
				count++
			}
		}
	}
	return count
}
