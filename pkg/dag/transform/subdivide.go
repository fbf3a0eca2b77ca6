package transform

import (
	"fmt"

	"github.com/matzehuels/diagramkit/pkg/dag"
)

// Subdivide replaces every edge spanning more than one row by a chain of
// single-row edges through virtual nodes, one per intermediate row:
//
//	Before: api (row 0) -e1-> db (row 3)
//	After:  api -> e1~1 -> e1~2 -> db
//
// Each virtual node records the original edge in [dag.Node.EdgeID] and sits
// in the innermost cluster shared by both endpoints, so clusters stay
// contiguous during ordering. The chain's edges keep the original Reversed
// flag; the last one keeps the original ID.
//
// It returns the virtual node IDs per original edge ID, top row first.
func Subdivide(g *dag.DAG) map[string][]string {
	gen := newIDGen(g)
	chains := make(map[string][]string)

	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		cluster := g.CommonCluster(src.Cluster, dst.Cluster)
		g.RemoveEdge(e.ID)
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			id := gen.next(e.ID, row-src.Row)
			mustAdd(g.AddNode(dag.Node{
				ID:      id,
				Row:     row,
				Cluster: cluster,
				Kind:    dag.NodeKindVirtual,
				EdgeID:  e.ID,
			}))
			mustAdd(g.AddEdge(dag.Edge{ID: id + ">", From: prevID, To: id, Reversed: e.Reversed}))
			chains[e.ID] = append(chains[e.ID], id)
			prevID = id
		}
		mustAdd(g.AddEdge(dag.Edge{ID: e.ID, From: prevID, To: dst.ID, Reversed: e.Reversed}))
	}
	return chains
}

// mustAdd panics on construction errors, which indicate a bug in ID
// generation rather than bad input.
func mustAdd(err error) {
	if err != nil {
		panic(err)
	}
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(g *dag.DAG) *idGen {
	m := make(map[string]struct{}, g.NodeCount()*2)
	for _, n := range g.Nodes() {
		m[n.ID] = struct{}{}
	}
	for _, c := range g.Clusters() {
		m[c.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, step int) string {
	prefix := fmt.Sprintf("%s~%d", base, step)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
