package layout

import (
	"slices"

	"github.com/matzehuels/diagramkit/pkg/dag"
)

// pack places every row left to right at minimum spacing, starting at 0.
func pack(rows [][]string, gap gapFunc) map[string]float64 {
	xs := make(map[string]float64)
	for _, row := range rows {
		x := 0.0
		for i, id := range row {
			if i > 0 {
				x += gap(row[i-1], id)
			}
			xs[id] = x
		}
	}
	return xs
}

// gaps returns the minimum distances between consecutive row members.
func gaps(row []string, gap gapFunc) []float64 {
	out := make([]float64, max(len(row)-1, 0))
	for i := range out {
		out[i] = gap(row[i], row[i+1])
	}
	return out
}

// placeMedian is the layered engine's placement: rows are packed, then
// pulled toward the median of their neighbours in alternating sweeps.
// Each row is re-fitted with [fit], which compacts it as far as the
// separation allows.
func placeMedian(g *dag.DAG, rows [][]string, gap gapFunc, opts Options) map[string]float64 {
	xs := pack(rows, gap)
	sweeps := min(opts.Iterations, 8)
	for it := 0; it < sweeps; it++ {
		down := it%2 == 0
		for k := range rows {
			r := k
			neighbours := g.Parents
			if !down {
				r = len(rows) - 1 - k
				neighbours = g.Children
			}
			row := rows[r]
			want := make([]float64, len(row))
			for i, id := range row {
				want[i] = median(xs, neighbours(id), xs[id])
			}
			for i, x := range fit(want, gaps(row, gap)) {
				xs[row[i]] = x
			}
		}
	}
	return xs
}

// median returns the median position of ids, or fallback when none has
// a position.
func median(xs map[string]float64, ids []string, fallback float64) float64 {
	vals := make([]float64, 0, len(ids))
	for _, id := range ids {
		if x, ok := xs[id]; ok {
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return fallback
	}
	slices.Sort(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// fit returns the positions closest to want, in the least-squares sense,
// that keep x[i+1]-x[i] >= gaps[i]. Substituting y[i] = x[i] - offset[i]
// turns the gaps into y[i+1] >= y[i], which pool-adjacent-violators
// solves exactly in linear time.
func fit(want, gaps []float64) []float64 {
	n := len(want)
	offset := make([]float64, n)
	for i := 1; i < n; i++ {
		offset[i] = offset[i-1] + gaps[i-1]
	}

	type block struct {
		sum   float64
		count int
	}
	mean := func(b block) float64 { return b.sum / float64(b.count) }
	blocks := make([]block, 0, n)
	for i := range n {
		blocks = append(blocks, block{sum: want[i] - offset[i], count: 1})
		for len(blocks) > 1 && mean(blocks[len(blocks)-2]) > mean(blocks[len(blocks)-1]) {
			last := blocks[len(blocks)-1]
			blocks = blocks[:len(blocks)-1]
			blocks[len(blocks)-1].sum += last.sum
			blocks[len(blocks)-1].count += last.count
		}
	}

	out := make([]float64, 0, n)
	for _, b := range blocks {
		y := mean(b)
		for range b.count {
			out = append(out, y+offset[len(out)])
		}
	}
	return out
}

// placeProjected is the constraint engine's placement. Each pass moves
// every node to the barycenter of all its neighbours, then projects the
// separation constraints x[i+1]-x[i] >= gap one pair at a time
// (Gauss-Seidel), splitting each violation between the pair. A final
// left-to-right sweep makes the result feasible.
func placeProjected(g *dag.DAG, rows [][]string, gap gapFunc, opts Options) map[string]float64 {
	xs := pack(rows, gap)
	for range opts.Iterations {
		for _, row := range rows {
			for _, id := range row {
				nbs := append(slices.Clone(g.Parents(id)), g.Children(id)...)
				if len(nbs) == 0 {
					continue
				}
				sum := 0.0
				for _, nb := range nbs {
					sum += xs[nb]
				}
				xs[id] = sum / float64(len(nbs))
			}
			gs := gaps(row, gap)
			for sweep := 0; sweep < len(row); sweep++ {
				moved := false
				for i, d := range gs {
					if viol := xs[row[i]] + d - xs[row[i+1]]; viol > 1e-9 {
						xs[row[i]] -= viol / 2
						xs[row[i+1]] += viol / 2
						moved = true
					}
				}
				if !moved {
					break
				}
			}
		}
	}
	for _, row := range rows {
		for i, d := range gaps(row, gap) {
			if x := xs[row[i]] + d; xs[row[i+1]] < x {
				xs[row[i+1]] = x
			}
		}
	}
	return xs
}
