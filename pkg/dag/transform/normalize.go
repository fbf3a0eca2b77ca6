package transform

import "github.com/matzehuels/diagramkit/pkg/dag"

// Normalized reports what [Normalize] changed.
type Normalized struct {
	// Reversed is the number of edges flipped to break cycles.
	Reversed int
	// Chains maps each subdivided edge ID to its virtual nodes, top first.
	Chains map[string][]string
}

// Normalize brings g into proper layered form: cycles broken, rows
// assigned, and every edge joining consecutive rows. With relaxPasses > 0
// the longest-path rows are relaxed by [RelaxLayers] before subdivision.
//
// Self-loops must be removed beforehand.
func Normalize(g *dag.DAG, relaxPasses int) Normalized {
	reversed := BreakCycles(g)
	AssignLayers(g)
	if relaxPasses > 0 {
		RelaxLayers(g, relaxPasses)
	}
	return Normalized{Reversed: reversed, Chains: Subdivide(g)}
}
