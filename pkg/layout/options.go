package layout

import (
	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Engine names accepted in [Options.Engine].
const (
	EngineLayered    = "layered"
	EngineConstraint = "constraint"
	EngineGraphviz   = "graphviz"
)

// Default option values.
const (
	DefaultNodeWidth      = 100
	DefaultNodeHeight     = 40
	DefaultNodeSep        = 50
	DefaultRankSep        = 50
	DefaultMargin         = 8
	DefaultClusterPadding = 20
	DefaultIterations     = 24

	maxIterations = 1000
)

// Options controls a layout run. Zero fields take their defaults in
// [Options.WithDefaults], so the zero value is usable.
type Options struct {
	Direction graph.Direction `json:"direction" toml:"direction" yaml:"direction"`

	// NodeWidth and NodeHeight size nodes that carry no dimensions.
	NodeWidth  float64 `json:"node_width" toml:"node_width" yaml:"node_width"`
	NodeHeight float64 `json:"node_height" toml:"node_height" yaml:"node_height"`

	// NodeSep separates neighbours within a rank, RankSep separates ranks.
	NodeSep float64 `json:"node_sep" toml:"node_sep" yaml:"node_sep"`
	RankSep float64 `json:"rank_sep" toml:"rank_sep" yaml:"rank_sep"`

	MarginX float64 `json:"margin_x" toml:"margin_x" yaml:"margin_x"`
	MarginY float64 `json:"margin_y" toml:"margin_y" yaml:"margin_y"`

	// ClusterPadding is the gap between a cluster's border and its members.
	ClusterPadding float64 `json:"cluster_padding" toml:"cluster_padding" yaml:"cluster_padding"`

	// Engine selects a registered engine by name.
	Engine string `json:"engine" toml:"engine" yaml:"engine"`

	// Iterations bounds the crossing-reduction sweeps, and the relaxation
	// passes of the constraint engine.
	Iterations int `json:"iterations" toml:"iterations" yaml:"iterations"`
}

// DefaultOptions returns the options used when nothing is configured:
// top-to-bottom, 100×40 nodes, layered engine.
func DefaultOptions() Options {
	return Options{
		Direction:      graph.DirectionTB,
		NodeWidth:      DefaultNodeWidth,
		NodeHeight:     DefaultNodeHeight,
		NodeSep:        DefaultNodeSep,
		RankSep:        DefaultRankSep,
		MarginX:        DefaultMargin,
		MarginY:        DefaultMargin,
		ClusterPadding: DefaultClusterPadding,
		Engine:         EngineLayered,
		Iterations:     DefaultIterations,
	}
}

// WithDefaults returns a copy with every zero field replaced by its default.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Direction == "" {
		o.Direction = d.Direction
	}
	if o.NodeWidth == 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.NodeSep == 0 {
		o.NodeSep = d.NodeSep
	}
	if o.RankSep == 0 {
		o.RankSep = d.RankSep
	}
	if o.MarginX == 0 {
		o.MarginX = d.MarginX
	}
	if o.MarginY == 0 {
		o.MarginY = d.MarginY
	}
	if o.ClusterPadding == 0 {
		o.ClusterPadding = d.ClusterPadding
	}
	if o.Engine == "" {
		o.Engine = d.Engine
	}
	if o.Iterations == 0 {
		o.Iterations = d.Iterations
	}
	return o
}

// Validate checks the options as given, without applying defaults. It
// returns a [errors.LayoutError] with reason InvalidOptions.
func (o Options) Validate() error {
	if !o.Direction.Valid() {
		return invalidOptions(errors.New(errors.ErrCodeInvalidOptions,
			"direction must be one of TB, BT, LR, RL, got %q", o.Direction))
	}
	checks := []error{
		errors.ValidatePositive("node_width", o.NodeWidth),
		errors.ValidatePositive("node_height", o.NodeHeight),
		errors.ValidateNonNegative("node_sep", o.NodeSep),
		errors.ValidateNonNegative("rank_sep", o.RankSep),
		errors.ValidateNonNegative("margin_x", o.MarginX),
		errors.ValidateNonNegative("margin_y", o.MarginY),
		errors.ValidateNonNegative("cluster_padding", o.ClusterPadding),
	}
	for _, err := range checks {
		if err != nil {
			return invalidOptions(err)
		}
	}
	if o.Iterations < 0 || o.Iterations > maxIterations {
		return invalidOptions(errors.New(errors.ErrCodeInvalidOptions,
			"iterations must be between 0 and %d, got %d", maxIterations, o.Iterations))
	}
	if _, ok := LookupEngine(o.Engine); !ok {
		return invalidOptions(errors.ValidateOneOf("engine", o.Engine, EngineNames()...))
	}
	return nil
}

func invalidOptions(cause error) error {
	return &errors.LayoutError{Reason: errors.InvalidOptions, Cause: cause}
}
