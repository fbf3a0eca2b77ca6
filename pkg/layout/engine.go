package layout

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Engine assigns coordinates to a compound graph. Implementations write
// the center and size of every vertex, cluster bounds included, and route
// every link whose endpoints are both boxes. They must not retain c.
//
// Engines are stateless and safe for concurrent use.
type Engine interface {
	Layout(ctx context.Context, c *Compound, opts Options) error
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, c *Compound, opts Options) error

// Layout calls f(ctx, c, opts).
func (f EngineFunc) Layout(ctx context.Context, c *Compound, opts Options) error {
	return f(ctx, c, opts)
}

var (
	engineMu sync.RWMutex
	engines  = map[string]Engine{}
)

// RegisterEngine makes an engine selectable through [Options.Engine]. It
// panics on an empty name, a nil engine or a duplicate registration.
func RegisterEngine(name string, e Engine) {
	engineMu.Lock()
	defer engineMu.Unlock()

	if name == "" || e == nil {
		panic("layout: RegisterEngine called with empty name or nil engine")
	}
	if _, dup := engines[name]; dup {
		panic("layout: RegisterEngine called twice for " + name)
	}
	engines[name] = e
}

// LookupEngine returns the engine registered under name.
func LookupEngine(name string) (Engine, bool) {
	engineMu.RLock()
	defer engineMu.RUnlock()
	e, ok := engines[name]
	return e, ok
}

// EngineNames returns the registered engine names in sorted order.
func EngineNames() []string {
	engineMu.RLock()
	defer engineMu.RUnlock()

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// Compound graph
// =============================================================================

// Compound is the working graph of one layout call: one vertex per
// distinct label, one link per relation (parallel links kept), and
// clusters expressed through Vertex.Parent.
type Compound struct {
	Vertices []*Vertex
	Links    []*Link

	index  map[string]*Vertex
	groups map[string]bool // non-empty clusters, computed on first use
}

// Vertex is a node or cluster of the compound graph.
type Vertex struct {
	Key     string // unique within the compound; the label unless it clashes
	Label   string // shown on output; Key when empty
	Parent  string // key of the enclosing cluster
	Cluster bool   // drawn as a containment boundary

	Width, Height float64
	X, Y          float64 // center, written by the engine
}

// Link is a directed relation between two vertices.
type Link struct {
	Key      string
	From, To string
	Points   []graph.Point // route, written by the engine
}

// NewCompound returns an empty compound graph.
func NewCompound() *Compound {
	return &Compound{index: make(map[string]*Vertex)}
}

// Vertex returns the vertex with the given key.
func (c *Compound) Vertex(key string) (*Vertex, bool) {
	v, ok := c.index[key]
	return v, ok
}

// ensure returns the vertex for key, appending it on first use.
func (c *Compound) ensure(key string) *Vertex {
	if v, ok := c.index[key]; ok {
		return v
	}
	v := &Vertex{Key: key}
	c.index[key] = v
	c.Vertices = append(c.Vertices, v)
	c.groups = nil
	return v
}

// IsGroup reports whether the vertex with the given key is a cluster with
// at least one member. Empty clusters are laid out like ordinary boxes.
// Parents must not change once the compound has been queried.
func (c *Compound) IsGroup(key string) bool {
	if c.groups == nil {
		c.groups = make(map[string]bool)
		for _, v := range c.Vertices {
			if p, ok := c.index[v.Parent]; ok && p.Cluster {
				c.groups[p.Key] = true
			}
		}
	}
	return c.groups[key]
}

// Boxes returns the vertices an engine places directly, in order.
func (c *Compound) Boxes() []*Vertex {
	var out []*Vertex
	for _, v := range c.Vertices {
		if !c.IsGroup(v.Key) {
			out = append(out, v)
		}
	}
	return out
}

// Groups returns the non-empty clusters, in order.
func (c *Compound) Groups() []*Vertex {
	var out []*Vertex
	for _, v := range c.Vertices {
		if c.IsGroup(v.Key) {
			out = append(out, v)
		}
	}
	return out
}

// Ancestors returns the clusters enclosing key, innermost first. It
// assumes the parent relation is acyclic.
func (c *Compound) Ancestors(key string) []string {
	var out []string
	for v, ok := c.index[key]; ok && v.Parent != ""; v, ok = c.index[v.Parent] {
		out = append(out, v.Parent)
	}
	return out
}

// CommonParent returns the innermost cluster enclosing both a and b, or
// the empty string.
func (c *Compound) CommonParent(a, b string) string {
	inA := make(map[string]bool)
	for _, k := range c.Ancestors(a) {
		inA[k] = true
	}
	for _, k := range c.Ancestors(b) {
		if inA[k] {
			return k
		}
	}
	return ""
}

// Routable reports whether both endpoints of l are boxes. Links touching
// a non-empty cluster are routed after the engine runs.
func (c *Compound) Routable(l *Link) bool {
	return !c.IsGroup(l.From) && !c.IsGroup(l.To)
}
