// Package pipeline runs the import → layout → export chain shared by the
// CLI and the HTTP service.
//
// # Stages
//
//  1. Import: detect or resolve the source format and decode into the
//     canonical graph, which is validated on the way in
//  2. Layout (optional): compute positions with the configured engine;
//     results are cached by graph hash and options
//  3. Export: encode the graph in the target format
//
// # Usage
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Convert(ctx, pipeline.Request{
//	    From:   format.DOT,
//	    To:     format.Excalidraw,
//	    Data:   src,
//	    Layout: true,
//	})
//
// [Runner.ConvertBatch] converts many documents concurrently; the core
// packages are reentrant so no locking is involved.
package pipeline

import (
	"time"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/graph"
	"github.com/matzehuels/diagramkit/pkg/layout"
)

// DefaultConcurrency bounds ConvertBatch when no limit is given.
const DefaultConcurrency = 4

// Request describes one conversion.
type Request struct {
	// From is the source format. Empty means detect from Filename and Data.
	From format.Format `json:"from,omitempty"`
	To   format.Format `json:"to"`

	// Filename only feeds format detection and log lines.
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"-"`

	// Layout recomputes positions before export. An empty
	// LayoutOptions.Direction follows the diagram's own direction.
	Layout        bool           `json:"layout,omitempty"`
	LayoutOptions layout.Options `json:"layout_options"`

	// Compress applies to drawio output only.
	Compress bool `json:"compress,omitempty"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`
}

// Result is the outcome of a conversion.
type Result struct {
	Filename string
	From     format.Format
	To       format.Format

	// Data is the exported document.
	Data []byte

	// Graph is the graph that was exported, after layout if requested.
	Graph graph.Graph

	Stats    Stats
	CacheHit bool
}

// Stats holds sizes and stage timings.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	ClusterCount int
	ImportTime   time.Duration
	LayoutTime   time.Duration
	ExportTime   time.Duration
}

// Total returns the summed stage time.
func (s Stats) Total() time.Duration {
	return s.ImportTime + s.LayoutTime + s.ExportTime
}

// normalize resolves formats and fills layout defaults.
func (r *Request) normalize() error {
	if len(r.Data) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "empty input")
	}
	if r.From == "" {
		f, err := format.Detect(r.Filename, r.Data)
		if err != nil {
			return err
		}
		r.From = f
	}
	if _, err := format.Lookup(r.From); err != nil {
		return err
	}
	if r.To == "" {
		r.To = r.From
	}
	if _, err := format.Lookup(r.To); err != nil {
		return err
	}
	if r.Layout {
		dir := r.LayoutOptions.Direction
		r.LayoutOptions = r.LayoutOptions.WithDefaults()
		if err := r.LayoutOptions.Validate(); err != nil {
			return err
		}
		r.LayoutOptions.Direction = dir
	}
	return nil
}
