package format

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Format names a diagram interchange format.
type Format string

// Built-in formats. Only JSON is registered by this package; the others
// register themselves when their package is imported (see package all).
const (
	JSON       Format = "json"
	DOT        Format = "dot"
	Drawio     Format = "drawio"
	Excalidraw Format = "excalidraw"
	Mermaid    Format = "mermaid"
)

// Importer decodes raw bytes into a graph. Implementations are stateless
// and safe for concurrent use.
type Importer interface {
	Import(data []byte) (graph.Graph, error)
}

// Exporter encodes a graph. Implementations are stateless and safe for
// concurrent use.
type Exporter interface {
	Export(g graph.Graph) ([]byte, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(data []byte) (graph.Graph, error)

// Import calls f(data).
func (f ImporterFunc) Import(data []byte) (graph.Graph, error) { return f(data) }

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc func(g graph.Graph) ([]byte, error)

// Export calls f(g).
func (f ExporterFunc) Export(g graph.Graph) ([]byte, error) { return f(g) }

// Codec is a registered format.
type Codec struct {
	Format     Format
	Extensions []string // lower-case, with leading dot
	Aliases    []string
	Importer   Importer
	Exporter   Exporter

	// Sniff reports whether data looks like this format. Optional.
	Sniff func(data []byte) bool
}

var (
	mu     sync.RWMutex
	codecs = map[Format]Codec{}
)

// Register adds a codec to the registry. It is meant to be called from
// package init functions and panics on duplicates or incomplete codecs.
func Register(c Codec) {
	mu.Lock()
	defer mu.Unlock()

	if c.Format == "" || c.Importer == nil || c.Exporter == nil {
		panic("format: Register called with incomplete codec")
	}
	if _, dup := codecs[c.Format]; dup {
		panic("format: Register called twice for " + string(c.Format))
	}
	codecs[c.Format] = c
}

// Lookup returns the codec registered for f.
func Lookup(f Format) (Codec, error) {
	mu.RLock()
	c, ok := codecs[f]
	mu.RUnlock()
	if !ok {
		return Codec{}, errors.New(errors.ErrCodeUnsupported, "format %q is not registered", f)
	}
	return c, nil
}

// Formats returns the registered formats in sorted order.
func Formats() []Format {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Format, 0, len(codecs))
	for f := range codecs {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Codecs returns every registered codec sorted by format name.
func Codecs() []Codec {
	formats := Formats()
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Codec, 0, len(formats))
	for _, f := range formats {
		out = append(out, codecs[f])
	}
	return out
}

// Parse resolves a user-supplied format name or alias, case-insensitively.
func Parse(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if err := errors.ValidateFormatName(name); err != nil {
		return "", err
	}

	mu.RLock()
	defer mu.RUnlock()

	if _, ok := codecs[Format(name)]; ok {
		return Format(name), nil
	}
	for _, c := range codecs {
		if slices.Contains(c.Aliases, name) {
			return c.Format, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unknown format %q", name)
}

// Detect guesses the format of a document, first from the file extension
// and then by sniffing the content.
func Detect(filename string, data []byte) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	// "x.excalidraw.json": the inner extension wins when it is known.
	inner := strings.ToLower(filepath.Ext(strings.TrimSuffix(filename, filepath.Ext(filename))))

	codecs := Codecs()
	for _, e := range []string{inner, ext} {
		if e == "" {
			continue
		}
		for _, c := range codecs {
			if slices.Contains(c.Extensions, e) {
				return c.Format, nil
			}
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 {
		for _, c := range codecs {
			if c.Sniff != nil && c.Sniff(trimmed) {
				return c.Format, nil
			}
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot detect format of %q", filename)
}

// Import decodes data with the importer registered for f and validates the
// result.
func Import(f Format, data []byte) (graph.Graph, error) {
	c, err := Lookup(f)
	if err != nil {
		return graph.Graph{}, err
	}
	g, err := c.Importer.Import(data)
	if err != nil {
		return graph.Graph{}, err
	}
	if err := graph.Validate(g); err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

// Export encodes g with the exporter registered for f.
func Export(f Format, g graph.Graph) ([]byte, error) {
	c, err := Lookup(f)
	if err != nil {
		return nil, err
	}
	return c.Exporter.Export(g)
}

// Convert imports data as from and exports the result as to.
func Convert(data []byte, from, to Format) ([]byte, error) {
	g, err := Import(from, data)
	if err != nil {
		return nil, err
	}
	return Export(to, g)
}
