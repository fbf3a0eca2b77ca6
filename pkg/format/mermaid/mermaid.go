// Package mermaid reads and writes Mermaid flowcharts.
//
// [Lex] and [Parse] turn "graph"/"flowchart" source into a [Flow]: vertices
// with their shapes, links expanded pair by pair, and subgraph blocks with
// the vertices they claim. [Import] maps a Flow onto the graph IR and
// [Export] writes one back. Other Mermaid diagram types are rejected at the
// header. Class assignments, click handlers and link styles are parsed and
// ignored; "style" directives carry node colors.
package mermaid

import (
	"bytes"
	"regexp"

	"github.com/matzehuels/diagramkit/pkg/format"
)

// thickWidth is the stroke width of == links.
const thickWidth = 3

func init() {
	format.Register(format.Codec{
		Format:     format.Mermaid,
		Extensions: []string{".mmd", ".mermaid"},
		Aliases:    []string{"mmd", "flowchart"},
		Importer:   format.ImporterFunc(Import),
		Exporter:   format.ExporterFunc(Export),
		Sniff:      sniff,
	})
}

var header = regexp.MustCompile(`^(?:%%[^\n]*\n\s*)*(?:graph|flowchart)(?:[ \t]+(?:TB|TD|BT|RL|LR))?[ \t]*(?:;|\r?\n|$)`)

func sniff(data []byte) bool {
	return header.Match(bytes.TrimSpace(data))
}
