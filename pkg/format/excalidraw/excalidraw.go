// Package excalidraw reads and writes Excalidraw scenes (.excalidraw).
//
// Shapes (rectangle, diamond, ellipse, text, image) map to nodes and
// frames map to cluster nodes. Arrows and lines bound at both ends map to
// edges. A text element bound to a shape or an arrow through containerId
// becomes that element's label.
//
// Edge bindings are stored the way Excalidraw stores them: a focus in
// [-1, 1] and a gap, computed with the geometry package. When a scene
// carries an arrow without points, the importer re-derives the route from
// those bindings.
//
// Excalidraw has no hexagon or cylinder; those shapes export as
// rectangles, and circles export as ellipses. Label padding is not
// represented.
package excalidraw

import (
	"bytes"

	"github.com/matzehuels/diagramkit/pkg/format"
)

const formatName = "excalidraw"

// Editor defaults. Values equal to these are not carried into graph styles.
const (
	transparent        = "transparent"
	defaultStroke      = "#1e1e1e"
	defaultStrokeWidth = 2
	defaultFontSize    = 20
	defaultFontFamily  = 1
	lineHeight         = 1.25

	defaultWidth  = 100
	defaultHeight = 40
)

var fontNames = map[int]string{
	1: "Virgil",
	2: "Helvetica",
	3: "Cascadia",
	5: "Excalifont",
	6: "Nunito",
	7: "Lilita One",
	8: "Comic Shanns",
	9: "Liberation Sans",
}

func init() {
	format.Register(format.Codec{
		Format:     format.Excalidraw,
		Extensions: []string{".excalidraw"},
		Importer:   format.ImporterFunc(Import),
		Exporter:   format.ExporterFunc(Export),
		Sniff:      sniff,
	})
}

var marker = []byte(`"excalidraw`)

func sniff(data []byte) bool {
	return len(data) > 0 && data[0] == '{' && bytes.Contains(data, marker) && bytes.Contains(data, []byte(`"elements"`))
}
