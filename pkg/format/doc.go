// Package format is the registry of diagram interchange formats.
//
// Each format package (dot, drawio, excalidraw, mermaid) registers a [Codec]
// from its init function. Import package all to register every built-in
// format at once:
//
//	import _ "github.com/matzehuels/diagramkit/pkg/format/all"
//
//	out, err := format.Convert(data, format.Mermaid, format.Drawio)
//
// The native [JSON] format is the graph IR itself and is always available.
//
// Registration happens during init and the registry is read-only
// afterwards. Importers and exporters hold no per-call state, so every
// function here is safe for concurrent use.
package format
