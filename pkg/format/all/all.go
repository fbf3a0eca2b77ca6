// Package all registers every built-in format with the format registry.
//
// Import it for its side effects:
//
//	import _ "github.com/matzehuels/diagramkit/pkg/format/all"
package all

import (
	_ "github.com/matzehuels/diagramkit/pkg/format/dot"
	_ "github.com/matzehuels/diagramkit/pkg/format/drawio"
	_ "github.com/matzehuels/diagramkit/pkg/format/excalidraw"
	_ "github.com/matzehuels/diagramkit/pkg/format/mermaid"
)
