package format

import (
	"bytes"

	"github.com/matzehuels/diagramkit/pkg/graph"
)

func init() {
	Register(Codec{
		Format:     JSON,
		Extensions: []string{".json"},
		Aliases:    []string{"ir", "graph"},
		Importer:   ImporterFunc(graph.UnmarshalGraph),
		Exporter:   ExporterFunc(graph.MarshalGraph),
		Sniff:      sniffJSON,
	})
}

// sniffJSON matches IR documents: a JSON object with a "nodes" key.
func sniffJSON(data []byte) bool {
	return len(data) > 0 && data[0] == '{' && bytes.Contains(data, []byte(`"nodes"`))
}
