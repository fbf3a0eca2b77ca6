package dot

import (
	"bytes"
	"regexp"

	"github.com/matzehuels/diagramkit/pkg/format"
)

func init() {
	format.Register(format.Codec{
		Format:     format.DOT,
		Extensions: []string{".dot", ".gv"},
		Aliases:    []string{"gv", "graphviz"},
		Importer:   format.ImporterFunc(Import),
		Exporter:   format.ExporterFunc(Export),
		Sniff:      sniff,
	})
}

var header = regexp.MustCompile(`(?i)^(strict\s+)?(di)?graph\s*("[^"]*"|[\w.]+)?\s*\{`)

func sniff(data []byte) bool {
	return header.Match(bytes.TrimLeft(data, "\ufeff"))
}
