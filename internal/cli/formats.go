package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/format"
)

// formatsCommand lists the registered formats.
func (c *CLI) formatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported diagram formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(formatTable(format.Codecs()))
			return nil
		},
	}
}

func formatTable(codecs []format.Codec) string {
	rows := make([][]string, len(codecs))
	for i, c := range codecs {
		aliases := strings.Join(c.Aliases, ", ")
		if aliases == "" {
			aliases = "—"
		}
		rows[i] = []string{string(c.Format), strings.Join(c.Extensions, " "), aliases}
	}
	return newTable("Format", "Extensions", "Aliases").Rows(rows...).Render()
}
