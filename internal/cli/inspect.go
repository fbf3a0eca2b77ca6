package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		from   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Show statistics and clusters of a diagram",
		Long: `Show statistics and clusters of a diagram.

The diagram is imported and validated; a diagram that fails to import is
reported with the position of the problem.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := optionalFormat(from)
			if err != nil {
				return err
			}
			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			name := args[0]
			if name == stdio {
				name = ""
			}
			s, err := pipeline.Inspect(cmd.Context(), f, name, data)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			printSummary(newStatus(cmd.OutOrStdout()), args[0], s)
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "source format (default: detect)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

// printSummary prints s as key-value lines followed by a cluster table.
func printSummary(ui status, input string, s pipeline.Summary) {
	fmt.Fprintln(ui.w, StyleTitle.Render(input))
	ui.keyValue("format", StyleHighlight.Render(string(s.Format)))
	if s.Direction != "" {
		ui.keyValue("direction", string(s.Direction))
	}
	ui.keyValue("nodes", StyleNumber.Render(strconv.Itoa(s.Nodes)))
	ui.keyValue("edges", StyleNumber.Render(strconv.Itoa(s.Edges)))
	ui.keyValue("clusters", StyleNumber.Render(strconv.Itoa(len(s.Clusters))))
	ui.keyValue("isolated", StyleNumber.Render(strconv.Itoa(s.Isolated)))
	ui.keyValue("max depth", StyleNumber.Render(strconv.Itoa(s.MaxDepth)))
	if s.Positioned {
		ui.keyValue("size", fmt.Sprintf("%.0f × %.0f", s.Width, s.Height))
	} else {
		ui.keyValue("size", StyleDim.Render("unpositioned"))
	}

	if len(s.Clusters) > 0 {
		ui.blank()
		fmt.Fprintln(ui.w, clusterTable(s.Clusters))
	}
	ui.blank()
	ui.success("Valid")
}

func clusterTable(clusters []pipeline.ClusterInfo) string {
	rows := make([][]string, len(clusters))
	for i, cl := range clusters {
		parent := cl.Parent
		if parent == "" {
			parent = "—"
		}
		rows[i] = []string{cl.ID, cl.Label, parent, strconv.Itoa(cl.Members)}
	}
	return newTable("Cluster", "Label", "Parent", "Members").Rows(rows...).Render()
}

// newTable returns a rounded table with gray bold headers.
func newTable(headers ...string) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			return cell
		})
}
