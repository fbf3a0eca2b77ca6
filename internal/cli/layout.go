package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/pipeline"
)

// layoutCommand creates the layout command for positioning diagrams.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		opts convertOptions
		lf   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout <input>...",
		Short: "Compute positions for a diagram",
		Long: `Compute positions for a diagram.

The layout command assigns coordinates to every node and cluster and routes
edges, then writes the positioned diagram. The output keeps the input format
unless --to is given and defaults to <input>.layout.<ext>.

Results are cached locally for faster subsequent runs.`,
		Example: `  diagramkit layout flow.mmd --to excalidraw
  diagramkit layout graph.dot --engine constraint --direction LR`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.layoutOpts, _ = lf.options(cmd, c.config().LayoutOptions())
			opts.layout = true
			opts.suffix = ".layout"
			if !cmd.Flags().Changed("compress") {
				opts.compress = c.config().Drawio.Compress
			}
			return c.runConvert(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.layout.<ext>)")
	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "source format (default: detect)")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "target format (default: source format)")
	cmd.Flags().BoolVar(&opts.compress, "compress", false, "compress draw.io diagram payloads")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().IntVarP(&opts.concurrency, "jobs", "j", pipeline.DefaultConcurrency, "concurrent layouts for several inputs")
	lf.register(cmd, false)

	return cmd
}
