package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/layout"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
)

// convertOptions is everything convert and layout hand to runConvert.
type convertOptions struct {
	output      string
	from        string
	to          string
	layout      bool
	layoutOpts  layout.Options
	compress    bool
	refresh     bool
	concurrency int

	// suffix is inserted into derived output names ("flow.layout.dot").
	suffix string
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		opts convertOptions
		lf   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "convert <input>...",
		Short: "Convert diagrams between formats",
		Long: `Convert diagrams between formats.

The source format is detected from the file extension or the content unless
--from is given. The target format comes from --to or from the extension of
--output. With several inputs, --output names a directory and the files are
converted concurrently.

Use "-" as input to read from stdin; the result then goes to stdout.

Pass --layout (or any of --engine/--direction) to compute positions for
diagrams that carry none, such as Mermaid flowcharts.`,
		Example: `  diagramkit convert flow.mmd --to drawio
  diagramkit convert flow.mmd -o flow.excalidraw --direction LR
  diagramkit convert *.dot --to mermaid -o out/
  cat graph.dot | diagramkit convert - --to json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.layoutOpts, opts.layout = lf.options(cmd, c.config().LayoutOptions())
			if !cmd.Flags().Changed("compress") {
				opts.compress = c.config().Drawio.Compress
			}
			return c.runConvert(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or directory for several inputs")
	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "source format (default: detect)")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "target format (default: from --output, else source format)")
	cmd.Flags().BoolVar(&opts.compress, "compress", false, "compress draw.io diagram payloads")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().IntVarP(&opts.concurrency, "jobs", "j", pipeline.DefaultConcurrency, "concurrent conversions for several inputs")
	lf.register(cmd, true)

	return cmd
}

// runConvert reads every input, converts them and writes the results.
func (c *CLI) runConvert(cmd *cobra.Command, inputs []string, o convertOptions) error {
	ctx := cmd.Context()

	from, err := optionalFormat(o.from)
	if err != nil {
		return err
	}
	to, err := optionalFormat(o.to)
	if err != nil {
		return err
	}

	batch := len(inputs) > 1
	outDir := ""
	switch {
	case batch && o.output == stdio:
		return errors.New(errors.ErrCodeInvalidInput, "cannot write %d results to stdout", len(inputs))
	case batch:
		outDir = o.output
	case o.output != "" && o.output != stdio && isDir(o.output):
		outDir = o.output
	case o.output != "" && o.output != stdio && to == "":
		if f, err := format.Detect(o.output, nil); err == nil {
			to = f
		}
	}

	ui := newStatus(cmd.ErrOrStderr())
	prog := newProgress(loggerFromContext(ctx))
	sp := newSpinner(cmd.ErrOrStderr(), len(inputs))
	sp.Stage(stageRead)
	sp.Start(ctx)
	defer sp.Stop()

	reqs := make([]pipeline.Request, len(inputs))
	stdinUsed := false
	for i, in := range inputs {
		if in == stdio {
			if stdinUsed {
				return errors.New(errors.ErrCodeInvalidInput, "stdin can only be read once")
			}
			stdinUsed = true
		}
		data, err := readInput(in, cmd.InOrStdin())
		if err != nil {
			return err
		}
		name := in
		if in == stdio {
			name = ""
		}
		reqs[i] = pipeline.Request{
			From:          from,
			To:            to,
			Filename:      name,
			Data:          data,
			Layout:        o.layout,
			LayoutOptions: o.layoutOpts,
			Compress:      o.compress,
			Refresh:       o.refresh,
		}
		sp.Advance()
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	work := stageConvert
	if o.layout {
		work = stageLayout
	}
	prog.stage(stageRead)
	sp.Stage(work)
	var results []*pipeline.Result
	if batch {
		results, err = runner.ConvertBatchNotify(ctx, reqs, o.concurrency, func(int, *pipeline.Result) {
			sp.Advance()
		})
	} else {
		var res *pipeline.Result
		res, err = runner.Convert(ctx, reqs[0])
		results = []*pipeline.Result{res}
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	prog.stage(work)
	sp.Stage(stageWrite)
	paths := make([]string, len(results))
	for i, res := range results {
		path := o.output
		if batch || outDir != "" || path == "" {
			path = outputPath(inputs[i], outDir, o.suffix, res.To)
		}
		if err := writeOutput(path, res.Data, cmd.OutOrStdout()); err != nil {
			return err
		}
		paths[i] = path
		sp.Advance()
	}
	sp.Stop()
	prog.stage(stageWrite)

	ui.converted(results, paths, prog.done(len(results)))
	return nil
}

func optionalFormat(name string) (format.Format, error) {
	if name == "" {
		return "", nil
	}
	return format.Parse(name)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
