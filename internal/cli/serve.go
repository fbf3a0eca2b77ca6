package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Long: `Serve the conversion API over HTTP.

Routes:
  GET  /healthz
  GET  /v1/formats
  POST /v1/convert?from=&to=&layout=&engine=&direction=&compress=
  POST /v1/inspect?from=

Layout flags set the defaults for requests that ask for a layout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			scfg := server.Config{
				Addr:        cfg.Server.Addr,
				Timeout:     cfg.Server.Timeout.Std(),
				MaxBodySize: cfg.Server.MaxBodySize,
				Compress:    cfg.Drawio.Compress,
			}
			scfg.LayoutOptions, _ = lf.options(cmd, cfg.LayoutOptions())
			if cmd.Flags().Changed("addr") {
				scfg.Addr = addr
			}
			if cmd.Flags().Changed("timeout") {
				scfg.Timeout = timeout
			}
			if err := scfg.LayoutOptions.WithDefaults().Validate(); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			ui := newStatus(cmd.ErrOrStderr())
			ui.info("Listening on %s", StyleHighlight.Render(scfg.Addr))
			err = server.New(runner, c.Logger, scfg).ListenAndServe(cmd.Context())
			if stderrors.Is(err, context.Canceled) {
				ui.success("Server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout")
	lf.register(cmd, false)

	return cmd
}
