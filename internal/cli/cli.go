package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/internal/config"
	"github.com/matzehuels/diagramkit/pkg/buildinfo"
	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/graph"
	"github.com/matzehuels/diagramkit/pkg/layout"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "diagramkit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Diagramkit converts and lays out diagrams",
		Long: `Diagramkit converts diagrams between DOT, Mermaid, draw.io, Excalidraw
and its own JSON graph format, and computes layouts for diagrams that carry
no geometry.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.loadConfig(cmd)
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: diagramkit.toml or diagramkit.yaml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.formatsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the config file and attaches the logger to the
// command context.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Resolve(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// config returns the loaded config, or the defaults before loadConfig ran.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cch, err := c.openCache(ctx)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cch, nil, c.Logger)
	r.TTL = c.config().Cache.TTL.Std()
	return r, nil
}

// openCache opens the configured backend. A file backend without a usable
// directory and an unreachable Redis degrade to no caching.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}

	opts := c.config().CacheOptions()
	if (opts.Backend == "" || opts.Backend == cache.BackendFile) && opts.Dir == "" {
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		opts.Backend, opts.Dir = cache.BackendFile, dir
	}

	cch, err := cache.Open(opts)
	if err != nil {
		return nil, err
	}
	if rc, ok := cch.(*cache.RedisCache); ok {
		err := cache.RetryWithBackoff(ctx, func() error { return rc.Ping(ctx) })
		if err != nil {
			c.Logger.Warn("redis unreachable, caching disabled", "addr", rc.Options().Addr, "err", err)
			_ = rc.Close()
			return cache.NewNullCache(), nil
		}
	}
	return cch, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/diagramkit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Layout Flags
// =============================================================================

// layoutFlags are the layout flags shared by convert and layout. Flags the
// user did not set leave the config values alone.
type layoutFlags struct {
	layout    bool
	engine    string
	direction string
	nodeSep   float64
	rankSep   float64
	margin    float64
}

func (f *layoutFlags) register(cmd *cobra.Command, withToggle bool) {
	if withToggle {
		cmd.Flags().BoolVar(&f.layout, "layout", false, "compute positions before export")
	}
	cmd.Flags().StringVar(&f.engine, "engine", "", "layout engine: "+strings.Join(layout.EngineNames(), ", "))
	cmd.Flags().StringVar(&f.direction, "direction", "", "layout direction: TB, BT, LR, RL")
	cmd.Flags().Float64Var(&f.nodeSep, "node-sep", 0, "gap between nodes in a rank")
	cmd.Flags().Float64Var(&f.rankSep, "rank-sep", 0, "gap between ranks")
	cmd.Flags().Float64Var(&f.margin, "margin", 0, "outer margin")
}

// options merges the flags into base. Setting --engine or --direction
// implies --layout.
func (f *layoutFlags) options(cmd *cobra.Command, base layout.Options) (layout.Options, bool) {
	on := f.layout
	flags := cmd.Flags()
	if flags.Changed("engine") {
		base.Engine = f.engine
		on = true
	}
	if flags.Changed("direction") {
		base.Direction = parseDirection(f.direction)
		on = true
	}
	if flags.Changed("node-sep") {
		base.NodeSep = f.nodeSep
	}
	if flags.Changed("rank-sep") {
		base.RankSep = f.rankSep
	}
	if flags.Changed("margin") {
		base.MarginX, base.MarginY = f.margin, f.margin
	}
	return base, on
}

func parseDirection(s string) graph.Direction {
	d := strings.ToUpper(strings.TrimSpace(s))
	if d == "TD" {
		return graph.DirectionTB
	}
	return graph.Direction(d)
}
