// Package cli implements the diagramkit command-line interface.
//
// Commands convert diagrams between formats, compute layouts, inspect
// diagrams, serve the HTTP API and manage the cache. The CLI is built using
// cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - convert: Convert one or more diagrams, optionally laying them out
//   - layout: Compute positions and write the positioned diagram
//   - inspect: Print statistics and clusters
//   - formats: List the supported formats
//   - serve: Run the HTTP API
//   - cache: Manage the layout and conversion cache
//
// # Configuration
//
// Settings are read from diagramkit.toml or diagramkit.yaml in the working
// directory or the user config directory, or from --config. Flags override
// the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger: timestamps like "14:32:01.45" and
// messages below level dropped. Pipeline and server loggers derive from it.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times a command and its stages. Stage timings are logged at
// debug level; the total at info level once the command is done.
type progress struct {
	logger *log.Logger
	start  time.Time
	mark   time.Time
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, mark: now}
}

// stage logs the time spent since the previous stage ended.
func (p *progress) stage(name string) {
	now := time.Now()
	p.logger.Debug("stage done", "stage", strings.ToLower(name), "took", now.Sub(p.mark).Round(time.Microsecond))
	p.mark = now
}

// done logs the number of diagrams handled and returns the total time,
// rounded to the millisecond. A single diagram is logged at debug level;
// the status line already reports it.
func (p *progress) done(diagrams int) time.Duration {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	lvl := log.InfoLevel
	if diagrams <= 1 {
		lvl = log.DebugLevel
	}
	p.logger.Log(lvl, "done", "diagrams", diagrams, "took", elapsed)
	return elapsed
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches the command logger to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() outside a command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
