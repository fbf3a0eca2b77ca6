package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
)

// =============================================================================
// Styles
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - paths
	colorGray   = lipgloss.Color("245") // Gray - keys
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	// StyleTitle renders the input name above an inspect summary.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight renders addresses and format names.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleNumber renders counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleError renders error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	stylePath        = lipgloss.NewStyle().Foreground(colorWhite)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// status prints human-readable progress lines. Converted documents and
// --json output go to the command's stdout instead, so status never mixes
// with data.
type status struct {
	w io.Writer
}

func newStatus(w io.Writer) status { return status{w: w} }

func (s status) line(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(s.w, icon.Render(glyph)+" "+msg)
}

func (s status) success(format string, args ...any) {
	s.line(styleIconSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func (s status) warn(format string, args ...any) {
	s.line(styleIconWarning, iconWarning, fmt.Sprintf(format, args...))
}

func (s status) info(format string, args ...any) {
	s.line(styleIconInfo, iconInfo, fmt.Sprintf(format, args...))
}

// detail prints an indented, dimmed line.
func (s status) detail(format string, args ...any) {
	fmt.Fprintln(s.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (s status) keyValue(key, value string) {
	fmt.Fprintln(s.w, styleKey.Render(key)+" "+value)
}

func (s status) blank() { fmt.Fprintln(s.w) }

// converted prints the summary of a convert or layout run followed by one
// line per written file.
func (s status) converted(results []*pipeline.Result, paths []string, elapsed time.Duration) {
	s.success("%s", batchLine(results, elapsed))
	for i, res := range results {
		fmt.Fprintln(s.w, "  "+StyleDim.Render(iconArrow)+" "+stylePath.Render(paths[i]))
		fmt.Fprintln(s.w, "    "+resultLine(res))
	}
}

// batchLine reads e.g. "Converted 3 diagrams, 1 cached (120ms)".
func batchLine(results []*pipeline.Result, elapsed time.Duration) string {
	cached := 0
	for _, res := range results {
		if res.CacheHit {
			cached++
		}
	}
	line := fmt.Sprintf("Converted %d %s", len(results), plural(len(results), "diagram"))
	if cached > 0 {
		line += fmt.Sprintf(", %d cached", cached)
	}
	return line + StyleDim.Render(fmt.Sprintf(" (%s)", elapsed.Round(time.Millisecond)))
}

// resultLine describes one conversion, e.g.
// "mermaid → drawio · 3 nodes · 2 edges · layout 4ms · fresh".
func resultLine(res *pipeline.Result) string {
	parts := []string{fmt.Sprintf("%s %s %s", res.From, iconArrow, res.To)}
	st := res.Stats
	for _, c := range []struct {
		n    int
		word string
	}{
		{st.NodeCount, "node"},
		{st.EdgeCount, "edge"},
		{st.ClusterCount, "cluster"},
	} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, plural(c.n, c.word)))
		}
	}
	if st.LayoutTime > 0 {
		parts = append(parts, "layout "+st.LayoutTime.Round(time.Millisecond).String())
	}

	line := StyleDim.Render(strings.Join(parts, " · ")) + StyleDim.Render(" · ")
	if res.CacheHit {
		return line + styleCached.Render("cached")
	}
	return line + StyleDim.Render("fresh")
}

// PrintError writes err to stderr in red, with the error code when there
// is one.
func PrintError(err error) {
	fprintError(os.Stderr, err)
}

func fprintError(w io.Writer, err error) {
	line := styleIconError.Render(iconError) + " " + StyleError.Render(errors.UserMessage(err))
	if code := errors.GetCode(err); code != "" {
		line += " " + StyleDim.Render("["+string(code)+"]")
	}
	fmt.Fprintln(w, line)
}
