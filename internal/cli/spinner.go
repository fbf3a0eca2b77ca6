package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Stages of a conversion as shown by the spinner.
const (
	stageRead    = "Reading"
	stageConvert = "Converting"
	stageLayout  = "Laying out"
	stageWrite   = "Writing"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner shows the stage a command is in and how many of its diagrams
// are through that stage, on one redrawn line. It only draws on a
// terminal; elsewhere every method is a no-op apart from the counters.
type spinner struct {
	w     io.Writer
	total int
	live  bool

	mu    sync.Mutex
	stage string
	done  int
	width int // of the line on screen

	stop    chan struct{}
	stopped chan struct{}
	started bool
	once    sync.Once
}

// newSpinner returns a spinner for total diagrams writing to w.
func newSpinner(w io.Writer, total int) *spinner {
	return &spinner{
		w:       w,
		total:   total,
		live:    isTerminal(w),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Stage switches to the next stage and resets the count.
func (s *spinner) Stage(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage, s.done = name, 0
}

// Advance counts one diagram through the current stage. It may be called
// from several goroutines.
func (s *spinner) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done < s.total {
		s.done++
	}
}

// text is the status shown after the frame, e.g. "Converting 3/12".
func (s *spinner) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total <= 1 {
		return s.stage + "..."
	}
	return fmt.Sprintf("%s %d/%d", s.stage, s.done, s.total)
}

// Start animates until Stop is called or ctx ends.
func (s *spinner) Start(ctx context.Context) {
	if !s.live {
		return
	}
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				s.clear()
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.draw(i)
			}
		}
	}()
}

func (s *spinner) draw(frame int) {
	line := styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)]) + " " + StyleDim.Render(s.text())
	s.mu.Lock()
	defer s.mu.Unlock()
	pad := max(s.width-lipgloss.Width(line), 0)
	fmt.Fprint(s.w, "\r"+line+strings.Repeat(" ", pad))
	s.width = lipgloss.Width(line)
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// Stop ends the animation and clears its line. It is safe to call more
// than once, and before Start.
func (s *spinner) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.stopped
	}
	s.clear()
}
