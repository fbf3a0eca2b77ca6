package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerStages(t *testing.T) {
	s := newSpinner(&bytes.Buffer{}, 3)

	s.Stage(stageRead)
	assert.Equal(t, "Reading 0/3", s.text())
	s.Advance()
	s.Advance()
	assert.Equal(t, "Reading 2/3", s.text())

	s.Stage(stageConvert)
	assert.Equal(t, "Converting 0/3", s.text(), "a new stage restarts the count")
	for range 5 {
		s.Advance()
	}
	assert.Equal(t, "Converting 3/3", s.text(), "the count stops at the number of diagrams")
}

func TestSpinnerSingleDiagram(t *testing.T) {
	s := newSpinner(&bytes.Buffer{}, 1)
	s.Stage(stageLayout)
	s.Advance()
	assert.Equal(t, "Laying out...", s.text())
}

func TestSpinnerConcurrentAdvance(t *testing.T) {
	s := newSpinner(&bytes.Buffer{}, 50)
	s.Stage(stageConvert)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Advance()
		}()
	}
	wg.Wait()
	assert.Equal(t, "Converting 50/50", s.text())
}

func TestSpinnerSilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, 2)
	assert.False(t, s.live)

	s.Stage(stageWrite)
	s.Start(context.Background())
	s.Advance()
	s.Stop()
	s.Stop()
	assert.Empty(t, buf.String())
}

func TestSpinnerDrawAndClear(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, 4)
	s.Stage(stageConvert)
	s.Advance()

	s.draw(0)
	assert.Contains(t, buf.String(), "\r")
	assert.Contains(t, buf.String(), "Converting 1/4")

	width := s.width
	assert.Positive(t, width)
	buf.Reset()
	s.Stop()
	assert.Equal(t, "\r"+strings.Repeat(" ", width)+"\r", buf.String())
	assert.Zero(t, s.width)
}

func TestSpinnerStopsWithContext(t *testing.T) {
	s := newSpinner(&bytes.Buffer{}, 2)
	s.live = true // draw into the buffer as if it were a terminal

	ctx, cancel := context.WithCancel(context.Background())
	s.Stage(stageRead)
	s.Start(ctx)
	cancel()
	<-s.stopped
	s.Stop()
}
