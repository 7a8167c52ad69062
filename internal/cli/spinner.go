package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames cycle while a learning run holds the terminal.
var spinnerFrames = []string{"◜", "◠", "◝", "◞", "◡", "◟"}

// Spinner renders an in-place activity indicator on stderr. The elapsed
// wall time is shown next to the message so long ensemble loops do not look
// stalled.
type Spinner struct {
	message string
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
	width   int
	stop    sync.Once
	stopped chan struct{}
}

// newSpinner creates a spinner that stops when the context is cancelled.
func newSpinner(ctx context.Context, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation. The spinner owns the current stderr line
// until it is stopped.
func (s *Spinner) Start() {
	s.started = time.Now()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.render(spinnerFrames[frame%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) render(frame string) {
	elapsed := time.Since(s.started).Round(time.Second)
	line := fmt.Sprintf("%s %s %s",
		styleIconSpinner.Render(frame),
		StyleDim.Render(s.message),
		StyleDim.Render("("+elapsed.String()+")"))
	if n := len(line); n > s.width {
		s.width = n
	}
	fmt.Fprintf(os.Stderr, "\r%s", line)
}

func (s *Spinner) clearLine() {
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", s.width))
}

// Stop halts the animation and clears the line. Safe to call more than
// once; only the render goroutine writes to stderr, so no line is left
// half-drawn.
func (s *Spinner) Stop() {
	s.stop.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}
