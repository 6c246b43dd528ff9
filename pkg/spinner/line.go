// Package spinner shows progress for long-running shell operations: an
// animated spinner for report rendering and a progress bar for photo batches.
//
// When the writer is not a terminal both fall back to one plain line per
// state change so logs and pipes stay readable.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Option configures a Spinner or Progress.
type Option func(*settings)

type settings struct {
	tty      *bool
	frames   []string
	interval time.Duration
	width    int
}

// WithTTY overrides terminal detection.
func WithTTY(tty bool) Option {
	return func(s *settings) { s.tty = &tty }
}

// WithFrames sets the spinner animation frames.
func WithFrames(frames ...string) Option {
	return func(s *settings) {
		if len(frames) > 0 {
			s.frames = frames
		}
	}
}

// WithInterval sets the spinner refresh interval.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithWidth sets the progress bar width in cells.
func WithWidth(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.width = n
		}
	}
}

func resolve(w io.Writer, opts []Option) settings {
	s := settings{
		frames:   Braille,
		interval: 80 * time.Millisecond,
		width:    24,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.tty == nil {
		tty := isTerminal(w)
		s.tty = &tty
	}
	return s
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// line redraws a single terminal line in place.
type line struct {
	w    io.Writer
	last int
}

func (l *line) draw(s string) {
	l.clear()
	fmt.Fprint(l.w, s)
	l.last = lipgloss.Width(s)
}

func (l *line) clear() {
	if l.last > 0 {
		fmt.Fprint(l.w, "\r"+strings.Repeat(" ", l.last)+"\r")
		l.last = 0
	}
}

// finish writes the closing status line.
func finish(w io.Writer, tty, ok bool, msg string, elapsed time.Duration) {
	symbol, style := symbolSuccess, successStyle
	if !ok {
		symbol, style = symbolFailure, failureStyle
	}
	if tty {
		symbol = style.Render(symbol)
	}
	fmt.Fprintf(w, "%s %s %s\n", symbol, msg, formatElapsed(elapsed))
}

// formatElapsed renders "(1.2s)" under a minute and "(1m 30s)" above.
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}
