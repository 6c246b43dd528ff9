package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	barFilled = "█"
	barEmpty  = "░"

	minSamplesForETA = 2
)

// Progress is a bar for work with a known number of items.
type Progress struct {
	mu    sync.Mutex
	out   line
	tty   bool
	width int

	msg   string
	total int
	done  int
	start time.Time
}

// NewProgress returns a bar for total items and starts its clock.
func NewProgress(w io.Writer, total int, msg string, opts ...Option) *Progress {
	s := resolve(w, opts)
	return &Progress{
		out:   line{w: w},
		tty:   *s.tty,
		width: s.width,
		msg:   msg,
		total: total,
		start: time.Now(),
	}
}

// Set records done of total items. Its signature matches the progress
// callbacks of batch operations so it can be passed directly.
func (p *Progress) Set(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total > 0 {
		p.total = total
	}
	if done < 0 {
		done = 0
	}
	if p.total > 0 && done > p.total {
		done = p.total
	}
	p.done = done

	if p.tty {
		p.out.draw(p.render())
		return
	}
	fmt.Fprintf(p.out.w, "%s %d/%d\n", p.msg, p.done, p.total)
}

// Done reports the completed and total counts.
func (p *Progress) Done() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.total
}

// Complete clears the bar and prints a success line.
func (p *Progress) Complete(msg string) { p.finish(true, msg) }

// Fail clears the bar and prints a failure line.
func (p *Progress) Fail(msg string) { p.finish(false, msg) }

func (p *Progress) finish(ok bool, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out.clear()
	if msg == "" {
		msg = p.msg
	}
	finish(p.out.w, p.tty, ok, msg, time.Since(p.start))
}

func (p *Progress) render() string {
	pct := p.percent()
	s := fmt.Sprintf("%s %s %3d%% (%d/%d) %s", p.msg, p.bar(pct), pct, p.done, p.total,
		formatElapsed(time.Since(p.start)))
	if eta, ok := p.eta(); ok {
		s += " ETA " + formatETA(eta)
	}
	return s
}

func (p *Progress) percent() int {
	if p.total <= 0 {
		return 0
	}
	return p.done * 100 / p.total
}

func (p *Progress) bar(pct int) string {
	filled := p.width * pct / 100
	return strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, p.width-filled)
}

// eta extrapolates the average time per finished item.
func (p *Progress) eta() (time.Duration, bool) {
	if p.done < minSamplesForETA || p.done >= p.total {
		return 0, false
	}
	per := time.Since(p.start) / time.Duration(p.done)
	return per * time.Duration(p.total-p.done), true
}

func formatETA(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
