package spinner

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Frame sets.
var (
	Braille = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	Line    = []string{"|", "/", "-", "\\"}
)

// Spinner animates a message until Success or Fail is called.
type Spinner struct {
	mu       sync.Mutex
	out      line
	tty      bool
	frames   []string
	interval time.Duration

	msg    string
	frame  int
	start  time.Time
	active bool
	stop   chan struct{}
	done   chan struct{}
}

// New returns a stopped spinner writing to w.
func New(w io.Writer, msg string, opts ...Option) *Spinner {
	s := resolve(w, opts)
	return &Spinner{
		out:      line{w: w},
		tty:      *s.tty,
		frames:   s.frames,
		interval: s.interval,
		msg:      msg,
	}
}

// Start begins the animation. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.start = time.Now()
	s.frame = 0

	if !s.tty {
		fmt.Fprintf(s.out.w, "%s...\n", s.msg)
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	fmt.Fprint(s.out.w, hideCursor)
	go s.run(s.stop, s.done)
}

func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.render()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	f := s.frames[s.frame%len(s.frames)]
	s.frame++
	s.out.draw(fmt.Sprintf("%s %s %s", f, s.msg, formatElapsed(time.Since(s.start))))
}

// Update replaces the message.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stop ends the animation and clears the line. It blocks until the
// animation goroutine has exited and returns the elapsed time.
func (s *Spinner) Stop() time.Duration {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return 0
	}
	s.active = false
	elapsed := time.Since(s.start)
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if stop == nil {
		return elapsed
	}
	close(stop)
	<-done

	s.mu.Lock()
	s.out.clear()
	fmt.Fprint(s.out.w, showCursor)
	s.mu.Unlock()
	return elapsed
}

// Success stops the spinner and prints a success line. An empty msg
// repeats the current message.
func (s *Spinner) Success(msg string) { s.complete(true, msg) }

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(msg string) { s.complete(false, msg) }

func (s *Spinner) complete(ok bool, msg string) {
	elapsed := s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == "" {
		msg = s.msg
	}
	finish(s.out.w, s.tty, ok, msg, elapsed)
}
