package report

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

// -----------------------------------------------------------------------------
// Recording surface
// -----------------------------------------------------------------------------

// op is one recorded drawing call.
type op struct {
	kind  string // text, line, rect, dot, image
	page  int
	x, y  float64
	text  string
	font  Font
	color stats.RGB
}

// recordingSurface measures every rune as 0.2*size wide and records calls.
type recordingSurface struct {
	width, height float64
	pages         int
	current       int
	font          Font
	textColor     stats.RGB
	fillColor     stats.RGB

	ops []op

	err       error
	outputErr error
	panicOn   string
}

func newRecordingSurface(size PageSize, o Orientation) *recordingSurface {
	w, h := Size(size, o)
	return &recordingSurface{width: w, height: h}
}

func (s *recordingSurface) MeasureWidth(text string, f Font) float64 {
	return float64(len([]rune(text))) * f.Size * 0.2
}

func (s *recordingSurface) PageSize() (float64, float64) { return s.width, s.height }

func (s *recordingSurface) AddPage() {
	s.pages++
	s.current = s.pages
}

func (s *recordingSurface) PageCount() int { return s.pages }
func (s *recordingSurface) SetPage(n int) { s.current = n }
func (s *recordingSurface) SetFont(f Font) { s.font = f }
func (s *recordingSurface) SetTextColor(c stats.RGB) { s.textColor = c }
func (s *recordingSurface) SetDrawColor(stats.RGB) {}
func (s *recordingSurface) SetFillColor(c stats.RGB) { s.fillColor = c }

func (s *recordingSurface) Text(x, y float64, text string) {
	if s.panicOn != "" && strings.Contains(text, s.panicOn) {
		panic("boom: " + text)
	}
	s.ops = append(s.ops, op{kind: "text", page: s.current, x: x, y: y, text: text, font: s.font, color: s.textColor})
}

func (s *recordingSurface) Line(x1, y1, x2, y2 float64) {
	s.ops = append(s.ops, op{kind: "line", page: s.current, x: x1, y: y1})
}

func (s *recordingSurface) FillRect(x, y, w, h float64) {
	s.ops = append(s.ops, op{kind: "rect", page: s.current, x: x, y: y, color: s.fillColor})
}

func (s *recordingSurface) Dot(x, y, r float64) {
	s.ops = append(s.ops, op{kind: "dot", page: s.current, x: x, y: y, color: s.fillColor})
}

func (s *recordingSurface) Image(path string, x, y, w, h float64) {
	s.ops = append(s.ops, op{kind: "image", page: s.current, x: x, y: y, text: path})
}

func (s *recordingSurface) Output(w io.Writer) error {
	if s.outputErr != nil {
		return s.outputErr
	}
	_, err := io.WriteString(w, "%PDF-fake\n")
	return err
}

func (s *recordingSurface) Err() error { return s.err }

// texts returns the recorded text strings in order.
func (s *recordingSurface) texts() []string {
	var out []string
	for _, o := range s.ops {
		if o.kind == "text" {
			out = append(out, o.text)
		}
	}
	return out
}

// find returns the first text op equal to text.
func (s *recordingSurface) find(text string) (op, bool) {
	for _, o := range s.ops {
		if o.kind == "text" && o.text == text {
			return o, true
		}
	}
	return op{}, false
}

// count returns how many text ops start with prefix.
func (s *recordingSurface) count(prefix string) int {
	n := 0
	for _, o := range s.ops {
		if o.kind == "text" && strings.HasPrefix(o.text, prefix) {
			n++
		}
	}
	return n
}

func isFooter(text string) bool {
	return strings.HasPrefix(text, "Page ") || strings.HasPrefix(text, "Generated: ")
}

// recorder returns a paginator drawing on a fresh recording surface, and a
// pointer to that surface once Export has created it.
func recorder(configure func(*recordingSurface)) (*Paginator, **recordingSurface) {
	var surf *recordingSurface
	p := NewPaginator().WithSurfaceFactory(func(size PageSize, o Orientation) (Surface, error) {
		surf = newRecordingSurface(size, o)
		if configure != nil {
			configure(surf)
		}
		return surf, nil
	})
	return p, &surf
}

var errFactory = errors.New("surface unavailable")

// fixedClock is the export time used across tests.
func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
}
