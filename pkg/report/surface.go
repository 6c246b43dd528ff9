package report

import (
	"io"

	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

// FontStyle selects the face within a family.
type FontStyle string

const (
	StyleRegular FontStyle = ""
	StyleBold    FontStyle = "B"
)

// Font is a family, style and point size.
type Font struct {
	Family string
	Style  FontStyle
	Size   float64
}

// Measurer reports the rendered width of text in page units.
type Measurer interface {
	MeasureWidth(text string, f Font) float64
}

// Surface is the drawing backend the paginator writes to. Coordinates are
// in page units from the top-left corner; text y is the baseline.
//
// Implementations record the first error and turn later calls into no-ops,
// surfacing it through Err.
type Surface interface {
	Measurer

	PageSize() (width, height float64)
	AddPage()
	PageCount() int
	// SetPage makes page n (1-based) current for further drawing.
	SetPage(n int)

	SetFont(f Font)
	SetTextColor(c stats.RGB)
	SetDrawColor(c stats.RGB)
	SetFillColor(c stats.RGB)

	Text(x, y float64, text string)
	Line(x1, y1, x2, y2 float64)
	FillRect(x, y, w, h float64)
	// Dot draws a filled circle in the fill color.
	Dot(x, y, r float64)
	// Image draws an image file; a zero h keeps the aspect ratio.
	Image(path string, x, y, w, h float64)

	Output(w io.Writer) error
	Err() error
}

// SurfaceFactory creates an empty surface for one export.
type SurfaceFactory func(size PageSize, orientation Orientation) (Surface, error)
