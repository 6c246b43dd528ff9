package report

import (
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

// fpdfSurface draws onto a go-pdf/fpdf document using the core fonts.
type fpdfSurface struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
	font      Font
}

// NewFPDFSurface returns an fpdf-backed Surface in millimetres.
func NewFPDFSurface(size PageSize, orientation Orientation) (Surface, error) {
	orient := "P"
	if orientation == Landscape {
		orient = "L"
	}
	sizeStr := "A4"
	if size == PageLetter {
		sizeStr = "Letter"
	}

	pdf := fpdf.New(orient, "mm", sizeStr, "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetCreator("gmpaudit", false)
	pdf.SetTitle("GMP Quality Audit Report", false)
	pdf.SetCreationDate(time.Now())
	pdf.SetFont(fontBody.Family, string(fontBody.Style), fontBody.Size)

	return &fpdfSurface{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		font:      fontBody,
	}, pdf.Error()
}

func (s *fpdfSurface) MeasureWidth(text string, f Font) float64 {
	if f != s.font {
		s.pdf.SetFont(f.Family, string(f.Style), f.Size)
		defer s.pdf.SetFont(s.font.Family, string(s.font.Style), s.font.Size)
	}
	return s.pdf.GetStringWidth(s.translate(text))
}

func (s *fpdfSurface) PageSize() (float64, float64) {
	return s.pdf.GetPageSize()
}

func (s *fpdfSurface) AddPage() {
	s.pdf.AddPage()
	s.pdf.SetFont(s.font.Family, string(s.font.Style), s.font.Size)
}

func (s *fpdfSurface) PageCount() int { return s.pdf.PageCount() }

func (s *fpdfSurface) SetPage(n int) { s.pdf.SetPage(n) }

func (s *fpdfSurface) SetFont(f Font) {
	s.font = f
	s.pdf.SetFont(f.Family, string(f.Style), f.Size)
}

func (s *fpdfSurface) SetTextColor(c stats.RGB) {
	s.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}

func (s *fpdfSurface) SetDrawColor(c stats.RGB) {
	s.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func (s *fpdfSurface) SetFillColor(c stats.RGB) {
	s.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func (s *fpdfSurface) Text(x, y float64, text string) {
	s.pdf.Text(x, y, s.translate(text))
}

func (s *fpdfSurface) Line(x1, y1, x2, y2 float64) {
	s.pdf.Line(x1, y1, x2, y2)
}

func (s *fpdfSurface) FillRect(x, y, w, h float64) {
	s.pdf.Rect(x, y, w, h, "F")
}

func (s *fpdfSurface) Dot(x, y, r float64) {
	s.pdf.Circle(x, y, r, "F")
}

func (s *fpdfSurface) Image(path string, x, y, w, h float64) {
	opts := fpdf.ImageOptions{ReadDpi: true}
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".png"):
		opts.ImageType = "PNG"
	case strings.HasSuffix(strings.ToLower(path), ".jpg"), strings.HasSuffix(strings.ToLower(path), ".jpeg"):
		opts.ImageType = "JPG"
	}
	s.pdf.ImageOptions(path, x, y, w, h, false, opts, 0, "")
}

func (s *fpdfSurface) Output(w io.Writer) error {
	return s.pdf.Output(w)
}

func (s *fpdfSurface) Err() error {
	return s.pdf.Error()
}
