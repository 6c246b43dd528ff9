package report

import (
	"fmt"
	"strings"
	"time"
)

// PageSize is a named paper format.
type PageSize string

const (
	PageA4     PageSize = "a4"
	PageLetter PageSize = "letter"
)

// Orientation is portrait or landscape.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Dimensions is a page width and height in millimetres (portrait).
type Dimensions struct {
	Width, Height float64
}

// PageDimensions holds the standard portrait sizes.
var PageDimensions = map[PageSize]Dimensions{
	PageA4:     {Width: 210, Height: 297},
	PageLetter: {Width: 215.9, Height: 279.4},
}

// Size returns the page width and height for a size and orientation.
func Size(size PageSize, o Orientation) (width, height float64) {
	d, ok := PageDimensions[size]
	if !ok {
		d = PageDimensions[PageA4]
	}
	if o == Landscape {
		return d.Height, d.Width
	}
	return d.Width, d.Height
}

// ParsePageSize accepts "a4" and "letter" in any case.
func ParsePageSize(s string) (PageSize, error) {
	switch PageSize(strings.ToLower(strings.TrimSpace(s))) {
	case PageA4, "":
		return PageA4, nil
	case PageLetter:
		return PageLetter, nil
	}
	return "", fmt.Errorf("unknown page size %q (want a4 or letter)", s)
}

// ParseOrientation accepts "portrait", "landscape", "p" and "l".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "portrait", "p", "":
		return Portrait, nil
	case "landscape", "l":
		return Landscape, nil
	}
	return "", fmt.Errorf("unknown orientation %q (want portrait or landscape)", s)
}

// Options controls one export.
type Options struct {
	// IncludePhotos lists photo references under each question.
	IncludePhotos bool `json:"includePhotos" yaml:"include_photos"`

	// IncludeEmptyFields renders unanswered questions without notes
	// as a bare id block instead of skipping them.
	IncludeEmptyFields bool `json:"includeEmptyFields" yaml:"include_empty_fields"`

	// IncludeSummary appends the statistics and overall verdict.
	IncludeSummary bool `json:"includeSummary" yaml:"include_summary"`

	Orientation Orientation `json:"pageOrientation" yaml:"orientation"`
	PageSize    PageSize    `json:"pageSize" yaml:"page_size"`

	// LogoPath is an optional PNG or JPEG drawn at the top-left of page 1.
	LogoPath string `json:"-" yaml:"logo_path"`

	// Now supplies the export time. Defaults to time.Now.
	Now func() time.Time `json:"-" yaml:"-"`
}

// DefaultOptions returns photos on, empty questions skipped, summary on,
// A4 portrait.
func DefaultOptions() Options {
	return Options{
		IncludePhotos:      true,
		IncludeEmptyFields: false,
		IncludeSummary:     true,
		Orientation:        Portrait,
		PageSize:           PageA4,
		Now:                time.Now,
	}
}

// normalize fills zero values and rejects unknown sizes and orientations.
func (o Options) normalize() (Options, error) {
	size, err := ParsePageSize(string(o.PageSize))
	if err != nil {
		return o, err
	}
	orient, err := ParseOrientation(string(o.Orientation))
	if err != nil {
		return o, err
	}
	o.PageSize = size
	o.Orientation = orient
	if o.Now == nil {
		o.Now = time.Now
	}
	return o, nil
}
