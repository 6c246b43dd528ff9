// Package photo validates, compresses and stores photo evidence.
//
// Every stored photo is re-encoded as JPEG, scaled down to a maximum width,
// and paired with a square thumbnail. Only metadata goes into the form.
package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/secure"
)

const (
	// MaxFileSize is the largest accepted upload.
	MaxFileSize = 5 * 1024 * 1024

	DefaultMaxWidth      = 1200
	DefaultQuality       = 80
	DefaultThumbnailSize = 150

	thumbnailQuality = 70
)

// AllowedTypes lists the accepted upload content types.
var AllowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Options controls compression.
type Options struct {
	MaxWidth      int
	Quality       int
	ThumbnailSize int
}

// DefaultOptions returns the standard compression settings.
func DefaultOptions() Options {
	return Options{
		MaxWidth:      DefaultMaxWidth,
		Quality:       DefaultQuality,
		ThumbnailSize: DefaultThumbnailSize,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.ThumbnailSize <= 0 {
		o.ThumbnailSize = DefaultThumbnailSize
	}
	return o
}

// Result is a compressed image.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

// Validate checks an upload's content type and size before any decoding.
func Validate(name, contentType string, size int64) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !allowed(ct) {
		return werrors.Photof(werrors.ErrPhotoInvalidType,
			"%s: invalid file type %q, upload JPEG, PNG or WebP images only", name, contentType).
			WithContext("file", name)
	}
	if size > MaxFileSize {
		return werrors.Photof(werrors.ErrPhotoTooLarge,
			"%s: file size %s exceeds the %s limit", name, FormatFileSize(size), FormatFileSize(MaxFileSize)).
			WithContext("file", name)
	}
	return nil
}

func allowed(ct string) bool {
	for _, t := range AllowedTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// ContentTypeFor guesses a content type from a file extension. Unknown
// extensions yield "application/octet-stream", which Validate rejects.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

// -----------------------------------------------------------------------------
// Image processing
// -----------------------------------------------------------------------------

func decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, werrors.PhotoWrap(err, werrors.ErrPhotoDecodeFailed, "failed to decode image")
	}
	return img, nil
}

// Compress decodes a JPEG, PNG or WebP image, scales it down to at most
// opts.MaxWidth pixels wide and re-encodes it as JPEG.
func Compress(r io.Reader, opts Options) (Result, error) {
	opts = opts.withDefaults()
	src, err := decode(r)
	if err != nil {
		return Result{}, err
	}
	return compressImage(src, opts)
}

func compressImage(src image.Image, opts Options) (Result, error) {
	w, h := scaledSize(src.Bounds().Dx(), src.Bounds().Dy(), opts.MaxWidth)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; transparent areas become white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return Result{}, werrors.PhotoWrap(err, werrors.ErrPhotoDecodeFailed, "failed to encode image")
	}
	return Result{Data: buf.Bytes(), ContentType: "image/jpeg", Width: w, Height: h}, nil
}

// scaledSize keeps the aspect ratio and never scales up.
func scaledSize(w, h, maxWidth int) (int, int) {
	if w <= maxWidth || w == 0 {
		return w, h
	}
	nh := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return maxWidth, nh
}

// Thumbnail returns a size x size JPEG center crop of the image.
func Thumbnail(r io.Reader, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	src, err := decode(r)
	if err != nil {
		return nil, err
	}
	return thumbnailImage(src, size)
}

func thumbnailImage(src image.Image, size int) ([]byte, error) {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, werrors.PhotoWrap(err, werrors.ErrPhotoDecodeFailed, "failed to encode thumbnail")
	}
	return buf.Bytes(), nil
}

// -----------------------------------------------------------------------------
// Formatting and metadata
// -----------------------------------------------------------------------------

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with base-1024 units and at most two
// decimals, e.g. "0 Bytes", "1.5 KB", "2 MB".
func FormatFileSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// NewMetadata builds form metadata for a stored photo.
func NewMetadata(name string, res Result) audit.Photo {
	return audit.Photo{
		ID:          secure.NewID(),
		FileName:    name,
		ContentType: res.ContentType,
		SizeBytes:   int64(len(res.Data)),
		Width:       res.Width,
		Height:      res.Height,
		UploadedAt:  time.Now().UTC(),
	}
}

// Describe returns a one-line summary such as "site.jpg (1200x800, 240.5 KB)".
func Describe(p audit.Photo) string {
	name := p.FileName
	if name == "" {
		name = "Image"
	}
	if p.Width == 0 || p.Height == 0 {
		return fmt.Sprintf("%s (%s)", name, FormatFileSize(p.SizeBytes))
	}
	return fmt.Sprintf("%s (%dx%d, %s)", name, p.Width, p.Height, FormatFileSize(p.SizeBytes))
}
