// Package report renders an audit form as a paginated PDF report.
//
// Layout is a single pass over header, company information, sections and
// summary, with page breaks decided before each block is written, followed
// by a second pass that stamps "Page i of N" footers once N is known.
package report

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/metrics"
	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

const tracerName = "github.com/r3d91ll/gmpaudit/pkg/report"

// Sentinels for errors.Is; matching is by code.
var (
	ErrEmptyDocument = werrors.New(werrors.ErrExportEmptyDocument, werrors.CategoryExport, "nothing to render")
	ErrRenderFailure = werrors.New(werrors.ErrExportRenderFailure, werrors.CategoryExport, "failed to generate PDF report")
)

// Result is a finished report.
type Result struct {
	FileName string
	PDF      []byte
	Pages    int
	Stats    stats.Stats

	// SHA256 is the hex digest of PDF, recorded so a distributed report
	// can be matched to the export that produced it.
	SHA256 string
}

// Paginator exports documents. The zero value is not usable; use NewPaginator.
type Paginator struct {
	newSurface SurfaceFactory
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewPaginator returns a paginator drawing with fpdf.
func NewPaginator() *Paginator {
	return &Paginator{
		newSurface: NewFPDFSurface,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
}

// WithLogger sets the logger.
func (p *Paginator) WithLogger(l *zap.Logger) *Paginator {
	if l != nil {
		p.logger = l
	}
	return p
}

// WithSurfaceFactory replaces the drawing backend.
func (p *Paginator) WithSurfaceFactory(f SurfaceFactory) *Paginator {
	if f != nil {
		p.newSurface = f
	}
	return p
}

// Export renders doc with the default paginator.
func Export(ctx context.Context, doc Document, opts Options) (*Result, error) {
	return NewPaginator().Export(ctx, doc, opts)
}

// Export renders doc to PDF bytes. It fails with ErrEmptyDocument before any
// page is created when there is nothing to render, and with ErrRenderFailure
// for any other failure; no partial output is returned in either case.
func (p *Paginator) Export(ctx context.Context, doc Document, opts Options) (res *Result, err error) {
	start := time.Now()
	_, span := p.tracer.Start(ctx, "report.Export")
	defer span.End()

	defer func() {
		status := metrics.StatusSuccess
		switch {
		case werrors.IsCode(err, werrors.ErrExportEmptyDocument):
			status = metrics.StatusEmpty
		case err != nil:
			status = metrics.StatusFailure
		}
		metrics.ReportExportsTotal.WithLabelValues(status).Inc()
		metrics.ReportExportDuration.WithLabelValues("pdf").Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.logger.Warn("report export failed", zap.Error(err))
		}
	}()

	opts, err = opts.normalize()
	if err != nil {
		return nil, werrors.Wrap(err, werrors.ErrValidationInvalidOption, werrors.CategoryValidation, err.Error())
	}
	span.SetAttributes(
		attribute.String("report.page_size", string(opts.PageSize)),
		attribute.String("report.orientation", string(opts.Orientation)),
		attribute.Int("report.questions", doc.QuestionCount()),
	)

	if err := checkRenderable(doc); err != nil {
		return nil, err
	}

	pdf, pages, err := p.render(doc, opts)
	if err != nil {
		return nil, err
	}

	res = &Result{
		FileName: FileName(doc.Company.AuditeeName, opts.Now()),
		PDF:      pdf,
		Pages:    pages,
		Stats:    doc.Stats(),
		SHA256:   Digest(pdf),
	}
	span.SetAttributes(attribute.Int("report.pages", pages))
	metrics.ReportPages.Observe(float64(pages))
	p.logger.Info("report exported",
		zap.String("file", res.FileName),
		zap.Int("pages", pages),
		zap.Int("bytes", len(pdf)),
		zap.String("sha256", res.SHA256),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func checkRenderable(doc Document) error {
	if len(doc.Sections) == 0 && doc.Company.IsEmpty() {
		return werrors.Export(werrors.ErrExportEmptyDocument, "document has no sections and no company information")
	}
	if doc.QuestionCount() == 0 {
		return werrors.Export(werrors.ErrExportEmptyDocument, "document has no questions to summarise")
	}
	return nil
}

// render runs the layout and serialises the surface. Panics from the backend
// are converted to ErrRenderFailure.
func (p *Paginator) render(doc Document, opts Options) (pdf []byte, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pdf, pages = nil, 0
			err = werrors.ExportWrap(fmt.Errorf("panic: %v", r), werrors.ErrExportRenderFailure, "failed to generate PDF report")
		}
	}()

	surf, err := p.newSurface(opts.PageSize, opts.Orientation)
	if err != nil {
		return nil, 0, werrors.ExportWrap(err, werrors.ErrExportRenderFailure, "failed to create PDF surface")
	}

	newLayout(surf, doc, opts).run()
	if err := surf.Err(); err != nil {
		return nil, 0, werrors.ExportWrap(err, werrors.ErrExportRenderFailure, "failed to lay out PDF report")
	}

	var buf bytes.Buffer
	if err := surf.Output(&buf); err != nil {
		return nil, 0, werrors.ExportWrap(err, werrors.ErrExportRenderFailure, "failed to write PDF report")
	}
	return buf.Bytes(), surf.PageCount(), nil
}

// ExportToFile renders doc into dir under its generated file name. The file
// appears only when the whole report was written.
func ExportToFile(ctx context.Context, doc Document, opts Options, dir string) (string, error) {
	return NewPaginator().ExportToFile(ctx, doc, opts, dir)
}

// ExportToFile renders doc into dir under its generated file name.
func (p *Paginator) ExportToFile(ctx context.Context, doc Document, opts Options, dir string) (string, error) {
	res, err := p.Export(ctx, doc, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, res.FileName)
	if err := WriteFileAtomic(path, res.PDF); err != nil {
		return "", werrors.ExportWrap(err, werrors.ErrExportRenderFailure, "failed to save PDF report").
			WithContext("path", path)
	}
	return path, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, creating the parent directory when needed. On failure path is
// left untouched.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
