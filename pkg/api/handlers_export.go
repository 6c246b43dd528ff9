package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/metrics"
	"github.com/r3d91ll/gmpaudit/pkg/report"
)

const tracerName = "github.com/r3d91ll/gmpaudit/pkg/api"

var tracer trace.Tracer = otel.Tracer(tracerName)

// DigestHeader carries the SHA-256 of an exported PDF.
const DigestHeader = "X-Report-SHA256"

// ExportSummary is published with export.completed.
type ExportSummary struct {
	Format   string `json:"format"`
	FileName string `json:"fileName"`
	Bytes    int    `json:"bytes"`
	Pages    int    `json:"pages,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
}

func (s *Server) exportPDF(c *gin.Context) {
	opts := s.deps.Report
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			failErr(c, werrors.Validation(werrors.ErrValidationInvalidOption, "invalid export options: "+err.Error()))
			return
		}
	}

	ctx, span := tracer.Start(c.Request.Context(), "api.export", trace.WithAttributes(attribute.String("format", "pdf")))
	defer span.End()

	doc := report.FromForm(s.deps.Store.Snapshot())
	res, err := s.deps.Paginator.Export(ctx, doc, opts)
	if err != nil {
		s.exportFailed(c, span, "pdf", err)
		return
	}
	span.SetAttributes(attribute.Int("pages", res.Pages))
	s.exportDone(c, ExportSummary{Format: "pdf", FileName: res.FileName, Bytes: len(res.PDF), Pages: res.Pages, SHA256: res.SHA256})
	c.Header(DigestHeader, res.SHA256)
	sendAttachment(c, "application/pdf", res.FileName, res.PDF)
}

func (s *Server) exportHTML(c *gin.Context) {
	s.exportText(c, "html", "text/html; charset=utf-8", func(ctx context.Context, buf *bytes.Buffer) error {
		return report.RenderHTML(buf, report.FromForm(s.deps.Store.Snapshot()), s.deps.Report)
	})
}

func (s *Server) exportCSV(c *gin.Context) {
	cfg := *s.deps.CSV
	if d := c.Query("dialect"); d != "" {
		dialect, err := report.ParseCSVDialect(d)
		if err != nil {
			failErr(c, werrors.Validation(werrors.ErrValidationInvalidOption, err.Error()).
				WithContext("dialect", d))
			return
		}
		cfg.Dialect = dialect
	}
	contentType := "text/csv; charset=utf-8"
	if cfg.Dialect == report.DialectTSV {
		contentType = "text/tab-separated-values; charset=utf-8"
	}
	s.exportText(c, "csv", contentType, func(ctx context.Context, buf *bytes.Buffer) error {
		return report.WriteCSV(buf, report.FromForm(s.deps.Store.Snapshot()), &cfg)
	})
}

// exportText renders a non-PDF format into memory and sends it as an
// attachment named after the PDF file name stem.
func (s *Server) exportText(c *gin.Context, format, contentType string, render func(context.Context, *bytes.Buffer) error) {
	ctx, span := tracer.Start(c.Request.Context(), "api.export", trace.WithAttributes(attribute.String("format", format)))
	defer span.End()

	start := time.Now()
	var buf bytes.Buffer
	err := render(ctx, &buf)
	metrics.ReportExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	if err != nil {
		if _, isAudit := werrors.AsAuditError(err); !isAudit {
			err = werrors.ExportWrap(err, werrors.ErrExportRenderFailure, "failed to render "+strings.ToUpper(format))
		}
		s.exportFailed(c, span, format, err)
		return
	}

	name := strings.TrimSuffix(report.FileName(s.deps.Store.Snapshot().CompanyInfo.AuditeeName, s.now()), ".pdf") + "." + format
	s.exportDone(c, ExportSummary{Format: format, FileName: name, Bytes: buf.Len()})
	sendAttachment(c, contentType, name, buf.Bytes())
}

func (s *Server) now() time.Time {
	if s.deps.Report.Now != nil {
		return s.deps.Report.Now()
	}
	return time.Now()
}

func (s *Server) exportDone(c *gin.Context, sum ExportSummary) {
	s.logger.Info("report exported",
		zap.String("format", sum.Format),
		zap.String("file", sum.FileName),
		zap.Int("bytes", sum.Bytes),
		zap.String("request_id", c.GetString(requestIDKey)))
	s.hub.Publish(EventExportCompleted, sum)
	s.hub.Notify(NotifySuccess, fmt.Sprintf("%s report exported", strings.ToUpper(sum.Format)))
}

func (s *Server) exportFailed(c *gin.Context, span trace.Span, format string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Warn("report export failed", zap.String("format", format), zap.Error(err))
	s.hub.Publish(EventExportFailed, gin.H{"format": format, "error": err.Error()})
	s.hub.Notify(NotifyError, "Failed to generate report: "+err.Error())
	failErr(c, err)
}

func sendAttachment(c *gin.Context, contentType, name string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, body)
}
