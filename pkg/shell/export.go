package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/report"
	"github.com/r3d91ll/gmpaudit/pkg/spinner"
)

// exportFormats maps a format name to its file extension.
var exportFormats = map[string]string{
	"pdf":  ".pdf",
	"html": ".html",
	"csv":  ".csv",
}

func (s *Shell) export(ctx context.Context, rest string) error {
	a, _ := args(rest, 2, 0, "/export [pdf|html|csv] [path]")
	format := strings.ToLower(a[0])
	if format == "" {
		format = "pdf"
	}
	if _, ok := exportFormats[format]; !ok {
		return werrors.Commandf(werrors.ErrCommandInvalidArg, "unknown export format %q; use pdf, html or csv", a[0]).
			WithContext("format", a[0])
	}

	spin := spinner.New(s.out, fmt.Sprintf("Exporting %s report", strings.ToUpper(format)))
	spin.Start()
	path, err := s.writeExport(ctx, format, a[1])
	if err != nil {
		spin.Fail("Export failed")
		return err
	}
	spin.Success("Report written to " + path)
	return nil
}

func (s *Shell) writeExport(ctx context.Context, format, path string) (string, error) {
	doc := report.FromForm(s.store.Snapshot())
	opts := s.cfg.Report

	if format == "pdf" && path == "" {
		out, err := s.paginator.ExportToFile(ctx, doc, opts, s.cfg.OutputDir)
		if err != nil {
			return "", exportError(format, s.cfg.OutputDir, err)
		}
		return out, nil
	}

	var buf bytes.Buffer
	switch format {
	case "pdf":
		res, err := s.paginator.Export(ctx, doc, opts)
		if err != nil {
			return "", err
		}
		buf.Write(res.PDF)
	case "html":
		if err := report.RenderHTML(&buf, doc, opts); err != nil {
			return "", err
		}
	case "csv":
		if err := report.WriteCSV(&buf, doc, s.cfg.CSV); err != nil {
			return "", err
		}
	}

	if path == "" {
		name := report.FileName(doc.Company.AuditeeName, opts.Now())
		path = filepath.Join(s.cfg.OutputDir, strings.TrimSuffix(name, ".pdf")+exportFormats[format])
	}
	if err := report.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return "", exportError(format, path, err)
	}
	return path, nil
}

// exportError turns a file system failure into an AuditError with a
// suggestion matching the cause. AuditErrors pass through unchanged.
func exportError(format, path string, cause error) error {
	if _, ok := werrors.AsAuditError(cause); ok {
		return cause
	}

	msg := strings.ToLower(cause.Error())
	var reason, suggestion string
	switch {
	case errors.Is(cause, fs.ErrPermission) || strings.Contains(msg, "permission denied"):
		reason, suggestion = "permission denied", "Choose a directory you can write to, e.g. /export "+format+" ~/report"+exportFormats[format]
	case strings.Contains(msg, "no space left") || strings.Contains(msg, "quota exceeded"):
		reason, suggestion = "disk space full", "Free up disk space or export to another drive"
	case strings.Contains(msg, "read-only file system"):
		reason, suggestion = "read-only file system", "Export to a writable location"
	case strings.Contains(msg, "file name too long"):
		reason, suggestion = "path too long", "Use a shorter file name or directory"
	case errors.Is(cause, fs.ErrNotExist) || strings.Contains(msg, "no such file or directory"):
		reason, suggestion = "directory not found", "Create the directory first or pick an existing one"
	case strings.Contains(msg, "invalid argument"):
		reason, suggestion = "invalid path", "Remove special characters from the path"
	default:
		reason, suggestion = "write failed", "Check the path and try again"
	}

	return werrors.IOWrap(cause, werrors.ErrIOWriteFailed,
		fmt.Sprintf("failed to export %s: %s", strings.ToUpper(format), reason)).
		WithContext("format", format).
		WithContext("path", path).
		WithSuggestions(suggestion)
}
