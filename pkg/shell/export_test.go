package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/store"
)

func TestExportFormats(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "/company auditeeName Acme & Co.")
	h.mustRun(t, "/answer 1a c")
	h.mustRun(t, "/answer 1b nc")

	out := h.mustRun(t, "/export")
	want := filepath.Join(h.dir, "out", "GMP_Audit_Acme___Co__2024-03-05.pdf")
	if !strings.Contains(out, "Report written to "+want) {
		t.Errorf("/export = %q", out)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("exported file is not a PDF")
	}

	h.mustRun(t, "/export html")
	html, err := os.ReadFile(filepath.Join(h.dir, "out", "GMP_Audit_Acme___Co__2024-03-05.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "Acme &amp; Co.") {
		t.Error("html export should contain the escaped company name")
	}

	csvPath := filepath.Join(h.dir, "custom", "summary.csv")
	h.mustRun(t, "/export CSV "+csvPath)
	csv, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(csv), "1b") {
		t.Errorf("csv export = %q", csv)
	}

	pdfPath := filepath.Join(h.dir, "explicit.pdf")
	h.mustRun(t, "/export pdf "+pdfPath)
	if _, err := os.Stat(pdfPath); err != nil {
		t.Errorf("explicit pdf path: %v", err)
	}
}

func TestExportLeavesNoPartialFile(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "/answer 1a c")

	// The target is an occupied directory, so the final rename fails.
	dir := filepath.Join(h.dir, "reports")
	target := filepath.Join(dir, "summary.csv")
	if err := os.MkdirAll(filepath.Join(target, "keep"), 0755); err != nil {
		t.Fatal(err)
	}

	err := h.run(t, "/export csv "+target)
	if !werrors.IsCode(err, werrors.ErrIOWriteFailed) {
		t.Fatalf("export onto a directory = %v, want IO_WRITE_FAILED", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "summary.csv" || !entries[0].IsDir() {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory left with %v after a failed export", names)
	}

	// A successful export replaces an existing file whole.
	existing := filepath.Join(dir, "prior.csv")
	if err := os.WriteFile(existing, []byte(strings.Repeat("stale\n", 10000)), 0644); err != nil {
		t.Fatal(err)
	}
	h.mustRun(t, "/export csv "+existing)
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Error("export did not replace the previous file")
	}
}

func TestExportEmptyForm(t *testing.T) {
	var out bytes.Buffer
	sh := New(Deps{Store: store.New(&audit.Form{ID: "empty"}), Out: &out}, Config{OutputDir: t.TempDir()})

	for _, format := range []string{"pdf", "html"} {
		out.Reset()
		err := sh.Execute(context.Background(), "/export "+format)
		if !werrors.IsCode(err, werrors.ErrExportEmptyDocument) {
			t.Errorf("%s export of an empty form = %v, want EmptyDocument", format, err)
		}
		if !strings.Contains(out.String(), "Export failed") {
			t.Errorf("%s output = %q", format, out.String())
		}
	}
}

func TestExportError(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		reason string
	}{
		{"permission", fmt.Errorf("open x: %w", fs.ErrPermission), "permission denied"},
		{"permission text", errors.New("open /root/x.pdf: permission denied"), "permission denied"},
		{"disk full", errors.New("write: no space left on device"), "disk space full"},
		{"quota", errors.New("write: disk quota exceeded"), "disk space full"},
		{"read-only", errors.New("open: read-only file system"), "read-only file system"},
		{"too long", errors.New("open: file name too long"), "path too long"},
		{"missing dir", fmt.Errorf("open x: %w", fs.ErrNotExist), "directory not found"},
		{"invalid", errors.New("open: invalid argument"), "invalid path"},
		{"other", errors.New("something odd"), "write failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exportError("csv", "/tmp/out.csv", tt.cause)
			ae, ok := werrors.AsAuditError(err)
			if !ok {
				t.Fatalf("exportError returned %T", err)
			}
			if ae.Code != werrors.ErrIOWriteFailed {
				t.Errorf("code = %s", ae.Code)
			}
			if !strings.Contains(ae.Message, "CSV") || !strings.Contains(ae.Message, tt.reason) {
				t.Errorf("message = %q, want format and %q", ae.Message, tt.reason)
			}
			if ae.Context["path"] != "/tmp/out.csv" || ae.Context["format"] != "csv" {
				t.Errorf("context = %v", ae.Context)
			}
			if len(ae.Suggestions) == 0 {
				t.Error("expected a suggestion")
			}
			if !errors.Is(err, tt.cause) {
				t.Error("cause should stay reachable")
			}
		})
	}

	passthrough := werrors.Export(werrors.ErrExportEmptyDocument, "nothing to render")
	if got := exportError("pdf", "x", passthrough); got != error(passthrough) {
		t.Errorf("AuditError should pass through, got %v", got)
	}
}
