package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/r3d91ll/gmpaudit/pkg/api"
	"github.com/r3d91ll/gmpaudit/pkg/audit"
	"github.com/r3d91ll/gmpaudit/pkg/config"
)

// writeConfig writes a config whose storage lives under a temp dir and
// returns its path.
func writeConfig(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.Storage.Backend = backend
	c.Storage.Path = filepath.Join(dir, "data")
	c.Photos.Dir = filepath.Join(dir, "photos")
	c.Export.OutputDir = filepath.Join(dir, "out")
	c.Log.File = filepath.Join(dir, "gmpaudit.log")
	path := filepath.Join(dir, "config.yaml")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seed stores a form with one answered question through the configured
// backend.
func seed(t *testing.T, cfgPath string) {
	t.Helper()
	c, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load config: %v", err)
	}
	a, err := openApp(context.Background(), c, nil, true)
	if err != nil {
		t.Fatalf("openApp: %v", err)
	}
	if err := a.store.UpdateCompany(audit.FieldAuditeeName, "Acme"); err != nil {
		t.Fatal(err)
	}
	if err := a.store.SetCompliance("1a", audit.StatusNotCompliant); err != nil {
		t.Fatal(err)
	}
	if err := a.store.SetNotes("1a", "No signed org chart"); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// =============================================================================
// Commands
// =============================================================================

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out) != "gmpaudit "+version {
		t.Errorf("unexpected output %q", out)
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if _, err := run(t, "--config", path, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := config.Load(path); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	cfgPath := writeConfig(t, "file")
	seed(t, cfgPath)

	outPath := filepath.Join(t.TempDir(), "report.pdf")
	out, err := run(t, "--config", cfgPath, "export", "--format", "pdf", "--output", outPath, "--orientation", "landscape")
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
	if !strings.Contains(out, outPath) {
		t.Errorf("expected output path in %q", out)
	}
}

func TestExportCommandRejectsBadOption(t *testing.T) {
	cfgPath := writeConfig(t, "file")
	_, err := run(t, "--config", cfgPath, "export", "--page-size", "tabloid")
	if err == nil {
		t.Fatal("expected error for unknown page size")
	}
	exportFlags.pageSize = ""
}

func TestStatsJSON(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfgPath := writeConfig(t, backend)
			seed(t, cfgPath)

			out, err := run(t, "--config", cfgPath, "stats", "--json")
			if err != nil {
				t.Fatalf("stats failed: %v", err)
			}
			var st api.StatsResponse
			if err := json.Unmarshal([]byte(out), &st); err != nil {
				t.Fatalf("invalid JSON %q: %v", out, err)
			}
			if st.Total != 30 || st.NotCompliant != 1 {
				t.Errorf("unexpected stats %+v", st)
			}
			if st.Verdict != "UNSATISFACTORY" {
				t.Errorf("verdict = %q", st.Verdict)
			}
		})
	}
	statsJSON = false
}

func TestSummaryPlain(t *testing.T) {
	cfgPath := writeConfig(t, "file")
	seed(t, cfgPath)

	out, err := run(t, "--config", cfgPath, "summary")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{"# GMP Audit Summary: Acme", "## Findings", "No signed org chart"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := renderMarkdown("# Title\n\nSome **bold** text.\n", 60)
	if err != nil {
		t.Fatalf("renderMarkdown failed: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("unexpected render %q", out)
	}
}

func TestOpenBackendIgnoresCase(t *testing.T) {
	for _, name := range []string{"SQLite", "FILE"} {
		t.Run(name, func(t *testing.T) {
			cfgPath := writeConfig(t, name)
			c, err := config.Load(cfgPath)
			if err != nil {
				t.Fatalf("Load config: %v", err)
			}
			b, err := openBackend(context.Background(), c)
			if err != nil {
				t.Fatalf("openBackend: %v", err)
			}
			defer closeBackend(b)

			want := "file"
			if strings.EqualFold(name, "sqlite") {
				want = "sqlite"
			}
			if b.Name() != want {
				t.Errorf("backend = %s, want %s", b.Name(), want)
			}
		})
	}
}
