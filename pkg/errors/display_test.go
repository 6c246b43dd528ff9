package errors

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFormatter_Format(t *testing.T) {
	f := &Formatter{Indent: "  "}

	t.Run("nil", func(t *testing.T) {
		if got := f.Format(nil); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("standard error", func(t *testing.T) {
		if got := f.Format(errors.New("boom")); got != "Error: boom" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("audit error with everything", func(t *testing.T) {
		ae := New(ErrStorageDecryptFailed, CategoryStorage, "cannot open sealed field").
			WithContext("field", "auditeeName").
			WithCause(errors.New("message authentication failed")).
			WithSuggestions("restore the key file")

		got := f.Format(ae)
		want := strings.Join([]string{
			"ERROR [STORAGE_DECRYPT_FAILED]: cannot open sealed field",
			"  field: auditeeName",
			"  cause: message authentication failed",
			"",
			"  → restore the key file",
		}, "\n")
		if got != want {
			t.Errorf("Format() =\n%s\nwant\n%s", got, want)
		}
	})
}

func TestFormatter_ColorOnlyWhenEnabled(t *testing.T) {
	ae := New(ErrConfigInvalid, CategoryConfig, "bad page size")

	plain := (&Formatter{Indent: "  "}).Format(ae)
	if strings.Contains(plain, "\033[") {
		t.Error("expected no ANSI codes when UseColor is false")
	}

	colored := (&Formatter{UseColor: true, Indent: "  "}).Format(ae)
	if !strings.Contains(colored, colorRed) {
		t.Error("expected ANSI codes when UseColor is true")
	}
}

func TestFormatter_Display(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf, Indent: "  "}
	f.Display(Command(ErrCommandNotFound, "unknown command: /frobnicate"))

	out := buf.String()
	if !strings.HasPrefix(out, "ERROR [COMMAND_NOT_FOUND]: unknown command: /frobnicate") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "/help") {
		t.Error("expected the registered suggestion in the output")
	}
}

func TestCategoryLabel(t *testing.T) {
	if CategoryLabel(CategoryExport) != "Export Error" {
		t.Error("unexpected export label")
	}
	if CategoryLabel(Category("nope")) != "Error" {
		t.Error("unknown categories fall back to Error")
	}
}
