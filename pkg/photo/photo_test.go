package photo

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeConfig(t *testing.T, data []byte) image.Config {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("output format = %q, want jpeg", format)
	}
	return cfg
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantCode    string
	}{
		{"jpeg", "image/jpeg", 1024, ""},
		{"jpg alias", "image/jpg", 1024, ""},
		{"png", "image/png", 1024, ""},
		{"webp", "image/webp", 1024, ""},
		{"parameters and case", "Image/PNG; charset=binary", 1024, ""},
		{"exactly max", "image/png", MaxFileSize, ""},
		{"gif", "image/gif", 1024, werrors.ErrPhotoInvalidType},
		{"pdf", "application/pdf", 1024, werrors.ErrPhotoInvalidType},
		{"empty type", "", 1024, werrors.ErrPhotoInvalidType},
		{"over max", "image/jpeg", MaxFileSize + 1, werrors.ErrPhotoTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("site.img", tt.contentType, tt.size)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !werrors.IsCode(err, tt.wantCode) {
				t.Errorf("Validate() error = %v, want %s", err, tt.wantCode)
			}
			if !strings.Contains(err.Error(), "site.img") {
				t.Errorf("error %q does not name the file", err)
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"a.JPG":  "image/jpeg",
		"a.jpeg": "image/jpeg",
		"a.png":  "image/png",
		"a.webp": "image/webp",
		"a.gif":  "application/octet-stream",
		"noext":  "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentTypeFor(name); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}

// -----------------------------------------------------------------------------
// Compression
// -----------------------------------------------------------------------------

func TestCompress(t *testing.T) {
	tests := []struct {
		name         string
		data         func(t *testing.T) []byte
		opts         Options
		wantW, wantH int
	}{
		{"wide png scaled", func(t *testing.T) []byte { return pngBytes(t, 2400, 1600) }, DefaultOptions(), 1200, 800},
		{"small jpeg kept", func(t *testing.T) []byte { return jpegBytes(t, 800, 600) }, DefaultOptions(), 800, 600},
		{"exact width kept", func(t *testing.T) []byte { return pngBytes(t, 1200, 10) }, DefaultOptions(), 1200, 10},
		{"custom width", func(t *testing.T) []byte { return pngBytes(t, 300, 200) }, Options{MaxWidth: 150}, 150, 100},
		{"zero options use defaults", func(t *testing.T) []byte { return pngBytes(t, 1300, 13) }, Options{}, 1200, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compress(bytes.NewReader(tt.data(t)), tt.opts)
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", res.Width, res.Height, tt.wantW, tt.wantH)
			}
			if res.ContentType != "image/jpeg" {
				t.Errorf("ContentType = %q", res.ContentType)
			}
			cfg := decodeConfig(t, res.Data)
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("encoded size = %dx%d", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	_, err := Compress(strings.NewReader("not an image"), DefaultOptions())
	if !werrors.IsCode(err, werrors.ErrPhotoDecodeFailed) {
		t.Errorf("Compress() error = %v, want %s", err, werrors.ErrPhotoDecodeFailed)
	}
}

func TestThumbnail(t *testing.T) {
	for _, dims := range [][2]int{{640, 480}, {300, 900}, {150, 150}, {40, 20}} {
		data, err := Thumbnail(bytes.NewReader(pngBytes(t, dims[0], dims[1])), 150)
		if err != nil {
			t.Fatalf("Thumbnail(%v) error = %v", dims, err)
		}
		cfg := decodeConfig(t, data)
		if cfg.Width != 150 || cfg.Height != 150 {
			t.Errorf("Thumbnail(%v) = %dx%d, want 150x150", dims, cfg.Width, cfg.Height)
		}
	}

	if _, err := Thumbnail(strings.NewReader("nope"), 0); !werrors.IsCode(err, werrors.ErrPhotoDecodeFailed) {
		t.Errorf("Thumbnail() of garbage error = %v", err)
	}
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 Bytes"},
		{-5, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1234567, "1.18 MB"},
		{2 * 1024 * 1024, "2 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3072 GB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.n); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestNewMetadata(t *testing.T) {
	res := Result{Data: make([]byte, 2048), ContentType: "image/jpeg", Width: 1200, Height: 800}
	a := NewMetadata("site.jpg", res)
	b := NewMetadata("site.jpg", res)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids not unique: %q %q", a.ID, b.ID)
	}
	if a.UploadedAt.IsZero() {
		t.Error("UploadedAt not set")
	}
	if a.SizeBytes != 2048 || a.Width != 1200 || a.Height != 800 || a.FileName != "site.jpg" {
		t.Errorf("metadata = %+v", a)
	}
	if got := Describe(a); got != "site.jpg (1200x800, 2 KB)" {
		t.Errorf("Describe() = %q", got)
	}
	a.FileName, a.Width = "", 0
	if got := Describe(a); got != "Image (2 KB)" {
		t.Errorf("Describe() = %q", got)
	}
}

// -----------------------------------------------------------------------------
// Store
// -----------------------------------------------------------------------------

func TestStoreSaveAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	s := NewStore(dir, DefaultOptions(), nil)

	p, err := s.Save("dock.png", "image/png", bytes.NewReader(pngBytes(t, 1800, 900)))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if p.Width != 1200 || p.Height != 600 || p.FileName != "dock.png" {
		t.Errorf("metadata = %+v", p)
	}
	for _, path := range []string{p.Path, p.ThumbnailPath} {
		if filepath.Dir(path) != dir {
			t.Errorf("%s stored outside %s", path, dir)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stored file missing: %v", err)
		}
	}
	info, _ := os.Stat(p.Path)
	if info.Size() != p.SizeBytes {
		t.Errorf("SizeBytes = %d, file has %d", p.SizeBytes, info.Size())
	}

	if err := s.Remove(p); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove(p); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d files left after Remove", len(entries))
	}
}

func TestStoreSaveRejects(t *testing.T) {
	s := NewStore(t.TempDir(), DefaultOptions(), nil)

	t.Run("type", func(t *testing.T) {
		_, err := s.Save("doc.pdf", "application/pdf", strings.NewReader("%PDF"))
		if !werrors.IsCode(err, werrors.ErrPhotoInvalidType) {
			t.Errorf("error = %v", err)
		}
	})
	t.Run("size", func(t *testing.T) {
		big := bytes.Repeat([]byte{0}, MaxFileSize+10)
		_, err := s.Save("big.jpg", "image/jpeg", bytes.NewReader(big))
		if !werrors.IsCode(err, werrors.ErrPhotoTooLarge) {
			t.Errorf("error = %v", err)
		}
	})
	t.Run("content", func(t *testing.T) {
		_, err := s.Save("fake.jpg", "image/jpeg", strings.NewReader("not a jpeg"))
		if !werrors.IsCode(err, werrors.ErrPhotoDecodeFailed) {
			t.Errorf("error = %v", err)
		}
	})
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 0 {
		t.Errorf("rejected uploads left %d files", len(entries))
	}
}

func TestStoreSaveFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "label.jpg")
	if err := os.WriteFile(src, jpegBytes(t, 200, 100), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(t.TempDir(), DefaultOptions(), nil)
	p, err := s.SaveFile(src)
	if err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	if p.FileName != "label.jpg" || p.Width != 200 {
		t.Errorf("metadata = %+v", p)
	}

	if _, err := s.SaveFile(filepath.Join(t.TempDir(), "missing.jpg")); !werrors.IsCode(err, werrors.ErrIOReadFailed) {
		t.Errorf("missing file error = %v", err)
	}
}

// -----------------------------------------------------------------------------
// Batch
// -----------------------------------------------------------------------------

func TestBatchCompress(t *testing.T) {
	inputs := []Input{
		{Name: "a.png", Data: pngBytes(t, 2000, 1000)},
		{Name: "broken.jpg", Data: []byte("broken")},
		{Name: "c.jpg", Data: jpegBytes(t, 400, 300)},
	}

	var mu sync.Mutex
	var seen []int
	out, err := BatchCompress(context.Background(), inputs, DefaultOptions(), func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 3 {
			t.Errorf("total = %d", total)
		}
		seen = append(seen, done)
	})
	if err != nil {
		t.Fatalf("BatchCompress() error = %v", err)
	}

	sort.Ints(seen)
	if diff := cmp.Diff([]int{1, 2, 3}, seen); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}

	if len(out) != 3 {
		t.Fatalf("got %d outputs", len(out))
	}
	if out[0].Name != "a.png" || out[0].Err != nil || out[0].Result.Width != 1200 {
		t.Errorf("out[0] = %+v", out[0])
	}
	if !werrors.IsCode(out[1].Err, werrors.ErrPhotoDecodeFailed) {
		t.Errorf("out[1].Err = %v", out[1].Err)
	}
	if out[2].Err != nil || out[2].Result.Width != 400 {
		t.Errorf("out[2] = %+v", out[2])
	}
}

func TestBatchCompressCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BatchCompress(ctx, []Input{{Name: "a.png", Data: pngBytes(t, 10, 10)}}, DefaultOptions(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBatchCompressEmpty(t *testing.T) {
	out, err := BatchCompress(context.Background(), nil, DefaultOptions(), nil)
	if err != nil || len(out) != 0 {
		t.Errorf("BatchCompress(nil) = %v, %v", out, err)
	}
}

func TestStoreSaveFiles(t *testing.T) {
	src := t.TempDir()
	var paths []string
	for i, name := range []string{"b.jpg", "broken.jpg", "a.png"} {
		path := filepath.Join(src, name)
		data := jpegBytes(t, 100+i, 50)
		if name == "broken.jpg" {
			data = []byte("broken")
		}
		if name == "a.png" {
			data = pngBytes(t, 1600, 800)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	dir := t.TempDir()
	s := NewStore(dir, DefaultOptions(), nil)
	var mu sync.Mutex
	calls := 0
	out, err := s.SaveFiles(context.Background(), paths, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if total != 3 || done < 1 || done > 3 {
			t.Errorf("progress(%d, %d)", done, total)
		}
	})
	if err != nil {
		t.Fatalf("SaveFiles() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("progress called %d times, want 3", calls)
	}
	if len(out) != 3 {
		t.Fatalf("got %d results", len(out))
	}
	if out[0].Err != nil || out[0].Photo.FileName != "b.jpg" || out[0].Path != paths[0] {
		t.Errorf("out[0] = %+v", out[0])
	}
	if !werrors.IsCode(out[1].Err, werrors.ErrPhotoDecodeFailed) {
		t.Errorf("out[1].Err = %v", out[1].Err)
	}
	if out[2].Err != nil || out[2].Photo.Width != 1200 {
		t.Errorf("out[2] = %+v", out[2])
	}
	for _, i := range []int{0, 2} {
		if _, err := os.Stat(out[i].Photo.Path); err != nil {
			t.Errorf("stored file for %s: %v", out[i].Photo.FileName, err)
		}
	}
}

func TestStoreSaveFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore(t.TempDir(), DefaultOptions(), nil)
	_, err := s.SaveFiles(ctx, []string{"a.png"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
