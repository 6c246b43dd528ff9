package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/photo"
	"github.com/r3d91ll/gmpaudit/pkg/report"
	"github.com/r3d91ll/gmpaudit/pkg/store"
)

var fixedNow = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	opts := report.DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return NewServer(ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}}, Deps{
		Store:  store.New(nil),
		Photos: photo.NewStore(t.TempDir(), photo.DefaultOptions(), nil),
		Report: opts,
	})
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, r)
	return rec
}

// decode unmarshals the envelope, and its data into out when out is set.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *ErrorBody      `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return Response{Success: raw.Success, Error: raw.Error}
}

// =============================================================================
// Form
// =============================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	resp := decode(t, rec, &body)
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["clients"])
}

func TestGetForm(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/form", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var f audit.Form
	decode(t, rec, &f)
	assert.Len(t, f.Sections, 5)
	assert.Equal(t, "1a", f.Sections[0].Questions[0].ID)
}

func TestPutCompany(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/api/v1/company", map[string]string{
		"auditeeName": "Acme <b>Pharma</b>",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var info audit.CompanyInfo
	decode(t, rec, &info)
	assert.Equal(t, "Acme bPharma/b", info.AuditeeName)
	assert.Equal(t, "Acme bPharma/b", s.deps.Store.Snapshot().CompanyInfo.AuditeeName)

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/api/v1/company", strings.NewReader("{"))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode(t, rec, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, werrors.ErrValidationInvalidForm, resp.Error.Code)
	})
}

func TestPatchQuestion(t *testing.T) {
	s := newTestServer(t)

	t.Run("sets fields", func(t *testing.T) {
		rec := do(t, s, http.MethodPatch, "/api/v1/questions/1a", map[string]string{
			"compliance":          "nc",
			"notes":               "SOP outdated",
			"observationCategory": "Major",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var q audit.Question
		decode(t, rec, &q)
		assert.Equal(t, audit.StatusNotCompliant, q.Compliance)
		assert.Equal(t, "SOP outdated", q.Notes)
		assert.Equal(t, "Major", q.ObservationCategory)
	})

	t.Run("omitted fields are kept", func(t *testing.T) {
		rec := do(t, s, http.MethodPatch, "/api/v1/questions/1a", map[string]string{"notes": "updated"})
		require.Equal(t, http.StatusOK, rec.Code)

		q, err := s.deps.Store.Question("1a")
		require.NoError(t, err)
		assert.Equal(t, audit.StatusNotCompliant, q.Compliance)
		assert.Equal(t, "updated", q.Notes)
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := do(t, s, http.MethodPatch, "/api/v1/questions/1a", map[string]string{"compliance": "maybe"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode(t, rec, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, werrors.ErrValidationInvalidStatus, resp.Error.Code)
	})

	t.Run("unknown question", func(t *testing.T) {
		rec := do(t, s, http.MethodPatch, "/api/v1/questions/9z", map[string]string{"notes": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decode(t, rec, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, werrors.ErrValidationUnknownQuestion, resp.Error.Code)
	})
}

func TestToggleSection(t *testing.T) {
	s := newTestServer(t)
	before := s.deps.Store.Snapshot().Sections[0].Expanded

	rec := do(t, s, http.MethodPost, "/api/v1/sections/"+s.deps.Store.Snapshot().Sections[0].ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ID       string `json:"id"`
		Expanded bool   `json:"isExpanded"`
	}
	decode(t, rec, &body)
	assert.Equal(t, !before, body.Expanded)

	rec = do(t, s, http.MethodPost, "/api/v1/sections/nope/toggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.deps.Store.SetCompliance("1a", audit.StatusCompliant))
	require.NoError(t, s.deps.Store.SetCompliance("1b", audit.StatusNotCompliant))

	rec := do(t, s, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var st StatsResponse
	decode(t, rec, &st)
	assert.Equal(t, 30, st.Total)
	assert.Equal(t, 1, st.Compliant)
	assert.Equal(t, 1, st.NotCompliant)
	assert.Equal(t, 28, st.Unanswered)
	assert.Equal(t, 3, st.CompliantPct)
	assert.NotEmpty(t, st.Verdict)
}

func TestReset(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.deps.Store.SetNotes("1a", "keep?"))

	rec := do(t, s, http.MethodPost, "/api/v1/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	q, err := s.deps.Store.Question("1a")
	require.NoError(t, err)
	assert.Empty(t, q.Notes)
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// =============================================================================
// Photos
// =============================================================================

func pngUpload(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range names {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="photo"; filename="`+name+`"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(pngData.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func upload(s *Server, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, body)
	r.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, r)
	return rec
}

func TestUploadAndDeletePhotos(t *testing.T) {
	s := newTestServer(t)
	body, ct := pngUpload(t, "line.png", "second.png")

	rec := upload(s, "/api/v1/questions/2a/photos", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Photos []audit.Photo `json:"photos"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Photos, 2)
	assert.Equal(t, "line.png", out.Photos[0].FileName)
	assert.Equal(t, "image/jpeg", out.Photos[0].ContentType)
	assert.FileExists(t, out.Photos[0].Path)
	assert.FileExists(t, out.Photos[0].ThumbnailPath)

	q, err := s.deps.Store.Question("2a")
	require.NoError(t, err)
	assert.Len(t, q.Photos, 2)

	rec = do(t, s, http.MethodDelete, "/api/v1/questions/2a/photos/"+out.Photos[0].ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoFileExists(t, out.Photos[0].Path)

	q, err = s.deps.Store.Question("2a")
	require.NoError(t, err)
	require.Len(t, q.Photos, 1)
	assert.Equal(t, out.Photos[1].ID, q.Photos[0].ID)

	t.Run("unknown photo", func(t *testing.T) {
		rec := do(t, s, http.MethodDelete, "/api/v1/questions/2a/photos/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUploadPhotosRejects(t *testing.T) {
	s := newTestServer(t)

	t.Run("unknown question", func(t *testing.T) {
		body, ct := pngUpload(t, "a.png")
		rec := upload(s, "/api/v1/questions/9z/photos", body, ct)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong type", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="photo"; filename="notes.txt"`)
		h.Set("Content-Type", "text/plain")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write([]byte("hello"))
		require.NoError(t, mw.Close())

		rec := upload(s, "/api/v1/questions/1a/photos", &body, mw.FormDataContentType())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode(t, rec, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, werrors.ErrPhotoInvalidType, resp.Error.Code)
	})

	t.Run("no files", func(t *testing.T) {
		body, ct := pngUpload(t)
		rec := upload(s, "/api/v1/questions/1a/photos", body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// =============================================================================
// Export
// =============================================================================

func TestExportPDF(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.deps.Store.UpdateCompany(audit.FieldAuditeeName, "Acme & Co."))
	require.NoError(t, s.deps.Store.SetCompliance("1a", audit.StatusCompliant))

	t.Run("default options", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/v1/export/pdf", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="GMP_Audit_Acme___Co__2024-03-05.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
		assert.Equal(t, report.Digest(rec.Body.Bytes()), rec.Header().Get(DigestHeader))
	})

	t.Run("landscape", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/v1/export/pdf", map[string]interface{}{
			"pageOrientation": "landscape",
			"includeSummary":  false,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("bad page size", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/v1/export/pdf", map[string]string{"pageSize": "tabloid"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode(t, rec, nil)
		assert.NotNil(t, resp.Error)
	})
}

func TestExportPDFEmptyForm(t *testing.T) {
	s := NewServer(ServerConfig{}, Deps{Store: store.New(&audit.Form{ID: "empty"})})
	rec := do(t, s, http.MethodPost, "/api/v1/export/pdf", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode(t, rec, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, werrors.ErrExportEmptyDocument, resp.Error.Code)
}

func TestExportHTMLAndCSV(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.deps.Store.UpdateCompany(audit.FieldAuditeeName, "Acme"))
	require.NoError(t, s.deps.Store.SetNotes("1a", "Training records incomplete"))

	t.Run("html", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/export/html", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "GMP_Audit_Acme_2024-03-05.html")
		assert.Contains(t, rec.Body.String(), "Training records incomplete")
	})

	t.Run("csv", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/export/csv", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "GMP_Audit_Acme_2024-03-05.csv")
		assert.Contains(t, rec.Body.String(), "Training records incomplete")
	})

	t.Run("tsv dialect", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/export/csv?dialect=tsv", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "tab-separated-values")
		assert.Contains(t, rec.Body.String(), "\t")
	})

	t.Run("unknown dialect", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/export/csv?dialect=xml", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// =============================================================================
// Error mapping
// =============================================================================

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", assert.AnError, http.StatusInternalServerError},
		{"empty document", werrors.Export(werrors.ErrExportEmptyDocument, "x"), http.StatusUnprocessableEntity},
		{"render failure", werrors.Export(werrors.ErrExportRenderFailure, "x"), http.StatusInternalServerError},
		{"unknown question", werrors.Validation(werrors.ErrValidationUnknownQuestion, "x"), http.StatusNotFound},
		{"unknown section", werrors.Validation(werrors.ErrValidationUnknownSection, "x"), http.StatusNotFound},
		{"photo not found", werrors.Photo(werrors.ErrPhotoNotFound, "x"), http.StatusNotFound},
		{"photo too large", werrors.Photo(werrors.ErrPhotoTooLarge, "x"), http.StatusRequestEntityTooLarge},
		{"invalid status", werrors.Validation(werrors.ErrValidationInvalidStatus, "x"), http.StatusBadRequest},
		{"storage", werrors.Storage(werrors.ErrStorageWriteFailed, "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestNewServerKeepsReportOptions(t *testing.T) {
	opts := report.Options{Orientation: report.Landscape, PageSize: report.PageLetter, IncludeSummary: true}
	s := NewServer(ServerConfig{}, Deps{Store: store.New(nil), Report: opts})

	assert.Equal(t, report.Landscape, s.deps.Report.Orientation)
	assert.Equal(t, report.PageLetter, s.deps.Report.PageSize)
	assert.True(t, s.deps.Report.IncludeSummary)
	assert.False(t, s.deps.Report.IncludePhotos)
	require.NotNil(t, s.deps.Report.Now)
}

func TestWatchFormCreatesStorageDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	fb := store.NewFileBackend(dir, nil)
	s := newTestServer(t)
	s.deps.Backend = fb

	go s.hub.Run()
	defer s.hub.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watchForm(ctx, fb) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(dir)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	// An edit from another process is picked up.
	edited := store.New(nil)
	require.NoError(t, edited.SetCompliance("1a", audit.StatusNotCompliant))
	other := store.NewFileBackend(dir, nil)
	require.Eventually(t, func() bool {
		if err := other.Save(ctx, edited.Snapshot()); err != nil {
			return false
		}
		q, err := s.deps.Store.Question("1a")
		return err == nil && q.Compliance == audit.StatusNotCompliant
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchForm did not return after cancel")
	}
}
