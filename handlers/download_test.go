package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/daramide/media-grab/models"
	"github.com/daramide/media-grab/services"
)

type stubExtractor struct {
	files map[string][]byte
	err   error
}

func (s *stubExtractor) Fetch(ctx context.Context, url string, kind models.MediaKind, outputDir string) error {
	if s.err != nil {
		return s.err
	}
	for name, content := range s.files {
		if err := os.WriteFile(filepath.Join(outputDir, name), content, 0644); err != nil {
			return err
		}
	}
	return nil
}

type testEnv struct {
	handler   *DownloadHandler
	storage   *services.StorageService
	workRoot  string
	downloads string
}

func newTestEnv(t *testing.T, extractor services.Extractor) *testEnv {
	t.Helper()
	workRoot := t.TempDir()
	downloads := t.TempDir()
	jobService := services.NewJobService(workRoot, downloads, extractor, time.Minute)
	return &testEnv{
		handler:   NewDownloadHandler(jobService),
		storage:   services.NewStorageService(downloads),
		workRoot:  workRoot,
		downloads: downloads,
	}
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error responses must be JSON, got %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestDownload_MissingURL(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body := decodeErrorBody(t, rec); body["error"] != "invalid_request" {
		t.Errorf("error = %q, want invalid_request", body["error"])
	}

	entries, _ := os.ReadDir(env.workRoot)
	if len(entries) != 0 {
		t.Errorf("rejected request must not allocate a workspace, found %d entries", len(entries))
	}
}

func TestDownload_InvalidType(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/download?url=https://example.com/v&type=gif", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDownload_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{})

	req := httptest.NewRequest(http.MethodPost, "/download?url=https://example.com/v", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestDownload_BinarySuccess(t *testing.T) {
	content := []byte("mp4 payload")
	env := newTestEnv(t, &stubExtractor{files: map[string][]byte{"My_Video.mp4": content}})

	req := httptest.NewRequest(http.MethodGet, "/download?url=https://example.com/watch?v=abc", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, `attachment`) || !strings.Contains(disposition, "My_Video.mp4") {
		t.Errorf("Content-Disposition = %q, want attachment with derived filename", disposition)
	}

	elapsed, err := strconv.ParseFloat(rec.Header().Get("X-Processing-Time"), 64)
	if err != nil || elapsed < 0 {
		t.Errorf("X-Processing-Time = %q, want a numeric value >= 0", rec.Header().Get("X-Processing-Time"))
	}

	if rec.Body.String() != string(content) {
		t.Errorf("body mismatch: got %d bytes, want %d", rec.Body.Len(), len(content))
	}

	entries, _ := os.ReadDir(env.workRoot)
	if len(entries) != 0 {
		t.Errorf("workspace must be removed after the response completes, found %d entries", len(entries))
	}
}

func TestDownload_RepeatRequestsAreIndependent(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{files: map[string][]byte{"My_Video.mp4": []byte("payload")}})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/download?url=https://example.com/watch?v=abc", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, http.StatusOK)
		}
		if rec.Body.String() != "payload" {
			t.Errorf("request %d: body mismatch", i)
		}
	}
}

func TestDownload_ReportMode(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{files: map[string][]byte{"My_Song.mp3": []byte("mp3 payload")}})

	req := httptest.NewRequest(http.MethodGet, "/download?url=https://example.com/song&type=audio&show_time=true", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "seconds") {
		t.Errorf("report should contain the elapsed time, body: %s", rec.Body.String())
	}

	// The artifact must have been retained in the shared directory.
	entries, err := os.ReadDir(env.downloads)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected exactly one retained artifact, got %d (err=%v)", len(entries), err)
	}
	name := entries[0].Name()
	if !strings.HasSuffix(name, ".mp3") {
		t.Errorf("retained artifact = %q, want an .mp3", name)
	}
	if !strings.Contains(rec.Body.String(), name) {
		t.Errorf("report should reference the retained filename %q", name)
	}

	// Secondary retrieval through the file route returns the bytes.
	fileHandler := NewFileHandler(env.storage)
	fileReq := httptest.NewRequest(http.MethodGet, "/file/"+name, nil)
	fileRec := httptest.NewRecorder()
	fileHandler.ServeHTTP(fileRec, fileReq)

	if fileRec.Code != http.StatusOK {
		t.Errorf("GET /file/%s status = %d, want %d", name, fileRec.Code, http.StatusOK)
	}
	if fileRec.Body.String() != "mp3 payload" {
		t.Errorf("retained artifact bytes mismatch")
	}
}

func TestDownload_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "Blocked by origin",
			err:        &services.JobError{Kind: services.ErrKindBlocked, Detail: "the source blocked automated access; try a different source or configure a cookies file"},
			wantStatus: http.StatusForbidden,
			wantError:  "extraction_blocked",
		},
		{
			name:       "No stream matched",
			err:        &services.JobError{Kind: services.ErrKindNoStream, Detail: "no stream matched the requested media type"},
			wantStatus: http.StatusNotFound,
			wantError:  "no_stream",
		},
		{
			name:       "Unsupported URL",
			err:        &services.JobError{Kind: services.ErrKindUnsupported, Detail: "the URL is not supported by the extraction engine"},
			wantStatus: http.StatusBadRequest,
			wantError:  "unsupported_url",
		},
		{
			name:       "Generic failure",
			err:        &services.JobError{Kind: services.ErrKindFailure, Detail: "extraction failed"},
			wantStatus: http.StatusBadRequest,
			wantError:  "extraction_failed",
		},
		{
			name:       "Timed out",
			err:        &services.JobError{Kind: services.ErrKindTimeout, Detail: "extraction timed out"},
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "timeout",
		},
		{
			name:       "Cancelled by caller",
			err:        &services.JobError{Kind: services.ErrKindCanceled, Detail: "the request was cancelled before extraction finished"},
			wantStatus: http.StatusRequestTimeout,
			wantError:  "cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &stubExtractor{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/download?url=https://example.com/missing-video", nil)
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeErrorBody(t, rec)
			if body["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", body["error"], tt.wantError)
			}
			if body["detail"] == "" {
				t.Error("every failure must carry a human-readable detail")
			}
		})
	}
}

func TestDownload_NoArtifact(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{files: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodGet, "/download?url=https://example.com/watch?v=abc", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
