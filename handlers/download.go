package handlers

import (
	"encoding/json"
	"fmt"
	"html"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/daramide/media-grab/models"
	"github.com/daramide/media-grab/services"
)

type DownloadHandler struct {
	jobService *services.JobService
}

func NewDownloadHandler(jobService *services.JobService) *DownloadHandler {
	return &DownloadHandler{
		jobService: jobService,
	}
}

func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kind, err := models.ParseMediaKind(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	req := models.DownloadRequest{
		URL:    r.URL.Query().Get("url"),
		Kind:   kind,
		Report: boolParam(r, "show_time") || boolParam(r, "report"),
	}

	job, err := h.jobService.Run(r.Context(), req)
	if err != nil {
		writeError(w, statusForKind(services.KindOf(err)), services.KindOf(err).String(), services.DetailOf(err))
		return
	}

	if req.Report {
		h.serveReport(w, job)
		return
	}

	h.serveBinary(w, r, job)
}

// serveBinary streams the artifact out of the job workspace; the workspace is
// removed only after the response body has been fully written.
func (h *DownloadHandler) serveBinary(w http.ResponseWriter, r *http.Request, job *models.Job) {
	defer h.jobService.Cleanup(job)

	contentType := mime.TypeByExtension(filepath.Ext(job.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.Filename))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Processing-Time", fmt.Sprintf("%.2f", job.Elapsed.Seconds()))

	http.ServeFile(w, r, job.ResultPath)
}

// serveReport retains the artifact in the shared downloads directory and
// returns a status page linking to the secondary retrieval route.
func (h *DownloadHandler) serveReport(w http.ResponseWriter, job *models.Job) {
	elapsed := job.Elapsed.Seconds()

	name, err := h.jobService.Publish(job)
	if err != nil {
		writeError(w, http.StatusInternalServerError, services.KindOf(err).String(), services.DetailOf(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<body>
<h3>Download complete</h3>
<p>Processed in %.2f seconds.</p>
<p>File: %s</p>
<p><a href="/file/%s" download>Save file</a></p>
</body>
</html>
`, elapsed, html.EscapeString(name), html.EscapeString(name))
}

func boolParam(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func statusForKind(kind services.ErrKind) int {
	switch kind {
	case services.ErrKindInvalidRequest, services.ErrKindUnsupported, services.ErrKindFailure:
		return http.StatusBadRequest
	case services.ErrKindBlocked:
		return http.StatusForbidden
	case services.ErrKindNoStream:
		return http.StatusNotFound
	case services.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case services.ErrKindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, kind, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":  kind,
		"detail": detail,
	})
}
