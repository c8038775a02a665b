package handlers

import (
	"encoding/json"
	"net/http"
)

type IndexHandler struct{}

func NewIndexHandler() *IndexHandler {
	return &IndexHandler{}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"usage": map[string]string{
			"download": "GET /download?url=<media url>&type=audio|video&show_time=true|false",
			"file":     "GET /file/{name}",
			"history":  "GET /api/history",
		},
	})
}
