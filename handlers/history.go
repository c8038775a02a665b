package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/daramide/media-grab/database"
	"github.com/daramide/media-grab/services"
)

const historyLimit = 50

type HistoryHandler struct {
	storageService *services.StorageService
}

func NewHistoryHandler(storageService *services.StorageService) *HistoryHandler {
	return &HistoryHandler{
		storageService: storageService,
	}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := database.LoadRecent(historyLimit)
	if err != nil {
		http.Error(w, "Error loading history: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		result = append(result, map[string]interface{}{
			"id":        record.ID,
			"url":       record.URL,
			"kind":      record.Kind,
			"filename":  record.Filename,
			"status":    record.Status,
			"error":     record.Error,
			"elapsedMs": record.ElapsedMs,
			"createdAt": record.CreatedAt,
			"size":      h.storageService.GetFormattedFileSize(record.Filename),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
