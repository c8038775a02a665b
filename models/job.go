package models

import (
	"fmt"
	"strings"
	"time"
)

type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// ParseMediaKind maps the "type" query parameter onto a MediaKind.
// An empty value defaults to video.
func ParseMediaKind(raw string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "video":
		return MediaKindVideo, nil
	case "audio":
		return MediaKindAudio, nil
	default:
		return "", fmt.Errorf("unknown media type %q, expected audio or video", raw)
	}
}

type DownloadRequest struct {
	URL    string
	Kind   MediaKind
	Report bool
}

// Job tracks one download request from workspace allocation to cleanup.
// The workspace directory is exclusively owned by this job.
type Job struct {
	ID           string
	URL          string
	Kind         MediaKind
	WorkspaceDir string
	ResultPath   string
	Filename     string
	StartTime    time.Time
	Elapsed      time.Duration
}

// JobRecord is the persisted history row for a finished job.
type JobRecord struct {
	ID        string `gorm:"primaryKey"`
	URL       string
	Kind      string
	Filename  string
	Status    string
	Error     string
	ElapsedMs int64
	CreatedAt time.Time
}
