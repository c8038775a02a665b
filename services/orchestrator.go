package services

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/daramide/media-grab/database"
	"github.com/daramide/media-grab/models"
)

// Extensions yt-dlp leaves behind for in-flight downloads; never artifacts.
var partialExtensions = []string{".part", ".ytdl", ".temp"}

// JobService runs the download-and-serve lifecycle: allocate an isolated
// workspace, delegate to the extraction engine, locate the artifact, and
// clean the workspace up exactly once on every exit path.
type JobService struct {
	workspacesRoot string
	downloadsDir   string
	extractor      Extractor
	timeout        time.Duration
}

func NewJobService(workspacesRoot, downloadsDir string, extractor Extractor, timeout time.Duration) *JobService {
	return &JobService{
		workspacesRoot: workspacesRoot,
		downloadsDir:   downloadsDir,
		extractor:      extractor,
		timeout:        timeout,
	}
}

// Run executes a job synchronously. On success the returned job's ResultPath
// points at an existing file inside the job's workspace and the caller owns
// cleanup via Cleanup or Publish. On failure the workspace is already gone.
func (s *JobService) Run(ctx context.Context, req models.DownloadRequest) (*models.Job, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, newJobError(ErrKindInvalidRequest, "url parameter is required", nil)
	}

	job := &models.Job{
		ID:        uuid.New().String(),
		URL:       url,
		Kind:      req.Kind,
		StartTime: time.Now(),
	}
	job.WorkspaceDir = filepath.Join(s.workspacesRoot, job.ID)

	if err := os.MkdirAll(job.WorkspaceDir, 0755); err != nil {
		return nil, newJobError(ErrKindUnexpected, "failed to allocate workspace",
			errors.Wrap(err, "create workspace"))
	}

	if err := s.extract(ctx, job); err != nil {
		s.Cleanup(job)
		s.record(job, "failed", err)
		return nil, err
	}

	if err := s.locateArtifact(job); err != nil {
		s.Cleanup(job)
		s.record(job, "failed", err)
		return nil, err
	}

	job.Elapsed = time.Since(job.StartTime)
	s.record(job, "completed", nil)
	log.Printf("Job %s: produced %s in %.2fs", job.ID, job.Filename, job.Elapsed.Seconds())

	return job, nil
}

func (s *JobService) extract(ctx context.Context, job *models.Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.extractor.Fetch(ctx, job.URL, job.Kind, job.WorkspaceDir)
}

// locateArtifact scans the workspace for the produced file. The engine names
// files after source metadata, so the exact name is never assumed.
func (s *JobService) locateArtifact(job *models.Job) error {
	entries, err := os.ReadDir(job.WorkspaceDir)
	if err != nil {
		return newJobError(ErrKindArtifactMissing, "could not read job workspace",
			errors.Wrap(err, "read workspace"))
	}

	for _, entry := range entries {
		if entry.IsDir() || isPartial(entry.Name()) {
			continue
		}
		if job.Kind == models.MediaKindAudio && !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}

		path := filepath.Join(job.WorkspaceDir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			continue
		}

		job.ResultPath = path
		job.Filename = entry.Name()
		return nil
	}

	log.Printf("Job %s: extraction reported success but no artifact found in %s (url=%s kind=%s)",
		job.ID, job.WorkspaceDir, job.URL, job.Kind)
	return newJobError(ErrKindArtifactMissing, "the extraction engine produced no output file", nil)
}

// Cleanup removes the job's workspace. Best-effort; failures are logged and
// never surfaced to the caller.
func (s *JobService) Cleanup(job *models.Job) {
	if job.WorkspaceDir == "" {
		return
	}
	if err := os.RemoveAll(job.WorkspaceDir); err != nil {
		log.Printf("Job %s: workspace cleanup failed: %v", job.ID, err)
	}
	job.WorkspaceDir = ""
}

// Publish moves the job's artifact into the shared downloads directory for
// later retrieval by name, then removes the workspace. The filename is
// prefixed with the job token so concurrent jobs for the same source never
// collide in the shared directory.
func (s *JobService) Publish(job *models.Job) (string, error) {
	name := job.ID[:8] + "_" + job.Filename
	dest := filepath.Join(s.downloadsDir, name)

	if err := os.Rename(job.ResultPath, dest); err != nil {
		s.Cleanup(job)
		return "", newJobError(ErrKindUnexpected, "failed to retain artifact",
			errors.Wrap(err, "publish artifact"))
	}

	job.ResultPath = dest
	job.Filename = name
	s.Cleanup(job)
	return name, nil
}

func (s *JobService) record(job *models.Job, status string, jobErr error) {
	if !database.Enabled() {
		return
	}

	record := &models.JobRecord{
		ID:        job.ID,
		URL:       job.URL,
		Kind:      string(job.Kind),
		Filename:  job.Filename,
		Status:    status,
		ElapsedMs: time.Since(job.StartTime).Milliseconds(),
		CreatedAt: job.StartTime,
	}
	if jobErr != nil {
		record.Error = jobErr.Error()
	}

	if err := database.SaveRecord(record); err != nil {
		log.Printf("Job %s: failed to save history record: %v", job.ID, err)
	}
}

// SweepOrphans removes workspace directories older than ttl. Covers leftovers
// from crashed or restarted processes, which otherwise leak disk forever.
func (s *JobService) SweepOrphans(ttl time.Duration) {
	entries, err := os.ReadDir(s.workspacesRoot)
	if err != nil {
		log.Printf("Orphan sweep: cannot read %s: %v", s.workspacesRoot, err)
		return
	}

	cutoff := time.Now().Add(-ttl)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.workspacesRoot, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("Orphan sweep: failed to remove %s: %v", path, err)
		} else {
			log.Printf("Orphan sweep: removed stale workspace %s", path)
		}
	}
}

// StartSweeper runs SweepOrphans immediately and then on a fixed interval
// until ctx is cancelled.
func (s *JobService) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	s.SweepOrphans(ttl)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOrphans(ttl)
			}
		}
	}()
}

func isPartial(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, partial := range partialExtensions {
		if ext == partial {
			return true
		}
	}
	return false
}
