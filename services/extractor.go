package services

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/daramide/media-grab/models"
)

const (
	audioFormat  = "bestaudio/best"
	audioCodec   = "mp3"
	audioQuality = "192K"
	videoFormat  = "bestvideo[height<=720]+bestaudio/best[height<=720]/best"

	outputTemplate = "%(title)s.%(ext)s"
)

// Extractor fetches media for a URL into the given output directory. The
// produced filename is not predictable; callers scan the directory afterwards.
type Extractor interface {
	Fetch(ctx context.Context, url string, kind models.MediaKind, outputDir string) error
}

// YtdlpExtractor drives the yt-dlp binary. Audio requests are re-encoded to
// mp3 by yt-dlp's ffmpeg post-processor; video requests are capped at 720p
// with a best-available fallback.
type YtdlpExtractor struct {
	cookiesFile string
}

func NewYtdlpExtractor(cookiesFile string) *YtdlpExtractor {
	return &YtdlpExtractor{cookiesFile: cookiesFile}
}

func (e *YtdlpExtractor) Fetch(ctx context.Context, url string, kind models.MediaKind, outputDir string) error {
	dl := ytdlp.New().
		RestrictFilenames().
		NoPlaylist().
		NoProgress().
		NoWarnings().
		Output(filepath.Join(outputDir, outputTemplate))

	if kind == models.MediaKindAudio {
		dl = dl.Format(audioFormat).
			ExtractAudio().
			AudioFormat(audioCodec).
			AudioQuality(audioQuality)
	} else {
		dl = dl.Format(videoFormat)
	}

	if e.cookiesFile != "" {
		dl = dl.Cookies(e.cookiesFile)
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		if jerr := classifyContext(ctx, err); jerr != nil {
			return jerr
		}

		stderr := err.Error()
		if result != nil && result.Stderr != "" {
			stderr = result.Stderr
		}
		return classifyExtract(stderr, err)
	}

	return nil
}

// classifyContext reports context-driven failures, timeout and caller
// cancellation, so they are never attributed to the origin. Returns nil when
// the context is still live.
func classifyContext(ctx context.Context, err error) *JobError {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return newJobError(ErrKindTimeout, "extraction timed out", err)
	case context.Canceled:
		return newJobError(ErrKindCanceled, "the request was cancelled before extraction finished", err)
	}
	return nil
}

// classifyExtract maps yt-dlp stderr onto a failure class. yt-dlp exposes no
// structured error taxonomy, so this is substring matching on known message
// fragments; kept in one place so the heuristics have a single home.
func classifyExtract(stderr string, err error) *JobError {
	lower := strings.ToLower(stderr)

	switch {
	case strings.Contains(lower, "sign in to confirm"),
		strings.Contains(lower, "confirm you're not a bot"),
		strings.Contains(lower, "http error 403"),
		strings.Contains(lower, "access denied"):
		return newJobError(ErrKindBlocked,
			"the source blocked automated access; try a different source or configure a cookies file", err)

	case strings.Contains(lower, "requested format is not available"),
		strings.Contains(lower, "no video formats found"),
		strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "this video is not available"):
		return newJobError(ErrKindNoStream, "no stream matched the requested media type", err)

	case strings.Contains(lower, "unsupported url"),
		strings.Contains(lower, "is not a valid url"):
		return newJobError(ErrKindUnsupported, "the URL is not supported by the extraction engine", err)

	default:
		return newJobError(ErrKindFailure, "extraction failed", err)
	}
}
