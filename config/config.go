package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	DownloadsDir  = "downloads"
	WorkspacesDir = "workspaces"
)

type Config struct {
	Port        string
	CookiesFile string
	DatabaseURL string
	ExecDir     string

	ExtractTimeout time.Duration
	OrphanTTL      time.Duration
	SweepInterval  time.Duration

	AbsDownloadsDir  string
	AbsWorkspacesDir string
}

var AppConfig *Config

func Load() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cookiesFile := os.Getenv("COOKIES_FILE")
	if cookiesFile != "" {
		if _, err := os.Stat(cookiesFile); err != nil {
			log.Printf("Warning: cookies file %s is not readable, continuing without it", cookiesFile)
			cookiesFile = ""
		}
	}

	execDir := getExecutableDir()
	absDownloadsDir := filepath.Join(execDir, DownloadsDir)
	absWorkspacesDir := filepath.Join(execDir, WorkspacesDir)

	AppConfig = &Config{
		Port:             port,
		CookiesFile:      cookiesFile,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		ExecDir:          execDir,
		ExtractTimeout:   durationEnv("EXTRACT_TIMEOUT", 10*time.Minute),
		OrphanTTL:        durationEnv("ORPHAN_TTL", time.Hour),
		SweepInterval:    durationEnv("SWEEP_INTERVAL", 15*time.Minute),
		AbsDownloadsDir:  absDownloadsDir,
		AbsWorkspacesDir: absWorkspacesDir,
	}

	// The orphan sweeper must never reclaim a workspace that a running job
	// could still be writing into.
	if AppConfig.OrphanTTL <= AppConfig.ExtractTimeout {
		adjusted := AppConfig.ExtractTimeout + time.Hour
		log.Printf("Warning: ORPHAN_TTL %s does not exceed EXTRACT_TIMEOUT %s, raising it to %s",
			AppConfig.OrphanTTL, AppConfig.ExtractTimeout, adjusted)
		AppConfig.OrphanTTL = adjusted
	}

	// Create directories
	if err := os.MkdirAll(absDownloadsDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(absWorkspacesDir, 0755); err != nil {
		return err
	}

	return nil
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, using default %s", key, raw, fallback)
		return fallback
	}
	return d
}

func getExecutableDir() string {
	if dir := os.Getenv("EXEC_DIR"); dir != "" {
		return dir
	}
	return "."
}
