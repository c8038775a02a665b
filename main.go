package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/daramide/media-grab/config"
	"github.com/daramide/media-grab/database"
	"github.com/daramide/media-grab/handlers"
	"github.com/daramide/media-grab/services"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database (optional; history persistence only)
	if err := database.Init(config.AppConfig.DatabaseURL); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	if !database.Enabled() {
		log.Println("DATABASE_URL not set, job history persistence disabled")
	}

	// Initialize services
	extractor := services.NewYtdlpExtractor(config.AppConfig.CookiesFile)

	jobService := services.NewJobService(
		config.AppConfig.AbsWorkspacesDir,
		config.AppConfig.AbsDownloadsDir,
		extractor,
		config.AppConfig.ExtractTimeout,
	)

	storageService := services.NewStorageService(config.AppConfig.AbsDownloadsDir)

	// Reclaim workspaces left behind by a previous process
	jobService.StartSweeper(context.Background(), config.AppConfig.SweepInterval, config.AppConfig.OrphanTTL)

	// Initialize handlers
	indexHandler := handlers.NewIndexHandler()
	downloadHandler := handlers.NewDownloadHandler(jobService)
	fileHandler := handlers.NewFileHandler(storageService)
	deleteHandler := handlers.NewDeleteHandler(storageService)
	historyHandler := handlers.NewHistoryHandler(storageService)

	// Register routes
	http.Handle("/", indexHandler)
	http.Handle("/download", downloadHandler)
	http.Handle("/api/download", downloadHandler)
	http.Handle("/file/", fileHandler)
	http.Handle("/api/delete/", deleteHandler)
	http.Handle("/api/history", historyHandler)

	addr := "0.0.0.0:" + config.AppConfig.Port
	fmt.Printf("Server starting on http://%s\n", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
