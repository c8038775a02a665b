package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/daramide/media-grab/config"
	"github.com/daramide/media-grab/database"
	"github.com/daramide/media-grab/models"
	"github.com/daramide/media-grab/services"
)

func main() {
	kindFlag := flag.String("type", "video", "media type to fetch: audio or video")
	keepFlag := flag.Bool("keep", false, "retain the artifact in the downloads directory")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cli [-type audio|video] [-keep] <url>")
		os.Exit(2)
	}

	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if err := database.Init(config.AppConfig.DatabaseURL); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	kind, err := models.ParseMediaKind(*kindFlag)
	if err != nil {
		log.Fatal(err)
	}

	extractor := services.NewYtdlpExtractor(config.AppConfig.CookiesFile)
	jobService := services.NewJobService(
		config.AppConfig.AbsWorkspacesDir,
		config.AppConfig.AbsDownloadsDir,
		extractor,
		config.AppConfig.ExtractTimeout,
	)

	job, err := jobService.Run(context.Background(), models.DownloadRequest{
		URL:  flag.Arg(0),
		Kind: kind,
	})
	if err != nil {
		log.Fatalf("Download failed (%s): %s", services.KindOf(err), services.DetailOf(err))
	}

	path := job.ResultPath
	if *keepFlag {
		name, err := jobService.Publish(job)
		if err != nil {
			log.Fatalf("Failed to retain artifact: %v", err)
		}
		path = name
	}

	fmt.Println("\n=== Job Summary ===")
	fmt.Printf("Job ID:    %s\n", job.ID)
	fmt.Printf("Type:      %s\n", job.Kind)
	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Elapsed:   %.2fs\n", job.Elapsed.Seconds())
	fmt.Printf("Finished:  %s\n", time.Now().Format(time.RFC3339))

	if !*keepFlag {
		// Without -keep the workspace holds the file; leave it for the caller
		// and let the orphan sweeper reclaim it later.
		fmt.Printf("Workspace: %s (swept after %s)\n", job.WorkspaceDir, config.AppConfig.OrphanTTL)
	}
}
