package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/nadmax/storepulse/internal/api"
	"github.com/nadmax/storepulse/internal/ingest"
	"github.com/nadmax/storepulse/internal/middleware"
	"github.com/nadmax/storepulse/internal/notify"
	"github.com/nadmax/storepulse/internal/registry"
	"github.com/nadmax/storepulse/internal/report"
	"github.com/nadmax/storepulse/internal/repository"
)

func main() {
	postgresDSN := os.Getenv("POSTGRES_DSN")
	if postgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	repo, err := repository.NewPostgresStoreRepository(postgresDSN)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("failed to close Postgres repository: %v", err)
		}
	}()

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		loader := ingest.NewLoader(repo, dataDir)
		stats, err := loader.Run(context.Background())
		if err != nil {
			log.Fatalf("CSV import failed: %v", err)
		}
		log.Printf("Imported snapshot data from %s (%d observations)", dataDir, stats.Observations)
	}

	reg, err := registry.New(redisAddr)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := reg.Close(); err != nil {
			log.Printf("failed to close job registry: %v", err)
		}
	}()

	controller := report.NewController(repo, reg)
	if notifier := notify.FromEnv(); notifier != nil {
		controller.SetNotifier(notifier)
		log.Println("Report completion notifications enabled")
	}

	apiHandler := api.NewAPI(controller, reg)

	go startJobMetricsCollector(reg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	log.Printf("Connected to Redis at %s", redisAddr)

	if err := http.ListenAndServe(":"+port, middleware.MetricsMiddleware(apiHandler)); err != nil {
		log.Fatal(err)
	}
}
