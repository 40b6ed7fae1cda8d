package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/pharmainsight/internal/api"
	"github.com/dvloznov/pharmainsight/internal/archive"
	"github.com/dvloznov/pharmainsight/internal/config"
	"github.com/dvloznov/pharmainsight/internal/export"
	infraBQ "github.com/dvloznov/pharmainsight/internal/infra/bigquery"
	"github.com/dvloznov/pharmainsight/internal/jobs"
	"github.com/dvloznov/pharmainsight/internal/jobs/inmemory"
	"github.com/dvloznov/pharmainsight/internal/logger"
	"github.com/dvloznov/pharmainsight/internal/metrics"
	"github.com/dvloznov/pharmainsight/internal/narrative"
	"github.com/dvloznov/pharmainsight/internal/session"
	sessionstore "github.com/dvloznov/pharmainsight/internal/session/inmemory"
)

func main() {
	// A missing .env file is fine; the environment alone is enough.
	_ = godotenv.Load()
	cfg := config.Load()

	// Parse command-line flags
	port := flag.Int("port", cfg.Port, "HTTP server port (or set PHARMA_PORT)")
	flag.Parse()

	log := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	m := metrics.New()

	ctx := context.Background()

	// Optional Google Cloud destinations for background export
	var archiver archive.Archiver
	if cfg.ArchiveEnabled() {
		gcs, err := archive.NewGCSArchiver(ctx, cfg.GCSBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS archiver")
		}
		defer gcs.Close()
		archiver = gcs
	} else {
		log.Warn().Msg("No GCS bucket configured - raw uploads will not be archived")
	}

	var exportRepo infraBQ.ExportRepository
	if cfg.ExportEnabled() {
		repo, err := infraBQ.NewBigQueryExportRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create export repository")
		}
		defer repo.Close()
		exportRepo = repo
	} else {
		log.Warn().Msg("No BigQuery dataset configured - monthly summaries will not be exported")
	}

	// Initialize sessions and job infrastructure
	sessions := sessionstore.NewStore()
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobQueueSize, jobStore, log)
	jobQueue.OnFinish = func(job *jobs.ExportSessionJob) {
		m.JobFinished(string(job.GetType()), string(job.Status))
	}

	var publisher jobs.Publisher
	if archiver != nil || exportRepo != nil {
		publisher = jobQueue
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	exportHandler := export.NewHandler(sessions, archiver, exportRepo, log)
	if err := jobQueue.Start(workerCtx, cfg.JobWorkers, exportHandler.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	// Optional AI narrative
	var generator narrative.Generator
	if cfg.AIEnabled() {
		gen, err := narrative.NewGeminiGenerator(ctx, cfg.AIAPIKey, cfg.AIModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create AI client")
		}
		generator = gen
		log.Info().Str("model", cfg.AIModel).Msg("AI narrative enabled")
	} else {
		log.Warn().Msg("No AI key configured - AI endpoints will return the rule-based analysis only")
	}

	handler := api.NewRouter(api.Deps{
		Sessions:       session.NewService(sessions, publisher, log),
		Narrative:      narrative.NewService(generator, cfg.AITimeout, log),
		Jobs:           jobStore,
		Metrics:        m,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log,
	})

	// Create HTTP server. The write timeout leaves room for a full AI call.
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(*port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Int("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
