// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration of the API server and CLI.
// Values are sourced from environment variables, optionally seeded from a .env file.
type Config struct {
	Port      int
	LogLevel  string
	LogFormat string

	// MaxUploadBytes caps the size of an uploaded sales file.
	MaxUploadBytes int64

	// GCSBucket enables archival of raw uploads when set.
	GCSBucket string

	// BigQueryProject and BigQueryDataset enable the monthly summary export when both are set.
	BigQueryProject string
	BigQueryDataset string

	// AIAPIKey enables the narrative endpoints when set.
	AIAPIKey  string
	AIModel   string
	AITimeout time.Duration

	JobWorkers   int
	JobQueueSize int
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	cfg := &Config{
		Port:            getenvInt("PHARMA_PORT", 8080),
		LogLevel:        getenv("PHARMA_LOG_LEVEL", "info"),
		LogFormat:       getenv("PHARMA_LOG_FORMAT", "console"),
		MaxUploadBytes:  int64(getenvInt("PHARMA_MAX_UPLOAD_MB", 50)) << 20,
		GCSBucket:       os.Getenv("PHARMA_GCS_BUCKET"),
		BigQueryProject: os.Getenv("PHARMA_BQ_PROJECT"),
		BigQueryDataset: os.Getenv("PHARMA_BQ_DATASET"),
		AIAPIKey:        getenv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		AIModel:         getenv("PHARMA_AI_MODEL", "gemini-2.5-flash"),
		AITimeout:       time.Duration(getenvInt("PHARMA_AI_TIMEOUT_SECONDS", 60)) * time.Second,
		JobWorkers:      getenvInt("PHARMA_JOB_WORKERS", 2),
		JobQueueSize:    getenvInt("PHARMA_JOB_QUEUE_SIZE", 100),
	}
	return cfg
}

// ArchiveEnabled reports whether raw uploads are archived to Cloud Storage.
func (c *Config) ArchiveEnabled() bool {
	return c.GCSBucket != ""
}

// ExportEnabled reports whether monthly summaries are exported to BigQuery.
func (c *Config) ExportEnabled() bool {
	return c.BigQueryProject != "" && c.BigQueryDataset != ""
}

// AIEnabled reports whether an AI key is configured.
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvInt returns the positive integer value of key, or def when unset or invalid.
func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
