package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/analytics"
	"github.com/dvloznov/pharmainsight/internal/archive"
	"github.com/dvloznov/pharmainsight/internal/config"
	"github.com/dvloznov/pharmainsight/internal/domain"
	"github.com/dvloznov/pharmainsight/internal/forecast"
	infraBQ "github.com/dvloznov/pharmainsight/internal/infra/bigquery"
	"github.com/dvloznov/pharmainsight/internal/ingest"
	"github.com/dvloznov/pharmainsight/internal/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(log)
	case "forecast":
		runForecast(log)
	case "accuracy":
		runAccuracy(log)
	case "exports":
		runExports(log, cfg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("PharmaInsight CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  pharmainsight-cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Print KPIs, categories, ABC, inventory, seasonality and diagnostics for a sales CSV")
	fmt.Println("  forecast  Forecast revenue, units or transactions for a sales CSV")
	fmt.Println("  accuracy  Backtest a forecast method on the last months of a sales CSV")
	fmt.Println("  exports   List monthly summaries exported to BigQuery for a session")
	fmt.Println("  help      Show this help message")
	fmt.Println("\n-file accepts a local path or a gs://bucket/object URI.")
	fmt.Println("Run 'pharmainsight-cli <command> -h' for more information on a command.")
}

func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	file := fs.String("file", "", "Sales CSV or xlsx (local path or gs:// URI)")
	start := fs.String("start", "", "Start date YYYY-MM-DD")
	end := fs.String("end", "", "End date YYYY-MM-DD")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: pharmainsight-cli analyze -file PATH [-start DATE] [-end DATE]")
	}

	startDate, err := parseDateFlag(*start)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -start")
	}
	endDate, err := parseDateFlag(*end)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -end")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	table := loadTable(logger.WithContext(ctx, log), *file)
	svc := analytics.NewService(table, startDate, endDate)

	printJSON(map[string]interface{}{
		"kpis":        svc.KPIs(),
		"categories":  svc.CategoryPerformance(),
		"abc":         svc.ABC(),
		"inventory":   svc.InventoryAlerts(),
		"seasonality": svc.Seasonality(),
		"preliminary": svc.PreliminaryAnalysis(),
	})
}

func runForecast(log zerolog.Logger) {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	file := fs.String("file", "", "Sales CSV or xlsx (local path or gs:// URI)")
	product := fs.String("product", "", "Product name (defaults to all products)")
	periods := fs.Int("periods", 3, "Months to forecast (1-6)")
	method := fs.String("method", "auto", "auto | moving_average | exponential | seasonal")
	metric := fs.String("metric", "revenue", "revenue | units | transactions")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: pharmainsight-cli forecast -file PATH [-product NAME] [-periods N] [-method M] [-metric M]")
	}
	if *periods < 1 || *periods > 6 {
		log.Fatal().Int("periods", *periods).Msg("-periods must be between 1 and 6")
	}
	kind, ok := forecast.ParseKind(*method)
	if !ok {
		log.Fatal().Str("method", *method).Msg("Unknown forecast method")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	table := loadTable(logger.WithContext(ctx, log), *file)
	m := forecast.NormalizeMetric(*metric)

	series, err := forecast.Prepare(table, strings.ToUpper(strings.TrimSpace(*product)), m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare series")
	}
	result, err := forecast.Run(series, m, kind, *periods)
	if err != nil {
		log.Fatal().Err(err).Msg("Forecast failed")
	}

	printJSON(result)
}

func runAccuracy(log zerolog.Logger) {
	fs := flag.NewFlagSet("accuracy", flag.ExitOnError)
	file := fs.String("file", "", "Sales CSV or xlsx (local path or gs:// URI)")
	product := fs.String("product", "", "Product name (defaults to all products)")
	holdout := fs.Int("holdout", 1, "Months held out (1-3)")
	method := fs.String("method", "auto", "auto | moving_average | exponential | seasonal")
	metric := fs.String("metric", "revenue", "revenue | units | transactions")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: pharmainsight-cli accuracy -file PATH [-holdout N] [-method M] [-metric M]")
	}
	kind, ok := forecast.ParseKind(*method)
	if !ok {
		log.Fatal().Str("method", *method).Msg("Unknown forecast method")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	table := loadTable(logger.WithContext(ctx, log), *file)
	m := forecast.NormalizeMetric(*metric)
	name := strings.ToUpper(strings.TrimSpace(*product))

	series, err := forecast.Prepare(table, name, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare series")
	}
	result, err := forecast.Accuracy(series, m, kind, *holdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Accuracy test failed")
	}
	result.Product = name

	printJSON(result)
}

func runExports(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("exports", flag.ExitOnError)
	sessionID := fs.String("session-id", "", "Session ID whose exported summaries to list")
	fs.Parse(os.Args[2:])

	if *sessionID == "" {
		log.Fatal().Msg("Error: -session-id is required")
	}
	if !cfg.ExportEnabled() {
		log.Fatal().Msg("PHARMA_BQ_PROJECT and PHARMA_BQ_DATASET must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, err := infraBQ.NewBigQueryExportRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create export repository")
	}
	defer repo.Close()

	rows, err := repo.ListMonthlySummaries(ctx, *sessionID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list monthly summaries")
	}

	fmt.Printf("\n=== Monthly summaries for %s (%d) ===\n", *sessionID, len(rows))
	for _, r := range rows {
		fmt.Printf("%s  revenue %12.2f  units %10.0f  transactions %6d  products %4d  job %s\n",
			r.Period, r.Revenue, r.Units, r.Transactions, r.Products, r.JobID)
	}
	fmt.Println()
}

// loadTable reads a sales file, maps its columns automatically and cleans it.
func loadTable(ctx context.Context, file string) *domain.Table {
	log := logger.FromContext(ctx)

	content, filename, err := readInput(ctx, file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read input")
	}

	raw, err := ingest.Load(content, filename)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load file")
	}

	mapping := ingest.DetectColumns(raw)
	log.Info().
		Str("date", mapping.Date).
		Str("product", mapping.Product).
		Str("quantity", mapping.Quantity).
		Str("price", mapping.Price).
		Str("total", mapping.Total).
		Str("invoice_id", mapping.InvoiceID).
		Msg("Detected columns")

	table, err := ingest.Process(raw, mapping)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to process file")
	}

	log.Info().Int("rows", table.Len()).Int("dropped", len(raw.Rows)-table.Len()).Msg("File processed")
	return table
}

// readInput returns the bytes and base name of a local file or gs:// object.
func readInput(ctx context.Context, file string) ([]byte, string, error) {
	if !strings.HasPrefix(file, "gs://") {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, "", fmt.Errorf("readInput: %w", err)
		}
		return data, filepath.Base(file), nil
	}

	bucket, _, err := archive.ParseURI(file)
	if err != nil {
		return nil, "", fmt.Errorf("readInput: %w", err)
	}
	store, err := archive.NewGCSArchiver(ctx, bucket)
	if err != nil {
		return nil, "", fmt.Errorf("readInput: %w", err)
	}
	defer store.Close()

	data, err := store.Fetch(ctx, file)
	if err != nil {
		return nil, "", fmt.Errorf("readInput: %w", err)
	}
	return data, archive.FilenameFromURI(file), nil
}

func parseDateFlag(s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encoding output: %v\n", err)
		os.Exit(1)
	}
}
