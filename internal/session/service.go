package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/domain"
	"github.com/dvloznov/pharmainsight/internal/ingest"
	"github.com/dvloznov/pharmainsight/internal/jobs"
	"github.com/dvloznov/pharmainsight/internal/logger"
)

// Service runs the upload and processing lifecycle of sessions.
type Service struct {
	store     Store
	publisher jobs.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a session service. publisher may be nil, which disables background export.
func NewService(store Store, publisher jobs.Publisher, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// UploadResult describes a freshly uploaded file.
type UploadResult struct {
	SessionID string               `json:"sessionId"`
	Message   string               `json:"message"`
	Columns   []string             `json:"columns"`
	Detected  ingest.ColumnMapping `json:"detected"`
	RowCount  int                  `json:"rowCount"`
}

// Upload parses a file into a new session and guesses its column mapping.
func (s *Service) Upload(ctx context.Context, filename string, content []byte) (*UploadResult, error) {
	raw, err := ingest.Load(content, filename)
	if err != nil {
		return nil, fmt.Errorf("Upload: %w", err)
	}

	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: s.now(),
		Filename:  filename,
		Raw:       raw,
		Source:    content,
		Detected:  ingest.DetectColumns(raw),
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("Upload: storing session: %w", err)
	}

	sessLog := logger.WithSession(s.log, sess.ID)
	sessLog.Info().
		Str("filename", filename).
		Int("rows", len(raw.Rows)).
		Int("columns", len(raw.Columns)).
		Msg("File uploaded")

	return &UploadResult{
		SessionID: sess.ID,
		Message:   fmt.Sprintf("Loaded %d rows", len(raw.Rows)),
		Columns:   raw.Columns,
		Detected:  sess.Detected,
		RowCount:  len(raw.Rows),
	}, nil
}

// ProcessSummary describes a processed table.
type ProcessSummary struct {
	TotalRows      int      `json:"totalRows"`
	UniqueProducts int      `json:"uniqueProducts"`
	DateRange      DateSpan `json:"dateRange"`
	MonthsOfData   int      `json:"monthsOfData"`
}

// DateSpan is an inclusive date range.
type DateSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ProcessResult is returned after a successful Process.
type ProcessResult struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Summary     ProcessSummary `json:"summary"`
	ExportJobID string         `json:"exportJobId,omitempty"`
}

// Process applies a column mapping to the session's raw upload and stores the cleaned table.
// When export is configured an export job is queued; failing to queue it does not fail processing.
func (s *Service) Process(ctx context.Context, id string, mapping ingest.ColumnMapping) (*ProcessResult, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}

	table, err := ingest.Process(sess.Raw, mapping)
	if err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}

	processedAt := s.now()
	sess.Mapping = mapping
	sess.Table = table
	sess.ProcessedAt = &processedAt
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("Process: storing session: %w", err)
	}

	products := make(map[string]struct{})
	for _, r := range table.Rows {
		products[r.Product] = struct{}{}
	}
	rng := table.Range()

	result := &ProcessResult{
		Success: true,
		Message: fmt.Sprintf("Processed %d transactions", table.Len()),
		Summary: ProcessSummary{
			TotalRows:      table.Len(),
			UniqueProducts: len(products),
			DateRange:      DateSpan{Start: rng.Min, End: rng.Max},
			MonthsOfData:   len(rng.Months),
		},
	}

	log := logger.WithSession(s.log, id)
	log.Info().
		Int("rows", table.Len()).
		Int("dropped", len(sess.Raw.Rows)-table.Len()).
		Int("products", len(products)).
		Msg("Session processed")

	if s.publisher != nil {
		job := &jobs.ExportSessionJob{SessionID: id, Filename: sess.Filename}
		if err := s.publisher.PublishExportSession(ctx, job); err != nil {
			log.Warn().Err(err).Msg("Failed to queue export job")
		} else {
			result.ExportJobID = job.JobID
		}
	}

	return result, nil
}

// Status reports whether a session exists and has processed data.
type Status struct {
	Exists  bool `json:"exists"`
	HasData bool `json:"hasData"`
}

// Status looks up a session without failing for unknown IDs.
func (s *Service) Status(ctx context.Context, id string) Status {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Status{}
	}
	return Status{Exists: true, HasData: sess.Table != nil}
}

// Get returns a session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return sess, nil
}

// Table returns the processed table of a session.
func (s *Service) Table(ctx context.Context, id string) (*domain.Table, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	table, err := sess.Data()
	if err != nil {
		return nil, fmt.Errorf("Table: %s: %w", id, err)
	}
	return table, nil
}

// Count returns the number of sessions held.
func (s *Service) Count() int {
	return s.store.Len()
}
