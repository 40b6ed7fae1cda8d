// Package export runs background jobs that copy processed sessions to Google Cloud.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/archive"
	bqinfra "github.com/dvloznov/pharmainsight/internal/infra/bigquery"
	"github.com/dvloznov/pharmainsight/internal/jobs"
	"github.com/dvloznov/pharmainsight/internal/session"
)

// Handler archives a session's raw upload and writes its monthly summaries.
// Either destination may be nil, in which case that step is skipped.
type Handler struct {
	sessions session.Store
	archiver archive.Archiver
	repo     bqinfra.ExportRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewHandler creates an export handler.
func NewHandler(sessions session.Store, archiver archive.Archiver, repo bqinfra.ExportRepository, log zerolog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		archiver: archiver,
		repo:     repo,
		log:      log,
		now:      time.Now,
	}
}

// Handle implements jobs.JobHandler. A retried job does not archive the upload twice.
func (h *Handler) Handle(ctx context.Context, job jobs.Job) error {
	exportJob, ok := job.(*jobs.ExportSessionJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type: %T", job)
	}

	log := h.log.With().
		Str("job_id", exportJob.JobID).
		Str("session_id", exportJob.SessionID).
		Logger()

	sess, err := h.sessions.Get(ctx, exportJob.SessionID)
	if err != nil {
		return fmt.Errorf("Handle: loading session: %w", err)
	}
	table, err := sess.Data()
	if err != nil {
		return fmt.Errorf("Handle: %w", err)
	}

	if h.archiver != nil && exportJob.ArchiveURI == "" {
		uri, err := h.archiver.Archive(ctx, sess.ID, sess.Filename, sess.Source)
		if err != nil {
			return fmt.Errorf("Handle: archiving upload: %w", err)
		}
		exportJob.ArchiveURI = uri
		log.Info().Str("uri", uri).Int("bytes", len(sess.Source)).Msg("Upload archived")
	}

	if h.repo != nil {
		rows := bqinfra.BuildMonthlySummaries(sess.ID, exportJob.JobID, table, exportJob.ArchiveURI, h.now())
		if err := h.repo.InsertMonthlySummaries(ctx, rows); err != nil {
			return fmt.Errorf("Handle: exporting summaries: %w", err)
		}
		exportJob.ExportedRows = len(rows)
		log.Info().Int("rows", len(rows)).Msg("Monthly summaries exported")
	}

	return nil
}
