package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const monthlySummariesTable = "monthly_summaries"

// ExportRepository persists per-session monthly summaries.
type ExportRepository interface {
	InsertMonthlySummaries(ctx context.Context, rows []*MonthlySummaryRow) error
	ListMonthlySummaries(ctx context.Context, sessionID string) ([]*MonthlySummaryRow, error)
}

// BigQueryExportRepository is the concrete ExportRepository backed by BigQuery.
// It holds a shared client for the lifetime of the process.
type BigQueryExportRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryExportRepository creates a client for projectID writing into datasetID.
func NewBigQueryExportRepository(ctx context.Context, projectID, datasetID string) (*BigQueryExportRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryExportRepository: creating client: %w", err)
	}
	return &BigQueryExportRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryExportRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertMonthlySummaries streams rows into monthly_summaries.
func (r *BigQueryExportRepository) InsertMonthlySummaries(ctx context.Context, rows []*MonthlySummaryRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(monthlySummariesTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertMonthlySummaries: inserting rows: %w", err)
	}

	return nil
}

// ListMonthlySummaries returns the exported months of one session, oldest first.
// Rows re-exported by later jobs are all returned.
func (r *BigQueryExportRepository) ListMonthlySummaries(ctx context.Context, sessionID string) ([]*MonthlySummaryRow, error) {
	q := r.client.Query(`
		SELECT
			session_id,
			job_id,
			period,
			period_start,
			revenue,
			units,
			transactions,
			products,
			source_file,
			created_ts
		FROM ` + "`" + r.projectID + "." + r.datasetID + "." + monthlySummariesTable + "`" + `
		WHERE session_id = @session_id
		ORDER BY period_start, created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "session_id", Value: sessionID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListMonthlySummaries: query read: %w", err)
	}

	var rows []*MonthlySummaryRow
	for {
		var row MonthlySummaryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListMonthlySummaries: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

var _ ExportRepository = (*BigQueryExportRepository)(nil)
