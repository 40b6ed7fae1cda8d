package bigquery

import (
	"math"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/pharmainsight/internal/domain"
	"github.com/dvloznov/pharmainsight/internal/forecast"
)

// MonthlySummaryRow is one month of a session's sales, as stored in monthly_summaries.
type MonthlySummaryRow struct {
	SessionID string `bigquery:"session_id"` // REQUIRED
	JobID     string `bigquery:"job_id"`     // REQUIRED

	Period      string     `bigquery:"period"`       // REQUIRED "YYYY-MM"
	PeriodStart civil.Date `bigquery:"period_start"` // REQUIRED

	Revenue      float64 `bigquery:"revenue"`
	Units        float64 `bigquery:"units"`
	Transactions int64   `bigquery:"transactions"`
	Products     int64   `bigquery:"products"`

	SourceFile bigquery.NullString `bigquery:"source_file"` // NULLABLE gs:// URI of the archived upload

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// BuildMonthlySummaries turns a processed table into one row per month, ascending.
// Months and their totals come from the same series the forecasts use, so an
// exported month always agrees with the forecast history.
func BuildMonthlySummaries(sessionID, jobID string, table *domain.Table, sourceURI string, now time.Time) []*MonthlySummaryRow {
	series, err := forecast.Prepare(table, "", forecast.MetricRevenue)
	if err != nil {
		return nil
	}

	products := make(map[string]map[string]struct{})
	for _, r := range table.Rows {
		if products[r.MonthYear] == nil {
			products[r.MonthYear] = make(map[string]struct{})
		}
		products[r.MonthYear][r.Product] = struct{}{}
	}

	source := bigquery.NullString{StringVal: sourceURI, Valid: sourceURI != ""}

	rows := make([]*MonthlySummaryRow, 0, series.Len())
	for _, p := range series {
		rows = append(rows, &MonthlySummaryRow{
			SessionID:    sessionID,
			JobID:        jobID,
			Period:       p.Period,
			PeriodStart:  p.Date,
			Revenue:      math.Round(p.Revenue*100) / 100,
			Units:        p.Units,
			Transactions: int64(p.Transactions),
			Products:     int64(len(products[p.Period])),
			SourceFile:   source,
			CreatedTS:    now.UTC(),
		})
	}
	return rows
}
