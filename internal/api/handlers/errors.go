package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/analytics"
	"github.com/dvloznov/pharmainsight/internal/api/middleware"
	"github.com/dvloznov/pharmainsight/internal/forecast"
	"github.com/dvloznov/pharmainsight/internal/ingest"
	"github.com/dvloznov/pharmainsight/internal/jobs"
	"github.com/dvloznov/pharmainsight/internal/narrative"
	"github.com/dvloznov/pharmainsight/internal/session"
)

// writeServiceError maps a service error to its HTTP status and writes it.
// Unknown errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		insufficient *forecast.InsufficientDataError
		missing      *ingest.MissingColumnsError
		upstream     *narrative.UpstreamError
	)

	switch {
	case errors.Is(err, session.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrNotProcessed):
		middleware.WriteError(w, http.StatusBadRequest, "Data not processed yet")
	case errors.As(err, &insufficient):
		middleware.WriteError(w, http.StatusBadRequest, insufficient.Error())
	case errors.Is(err, analytics.ErrProductNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Product not found")
	case errors.As(err, &missing):
		middleware.WriteError(w, http.StatusBadRequest, missing.Error())
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		middleware.WriteError(w, http.StatusBadRequest, "Unsupported file format. Please upload a CSV or xlsx file.")
	case errors.Is(err, ingest.ErrEmptyFile):
		middleware.WriteError(w, http.StatusBadRequest, "File is empty")
	case errors.Is(err, ingest.ErrNoValidRows):
		middleware.WriteError(w, http.StatusBadRequest, "No valid rows after cleaning. Check the column mapping.")
	case errors.Is(err, narrative.ErrNotConfigured), errors.Is(err, narrative.ErrEmptyQuestion):
		middleware.WriteError(w, http.StatusBadRequest, rootMessage(err))
	case errors.As(err, &upstream):
		log.Warn().Err(err).Int("status", upstream.StatusCode).Msg("AI upstream failure")
		middleware.WriteError(w, upstream.StatusCode, upstream.Error())
	case errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
	default:
		log.Error().Err(err).Msg("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// rootMessage returns the message of the innermost wrapped error.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// paramError is a rejected query parameter.
type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.name, e.reason)
}

// intParam parses an optional integer query parameter bounded to [lo, hi].
func intParam(q url.Values, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, reason: "must be an integer"}
	}
	if v < lo || v > hi {
		return 0, &paramError{name: name, reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return v, nil
}

// dateParam parses an optional YYYY-MM-DD query parameter.
func dateParam(q url.Values, name string) (*civil.Date, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, &paramError{name: name, reason: "expected YYYY-MM-DD"}
	}
	return &d, nil
}

// dateFilter reads start_date and end_date. Either may be omitted.
func dateFilter(q url.Values) (start, end *civil.Date, err error) {
	if start, err = dateParam(q, "start_date"); err != nil {
		return nil, nil, err
	}
	if end, err = dateParam(q, "end_date"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// methodParam validates the method query parameter.
func methodParam(q url.Values) (forecast.Kind, error) {
	kind, ok := forecast.ParseKind(strings.TrimSpace(q.Get("method")))
	if !ok {
		return "", &paramError{name: "method", reason: "expected auto, moving_average, exponential or seasonal"}
	}
	return kind, nil
}

var forecastTypes = map[string]struct{}{
	"revenue": {}, "units": {}, "transactions": {}, "total_revenue": {},
}

// metricParam resolves the forecast metric. A legacy type parameter wins over
// forecast_type and is normalized without validation.
func metricParam(q url.Values) (forecast.Metric, error) {
	if legacy := strings.TrimSpace(q.Get("type")); legacy != "" {
		return forecast.NormalizeMetric(legacy), nil
	}
	ft := strings.TrimSpace(q.Get("forecast_type"))
	if ft == "" {
		return forecast.MetricRevenue, nil
	}
	if _, ok := forecastTypes[ft]; !ok {
		return "", &paramError{name: "forecast_type", reason: "expected revenue, units or transactions"}
	}
	return forecast.NormalizeMetric(ft), nil
}
