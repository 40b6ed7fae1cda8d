package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// find returns the metric of family name whose labels include all of want.
func find(t *testing.T, m *Metrics, name string, want map[string]string) *dto.Metric {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, l := range metric.GetLabel() {
				if v, ok := want[l.GetName()]; ok && v == l.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return metric
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, want)
	return nil
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("/api/kpis/{session_id}", "GET", 200, 20*time.Millisecond)
	m.ObserveRequest("/api/kpis/{session_id}", "GET", 200, 30*time.Millisecond)
	m.ObserveRequest("/api/kpis/{session_id}", "GET", 404, time.Millisecond)

	ok := find(t, m, "pharmainsight_http_requests_total", map[string]string{"status": "200"})
	if got := ok.GetCounter().GetValue(); got != 2 {
		t.Errorf("200 count = %v, want 2", got)
	}
	hist := find(t, m, "pharmainsight_http_request_duration_seconds", map[string]string{"method": "GET"})
	if got := hist.GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("duration samples = %d, want 3", got)
	}
}

func TestDomainCounters(t *testing.T) {
	m := New()

	m.ForecastServed("Seasonal Decomposition")
	m.ForecastSkipped("insufficient_data")
	m.ForecastSkipped("insufficient_data")
	m.UploadReceived(true)
	m.UploadReceived(false)
	m.SetSessions(4)
	m.JobFinished("export_session", "completed")

	if got := find(t, m, "pharmainsight_forecasts_total", map[string]string{"method": "Seasonal Decomposition"}).GetCounter().GetValue(); got != 1 {
		t.Errorf("forecasts = %v, want 1", got)
	}
	if got := find(t, m, "pharmainsight_forecasts_skipped_total", map[string]string{"reason": "insufficient_data"}).GetCounter().GetValue(); got != 2 {
		t.Errorf("skipped = %v, want 2", got)
	}
	if got := find(t, m, "pharmainsight_uploads_total", map[string]string{"outcome": "rejected"}).GetCounter().GetValue(); got != 1 {
		t.Errorf("rejected uploads = %v, want 1", got)
	}
	if got := find(t, m, "pharmainsight_sessions", nil).GetGauge().GetValue(); got != 4 {
		t.Errorf("sessions = %v, want 4", got)
	}
	if got := find(t, m, "pharmainsight_jobs_total", map[string]string{"status": "completed"}).GetCounter().GetValue(); got != 1 {
		t.Errorf("jobs = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.UploadReceived(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(string(body), `pharmainsight_uploads_total{outcome="accepted"} 1`) {
		t.Errorf("body missing upload counter:\n%s", body)
	}
}
