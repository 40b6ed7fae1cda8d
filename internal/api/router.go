// Package api wires the HTTP query surface onto a chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/api/handlers"
	"github.com/dvloznov/pharmainsight/internal/api/middleware"
	"github.com/dvloznov/pharmainsight/internal/jobs"
	"github.com/dvloznov/pharmainsight/internal/metrics"
	"github.com/dvloznov/pharmainsight/internal/narrative"
	"github.com/dvloznov/pharmainsight/internal/session"
)

// Deps are the services the router serves.
type Deps struct {
	Sessions       *session.Service
	Narrative      *narrative.Service
	Jobs           jobs.JobStore
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
	Log            zerolog.Logger
}

// NewRouter builds the HTTP handler with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	sessionsHandler := handlers.NewSessionsHandler(d.Sessions, d.Metrics, d.MaxUploadBytes, d.Log)
	analyticsHandler := handlers.NewAnalyticsHandler(d.Sessions, d.Log)
	forecastHandler := handlers.NewForecastHandler(d.Sessions, d.Metrics, d.Log)
	aiHandler := handlers.NewAIHandler(d.Sessions, d.Narrative, d.Log)
	jobsHandler := handlers.NewJobsHandler(d.Jobs, d.Log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Sessions
		r.Post("/upload", sessionsHandler.Upload)
		r.Post("/process", sessionsHandler.Process)
		r.Get("/session/{session_id}", sessionsHandler.GetSession)
		r.Get("/date-range/{session_id}", sessionsHandler.DateRange)

		// Analytics
		r.Get("/kpis/{session_id}", analyticsHandler.KPIs)
		r.Get("/revenue-trend/{session_id}", analyticsHandler.RevenueTrend)
		r.Get("/top-products/{session_id}", analyticsHandler.TopProducts)
		r.Get("/categories/{session_id}", analyticsHandler.Categories)
		r.Get("/abc-analysis/{session_id}", analyticsHandler.ABC)
		r.Get("/day-of-week/{session_id}", analyticsHandler.DayOfWeek)
		r.Get("/product/{session_id}/{product_name}", analyticsHandler.ProductDetail)
		r.Get("/search-products/{session_id}", analyticsHandler.SearchProducts)
		r.Post("/compare-products/{session_id}", analyticsHandler.CompareProducts)
		r.Get("/inventory-alerts/{session_id}", analyticsHandler.InventoryAlerts)
		r.Get("/reorder-suggestions/{session_id}", analyticsHandler.ReorderSuggestions)
		r.Get("/seasonality/{session_id}", analyticsHandler.Seasonality)
		r.Get("/preliminary-analysis/{session_id}", analyticsHandler.PreliminaryAnalysis)

		// Forecasting
		r.Get("/forecast/{session_id}", forecastHandler.Forecast)
		r.Get("/forecast-products/{session_id}", forecastHandler.ForecastProducts)
		r.Get("/forecast-accuracy/{session_id}", forecastHandler.Accuracy)

		// AI
		r.Post("/ai/ask", aiHandler.Ask)
		r.Get("/ai/diagnose/{session_id}", aiHandler.Diagnose)
		r.Get("/ai/suggested-questions", aiHandler.SuggestedQuestions)

		// Jobs
		r.Get("/jobs", jobsHandler.ListJobs)
		r.Get("/jobs/{job_id}", jobsHandler.GetJob)
	})

	return r
}
