package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/api/middleware"
	"github.com/dvloznov/pharmainsight/internal/forecast"
	"github.com/dvloznov/pharmainsight/internal/logger"
	"github.com/dvloznov/pharmainsight/internal/metrics"
	"github.com/dvloznov/pharmainsight/internal/session"
)

// ForecastHandler handles forecasting endpoints.
type ForecastHandler struct {
	sessions *session.Service
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewForecastHandler creates a new forecast handler.
func NewForecastHandler(sessions *session.Service, m *metrics.Metrics, log zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{
		sessions: sessions,
		metrics:  m,
		log:      log,
	}
}

// Forecast handles GET /api/forecast/{session_id}
func (h *ForecastHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	periods, err := intParam(q, "periods", 3, 1, 6)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := methodParam(q)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	metric, err := metricParam(q)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.sessions.Table(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	series, err := forecast.Prepare(table, strings.TrimSpace(q.Get("product")), metric)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	result, err := forecast.Run(series, metric, kind, periods)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.metrics.ForecastServed(result.Method)
	middleware.WriteJSON(w, http.StatusOK, result)
}

// ForecastProducts handles GET /api/forecast-products/{session_id}
// Products without enough history are left out of the response.
func (h *ForecastHandler) ForecastProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q, "limit", 10, 1, 50)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := methodParam(q)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	metric, err := metricParam(q)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := chi.URLParam(r, "session_id")
	table, err := h.sessions.Table(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	ranking, err := forecast.RankProducts(table, limit, metric, kind)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	for _, f := range ranking.Forecasts {
		h.metrics.ForecastServed(f.Method)
	}
	if len(ranking.Skipped) > 0 {
		log := logger.WithSession(h.log, sessionID)
		for _, s := range ranking.Skipped {
			h.metrics.ForecastSkipped("insufficient_data")
			log.Debug().Str("product", s.Product).Str("reason", s.Reason).Msg("Product forecast skipped")
		}
	}

	middleware.WriteJSON(w, http.StatusOK, ranking.Forecasts)
}

// Accuracy handles GET /api/forecast-accuracy/{session_id}
func (h *ForecastHandler) Accuracy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	holdout, err := intParam(q, "holdout", 1, 1, forecast.MaxHoldout)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := methodParam(q)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	metric, err := metricParam(q)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.sessions.Table(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	product := strings.TrimSpace(q.Get("product"))
	series, err := forecast.Prepare(table, product, metric)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	result, err := forecast.Accuracy(series, metric, kind, holdout)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	result.Product = product

	middleware.WriteJSON(w, http.StatusOK, result)
}
