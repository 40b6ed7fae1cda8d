package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/analytics"
	"github.com/dvloznov/pharmainsight/internal/api/middleware"
	"github.com/dvloznov/pharmainsight/internal/session"
)

// AnalyticsHandler handles the aggregation endpoints.
type AnalyticsHandler struct {
	sessions *session.Service
	log      zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(sessions *session.Service, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		sessions: sessions,
		log:      log,
	}
}

// service builds an analytics service over the session's table. When filtered
// is set, start_date and end_date narrow the view. It writes the error response itself.
func (h *AnalyticsHandler) service(w http.ResponseWriter, r *http.Request, filtered bool) (*analytics.Service, bool) {
	table, err := h.sessions.Table(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return nil, false
	}
	if !filtered {
		return analytics.NewService(table, nil, nil), true
	}

	start, end, err := dateFilter(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return analytics.NewService(table, start, end), true
}

// KPIs handles GET /api/kpis/{session_id}
func (h *AnalyticsHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.KPIs())
}

// RevenueTrend handles GET /api/revenue-trend/{session_id}
func (h *AnalyticsHandler) RevenueTrend(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.RevenueTrend())
}

// TopProducts handles GET /api/top-products/{session_id}
func (h *AnalyticsHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", 10, 1, 100)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.TopProducts(limit))
}

// Categories handles GET /api/categories/{session_id}
func (h *AnalyticsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.CategoryPerformance())
}

// ABC handles GET /api/abc-analysis/{session_id}
func (h *AnalyticsHandler) ABC(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.ABC())
}

// DayOfWeek handles GET /api/day-of-week/{session_id}
func (h *AnalyticsHandler) DayOfWeek(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.DayOfWeek())
}

// ProductDetail handles GET /api/product/{session_id}/{product_name}
func (h *AnalyticsHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	// chi returns the escaped segment when the path carries an encoded slash.
	name := chi.URLParam(r, "product_name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	detail, err := svc.ProductDetail(name)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, detail)
}

// SearchProducts handles GET /api/search-products/{session_id}?q=
// Search always covers the whole table.
func (h *AnalyticsHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		middleware.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := intParam(q, "limit", 20, 1, 100)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc, ok := h.service(w, r, false)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.Search(query, limit))
}

// CompareProducts handles POST /api/compare-products/{session_id} with a JSON array of names.
func (h *AnalyticsHandler) CompareProducts(w http.ResponseWriter, r *http.Request) {
	var names []string
	if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Request body must be a JSON array of product names")
		return
	}
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.Compare(names))
}

// InventoryAlerts handles GET /api/inventory-alerts/{session_id}; all=true lifts the list caps.
func (h *AnalyticsHandler) InventoryAlerts(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, true)
	if !ok {
		return
	}
	if r.URL.Query().Get("all") == "true" {
		middleware.WriteJSON(w, http.StatusOK, svc.AllInventoryAlerts())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.InventoryAlerts())
}

// ReorderSuggestions handles GET /api/reorder-suggestions/{session_id}?months=
func (h *AnalyticsHandler) ReorderSuggestions(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r.URL.Query(), "months", 1, 1, 3)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc, ok := h.service(w, r, false)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.ReorderSuggestions(months))
}

// Seasonality handles GET /api/seasonality/{session_id}
func (h *AnalyticsHandler) Seasonality(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, false)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.Seasonality())
}

// PreliminaryAnalysis handles GET /api/preliminary-analysis/{session_id}
func (h *AnalyticsHandler) PreliminaryAnalysis(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r, false)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, svc.PreliminaryAnalysis())
}
