package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/api/middleware"
	"github.com/dvloznov/pharmainsight/internal/narrative"
	"github.com/dvloznov/pharmainsight/internal/session"
)

// AIHandler handles the narrative endpoints.
type AIHandler struct {
	sessions  *session.Service
	narrative *narrative.Service
	log       zerolog.Logger
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(sessions *session.Service, narrative *narrative.Service, log zerolog.Logger) *AIHandler {
	return &AIHandler{
		sessions:  sessions,
		narrative: narrative,
		log:       log,
	}
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// Ask handles POST /api/ai/ask
func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.narrative.Enabled() {
		writeServiceError(w, h.log, narrative.ErrNotConfigured)
		return
	}

	table, err := h.sessions.Table(r.Context(), req.SessionID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	answer, err := h.narrative.Ask(r.Context(), table, req.Question)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, answer)
}

// Diagnose handles GET /api/ai/diagnose/{session_id}
// Without AI configured it returns the rule-based preliminary analysis.
func (h *AIHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	table, err := h.sessions.Table(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	diagnosis, err := h.narrative.Diagnose(r.Context(), table)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	if diagnosis.Answer != nil {
		middleware.WriteJSON(w, http.StatusOK, diagnosis.Answer)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, diagnosis.Preliminary)
}

// SuggestedQuestions handles GET /api/ai/suggested-questions
func (h *AIHandler) SuggestedQuestions(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": narrative.SuggestedQuestions(),
	})
}
