package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/api/middleware"
	"github.com/dvloznov/pharmainsight/internal/ingest"
	"github.com/dvloznov/pharmainsight/internal/metrics"
	"github.com/dvloznov/pharmainsight/internal/session"
)

// SessionsHandler handles upload and processing endpoints.
type SessionsHandler struct {
	sessions  *session.Service
	metrics   *metrics.Metrics
	maxUpload int64
	log       zerolog.Logger
}

// NewSessionsHandler creates a new sessions handler. maxUpload caps the request body in bytes.
func NewSessionsHandler(sessions *session.Service, m *metrics.Metrics, maxUpload int64, log zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions:  sessions,
		metrics:   m,
		maxUpload: maxUpload,
		log:       log,
	}
}

// Upload handles POST /api/upload (multipart field "file").
func (h *SessionsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.metrics.UploadReceived(false)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "A file is required in the \"file\" form field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.metrics.UploadReceived(false)
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := h.sessions.Upload(ctx, filepath.Base(header.Filename), content)
	if err != nil {
		h.metrics.UploadReceived(false)
		h.log.Warn().Err(err).Str("filename", header.Filename).Msg("Upload rejected")
		if errors.Is(err, ingest.ErrUnsupportedFormat) || errors.Is(err, ingest.ErrEmptyFile) {
			writeServiceError(w, h.log, err)
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Error loading file: "+rootMessage(err))
		return
	}

	h.metrics.UploadReceived(true)
	h.metrics.SetSessions(h.sessions.Count())

	middleware.WriteJSON(w, http.StatusOK, result)
}

type processRequest struct {
	SessionID     string               `json:"session_id"`
	ColumnMapping ingest.ColumnMapping `json:"column_mapping"`
}

// Process handles POST /api/process
func (h *SessionsHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.sessions.Process(r.Context(), req.SessionID, req.ColumnMapping)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Session not found. Please upload file again.")
			return
		}
		writeServiceError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// GetSession handles GET /api/session/{session_id}
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.sessions.Status(r.Context(), chi.URLParam(r, "session_id")))
}

// DateRange handles GET /api/date-range/{session_id}
func (h *SessionsHandler) DateRange(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	rng, err := sess.DateRange()
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rng)
}
