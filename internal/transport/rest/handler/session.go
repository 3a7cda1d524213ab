package handler

import (
	"context"
	"net/http"

	"aisurvey/internal/model"
	"aisurvey/internal/service"
	"aisurvey/internal/transport/rest/middleware"
)

// SessionHandler handles respondent endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sessionSvc.Start(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Current handles GET /v1/sessions/current
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sessionSvc.Current(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveAnswers handles PUT /v1/sessions/current/answers
func (h *SessionHandler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	h.withAnswers(w, r, h.sessionSvc.SaveAnswers)
}

// Next handles POST /v1/sessions/current/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.withAnswers(w, r, h.sessionSvc.Next)
}

// Submit handles POST /v1/sessions/current/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.withAnswers(w, r, h.sessionSvc.Submit)
}

// Back handles POST /v1/sessions/current/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sessionSvc.Back(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Restart handles POST /v1/sessions/current/restart
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sessionSvc.Restart(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type answersAction func(ctx context.Context, id string, answers map[string]any) (*model.SessionResponse, error)

func (h *SessionHandler) withAnswers(w http.ResponseWriter, r *http.Request, action answersAction) {
	answers, err := decodeAnswers(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := action(r.Context(), middleware.GetSessionID(r.Context()), answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
