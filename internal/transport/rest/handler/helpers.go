package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"aisurvey/internal/cache"
	"aisurvey/internal/logger"
	"aisurvey/internal/model"
	"aisurvey/internal/service"
	"aisurvey/internal/survey"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service and survey errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *survey.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, model.ValidationErrorResponse{
			Error:    verr.Error(),
			Kind:     verr.KindName(),
			Page:     verr.Page,
			Fields:   verr.Fields,
			Problems: verr.Problems,
		})
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cache.ErrLocked),
		errors.Is(err, survey.ErrAlreadySubmitted),
		errors.Is(err, survey.ErrNoPredecessor),
		errors.Is(err, survey.ErrTerminalPage),
		errors.Is(err, survey.ErrNotTerminal):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// maxBodyBytes caps every JSON request body. A full page of answers with
// the longest free text fits well below it.
const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// decodeAnswers reads an optional AnswersRequest body. An empty body means
// no answers.
func decodeAnswers(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var req model.AnswersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return req.Answers, nil
}
