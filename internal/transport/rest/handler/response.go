package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"aisurvey/internal/cache"
	"aisurvey/internal/logger"
	"aisurvey/internal/service"
)

// ResponseHandler handles researcher endpoints over stored responses
type ResponseHandler struct {
	responseSvc *service.ResponseService
	progress    cache.ProgressCache
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(responseSvc *service.ResponseService, progress cache.ProgressCache) *ResponseHandler {
	return &ResponseHandler{
		responseSvc: responseSvc,
		progress:    progress,
	}
}

// List handles GET /v1/responses?offset=&limit=
func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)

	list, err := h.responseSvc.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Export handles GET /v1/responses/export
func (h *ResponseHandler) Export(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("responses-%s.csv", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.responseSvc.Export(r.Context(), w); err != nil {
		logger.Log.Error("export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
	}
}

// Progress handles GET /v1/responses/progress
func (h *ResponseHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.progress.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
