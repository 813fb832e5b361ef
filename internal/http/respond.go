package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/fjod/go_cart/storefront/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Errors renders service errors as HTTP responses.
// Stack traces are only exposed outside production.
type Errors struct {
	production bool
	logger     *zap.Logger
}

func NewErrors(production bool, logger *zap.Logger) *Errors {
	return &Errors{production: production, logger: logger.Named("http")}
}

func (e *Errors) Write(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, service.ErrConflict):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	default:
		e.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
		resp := ErrorResponse{Message: err.Error(), Code: "internal_error"}
		if !e.production {
			resp.Stack = string(debug.Stack())
		}
		respondJSON(w, http.StatusInternalServerError, resp)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Message: message,
		Code:    code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
