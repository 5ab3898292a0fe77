package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/agent"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/chat"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

// badRequest marks a malformed request.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

// statusFor maps an error to the HTTP status of its envelope.
func statusFor(err error) int {
	var br *badRequest
	var ce *agent.ConfigError
	switch {
	case errors.As(err, &br),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, leadsapi.ErrMissingIdentifier),
		errors.Is(err, leadtools.ErrContextNotInitialized):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the {"detail": ...} envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeRaw(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}
