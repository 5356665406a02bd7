// Package web contains HTTP helpers and middleware shared by the REST transports.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// MsgInternalError is shown when a request fails for a reason the user cannot fix.
const MsgInternalError = "Error interno del servidor"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrTrailingData is returned by DecodeJSON when the body holds more than one JSON value.
var ErrTrailingData = errors.New("request body must contain a single JSON value")

// RespondJSON writes payload as JSON with the given status. A nil payload writes the status only.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		status, response = http.StatusInternalServerError, []byte(`{"error":"`+MsgInternalError+`"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// RespondValidation writes a 400 response with a summary message and per-field messages.
func RespondValidation(w http.ResponseWriter, logger *slog.Logger, message string, fields map[string]string) {
	RespondJSON(w, logger, http.StatusBadRequest, map[string]any{
		"error":             message,
		"validation_errors": fields,
	})
}

// DecodeJSON decodes a single JSON value from the request body into dst.
// Unknown fields and bodies over 1 MiB are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}
