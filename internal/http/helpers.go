package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"presupuesto/internal/core"
	"presupuesto/internal/log"
	"presupuesto/internal/middleware/trace"
)

const maxBodyBytes = 64 << 10

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// decodeJSON reads a single JSON object into dst. Domain validation errors
// raised while decoding keep their ErrInvalidInput identity.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return log.ErrorTypeValidation
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusServiceUnavailable:
		return log.ErrorTypeStorage
	default:
		return log.ErrorTypeInternal
	}
}

// writeError logs err and writes it as a JSON error body. Internal errors
// are not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	ctx := r.Context()
	logger := log.FromContext(ctx)

	msg := err.Error()
	switch {
	case status >= 500:
		log.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, errorType(status), log.ComponentHTTP, op,
			log.NewFields().WithUser(r.PathValue("user")))
		if status == http.StatusServiceUnavailable {
			msg = core.ErrStorageUnavailable.Error()
		} else {
			msg = "internal error"
		}
	default:
		logger.WarnContext(ctx, "Request rejected",
			log.FieldError, err,
			log.FieldErrorType, errorType(status),
			log.FieldOperation, op,
			log.FieldStatusCode, status)
	}

	writeJSON(w, status, errorJSON{Error: msg, RequestID: trace.GetRequestID(ctx)})
}
