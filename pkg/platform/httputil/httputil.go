// Package httputil centralizes JSON encoding/decoding and domain-error
// translation for HTTP handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
)

// ErrorResponse is the wire shape for all error replies.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// statusFor maps domain error codes to HTTP statuses. PolicyDenied maps to
// 403 with the machine reason in the body: a denial is a decision, not a
// server failure.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodePolicyDenied:
		return http.StatusForbidden
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates a (possibly coded) error into a JSON response.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		de = dErrors.New(dErrors.CodeInternal, "internal error")
	}

	status := statusFor(de.Code)
	msg := de.Message
	if status == http.StatusInternalServerError {
		// Never leak internals to clients.
		msg = "internal error"
	}

	WriteJSON(w, status, ErrorResponse{
		Error:   string(de.Code),
		Message: msg,
		Reason:  de.Reason,
	})
}

// WriteJSON encodes v with the given status. Encoding failures at this point
// cannot be reported to the client; they are silently dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode parses the request body into T and writes a 400 on failure.
// The second return value reports whether the handler should continue.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.DebugContext(ctx, "request body decode failed", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return req, false
	}
	return req, true
}
