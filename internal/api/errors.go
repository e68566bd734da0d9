package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/graybridge/internal/bridge"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Transport-level error codes. Database error codes come from
// bridge.ErrorCode.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeInternal     = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeBridgeError maps a bridge error to its envelope and HTTP status.
func writeBridgeError(w http.ResponseWriter, err error) {
	writeError(w, bridgeStatus(err), bridge.ErrorCode(err), err.Error())
}

// bridgeStatus picks the HTTP status for a bridge error. Caller mistakes
// (unknown path, bad parameters, rejected pragmas) are 4xx; engine and
// durability failures are 5xx.
func bridgeStatus(err error) int {
	switch {
	case errors.Is(err, bridge.ErrNotConnected):
		return http.StatusNotFound
	case errors.Is(err, bridge.ErrInvalidParameterKind),
		errors.Is(err, bridge.ErrInvalidPragma):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrQueryFailed),
		errors.Is(err, bridge.ErrExecFailed),
		errors.Is(err, bridge.ErrBatchFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
