package bridge

import "errors"

// Domain errors for the bridge package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, bridge.ErrNotConnected) {
//	    // handle missing connection
//	}
var (
	// ErrConnectFailed is returned when the underlying database open fails
	// (bad path, permissions, corrupt file).
	ErrConnectFailed = errors.New("bridge: connect failed")

	// ErrNotConnected is returned when an operation targets a path that was
	// never opened. Connections are never opened implicitly.
	ErrNotConnected = errors.New("bridge: not connected")

	// ErrInvalidParameterKind is returned when a supplied parameter's dynamic
	// kind is not representable as a database scalar.
	ErrInvalidParameterKind = errors.New("bridge: parameter kind not representable")

	// ErrQueryFailed is returned when the engine rejects a select statement.
	ErrQueryFailed = errors.New("bridge: query failed")

	// ErrExecFailed is returned when the engine rejects a write statement.
	ErrExecFailed = errors.New("bridge: exec failed")

	// ErrBatchFailed is returned when a statement inside a batch fails.
	// All prior statements in the batch are rolled back.
	ErrBatchFailed = errors.New("bridge: batch statement failed")

	// ErrCommitFailed is returned when every statement in a batch succeeded
	// but the commit itself failed, leaving durability ambiguous.
	ErrCommitFailed = errors.New("bridge: commit failed")

	// ErrEncoding is returned when a text column contains invalid UTF-8.
	ErrEncoding = errors.New("bridge: invalid text encoding")

	// ErrConversion is returned when a column value cannot be represented
	// in the bridge value model.
	ErrConversion = errors.New("bridge: column value not convertible")

	// ErrInvalidPragma is returned when a pragma key or value fails
	// validation before interpolation.
	ErrInvalidPragma = errors.New("bridge: invalid pragma")
)

// ErrorCode maps a bridge error to its stable wire code. Command boundaries
// (HTTP and MQTT) use these codes in their error envelopes so callers can
// branch without parsing messages.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrConnectFailed):
		return "connect_failed"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrInvalidParameterKind):
		return "invalid_parameter"
	case errors.Is(err, ErrInvalidPragma):
		return "invalid_pragma"
	case errors.Is(err, ErrCommitFailed):
		return "commit_failed"
	case errors.Is(err, ErrBatchFailed):
		return "batch_failed"
	case errors.Is(err, ErrQueryFailed):
		return "query_failed"
	case errors.Is(err, ErrExecFailed):
		return "exec_failed"
	case errors.Is(err, ErrEncoding), errors.Is(err, ErrConversion):
		return "encoding_error"
	default:
		return "internal_error"
	}
}
