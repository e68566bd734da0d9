// Package bridge implements the SQLite connection registry and the
// query/execute/batch engine behind the graybridge command surface.
//
// This package manages:
//   - A registry of open connections keyed by logical database path
//   - Global serialisation of all database access behind one lock
//   - Conversion between dynamic JSON values and SQLite scalars
//   - Transactional batch execution with all-or-nothing semantics
//
// # Concurrency Model
//
// One mutex covers the registry map and every operation against a
// connection. A statement, or an entire batch transaction, runs to
// completion before the lock is released. Callers never hold a connection
// reference outside the critical section, so re-opening a path can never
// race a use of the replaced connection.
//
// # Value Model
//
// Parameters and columns are restricted to NULL, INTEGER, REAL, TEXT, and
// BLOB. Booleans map to INTEGER 0/1 on the way in; the boolean/integer
// distinction is lost on round trip, which is expected and documented.
// Blobs appear only as column output.
//
// # Error Handling
//
// Every failure surfaces a sentinel error (see errors.go) wrapped with the
// path and, for batches, the failing statement index. Nothing is retried,
// and no error is swallowed except the best-effort foreign-key pragma
// applied during open.
package bridge
