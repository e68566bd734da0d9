package bridge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Connection tuning constants.
const (
	// msPerSecond converts seconds to milliseconds for the busy timeout pragma.
	msPerSecond = 1000

	// connectTimeout is the timeout for verifying database connectivity.
	connectTimeout = 5 * time.Second
)

// OpenOptions are the caller-supplied options for the open operation.
type OpenOptions struct {
	// DisableForeignKeys disables foreign-key enforcement for the session,
	// applied best-effort immediately after opening.
	DisableForeignKeys bool `json:"disable_foreign_keys"`
}

// Statement is one (SQL, parameters) pair inside a batch.
type Statement struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// Conn owns one open connection to one database file.
//
// Conn is not safe for concurrent use on its own; the Registry serialises
// all access behind its lock. The *sql.DB pool is pinned to a single
// connection so session pragmas (foreign_keys, user-set pragmas) stick.
type Conn struct {
	db   *sql.DB
	path string
}

// openConn opens a database file and verifies connectivity.
//
// Failure to apply the best-effort foreign-key pragma does not fail the
// open; this matches the documented open contract.
func openConn(ctx context.Context, path string, settings Settings, opts OpenOptions) (*Conn, error) {
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		path,
		settings.BusyTimeout*msPerSecond,
	)
	if settings.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, path, err)
	}

	// One connection only: session pragmas apply per connection, and the
	// registry serialises all access anyway.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, path, err)
	}

	c := &Conn{db: sqlDB, path: path}

	if opts.DisableForeignKeys {
		// Best effort: a failure here leaves enforcement on but the open
		// still succeeds.
		_, _ = sqlDB.ExecContext(ctx, "PRAGMA foreign_keys = 0")
	}

	return c, nil
}

// Path returns the logical path this connection was opened with.
func (c *Conn) Path() string {
	return c.path
}

// Close releases the underlying connection.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", c.path, err)
	}
	return nil
}

// query prepares and runs a read statement, binding params positionally,
// and converts every row through the value codec.
//
// Column names are captured once from the result metadata and reused for
// every row, so each row carries the full declared column set even when a
// column is NULL.
func (c *Conn) query(ctx context.Context, query string, params []any) ([]Row, error) {
	args, err := bindArgs(params)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor cleanup

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}

		row := make(Row, len(names))
		for i, name := range names {
			converted, convErr := columnValue(values[i])
			if convErr != nil {
				return nil, fmt.Errorf("column %q: %w", name, convErr)
			}
			row[name] = converted
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return result, nil
}

// exec prepares and runs one write/DDL statement outside any explicit
// transaction. Returns the number of rows affected.
func (c *Conn) exec(ctx context.Context, query string, params []any) (int64, error) {
	args, err := bindArgs(params)
	if err != nil {
		return 0, err
	}

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecFailed, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		// DDL statements report no row count; success still stands.
		return 0, nil
	}
	return affected, nil
}

// execMany re-executes one statement once per parameter set, all inside a
// single transaction. The first failure rolls back every prior execution.
func (c *Conn) execMany(ctx context.Context, query string, paramSets [][]any) (int64, error) {
	stmts := make([]Statement, len(paramSets))
	for i, set := range paramSets {
		stmts[i] = Statement{SQL: query, Params: set}
	}
	return c.execBatch(ctx, stmts)
}

// execBatch executes an ordered statement sequence with all-or-nothing
// commit semantics.
//
// Statements run strictly in the order supplied; one statement's effects
// may feed a later one. On the first failure the transaction is rolled
// back and ErrBatchFailed reports the failing index. A failed commit is
// surfaced as ErrCommitFailed since durability is ambiguous at that point.
func (c *Conn) execBatch(ctx context.Context, stmts []Statement) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", ErrBatchFailed, err)
	}

	var affected int64
	for i, stmt := range stmts {
		args, err := bindArgs(stmt.Params)
		if err != nil {
			tx.Rollback() //nolint:errcheck // Rollback on error path
			return 0, fmt.Errorf("statement %d: %w", i, err)
		}
		result, err := tx.ExecContext(ctx, stmt.SQL, args...)
		if err != nil {
			tx.Rollback() //nolint:errcheck // Rollback on error path
			return 0, fmt.Errorf("%w: statement %d: %w", ErrBatchFailed, i, err)
		}
		if n, raErr := result.RowsAffected(); raErr == nil {
			affected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	return affected, nil
}

// Pragma keys are bare identifiers; values allow identifiers, numbers,
// and dotted/negative forms. Nothing that could terminate or extend the
// statement passes.
var (
	pragmaKeyPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pragmaValuePattern = regexp.MustCompile(`^-?[A-Za-z0-9_.]+$`)
)

// setPragma applies a session/database pragma.
//
// Pragmas are not parameterisable in SQL, so key and value are validated
// against strict character classes and then interpolated.
func (c *Conn) setPragma(ctx context.Context, key string, value any) error {
	rendered, err := renderPragmaValue(value)
	if err != nil {
		return err
	}
	if !pragmaKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: key %q", ErrInvalidPragma, key)
	}
	if !pragmaValuePattern.MatchString(rendered) {
		return fmt.Errorf("%w: value %q", ErrInvalidPragma, rendered)
	}

	if _, err := c.db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", key, rendered)); err != nil {
		return fmt.Errorf("%w: pragma %s: %w", ErrExecFailed, key, err)
	}
	return nil
}

// renderPragmaValue renders a dynamic pragma value as statement text.
// Booleans follow the bridge value model and render as 0/1.
func renderPragmaValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: value kind %T", ErrInvalidPragma, value)
	}
}
