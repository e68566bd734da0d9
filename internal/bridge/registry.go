package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultDatabaseFile is the fixed filename appended to the data directory
// by the load operation.
const DefaultDatabaseFile = "graybridge.db"

// dirPermissions is the permission mode for the data directory.
const dirPermissions = 0750

// Settings are the connection settings applied to every database the
// registry opens. They map to the storage section of config.yaml.
type Settings struct {
	// DataDir is the directory the load operation resolves its default
	// database into.
	DataDir string

	// WALMode enables Write-Ahead Logging on opened databases.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a file lock (seconds).
	BusyTimeout int
}

// Logger is the subset of logging used by the registry.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Recorder receives per-operation metrics. Implemented by the metrics
// package; a nil recorder disables recording.
type Recorder interface {
	RecordOperation(op, path string, duration time.Duration, success bool)
}

// Registry is a concurrency-safe mapping from logical database path to
// open connection, and the command layer that drives those connections.
//
// One mutex guards the map and every operation against a retrieved
// connection: a statement (or a whole batch) runs to completion before the
// lock is released. This serialises all database access process-wide: no
// connection is ever used by two calls at once, and no caller can hold a
// connection reference outside the critical section.
//
// There is no cancellation mid-statement: the context is honoured between
// statements and by the driver's own I/O, but an in-flight call runs to
// completion or failure. Nothing is retried automatically.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*Conn

	settings Settings

	logger  Logger
	metrics Recorder
}

// New creates an empty registry with the given connection settings.
func New(settings Settings) *Registry {
	return &Registry{
		conns:    make(map[string]*Conn),
		settings: settings,
	}
}

// SetLogger sets an optional logger for connection lifecycle events.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// SetMetrics sets an optional per-operation metrics recorder.
func (r *Registry) SetMetrics(rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = rec
}

// Open opens (or re-opens) the database at path and registers it.
//
// If an entry already exists for path, the new connection replaces it and
// the old one is closed. The lock is held for the whole exchange, so the
// old connection has no pending work when it is dropped. The entry is
// inserted only after a successful open; a failed open leaves any existing
// entry untouched.
func (r *Registry) Open(ctx context.Context, path string, opts OpenOptions) error {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.openLocked(ctx, path, opts)
	r.record("open", path, start, err)
	return err
}

// openLocked opens and registers a connection. Caller holds r.mu.
func (r *Registry) openLocked(ctx context.Context, path string, opts OpenOptions) error {
	conn, err := openConn(ctx, path, r.settings, opts)
	if err != nil {
		return err
	}

	if old, ok := r.conns[path]; ok {
		if closeErr := old.Close(); closeErr != nil && r.logger != nil {
			r.logger.Warn("closing replaced connection", "path", path, "error", closeErr)
		}
	}
	r.conns[path] = conn

	if r.logger != nil {
		r.logger.Info("database opened", "path", path, "foreign_keys_disabled", opts.DisableForeignKeys)
	}
	return nil
}

// Load opens the process-default database and returns its resolved path.
//
// The path is the configured data directory plus the fixed filename
// graybridge.db; the directory is created if missing. Callers reuse the
// returned path as the key for subsequent operations.
func (r *Registry) Load(ctx context.Context, opts OpenOptions) (string, error) {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.settings.DataDir, dirPermissions); err != nil {
		err = fmt.Errorf("%w: creating data directory: %w", ErrConnectFailed, err)
		r.record("load", r.settings.DataDir, start, err)
		return "", err
	}

	path := filepath.Join(r.settings.DataDir, DefaultDatabaseFile)
	err := r.openLocked(ctx, path, opts)
	r.record("load", path, start, err)
	if err != nil {
		return "", err
	}
	return path, nil
}

// Select runs a read statement against an opened database and returns the
// converted rows in the engine's natural order.
func (r *Registry) Select(ctx context.Context, path, query string, params []any) ([]Row, error) {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[path]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotConnected, path)
		r.record("select", path, start, err)
		return nil, err
	}

	rows, err := conn.query(ctx, query, params)
	r.record("select", path, start, err)
	return rows, err
}

// Exec runs a write/DDL statement against an opened database and returns
// the number of rows affected.
//
// Two parameter shapes are accepted, disambiguated by the first element:
// if the first parameter is itself a list, the statement is re-executed
// once per inner parameter list, all inside one transaction (multi-row
// mode); otherwise the statement runs once with the parameters bound
// positionally.
func (r *Registry) Exec(ctx context.Context, path, query string, params []any) (int64, error) {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[path]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotConnected, path)
		r.record("execute", path, start, err)
		return 0, err
	}

	var affected int64
	var err error
	if sets, multi := paramSets(params); multi {
		affected, err = conn.execMany(ctx, query, sets)
	} else {
		affected, err = conn.exec(ctx, query, params)
	}
	r.record("execute", path, start, err)
	return affected, err
}

// SetPragma applies a validated pragma to an opened database.
func (r *Registry) SetPragma(ctx context.Context, path, key string, value any) error {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[path]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotConnected, path)
		r.record("pragma", path, start, err)
		return err
	}

	err := conn.setPragma(ctx, key, value)
	r.record("pragma", path, start, err)
	return err
}

// Batch executes a heterogeneous ordered statement sequence inside one
// transaction with all-or-nothing commit semantics.
func (r *Registry) Batch(ctx context.Context, path string, stmts []Statement) error {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[path]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotConnected, path)
		r.record("batch", path, start, err)
		return err
	}

	_, err := conn.execBatch(ctx, stmts)
	r.record("batch", path, start, err)
	return err
}

// Paths returns the logical paths currently registered, for health and
// status reporting.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.conns))
	for path := range r.conns {
		paths = append(paths, path)
	}
	return paths
}

// Close tears down every registered connection. Called at process
// shutdown; the registry is empty afterwards and every path requires a
// fresh open/load.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for path, conn := range r.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.conns, path)
	}
	return errors.Join(errs...)
}

// paramSets reports whether params is in array-of-arrays form and, if so,
// returns the inner parameter lists. Mixing list and scalar parameters is
// rejected by returning the mixed shape for bindArgs to fail on.
func paramSets(params []any) ([][]any, bool) {
	if len(params) == 0 {
		return nil, false
	}
	if _, ok := params[0].([]any); !ok {
		return nil, false
	}
	sets := make([][]any, 0, len(params))
	for _, p := range params {
		set, ok := p.([]any)
		if !ok {
			return nil, false
		}
		sets = append(sets, set)
	}
	return sets, true
}

// record reports one completed operation to the metrics recorder.
// Caller holds r.mu.
func (r *Registry) record(op, path string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordOperation(op, path, time.Since(start), err == nil)
}
