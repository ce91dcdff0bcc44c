package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"database/sql"

	_ "modernc.org/sqlite"

	"warpmc/internal/faults"
	"warpmc/internal/logging"
	"warpmc/internal/paths"
)

// Store manages the embedded database connection.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Option customises store construction.
type Option func(*Store)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "store")
	}
}

// Open connects to the database at the resolver's database path, applies
// connection pragmas, and brings the schema up to date.
func Open(resolver *paths.Resolver, opts ...Option) (*Store, error) {
	dbPath, err := resolver.Resolve(paths.KeyDatabase)
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath, opts...)
}

// OpenPath connects to a database file directly. Used by tests and by Open.
func OpenPath(dbPath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrStorageIO, "store", "open", "create database directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStorageIO, "store", "open", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, faults.Wrap(faults.ErrStorageIO, "store", "open", pragma, execErr)
		}
	}

	s := &Store{db: db, path: dbPath, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	if err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	}); err != nil {
		return faults.Wrap(faults.ErrStorageIO, "store", "exec", firstWord(query), err)
	}
	return nil
}

func firstWord(query string) string {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Setting returns a value from the settings key/value table; ok reports
// whether the key exists.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM settings WHERE k = ?`, key).Scan(&value)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	default:
		return "", false, faults.Wrap(faults.ErrStorageIO, "store", "setting", key, err)
	}
}

// SetSetting upserts a value into the settings key/value table.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.execWithRetry(ctx, `
		INSERT INTO settings(k, v) VALUES (?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
}
