package store

import (
	"context"
	"embed"
	"sort"
	"strings"
	"time"

	"warpmc/internal/faults"
	"warpmc/internal/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// createdAtKey records the database birth time in the settings table so
// Info can report it even after the file is copied or touched.
const createdAtKey = "db.created_at"

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, faults.Wrap(faults.ErrStorageIO, "store", "migrate", "read migrations dir", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, faults.Wrap(faults.ErrStorageIO, "store", "migrate", name, err)
		}
		migrations = append(migrations, migration{
			version: strings.TrimSuffix(name, ".sql"),
			sql:     string(data),
		})
	}
	return migrations, nil
}

// Migrate brings the schema up to date. Already-applied versions are
// skipped, so calling it repeatedly is safe.
func (s *Store) Migrate(ctx context.Context) error {
	ctx = ensureContext(ctx)
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return faults.Wrap(faults.ErrStorageIO, "store", "migrate", "begin transaction", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
			return faults.Wrap(faults.ErrStorageIO, "store", "migrate", "ensure schema_migrations", err)
		}

		applied := 0
		for _, m := range migrations {
			var count int
			row := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version)
			if err := row.Scan(&count); err != nil {
				return faults.Wrap(faults.ErrStorageIO, "store", "migrate", "scan version", err)
			}
			if count > 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return faults.Wrap(faults.ErrStorageIO, "store", "migrate", m.version, err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
				return faults.Wrap(faults.ErrStorageIO, "store", "migrate", "record "+m.version, err)
			}
			applied++
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO settings(k, v) VALUES (?, ?) ON CONFLICT(k) DO NOTHING",
			createdAtKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return faults.Wrap(faults.ErrStorageIO, "store", "migrate", "record creation time", err)
		}

		if err := tx.Commit(); err != nil {
			return faults.Wrap(faults.ErrStorageIO, "store", "migrate", "commit", err)
		}
		if applied > 0 {
			s.logger.Info("applied schema migrations", logging.Int("count", applied))
		}
		return nil
	})
}
