package store

import (
	"context"
	"os"
	"time"

	"warpmc/internal/faults"
	"warpmc/internal/logging"
)

// Info describes the database file on disk.
type Info struct {
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Stats reports table row counts and page-level usage.
type Stats struct {
	Tables        map[string]int64 `json:"tables"`
	PageCount     int64            `json:"page_count"`
	PageSize      int64            `json:"page_size"`
	FreelistCount int64            `json:"freelist_count"`
}

var statTables = []string{
	"titles",
	"episodes",
	"sources",
	"play_history",
	"settings",
	"catalog_widgets",
}

// Info reports the database path, file size, and timestamps. The creation
// time comes from the settings table where Migrate recorded it.
func (s *Store) Info(ctx context.Context) (Info, error) {
	ctx = ensureContext(ctx)
	info := Info{Path: s.path}

	stat, err := os.Stat(s.path)
	if err != nil {
		return info, faults.Wrap(faults.ErrStorageIO, "store", "info", s.path, err)
	}
	info.SizeBytes = stat.Size()
	info.ModifiedAt = stat.ModTime().UTC()

	raw, ok, err := s.Setting(ctx, createdAtKey)
	if err != nil {
		return info, err
	}
	if ok {
		if created, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil {
			info.CreatedAt = created
		}
	}
	return info, nil
}

// Stats counts rows per table and reads page usage pragmas.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{Tables: make(map[string]int64, len(statTables))}

	for _, table := range statTables {
		var count int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table).Scan(&count); err != nil {
			return Stats{}, faults.Wrap(faults.ErrStorageIO, "store", "stats", table, err)
		}
		stats.Tables[table] = count
	}

	pragmas := []struct {
		name string
		dest *int64
	}{
		{"page_count", &stats.PageCount},
		{"page_size", &stats.PageSize},
		{"freelist_count", &stats.FreelistCount},
	}
	for _, pragma := range pragmas {
		if err := s.db.QueryRowContext(ctx, "PRAGMA "+pragma.name).Scan(pragma.dest); err != nil {
			return Stats{}, faults.Wrap(faults.ErrStorageIO, "store", "stats", pragma.name, err)
		}
	}
	return stats, nil
}

// Vacuum rebuilds the database file to reclaim free pages. SQLite
// serializes this internally; concurrent writers see busy errors, which
// the retry loop absorbs.
func (s *Store) Vacuum(ctx context.Context) error {
	started := time.Now()
	if err := s.execWithRetry(ctx, "VACUUM"); err != nil {
		return err
	}
	s.logger.Info("vacuum completed", logging.Duration("elapsed", time.Since(started)))
	return nil
}
