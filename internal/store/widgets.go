package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"warpmc/internal/faults"
)

// Widget is a cached catalog rail keyed by a stable widget identifier.
// The payload is opaque JSON produced by whichever collaborator built
// the rail.
type Widget struct {
	Key       string          `json:"widget_key"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WidgetList returns every stored widget ordered by key.
func (s *Store) WidgetList(ctx context.Context) ([]Widget, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT widget_key, payload_json, updated_at FROM catalog_widgets ORDER BY widget_key`)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStorageIO, "store", "widget list", "", err)
	}
	defer rows.Close()

	var widgets []Widget
	for rows.Next() {
		widget, err := scanWidget(rows.Scan)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, widget)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.Wrap(faults.ErrStorageIO, "store", "widget list", "", err)
	}
	return widgets, nil
}

// WidgetGet returns the widget stored under key, or ErrNotFound.
func (s *Store) WidgetGet(ctx context.Context, key string) (Widget, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT widget_key, payload_json, updated_at FROM catalog_widgets WHERE widget_key = ?`, key)
	widget, err := scanWidget(row.Scan)
	switch {
	case err == nil:
		return widget, nil
	case errors.Is(err, sql.ErrNoRows):
		return Widget{}, faults.Wrap(faults.ErrNotFound, "store", "widget get", key, nil)
	default:
		return Widget{}, err
	}
}

// WidgetPut stores payload under key, replacing any previous value.
// Concurrent writers race benignly: the last committed write wins.
func (s *Store) WidgetPut(ctx context.Context, key string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return faults.Wrap(faults.ErrCorruptConfig, "store", "widget put", key, errors.New("payload is not valid JSON"))
	}
	return s.execWithRetry(ctx, `
		INSERT INTO catalog_widgets(widget_key, payload_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(widget_key) DO UPDATE SET
			payload_json = excluded.payload_json,
			updated_at = excluded.updated_at`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339))
}

// WidgetClear removes the widget stored under key. Clearing a key that
// does not exist is not an error.
func (s *Store) WidgetClear(ctx context.Context, key string) error {
	return s.execWithRetry(ctx, `DELETE FROM catalog_widgets WHERE widget_key = ?`, key)
}

func scanWidget(scan func(...any) error) (Widget, error) {
	var (
		widget  Widget
		payload string
		updated string
	)
	if err := scan(&widget.Key, &payload, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Widget{}, err
		}
		return Widget{}, faults.Wrap(faults.ErrStorageIO, "store", "widget scan", widget.Key, err)
	}
	widget.Payload = json.RawMessage(payload)
	if parsed, err := time.Parse(time.RFC3339, updated); err == nil {
		widget.UpdatedAt = parsed
	}
	return widget, nil
}
