// Package plugins implements the plugin registry. Entries live inside the
// settings document, so every mutation is a single settings write and plugin
// data can never drift from the rest of the configuration.
package plugins

import (
	"errors"
	"log/slog"
	"strings"

	"warpmc/internal/faults"
	"warpmc/internal/logging"
	"warpmc/internal/settings"
)

// Entry aliases the settings-level plugin record.
type Entry = settings.PluginEntry

// Registry provides CRUD over installed plugin entries.
type Registry struct {
	store  *settings.Store
	logger *slog.Logger
}

// Option customises registry construction.
type Option func(*Registry)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logging.NewComponentLogger(logger, "plugins")
	}
}

// NewRegistry builds a registry persisting through the given settings store.
func NewRegistry(store *settings.Store, opts ...Option) *Registry {
	r := &Registry{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the installed plugins ordered by ID.
func (r *Registry) List() ([]Entry, error) {
	return r.store.ListPlugins()
}

// Register adds a new entry. Registration is not an upsert: an existing ID
// fails with ErrDuplicateID.
func (r *Registry) Register(entry Entry) error {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return errors.New("plugin id is required")
	}
	entry.ID = id
	if entry.Name == "" {
		entry.Name = id
	}

	_, err := r.store.UpdatePlugins(func(plugins map[string]Entry) error {
		if _, exists := plugins[id]; exists {
			return faults.Wrap(faults.ErrDuplicateID, "plugins", "register", id, nil)
		}
		plugins[id] = entry
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("plugin registered", logging.Args(
		logging.String("plugin_id", id),
		logging.String("version", entry.Version),
	)...)
	return nil
}

// Remove deletes an entry. Removing an absent ID fails with ErrNotFound;
// removal is deliberately not idempotent so operators notice typos.
func (r *Registry) Remove(id string) error {
	id = strings.TrimSpace(id)
	_, err := r.store.UpdatePlugins(func(plugins map[string]Entry) error {
		if _, exists := plugins[id]; !exists {
			return faults.Wrap(faults.ErrNotFound, "plugins", "remove", id, nil)
		}
		delete(plugins, id)
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("plugin removed", logging.Args(logging.String("plugin_id", id))...)
	return nil
}
