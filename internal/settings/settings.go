// Package settings loads, merges, and persists the application-wide runtime
// settings: identity fields, worker count, library roots, and the plugin map.
// Effective settings are resolved by layering the persisted user document over
// compiled-in defaults, with WARP_* environment variables on top.
package settings

import (
	"fmt"
	"sort"
	"strings"
)

const (
	defaultAppName     = "Warp MediaCenter"
	defaultEnvironment = "development"
	defaultLogLevel    = "info"
	defaultTaskWorkers = 4
)

// MediaKind identifies one of the two library roots.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindShow  MediaKind = "show"
)

// NormalizeMediaKind maps the aliases users type to a canonical kind.
func NormalizeMediaKind(kind string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "movie", "movies":
		return KindMovie, nil
	case "show", "shows", "tv", "tv_show", "tv_shows":
		return KindShow, nil
	default:
		return "", fmt.Errorf("unsupported media kind %q", kind)
	}
}

// LibraryPaths holds the root directories of the two libraries.
type LibraryPaths struct {
	Movie string `json:"movie,omitempty"`
	Show  string `json:"show,omitempty"`
}

// Get returns the path for a canonical kind.
func (p LibraryPaths) Get(kind MediaKind) string {
	if kind == KindMovie {
		return p.Movie
	}
	return p.Show
}

// PluginEntry describes one installed plugin recorded in the settings
// document. IDs are unique within the registry.
type PluginEntry struct {
	ID          string         `json:"plugin_id"`
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Entrypoint  string         `json:"entrypoint"`
	Path        string         `json:"path"`
	InstalledAt string         `json:"installed_at"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Settings is the effective runtime configuration after layering.
type Settings struct {
	AppName      string                 `json:"app_name"`
	Environment  string                 `json:"environment"`
	LogLevel     string                 `json:"log_level"`
	TaskWorkers  int                    `json:"task_workers"`
	LibraryPaths LibraryPaths           `json:"library_paths"`
	Plugins      map[string]PluginEntry `json:"plugins"`
}

// PluginList returns the installed plugins ordered by ID.
func (s Settings) PluginList() []PluginEntry {
	ids := make([]string, 0, len(s.Plugins))
	for id := range s.Plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]PluginEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Plugins[id])
	}
	return out
}

// Default returns the compiled-in settings.
func Default() Settings {
	return Settings{
		AppName:     defaultAppName,
		Environment: defaultEnvironment,
		LogLevel:    defaultLogLevel,
		TaskWorkers: defaultTaskWorkers,
		Plugins:     map[string]PluginEntry{},
	}
}

// Partial is the field set an update may override. Nil fields leave the
// current value untouched; the pointer form distinguishes "absent" from
// "explicitly set to the default".
type Partial struct {
	AppName     *string
	Environment *string
	LogLevel    *string
	TaskWorkers *int
}

// document is the persisted user_settings.json shape. Only fields that differ
// from defaults are written, plus the structurally required plugins map.
type document struct {
	AppName      *string                `json:"app_name,omitempty"`
	Environment  *string                `json:"environment,omitempty"`
	LogLevel     *string                `json:"log_level,omitempty"`
	TaskWorkers  *int                   `json:"task_workers,omitempty"`
	LibraryPaths *LibraryPaths          `json:"library_paths,omitempty"`
	Plugins      map[string]PluginEntry `json:"plugins"`
	UpdatedAt    string                 `json:"updated_at,omitempty"`
}
