package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"warpmc/internal/faults"
	"warpmc/internal/fileutil"
	"warpmc/internal/logging"
	"warpmc/internal/paths"
)

// Store owns the settings document. It caches the effective settings after
// the first load; sibling processes are isolated by atomic writes plus a file
// lock around mutations.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger

	loaded bool
	doc    document
	value  Settings
}

// Option customises store construction.
type Option func(*Store)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "settings")
	}
}

// NewStore builds a store writing to the resolver's settings path.
func NewStore(resolver *paths.Resolver, opts ...Option) (*Store, error) {
	path, err := resolver.Resolve(paths.KeySettings)
	if err != nil {
		return nil, err
	}
	// The lock file lives next to the document, so the directory has to exist
	// before the first mutation takes the lock.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}
	s := &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the settings document location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the effective settings, reading from disk on first use or when
// forceReload discards the in-memory cache.
func (s *Store) Load(forceReload bool) (Settings, error) {
	if s.loaded && !forceReload {
		return s.value, nil
	}

	doc := document{}
	err := fileutil.ReadJSON(s.path, &doc)
	switch {
	case err == nil, errors.Is(err, fileutil.ErrAbsent):
		// absent file resolves to defaults
	default:
		return Settings{}, faults.Wrap(faults.ErrCorruptConfig, "settings", "load", s.path, err)
	}

	s.doc = doc
	s.value = effective(doc)
	s.loaded = true
	return s.value, nil
}

// Update applies a partial field set over the current settings, persists the
// resulting document, and returns the refreshed effective settings.
func (s *Store) Update(partial Partial) (Settings, error) {
	return s.mutate(func(doc *document) error {
		if partial.AppName != nil {
			doc.AppName = partial.AppName
		}
		if partial.Environment != nil {
			doc.Environment = partial.Environment
		}
		if partial.LogLevel != nil {
			doc.LogLevel = partial.LogLevel
		}
		if partial.TaskWorkers != nil {
			doc.TaskWorkers = partial.TaskWorkers
		}
		return nil
	})
}

// SetLibraryPath updates one library root. The path must be absolute.
func (s *Store) SetLibraryPath(kind string, path string) (Settings, error) {
	canonical, err := NormalizeMediaKind(kind)
	if err != nil {
		return Settings{}, err
	}
	if !filepath.IsAbs(path) {
		return Settings{}, fmt.Errorf("library path must be absolute, got %q", path)
	}
	cleaned := filepath.Clean(path)

	return s.mutate(func(doc *document) error {
		libs := LibraryPaths{}
		if doc.LibraryPaths != nil {
			libs = *doc.LibraryPaths
		}
		if canonical == KindMovie {
			libs.Movie = cleaned
		} else {
			libs.Show = cleaned
		}
		doc.LibraryPaths = &libs
		return nil
	})
}

// ListPlugins returns the installed plugins ordered by ID.
func (s *Store) ListPlugins() ([]PluginEntry, error) {
	current, err := s.Load(false)
	if err != nil {
		return nil, err
	}
	return current.PluginList(), nil
}

// UpdatePlugins applies fn to a copy of the persisted plugin map and writes
// the whole settings document once, keeping plugin data consistent with the
// rest of settings under a single write.
func (s *Store) UpdatePlugins(fn func(map[string]PluginEntry) error) (Settings, error) {
	return s.mutate(func(doc *document) error {
		plugins := make(map[string]PluginEntry, len(doc.Plugins))
		for id, entry := range doc.Plugins {
			plugins[id] = entry
		}
		if err := fn(plugins); err != nil {
			return err
		}
		doc.Plugins = plugins
		return nil
	})
}

// mutate serializes document writers across processes, re-reads the persisted
// document under the lock, applies fn, persists atomically, and refreshes the
// in-memory cache.
func (s *Store) mutate(fn func(*document) error) (Settings, error) {
	if err := s.lock.Lock(); err != nil {
		return Settings{}, fmt.Errorf("lock settings: %w", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	doc := document{}
	err := fileutil.ReadJSON(s.path, &doc)
	switch {
	case err == nil, errors.Is(err, fileutil.ErrAbsent):
	default:
		return Settings{}, faults.Wrap(faults.ErrCorruptConfig, "settings", "update", s.path, err)
	}

	if err := fn(&doc); err != nil {
		return Settings{}, err
	}
	if doc.Plugins == nil {
		doc.Plugins = map[string]PluginEntry{}
	}
	doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := fileutil.WriteJSONAtomic(s.path, doc, 0o644); err != nil {
		return Settings{}, fmt.Errorf("persist settings: %w", err)
	}
	s.logger.Info("settings persisted", logging.Args(logging.String("path", s.path))...)

	s.doc = doc
	s.value = effective(doc)
	s.loaded = true
	return s.value, nil
}

// effective layers the persisted document over defaults, then applies WARP_*
// environment overrides. Persisted fields win field by field; absent fields
// keep the compiled-in value.
func effective(doc document) Settings {
	out := Default()

	if doc.AppName != nil {
		out.AppName = *doc.AppName
	}
	if doc.Environment != nil {
		out.Environment = *doc.Environment
	}
	if doc.LogLevel != nil {
		out.LogLevel = *doc.LogLevel
	}
	if doc.TaskWorkers != nil {
		out.TaskWorkers = *doc.TaskWorkers
	}
	if doc.LibraryPaths != nil {
		out.LibraryPaths = *doc.LibraryPaths
	}
	if len(doc.Plugins) > 0 {
		out.Plugins = make(map[string]PluginEntry, len(doc.Plugins))
		for id, entry := range doc.Plugins {
			out.Plugins[id] = entry
		}
	}

	if v, ok := lookupEnv("WARP_APP_NAME"); ok {
		out.AppName = v
	}
	if v, ok := lookupEnv("WARP_ENV"); ok {
		out.Environment = v
	}
	if v, ok := lookupEnv("WARP_LOG_LEVEL"); ok {
		out.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookupEnv("WARP_TASK_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.TaskWorkers = n
		}
	}

	if out.TaskWorkers < 1 {
		out.TaskWorkers = defaultTaskWorkers
	}
	return out
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}
