package paths

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"warpmc/internal/faults"
	"warpmc/internal/fileutil"
	"warpmc/internal/logging"
)

// Resolver maps logical configuration keys to absolute on-disk paths.
// Each invocation builds its own resolver; the loaded map is read-only after
// population except through Set and Reload.
type Resolver struct {
	configDir    string
	overridePath string
	lock         *flock.Flock
	logger       *slog.Logger
	paths        map[string]string
}

// Option customises resolver construction.
type Option func(*Resolver)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "paths")
	}
}

// New builds a resolver rooted at configDir. An empty configDir selects the
// default location. A .env file beside the configuration documents is loaded
// best-effort before the override file is read, matching how operators supply
// ${VAR} values referenced from config documents.
func New(configDir string, opts ...Option) (*Resolver, error) {
	if configDir == "" {
		def, err := DefaultConfigDir()
		if err != nil {
			return nil, fmt.Errorf("determine config directory: %w", err)
		}
		configDir = def
	}
	expanded, err := fileutil.ExpandPath(configDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	_ = godotenv.Load(filepath.Join(expanded, ".env"))

	r := &Resolver{
		configDir:    expanded,
		overridePath: filepath.Join(expanded, overrideFileName),
		lock:         flock.New(filepath.Join(expanded, overrideFileName+".lock")),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// ConfigDir returns the directory holding the configuration documents.
func (r *Resolver) ConfigDir() string {
	return r.configDir
}

// OverridePath returns the location of the config_paths.json override file.
func (r *Resolver) OverridePath() string {
	return r.overridePath
}

// Resolve returns the path for a logical key. The lookup is pure: it never
// touches disk once the map is loaded.
func (r *Resolver) Resolve(key string) (string, error) {
	path, ok := r.paths[key]
	if !ok {
		return "", faults.Wrap(faults.ErrUnknownKey, "paths", "resolve", key, nil)
	}
	return path, nil
}

// All returns a copy of the resolved map with keys in sorted order preserved
// by the caller iterating SortedKeys.
func (r *Resolver) All() map[string]string {
	out := make(map[string]string, len(r.paths))
	for k, v := range r.paths {
		out[k] = v
	}
	return out
}

// SortedKeys returns the known logical keys in lexical order.
func (r *Resolver) SortedKeys() []string {
	keys := make([]string, 0, len(r.paths))
	for k := range r.paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns the override document as written, without defaults or expansion.
func (r *Resolver) Raw() (map[string]string, error) {
	raw := map[string]string{}
	if err := r.readOverride(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Set persists an override for key and updates the live map. The write is
// atomic and serialized against sibling invocations with a file lock.
func (r *Resolver) Set(key, value string) error {
	if _, ok := defaultPaths(r.configDir)[key]; !ok {
		return faults.Wrap(faults.ErrUnknownKey, "paths", "set", key, nil)
	}

	if err := r.lock.Lock(); err != nil {
		return fmt.Errorf("lock path overrides: %w", err)
	}
	defer func() {
		_ = r.lock.Unlock()
	}()

	raw := map[string]string{}
	if err := r.readOverride(&raw); err != nil {
		return err
	}
	raw[key] = value

	if err := fileutil.WriteJSONAtomic(r.overridePath, raw, 0o644); err != nil {
		return fmt.Errorf("persist path overrides: %w", err)
	}
	r.logger.Info("path override persisted", logging.Args(
		logging.String("key", key),
		logging.String("value", value),
	)...)

	return r.reload()
}

// Reload re-reads the override file and recomputes every derived path,
// falling back to compiled-in defaults for keys absent from the override.
func (r *Resolver) Reload() (map[string]string, error) {
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r.All(), nil
}

func (r *Resolver) reload() error {
	merged := defaultPaths(r.configDir)

	raw := map[string]string{}
	if err := r.readOverride(&raw); err != nil {
		return err
	}
	for key, value := range raw {
		merged[key] = value
	}

	for key, value := range merged {
		resolved, err := r.resolveCandidate(fileutil.ExpandEnv(value))
		if err != nil {
			return fmt.Errorf("resolve path for %q: %w", key, err)
		}
		merged[key] = resolved
	}

	r.paths = merged
	return nil
}

func (r *Resolver) readOverride(out *map[string]string) error {
	err := fileutil.ReadJSON(r.overridePath, out)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fileutil.ErrAbsent):
		return nil
	default:
		return faults.Wrap(faults.ErrCorruptConfig, "paths", "read override", r.overridePath, err)
	}
}

// resolveCandidate expands ~ and anchors relative values at the config
// directory, mirroring where operators place sibling documents.
func (r *Resolver) resolveCandidate(value string) (string, error) {
	switch {
	case value == "":
		return value, nil
	case value[0] == '~':
		return fileutil.ExpandPath(value)
	case filepath.IsAbs(value):
		return filepath.Clean(value), nil
	default:
		return filepath.Clean(filepath.Join(r.configDir, value)), nil
	}
}
