// Package testsupport provides shared fixtures for package tests: a path
// resolver rooted in per-test temp directories and helpers for seeding
// configuration documents.
package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"warpmc/internal/paths"
	"warpmc/internal/store"
)

// NewResolver builds a resolver whose config, data, and cache directories all
// live under a fresh temp directory. Environment lookups are redirected so
// nothing touches the real home directory.
func NewResolver(t testing.TB) *paths.Resolver {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))

	configDir := filepath.Join(base, "config")
	resolver, err := paths.New(configDir)
	if err != nil {
		t.Fatalf("paths.New: %v", err)
	}
	return resolver
}

// WriteJSON marshals v into path, creating parent directories as needed.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// MustOpenStore opens the embedded database for tests and registers cleanup.
func MustOpenStore(t testing.TB, resolver *paths.Resolver) *store.Store {
	t.Helper()

	s, err := store.Open(resolver)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
