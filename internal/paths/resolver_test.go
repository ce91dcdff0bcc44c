package paths_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"warpmc/internal/faults"
	"warpmc/internal/paths"
	"warpmc/internal/testsupport"
)

func TestResolveDefaults(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	providers, err := resolver.Resolve(paths.KeyProviders)
	if err != nil {
		t.Fatalf("Resolve providers: %v", err)
	}
	if providers != filepath.Join(resolver.ConfigDir(), "provider_settings.json") {
		t.Fatalf("unexpected providers path: %s", providers)
	}

	database, err := resolver.Resolve(paths.KeyDatabase)
	if err != nil {
		t.Fatalf("Resolve database: %v", err)
	}
	if !strings.HasPrefix(database, os.Getenv("XDG_DATA_HOME")) {
		t.Fatalf("database path %s not under XDG data home", database)
	}
}

func TestResolveUnknownKey(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	if _, err := resolver.Resolve("bogus"); !errors.Is(err, faults.ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestSetPersistsOverride(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	target := filepath.Join(t.TempDir(), "warp.db")
	if err := resolver.Set(paths.KeyDatabase, target); err != nil {
		t.Fatalf("Set: %v", err)
	}

	resolved, err := resolver.Resolve(paths.KeyDatabase)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved != target {
		t.Fatalf("expected %s, got %s", target, resolved)
	}

	// A sibling resolver sharing the config dir sees the override.
	sibling, err := paths.New(resolver.ConfigDir())
	if err != nil {
		t.Fatalf("paths.New sibling: %v", err)
	}
	resolved, err = sibling.Resolve(paths.KeyDatabase)
	if err != nil {
		t.Fatalf("sibling Resolve: %v", err)
	}
	if resolved != target {
		t.Fatalf("sibling missed override: %s", resolved)
	}
}

func TestSetRejectsUnknownKey(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	if err := resolver.Set("bogus", "/tmp/x"); !errors.Is(err, faults.ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	if _, err := os.Stat(resolver.OverridePath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("rejected Set must not create the override file")
	}
}

func TestRelativeOverrideAnchorsAtConfigDir(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	if err := resolver.Set(paths.KeyProviders, "alt/providers.json"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	resolved, err := resolver.Resolve(paths.KeyProviders)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved != filepath.Join(resolver.ConfigDir(), "alt", "providers.json") {
		t.Fatalf("relative override resolved to %s", resolved)
	}
}

func TestOverrideEnvExpansion(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	t.Setenv("WARP_DB_DIR", t.TempDir())
	if err := resolver.Set(paths.KeyDatabase, "${WARP_DB_DIR}/warp.db"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	resolved, err := resolver.Resolve(paths.KeyDatabase)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved != filepath.Join(os.Getenv("WARP_DB_DIR"), "warp.db") {
		t.Fatalf("env token not expanded: %s", resolved)
	}
}

func TestCorruptOverrideFile(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	if err := os.WriteFile(resolver.OverridePath(), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := resolver.Reload(); !errors.Is(err, faults.ErrCorruptConfig) {
		t.Fatalf("expected ErrCorruptConfig, got %v", err)
	}
}

func TestRawReturnsUnexpandedEntries(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	if err := resolver.Set(paths.KeyTokens, "rel/tokens"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, err := resolver.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if raw[paths.KeyTokens] != "rel/tokens" {
		t.Fatalf("expected raw value preserved, got %#v", raw)
	}
	if len(raw) != 1 {
		t.Fatalf("raw must hold only overrides, got %#v", raw)
	}
}

func TestSortedKeysCoverAllDefaults(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	keys := resolver.SortedKeys()
	if len(keys) != 10 {
		t.Fatalf("expected 10 logical keys, got %d: %v", len(keys), keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}
