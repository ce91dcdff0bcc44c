package settings_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"warpmc/internal/faults"
	"warpmc/internal/fileutil"
	"warpmc/internal/paths"
	"warpmc/internal/settings"
	"warpmc/internal/testsupport"
)

func newStore(t *testing.T) *settings.Store {
	t.Helper()
	resolver := testsupport.NewResolver(t)
	store, err := settings.NewStore(resolver)
	if err != nil {
		t.Fatalf("settings.NewStore: %v", err)
	}
	return store
}

func TestLoadDefaultsWhenDocumentAbsent(t *testing.T) {
	store := newStore(t)

	got, err := store.Load(false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := settings.Default()
	if got.AppName != want.AppName || got.Environment != want.Environment ||
		got.LogLevel != want.LogLevel || got.TaskWorkers != want.TaskWorkers {
		t.Fatalf("expected defaults, got %#v", got)
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("Load must not create the settings document")
	}
}

func TestUpdatePersistsOnlyChangedFields(t *testing.T) {
	store := newStore(t)

	env := "production"
	updated, err := store.Update(settings.Partial{Environment: &env})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Environment != "production" {
		t.Fatalf("environment not applied: %#v", updated)
	}
	if updated.AppName != settings.Default().AppName {
		t.Fatalf("untouched field changed: %#v", updated)
	}

	// On disk only the overridden field and the plugins map are present.
	var doc map[string]any
	if err := fileutil.ReadJSON(store.Path(), &doc); err != nil {
		t.Fatalf("read document: %v", err)
	}
	if _, ok := doc["app_name"]; ok {
		t.Fatalf("default field persisted: %#v", doc)
	}
	if doc["environment"] != "production" {
		t.Fatalf("override missing from document: %#v", doc)
	}
}

func TestUpdateOnFreshDataDirectory(t *testing.T) {
	resolver := testsupport.NewResolver(t)

	// First run: nothing under the data directory exists yet, not even the
	// directory the settings document and its lock file live in.
	settingsPath, err := resolver.Resolve(paths.KeySettings)
	if err != nil {
		t.Fatalf("Resolve settings: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(settingsPath)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected pristine data directory, stat err = %v", err)
	}

	store, err := settings.NewStore(resolver)
	if err != nil {
		t.Fatalf("settings.NewStore: %v", err)
	}
	env := "production"
	got, err := store.Update(settings.Partial{Environment: &env})
	if err != nil {
		t.Fatalf("Update on fresh data dir: %v", err)
	}
	if got.Environment != "production" {
		t.Fatalf("environment not applied: %#v", got)
	}
}

func TestUpdateEmptyPartialIsIdempotent(t *testing.T) {
	store := newStore(t)

	env := "production"
	before, err := store.Update(settings.Partial{Environment: &env})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, err := store.Update(settings.Partial{})
	if err != nil {
		t.Fatalf("empty Update: %v", err)
	}
	if after.AppName != before.AppName || after.Environment != before.Environment ||
		after.LogLevel != before.LogLevel || after.TaskWorkers != before.TaskWorkers {
		t.Fatalf("empty partial changed effective settings: before %#v, after %#v", before, after)
	}

	var doc map[string]any
	if err := fileutil.ReadJSON(store.Path(), &doc); err != nil {
		t.Fatalf("read document: %v", err)
	}
	if doc["environment"] != "production" {
		t.Fatalf("override lost after empty update: %#v", doc)
	}
	if _, ok := doc["app_name"]; ok {
		t.Fatalf("empty update persisted a default field: %#v", doc)
	}
}

func TestEnvironmentOverridesWinOverDocument(t *testing.T) {
	store := newStore(t)

	level := "debug"
	if _, err := store.Update(settings.Partial{LogLevel: &level}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	t.Setenv("WARP_LOG_LEVEL", "WARN")
	t.Setenv("WARP_APP_NAME", "Warp QA")

	got, err := store.Load(true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.LogLevel != "warn" {
		t.Fatalf("expected env log level lowercased, got %q", got.LogLevel)
	}
	if got.AppName != "Warp QA" {
		t.Fatalf("expected env app name, got %q", got.AppName)
	}
}

func TestTaskWorkersClampedToMinimum(t *testing.T) {
	store := newStore(t)

	workers := -3
	got, err := store.Update(settings.Partial{TaskWorkers: &workers})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.TaskWorkers != settings.Default().TaskWorkers {
		t.Fatalf("expected clamp to default, got %d", got.TaskWorkers)
	}

	t.Setenv("WARP_TASK_WORKERS", "0")
	got, err = store.Load(true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TaskWorkers < 1 {
		t.Fatalf("env override bypassed the clamp: %d", got.TaskWorkers)
	}
}

func TestSetLibraryPathNormalizesKindAliases(t *testing.T) {
	store := newStore(t)
	movieDir := filepath.Join(t.TempDir(), "movies")
	showDir := filepath.Join(t.TempDir(), "shows")

	if _, err := store.SetLibraryPath("Movies", movieDir); err != nil {
		t.Fatalf("SetLibraryPath movies: %v", err)
	}
	got, err := store.SetLibraryPath("tv_shows", showDir)
	if err != nil {
		t.Fatalf("SetLibraryPath tv_shows: %v", err)
	}
	if got.LibraryPaths.Movie != movieDir || got.LibraryPaths.Show != showDir {
		t.Fatalf("unexpected library paths: %#v", got.LibraryPaths)
	}
}

func TestSetLibraryPathRejectsRelative(t *testing.T) {
	store := newStore(t)

	if _, err := store.SetLibraryPath("movie", "relative/path"); err == nil {
		t.Fatal("expected error for relative library path")
	}
}

func TestSetLibraryPathRejectsUnknownKind(t *testing.T) {
	store := newStore(t)

	if _, err := store.SetLibraryPath("music", "/library/music"); err == nil {
		t.Fatal("expected error for unknown media kind")
	}
}

func TestLoadCorruptDocument(t *testing.T) {
	store := newStore(t)

	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(store.Path(), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := store.Load(true); !errors.Is(err, faults.ErrCorruptConfig) {
		t.Fatalf("expected ErrCorruptConfig, got %v", err)
	}
}

func TestNormalizeMediaKind(t *testing.T) {
	cases := []struct {
		in   string
		want settings.MediaKind
	}{
		{"movie", settings.KindMovie},
		{"Movies", settings.KindMovie},
		{"show", settings.KindShow},
		{"shows", settings.KindShow},
		{"tv", settings.KindShow},
		{"TV_Show", settings.KindShow},
		{"tv_shows", settings.KindShow},
	}
	for _, tc := range cases {
		got, err := settings.NormalizeMediaKind(tc.in)
		if err != nil {
			t.Fatalf("NormalizeMediaKind(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeMediaKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := settings.NormalizeMediaKind("music"); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}
