package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"warpmc/internal/faults"
	"warpmc/internal/store"
	"warpmc/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	for _, table := range []string{"titles", "episodes", "sources", "play_history", "settings", "catalog_widgets"} {
		if _, ok := stats.Tables[table]; !ok {
			t.Fatalf("table %s missing from stats: %#v", table, stats.Tables)
		}
	}
	if stats.PageCount == 0 || stats.PageSize == 0 {
		t.Fatalf("page pragmas not populated: %#v", stats)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)
	ctx := context.Background()

	// Open already migrated once; two more rounds must not fail or
	// duplicate ledger rows.
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("third Migrate: %v", err)
	}

	db, err := sql.Open("sqlite", s.Path())
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	defer db.Close()
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 ledger row, got %d", count)
	}
}

func TestSettingRoundTrip(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)
	ctx := context.Background()

	if _, ok, err := s.Setting(ctx, "absent"); err != nil || ok {
		t.Fatalf("absent key: ok=%v err=%v", ok, err)
	}

	if err := s.SetSetting(ctx, "schema_note", "v1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting(ctx, "schema_note", "v2"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}
	value, ok, err := s.Setting(ctx, "schema_note")
	if err != nil || !ok {
		t.Fatalf("Setting: ok=%v err=%v", ok, err)
	}
	if value != "v2" {
		t.Fatalf("expected last write, got %q", value)
	}
}

func TestInfoReportsCreation(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)

	info, err := s.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Path != s.Path() {
		t.Fatalf("unexpected path %s", info.Path)
	}
	if info.SizeBytes <= 0 {
		t.Fatalf("size not reported: %d", info.SizeBytes)
	}
	if info.CreatedAt.IsZero() {
		t.Fatal("creation time not recorded at first migration")
	}
	if info.ModifiedAt.IsZero() {
		t.Fatal("modification time not reported")
	}
}

func TestWidgetLifecycle(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)
	ctx := context.Background()

	if _, err := s.WidgetGet(ctx, "home_rail"); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent widget, got %v", err)
	}

	payload := json.RawMessage(`{"items":[{"title":"Metropolis"}]}`)
	if err := s.WidgetPut(ctx, "home_rail", payload); err != nil {
		t.Fatalf("WidgetPut: %v", err)
	}

	widget, err := s.WidgetGet(ctx, "home_rail")
	if err != nil {
		t.Fatalf("WidgetGet: %v", err)
	}
	if string(widget.Payload) != string(payload) {
		t.Fatalf("payload mismatch: %s", widget.Payload)
	}
	if widget.UpdatedAt.IsZero() {
		t.Fatal("updated_at not recorded")
	}

	// Last write wins on the same key.
	replacement := json.RawMessage(`{"items":[]}`)
	if err := s.WidgetPut(ctx, "home_rail", replacement); err != nil {
		t.Fatalf("WidgetPut replace: %v", err)
	}
	widget, err = s.WidgetGet(ctx, "home_rail")
	if err != nil {
		t.Fatalf("WidgetGet after replace: %v", err)
	}
	if string(widget.Payload) != string(replacement) {
		t.Fatalf("replacement lost: %s", widget.Payload)
	}

	widgets, err := s.WidgetList(ctx)
	if err != nil {
		t.Fatalf("WidgetList: %v", err)
	}
	if len(widgets) != 1 || widgets[0].Key != "home_rail" {
		t.Fatalf("unexpected listing: %#v", widgets)
	}

	if err := s.WidgetClear(ctx, "home_rail"); err != nil {
		t.Fatalf("WidgetClear: %v", err)
	}
	if err := s.WidgetClear(ctx, "home_rail"); err != nil {
		t.Fatalf("WidgetClear must be idempotent: %v", err)
	}
	if _, err := s.WidgetGet(ctx, "home_rail"); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("widget still present after clear: %v", err)
	}
}

func TestWidgetPutRejectsInvalidJSON(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)

	err := s.WidgetPut(context.Background(), "bad", json.RawMessage("{truncated"))
	if !errors.Is(err, faults.ErrCorruptConfig) {
		t.Fatalf("expected ErrCorruptConfig, got %v", err)
	}
}

func TestWidgetsOrderedByKey(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)
	ctx := context.Background()

	for _, key := range []string{"zeta", "alpha", "mid"} {
		if err := s.WidgetPut(ctx, key, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("WidgetPut %s: %v", key, err)
		}
	}
	widgets, err := s.WidgetList(ctx)
	if err != nil {
		t.Fatalf("WidgetList: %v", err)
	}
	if len(widgets) != 3 || widgets[0].Key != "alpha" || widgets[2].Key != "zeta" {
		t.Fatalf("widgets not ordered: %#v", widgets)
	}
}

func TestVacuum(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if err := s.WidgetPut(ctx, string(rune('a'+i)), json.RawMessage(`{"filler":true}`)); err != nil {
			t.Fatalf("WidgetPut: %v", err)
		}
	}
	for i := 0; i < 15; i++ {
		if err := s.WidgetClear(ctx, string(rune('a'+i))); err != nil {
			t.Fatalf("WidgetClear: %v", err)
		}
	}
	if err := s.Vacuum(ctx); err != nil {
		t.Fatalf("Vacuum: %v", err)
	}

	// Vacuum reclaims space; the rows that were not cleared stay intact.
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Tables["catalog_widgets"] != 5 {
		t.Fatalf("expected 5 widgets after vacuum: %#v", stats.Tables)
	}
	widget, err := s.WidgetGet(ctx, string(rune('a'+19)))
	if err != nil {
		t.Fatalf("WidgetGet after vacuum: %v", err)
	}
	if string(widget.Payload) != `{"filler":true}` {
		t.Fatalf("payload changed across vacuum: %s", widget.Payload)
	}
}

func TestStoreIsolatedPerPath(t *testing.T) {
	resolver := testsupport.NewResolver(t)
	s := testsupport.MustOpenStore(t, resolver)
	ctx := context.Background()

	if err := s.WidgetPut(ctx, "shared", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("WidgetPut: %v", err)
	}

	// A second handle on the same file sees the data.
	other, err := store.OpenPath(s.Path())
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer other.Close()
	if _, err := other.WidgetGet(ctx, "shared"); err != nil {
		t.Fatalf("sibling handle missed the widget: %v", err)
	}
}
