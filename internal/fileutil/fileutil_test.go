package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"warpmc/internal/fileutil"
)

func TestReadJSONAbsentFile(t *testing.T) {
	var out map[string]string
	err := fileutil.ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &out)
	if !errors.Is(err, fileutil.ErrAbsent) {
		t.Fatalf("expected ErrAbsent, got %v", err)
	}
}

func TestReadJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var out map[string]string
	err := fileutil.ReadJSON(path, &out)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if errors.Is(err, fileutil.ErrAbsent) {
		t.Fatal("malformed file must not read as absent")
	}
}

func TestWriteJSONAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	in := map[string]string{"movie": "/library/movies"}

	if err := fileutil.WriteJSONAtomic(path, in, 0o644); err != nil {
		t.Fatalf("WriteJSONAtomic: %v", err)
	}

	var out map[string]string
	if err := fileutil.ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out["movie"] != in["movie"] {
		t.Fatalf("round trip mismatch: %#v", out)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestWriteJSONAtomicAppliesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := fileutil.WriteJSONAtomic(path, map[string]string{}, 0o600); err != nil {
		t.Fatalf("WriteJSONAtomic: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected mode 0600, got %o", perm)
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := fileutil.ExpandPath("~/warpmc/config")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "warpmc", "config") {
		t.Fatalf("unexpected expansion: %s", got)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TRAKT_SECRET", "s3cret")

	cases := []struct {
		in   string
		want string
	}{
		{"${TRAKT_SECRET}", "s3cret"},
		{"prefix-${TRAKT_SECRET}", "prefix-s3cret"},
		{"${UNSET_VAR_FOR_TEST}", ""},
		{"$TRAKT_SECRET", "$TRAKT_SECRET"},
		{"literal", "literal"},
	}
	for _, tc := range cases {
		if got := fileutil.ExpandEnv(tc.in); got != tc.want {
			t.Fatalf("ExpandEnv(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpandEnvMap(t *testing.T) {
	t.Setenv("API_TOKEN", "abc")
	out := fileutil.ExpandEnvMap(map[string]string{"Authorization": "Bearer ${API_TOKEN}"})
	if out["Authorization"] != "Bearer abc" {
		t.Fatalf("unexpected map expansion: %#v", out)
	}
	if fileutil.ExpandEnvMap(nil) != nil {
		t.Fatal("nil map should stay nil")
	}
}
