package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"warpmc/internal/logging"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.Debug("schema migrated", logging.Int("count", 1))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record["msg"] != "schema migrated" {
		t.Fatalf("unexpected message: %#v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "suppressed") {
		t.Fatal("info record leaked past warn level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Fatal("warn record missing")
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logging.NewComponentLogger(base, "paths").Info("override persisted")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldComponent] != "paths" {
		t.Fatalf("component attr missing: %#v", record)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("nothing happens")
	logging.NewComponentLogger(nil, "store").Info("still nothing")
}
