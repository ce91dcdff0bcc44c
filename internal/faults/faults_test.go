package faults_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"warpmc/internal/faults"
)

func TestWrapClassifiesWithMarker(t *testing.T) {
	cause := errors.New("disk full")
	err := faults.Wrap(faults.ErrStorageIO, "store", "exec", "insert", cause)

	if !errors.Is(err, faults.ErrStorageIO) {
		t.Fatalf("expected ErrStorageIO classification, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	if errors.Is(err, faults.ErrNotFound) {
		t.Fatal("unrelated sentinel must not match")
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := faults.Wrap(faults.ErrUnknownKey, "paths", "resolve", "bogus", nil)
	if !errors.Is(err, faults.ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	for _, part := range []string{"paths", "resolve", "bogus"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("expected %q in message %q", part, err.Error())
		}
	}
}

func TestWrapSkipsEmptyDetailParts(t *testing.T) {
	err := faults.Wrap(faults.ErrNotFound, "trakt", "", "", nil)
	if strings.Contains(err.Error(), ": :") {
		t.Fatalf("empty detail parts leaked into message %q", err.Error())
	}
}

func TestWrapSurvivesFurtherWrapping(t *testing.T) {
	inner := faults.Wrap(faults.ErrSessionExpired, "trakt", "access token", "token expired", nil)
	outer := fmt.Errorf("request failed: %w", inner)
	if !errors.Is(outer, faults.ErrSessionExpired) {
		t.Fatalf("classification lost after rewrapping: %v", outer)
	}
}
