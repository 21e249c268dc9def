package services_test

import (
	"errors"
	"strings"
	"testing"

	"flowstate/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "engine", "complete_stage", "unknown stage", base)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped cause to survive")
	}
	if !strings.Contains(err.Error(), "engine: complete_stage: unknown stage") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "sync", "push", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", services.Wrap(services.ErrValidation, "", "", "bad", nil), "validation"},
		{"conflict", services.ErrConflict, "conflict"},
		{"not_found", services.Wrap(services.ErrNotFound, "engine", "get", "", nil), "not_found"},
		{"external_sync", services.ErrExternalSync, "external_sync"},
		{"internal", errors.New("who knows"), "internal"},
	}
	for _, tc := range cases {
		if got := services.ErrorCode(tc.err); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
