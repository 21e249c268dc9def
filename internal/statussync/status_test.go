package statussync_test

import (
	"errors"
	"testing"

	"flowstate/internal/services"
	"flowstate/internal/session"
	"flowstate/internal/statussync"
)

func TestMapStatusRoundTrip(t *testing.T) {
	for _, status := range session.AllStatuses() {
		external, err := statussync.MapStatus(status)
		if err != nil {
			t.Fatalf("MapStatus(%s) failed: %v", status, err)
		}
		back, err := statussync.MapExternal(external)
		if err != nil {
			t.Fatalf("MapExternal(%s) failed: %v", external, err)
		}
		if back != status {
			t.Fatalf("round trip lost %s: got %s via %s", status, back, external)
		}
	}
}

func TestMapExternalCanceledFoldsToFailed(t *testing.T) {
	got, err := statussync.MapExternal(statussync.ExternalCanceled)
	if err != nil {
		t.Fatalf("MapExternal(CANCELED) failed: %v", err)
	}
	if got != session.StatusFailed {
		t.Fatalf("expected CANCELED to map to failed, got %s", got)
	}
}

func TestMapUnknownValuesError(t *testing.T) {
	if _, err := statussync.MapStatus(session.Status("archived")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := statussync.MapExternal(statussync.ExternalStatus("UNKNOWN")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSessionIDFromTaskID(t *testing.T) {
	id, err := statussync.SessionIDFromTaskID("flow-abc123")
	if err != nil {
		t.Fatalf("SessionIDFromTaskID failed: %v", err)
	}
	if id != "abc123" {
		t.Fatalf("unexpected session id: %q", id)
	}

	for _, malformed := range []string{"abc123", "flow-", "task-abc"} {
		if _, err := statussync.SessionIDFromTaskID(malformed); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", malformed, err)
		}
	}
}

func TestBuildTaskSnapshot(t *testing.T) {
	def := threeStageDef()
	sess := &session.Session{
		ID:              "s1",
		WorkflowID:      def.ID,
		Name:            "Ship search",
		Status:          session.StatusActive,
		CurrentStageID:  "implement",
		CompletedStages: []string{"design"},
	}

	task, err := statussync.BuildTask(sess, def, 33.33)
	if err != nil {
		t.Fatalf("BuildTask failed: %v", err)
	}
	if task.ID != "flow-s1" || task.Type != "FLOW" {
		t.Fatalf("unexpected identity fields: %#v", task)
	}
	if task.Status != statussync.ExternalInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", task.Status)
	}
	if task.Progress != 33.33 || task.CurrentStage != "implement" {
		t.Fatalf("unexpected snapshot: %#v", task)
	}
	if task.Metadata["flow_session_id"] != "s1" {
		t.Fatalf("missing metadata: %#v", task.Metadata)
	}
	if task.WorkflowName != def.Name {
		t.Fatalf("expected workflow name %q, got %q", def.Name, task.WorkflowName)
	}
}

func TestBuildTaskFallsBackToWorkflowName(t *testing.T) {
	def := threeStageDef()
	sess := &session.Session{ID: "s2", WorkflowID: def.ID, Status: session.StatusPending}

	task, err := statussync.BuildTask(sess, def, 0)
	if err != nil {
		t.Fatalf("BuildTask failed: %v", err)
	}
	if task.Name != def.Name {
		t.Fatalf("expected fallback name %q, got %q", def.Name, task.Name)
	}
}
