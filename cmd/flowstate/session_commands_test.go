package main

import (
	"strings"
	"testing"
)

func TestSessionLifecycleViaCLI(t *testing.T) {
	env := setupCLITestEnv(t)

	id := mustCreateSession(t, env.configPath, "feature-delivery")

	res, err := runCLIJSON(t, env.configPath, "session", "start", id)
	if err != nil {
		t.Fatalf("session start: %v", err)
	}
	if res.Session.Status != "active" {
		t.Fatalf("expected active session, got %s", res.Session.Status)
	}
	if res.Session.CurrentStage != "" {
		t.Fatalf("starting must not enter a stage, got %q", res.Session.CurrentStage)
	}

	res, err = runCLIJSON(t, env.configPath, "session", "stage", "set", id, "design")
	if err != nil {
		t.Fatalf("stage set design: %v", err)
	}
	if res.Session.CurrentStage != "design" {
		t.Fatalf("expected current stage design, got %q", res.Session.CurrentStage)
	}

	res, err = runCLIJSON(t, env.configPath, "session", "stage", "complete", id, "design")
	if err != nil {
		t.Fatalf("stage complete design: %v", err)
	}
	if res.Session.CurrentStage != "implement" {
		t.Fatalf("expected auto-advance to implement, got %q", res.Session.CurrentStage)
	}
	if res.Session.Progress != 33.33 {
		t.Fatalf("expected progress 33.33, got %v", res.Session.Progress)
	}

	if _, err := runCLIJSON(t, env.configPath, "session", "stage", "complete", id, "implement"); err != nil {
		t.Fatalf("stage complete implement: %v", err)
	}
	res, err = runCLIJSON(t, env.configPath, "session", "stage", "complete", id, "review")
	if err != nil {
		t.Fatalf("stage complete review: %v", err)
	}
	if res.Session.Progress != 100 {
		t.Fatalf("expected full coverage, got %v", res.Session.Progress)
	}
	if res.Session.CurrentStage != "" {
		t.Fatalf("expected no current stage after the last one, got %q", res.Session.CurrentStage)
	}
	if res.Session.Status != "active" {
		t.Fatalf("full coverage must not complete the session, got %s", res.Session.Status)
	}

	res, err = runCLIJSON(t, env.configPath, "session", "complete", id)
	if err != nil {
		t.Fatalf("session complete: %v", err)
	}
	if res.Session.Status != "completed" {
		t.Fatalf("expected completed, got %s", res.Session.Status)
	}

	// Terminal sessions reject further mutation.
	if _, err := runCLIJSON(t, env.configPath, "session", "start", id); err == nil {
		t.Fatal("expected restarting a completed session to fail")
	}
}

func TestSessionPauseResume(t *testing.T) {
	env := setupCLITestEnv(t)

	id := mustCreateSession(t, env.configPath, "feature-delivery")
	if _, err := runCLIJSON(t, env.configPath, "session", "start", id); err != nil {
		t.Fatalf("session start: %v", err)
	}
	if _, err := runCLIJSON(t, env.configPath, "session", "stage", "set", id, "design"); err != nil {
		t.Fatalf("stage set design: %v", err)
	}

	res, err := runCLIJSON(t, env.configPath, "session", "pause", id)
	if err != nil {
		t.Fatalf("session pause: %v", err)
	}
	if res.Session.Status != "paused" {
		t.Fatalf("expected paused, got %s", res.Session.Status)
	}

	res, err = runCLIJSON(t, env.configPath, "session", "resume", id)
	if err != nil {
		t.Fatalf("session resume: %v", err)
	}
	if res.Session.Status != "active" {
		t.Fatalf("expected active after resume, got %s", res.Session.Status)
	}
	if res.Session.CurrentStage != "design" {
		t.Fatalf("resume must not move the stage, got %q", res.Session.CurrentStage)
	}
}

func TestSessionAbortRecordsReason(t *testing.T) {
	env := setupCLITestEnv(t)

	id := mustCreateSession(t, env.configPath, "feature-delivery")
	if _, err := runCLIJSON(t, env.configPath, "session", "start", id); err != nil {
		t.Fatalf("session start: %v", err)
	}

	res, err := runCLIJSON(t, env.configPath, "session", "abort", id, "--reason", "requirements withdrawn")
	if err != nil {
		t.Fatalf("session abort: %v", err)
	}
	if res.Session.Status != "failed" {
		t.Fatalf("expected failed, got %s", res.Session.Status)
	}
	if res.Session.FailureReason != "requirements withdrawn" {
		t.Fatalf("expected failure reason, got %q", res.Session.FailureReason)
	}
}

func TestSessionNextAndConditionedAdvance(t *testing.T) {
	env := setupCLITestEnv(t)

	id := mustCreateSession(t, env.configPath, "bugfix")

	// Before anything runs, the only suggestion is the first stage.
	out, _, err := runCLI(t, env.configPath, "session", "next", id)
	if err != nil {
		t.Fatalf("session next: %v", err)
	}
	requireContains(t, out, "triage")
	if strings.Contains(out, "verify") {
		t.Fatalf("only the first stage should be suggested, got %q", out)
	}

	if _, err := runCLIJSON(t, env.configPath, "session", "start", id); err != nil {
		t.Fatalf("session start: %v", err)
	}
	if _, err := runCLIJSON(t, env.configPath, "session", "stage", "set", id, "triage"); err != nil {
		t.Fatalf("stage set triage: %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "session", "next", id)
	if err != nil {
		t.Fatalf("session next after entering triage: %v", err)
	}
	requireContains(t, out, "rework")
	requireContains(t, out, "verify")

	// With needs_rework set, completing triage takes the conditioned edge.
	if _, err := runCLIJSON(t, env.configPath, "session", "context", "set", id, "needs_rework", "true"); err != nil {
		t.Fatalf("context set: %v", err)
	}
	res, err := runCLIJSON(t, env.configPath, "session", "stage", "complete", id, "triage")
	if err != nil {
		t.Fatalf("stage complete triage: %v", err)
	}
	if res.Session.CurrentStage != "rework" {
		t.Fatalf("expected advance to rework, got %q", res.Session.CurrentStage)
	}
}

func TestSessionListFiltersByStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	first := mustCreateSession(t, env.configPath, "feature-delivery")
	second := mustCreateSession(t, env.configPath, "bugfix")
	if _, err := runCLIJSON(t, env.configPath, "session", "start", second); err != nil {
		t.Fatalf("session start: %v", err)
	}

	res, err := runCLIJSON(t, env.configPath, "session", "list", "--status", "active")
	if err != nil {
		t.Fatalf("session list: %v", err)
	}
	if len(res.Sessions) != 1 || res.Sessions[0].ID != second {
		t.Fatalf("expected only the active session, got %+v", res.Sessions)
	}

	if _, err := runCLIJSON(t, env.configPath, "session", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected unknown status filter to fail")
	}
	_ = first
}

func TestSessionDeleteRequiresConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)

	id := mustCreateSession(t, env.configPath, "feature-delivery")

	_, _, err := runCLI(t, env.configPath, "session", "delete", id)
	if err == nil {
		t.Fatal("expected delete without --yes to fail")
	}
	requireContains(t, err.Error(), "--yes")

	out, _, err := runCLI(t, env.configPath, "session", "delete", id, "--yes")
	if err != nil {
		t.Fatalf("session delete: %v", err)
	}
	requireContains(t, out, "Deleted session")

	if _, err := runCLIJSON(t, env.configPath, "session", "show", id); err == nil {
		t.Fatal("expected show after delete to fail")
	}
}
