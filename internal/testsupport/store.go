package testsupport

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"flowstate/internal/config"
	"flowstate/internal/session"
)

// MustOpenStore opens a session.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates and persists a pending session for tests.
func NewSession(t testing.TB, store *session.Store, workflowID, name string) *session.Session {
	t.Helper()

	sess := &session.Session{
		ID:              uuid.NewString(),
		WorkflowID:      workflowID,
		Name:            name,
		Status:          session.StatusPending,
		CompletedStages: []string{},
		Context:         map[string]string{},
	}
	if err := store.Create(context.Background(), sess); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return sess
}
