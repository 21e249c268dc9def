package statussync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"flowstate/internal/config"
	"flowstate/internal/session"
	"flowstate/internal/statussync"
	"flowstate/internal/testsupport"
	"flowstate/internal/workflowdef"
)

func threeStageDef() *workflowdef.Definition {
	return testsupport.ThreeStageDefinition()
}

type fakePusher struct {
	mu       sync.Mutex
	pushes   []statussync.Task
	creates  []statussync.Task
	failures int
	pulled   *statussync.Task
}

func (p *fakePusher) Push(_ context.Context, task statussync.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return context.DeadlineExceeded
	}
	p.pushes = append(p.pushes, task)
	return nil
}

func (p *fakePusher) Create(_ context.Context, task statussync.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates = append(p.creates, task)
	return nil
}

func (p *fakePusher) Pull(context.Context, string) (*statussync.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pulled, nil
}

func (p *fakePusher) snapshot() (pushes, creates []statussync.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]statussync.Task{}, p.pushes...), append([]statussync.Task{}, p.creates...)
}

func newDispatcherFixture(t *testing.T, pusher statussync.Pusher) (*statussync.Dispatcher, *session.Store, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.StatusSync.MaxAttempts = 3
	cfg.StatusSync.RetryBackoff = 0 // dispatcher floors this to 1s
	testsupport.SeedWorkflow(t, cfg, "feature-delivery.yaml", testsupport.ThreeStageYAML)
	defs, err := workflowdef.OpenCatalog(cfg)
	if err != nil {
		t.Fatalf("OpenCatalog failed: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)

	d := statussync.NewDispatcher(cfg, store, defs, pusher, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("dispatcher Start failed: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, store, cfg
}

func TestDispatcherPushesSnapshot(t *testing.T) {
	pusher := &fakePusher{}
	d, store, _ := newDispatcherFixture(t, pusher)

	sess := testsupport.NewSession(t, store, "feature-delivery", "Dispatch")
	d.EnqueueCreate(sess.ID)
	d.Enqueue(sess.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	pushes, creates := pusher.snapshot()
	if len(creates) != 1 || len(pushes) != 1 {
		t.Fatalf("expected 1 create + 1 push, got %d/%d", len(creates), len(pushes))
	}
	if creates[0].ID != "flow-"+sess.ID || creates[0].Status != statussync.ExternalPending {
		t.Fatalf("unexpected create payload: %#v", creates[0])
	}

	attempts, err := store.SyncAttempts(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("SyncAttempts failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 bookkeeping rows, got %d", len(attempts))
	}
	for _, attempt := range attempts {
		if attempt.State != "pushed" {
			t.Fatalf("expected pushed state, got %#v", attempt)
		}
	}
}

func TestDispatcherRetriesThenSucceeds(t *testing.T) {
	pusher := &fakePusher{failures: 2}
	d, store, _ := newDispatcherFixture(t, pusher)

	sess := testsupport.NewSession(t, store, "feature-delivery", "Retry")
	d.Enqueue(sess.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	pushes, _ := pusher.snapshot()
	if len(pushes) != 1 {
		t.Fatalf("expected eventual push, got %d", len(pushes))
	}

	attempts, err := store.SyncAttempts(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("SyncAttempts failed: %v", err)
	}
	if len(attempts) != 1 || attempts[0].State != "pushed" || attempts[0].Attempts != 3 {
		t.Fatalf("expected pushed on attempt 3, got %#v", attempts)
	}
}

func TestDispatcherSkipsDeletedSessions(t *testing.T) {
	pusher := &fakePusher{}
	d, store, _ := newDispatcherFixture(t, pusher)

	sess := testsupport.NewSession(t, store, "feature-delivery", "Gone")
	if _, err := store.Delete(context.Background(), sess.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	d.Enqueue(sess.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	pushes, creates := pusher.snapshot()
	if len(pushes) != 0 || len(creates) != 0 {
		t.Fatalf("expected no traffic for deleted session, got %d/%d", len(pushes), len(creates))
	}
}
