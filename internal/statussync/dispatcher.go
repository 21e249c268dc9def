package statussync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"flowstate/internal/config"
	"flowstate/internal/logging"
	"flowstate/internal/progress"
	"flowstate/internal/session"
	"flowstate/internal/workflowdef"

	"log/slog"
)

type syncRequest struct {
	sessionID string
	create    bool
}

// Dispatcher pushes session snapshots to the external status system from a
// background worker. Failures are retried with exponential backoff and
// recorded in the sync_attempts trail; they never propagate to the mutating
// caller.
type Dispatcher struct {
	store  *session.Store
	defs   *workflowdef.Catalog
	pusher Pusher
	logger *slog.Logger

	maxAttempts int
	backoff     time.Duration

	queue chan syncRequest
	wg    sync.WaitGroup

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDispatcher builds a dispatcher from config. The queue size bounds how
// many sessions can be awaiting sync before enqueues start dropping.
func NewDispatcher(cfg *config.Config, store *session.Store, defs *workflowdef.Catalog, pusher Pusher, logger *slog.Logger) *Dispatcher {
	maxAttempts := cfg.StatusSync.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := time.Duration(cfg.StatusSync.RetryBackoff) * time.Second
	if backoff <= 0 {
		backoff = time.Second
	}
	queueSize := cfg.StatusSync.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		store:       store,
		defs:        defs,
		pusher:      pusher,
		logger:      logging.NewComponentLogger(logger, "statussync"),
		maxAttempts: maxAttempts,
		backoff:     backoff,
		queue:       make(chan syncRequest, queueSize),
	}
}

// Start launches the background worker.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("dispatcher already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	go d.run(runCtx, d.done)
	return nil
}

// Stop terminates the worker and waits for it to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	done := d.done
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	<-done
}

// Enqueue schedules an upsert push for the session. The call never blocks;
// when the queue is full the request is dropped with a warning and the next
// mutation re-enqueues the full snapshot anyway.
func (d *Dispatcher) Enqueue(sessionID string) {
	d.enqueue(syncRequest{sessionID: sessionID})
}

// EnqueueCreate schedules the creation push for a new session.
func (d *Dispatcher) EnqueueCreate(sessionID string) {
	d.enqueue(syncRequest{sessionID: sessionID, create: true})
}

func (d *Dispatcher) enqueue(req syncRequest) {
	d.wg.Add(1)
	select {
	case d.queue <- req:
	default:
		d.wg.Done()
		d.logger.Warn("sync queue full; dropping request",
			logging.String(logging.FieldSessionID, req.sessionID),
			logging.String(logging.FieldEventType, "sync_queue_full"),
			logging.String(logging.FieldErrorHint, "raise status_sync.queue_size"),
		)
	}
}

// Flush blocks until every enqueued request has been processed or the
// context expires.
func (d *Dispatcher) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			d.process(ctx, req)
			d.wg.Done()
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, req syncRequest) {
	logger := d.logger.With(logging.String(logging.FieldSessionID, req.sessionID))

	sess, err := d.store.GetByID(ctx, req.sessionID)
	if err != nil {
		logger.Warn("load session for sync failed", logging.Error(err))
		return
	}
	if sess == nil {
		// Deleted between mutation and dispatch; nothing to report.
		return
	}

	task, err := d.buildTask(sess)
	if err != nil {
		logger.Warn("build sync task failed", logging.Error(err))
		d.recordAttempt(sess.ID, "failed", 0, err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if req.create {
			lastErr = d.pusher.Create(ctx, task)
		} else {
			lastErr = d.pusher.Push(ctx, task)
		}
		if lastErr == nil {
			d.recordAttempt(sess.ID, "pushed", attempt, nil)
			return
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < d.maxAttempts {
			wait := d.backoff * time.Duration(1<<(attempt-1))
			logger.Warn("status push failed; retrying",
				logging.Error(lastErr),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", wait),
			)
			select {
			case <-ctx.Done():
				d.recordAttempt(sess.ID, "failed", attempt, lastErr)
				return
			case <-time.After(wait):
			}
		}
	}

	logger.Error("status push exhausted retries",
		logging.Error(lastErr),
		logging.Int("attempts", d.maxAttempts),
		logging.String(logging.FieldEventType, "sync_failed"),
		logging.String(logging.FieldErrorHint, "check status_sync.endpoint availability"),
	)
	d.recordAttempt(sess.ID, "failed", d.maxAttempts, lastErr)
}

func (d *Dispatcher) buildTask(sess *session.Session) (Task, error) {
	def, err := d.defs.GetByID(sess.WorkflowID)
	if err != nil {
		return Task{}, fmt.Errorf("resolve workflow %s: %w", sess.WorkflowID, err)
	}
	pct, err := progress.ForSession(sess, &def)
	if err != nil {
		return Task{}, err
	}
	return BuildTask(sess, &def, pct)
}

func (d *Dispatcher) recordAttempt(sessionID, state string, attempts int, pushErr error) {
	message := ""
	if pushErr != nil {
		message = pushErr.Error()
	}
	if err := d.store.RecordSyncAttempt(context.Background(), sessionID, state, attempts, message); err != nil {
		d.logger.Warn("record sync attempt failed",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Error(err),
		)
	}
}
