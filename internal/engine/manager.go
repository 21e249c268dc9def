package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flowstate/internal/eventlog"
	"flowstate/internal/logging"
	"flowstate/internal/session"
	"flowstate/internal/workflowdef"
)

// Result is the outcome of a manager operation: the persisted session
// snapshot plus its stage-coverage progress.
type Result struct {
	Session  *session.Session
	Progress float64
}

// ChangeKind classifies a session mutation for change hooks.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeHook observes committed session mutations. Hooks run after the
// store write and must not block for long; the status dispatcher uses them
// to enqueue outbound syncs.
type ChangeHook func(ctx context.Context, kind ChangeKind, sess *session.Session)

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	evaluator ConditionEvaluator
	sinks     []eventlog.Sink
}

// WithEvaluator replaces the default transition condition evaluator.
func WithEvaluator(evaluator ConditionEvaluator) ManagerOption {
	return func(o *managerOptions) {
		o.evaluator = evaluator
	}
}

// WithSinks attaches lifecycle event sinks.
func WithSinks(sinks ...eventlog.Sink) ManagerOption {
	return func(o *managerOptions) {
		o.sinks = append(o.sinks, sinks...)
	}
}

// Manager owns all session mutations. Operations on the same session
// serialize behind a per-session lock; distinct sessions proceed
// independently.
type Manager struct {
	defs   *workflowdef.Catalog
	store  *session.Store
	logger *slog.Logger

	evaluator ConditionEvaluator
	sinks     []eventlog.Sink

	hookMu sync.RWMutex
	hooks  []ChangeHook

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewManager constructs a session manager.
func NewManager(defs *workflowdef.Catalog, store *session.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.evaluator == nil {
		options.evaluator = ContextEvaluator{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		defs:      defs,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "engine"),
		evaluator: options.evaluator,
		sinks:     options.sinks,
		locks:     make(map[string]*sync.Mutex),
	}
}

// RegisterChangeHook installs a hook observing committed mutations.
func (m *Manager) RegisterChangeHook(hook ChangeHook) {
	if hook == nil {
		return
	}
	m.hookMu.Lock()
	m.hooks = append(m.hooks, hook)
	m.hookMu.Unlock()
}

// Definition resolves the workflow definition backing a session.
func (m *Manager) Definition(workflowID string) (workflowdef.Definition, error) {
	return m.defs.GetByID(workflowID)
}

func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}

func (m *Manager) releaseLockEntry(sessionID string) {
	m.lockMu.Lock()
	delete(m.locks, sessionID)
	m.lockMu.Unlock()
}

// emit records a lifecycle event on every sink. Sink failures are logged
// and swallowed; the mutation already committed.
func (m *Manager) emit(ctx context.Context, event eventlog.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	for _, sink := range m.sinks {
		if err := sink.Record(ctx, event); err != nil {
			m.logger.Warn("event sink write failed",
				logging.String(logging.FieldSessionID, event.SessionID),
				logging.String(logging.FieldEventType, event.Type),
				logging.Error(err),
			)
		}
	}
}

func (m *Manager) notify(ctx context.Context, kind ChangeKind, sess *session.Session) {
	m.hookMu.RLock()
	hooks := make([]ChangeHook, len(m.hooks))
	copy(hooks, m.hooks)
	m.hookMu.RUnlock()
	for _, hook := range hooks {
		hook(ctx, kind, sess)
	}
}
