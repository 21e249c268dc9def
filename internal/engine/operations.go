package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowstate/internal/eventlog"
	"flowstate/internal/progress"
	"flowstate/internal/services"
	"flowstate/internal/session"
	"flowstate/internal/workflowdef"
)

// CreateSession registers a new session against a known workflow. The
// session starts pending with no current stage.
func (m *Manager) CreateSession(ctx context.Context, workflowID, name string) (Result, error) {
	def, err := m.defs.GetByID(workflowID)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "engine", "create",
			fmt.Sprintf("workflow %s is not in the catalog", workflowID), err)
	}

	sess := &session.Session{
		ID:              uuid.NewString(),
		WorkflowID:      def.ID,
		Name:            strings.TrimSpace(name),
		Status:          session.StatusPending,
		CompletedStages: []string{},
		Context:         map[string]string{},
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return Result{}, err
	}

	m.emit(ctx, eventlog.Event{
		Type:      eventlog.TypeSessionCreated,
		SessionID: sess.ID,
		NewStatus: string(sess.Status),
	})
	m.notify(ctx, ChangeCreated, sess.Clone())
	return m.result(sess, &def)
}

// StartSession activates a pending or paused session.
func (m *Manager) StartSession(ctx context.Context, sessionID string) (Result, error) {
	return m.activate(ctx, sessionID, "start")
}

// ResumeSession activates a paused (or pending) session. It shares the
// start guard; the two verbs exist for CLI readability.
func (m *Manager) ResumeSession(ctx context.Context, sessionID string) (Result, error) {
	return m.activate(ctx, sessionID, "resume")
}

func (m *Manager) activate(ctx context.Context, sessionID, operation string) (Result, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()

	sess, def, err := m.load(ctx, sessionID, operation)
	if err != nil {
		lock.Unlock()
		return Result{}, err
	}

	oldStatus := sess.Status
	switch oldStatus {
	case session.StatusPending, session.StatusPaused:
	default:
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrConflict, "engine", operation,
			fmt.Sprintf("session %s cannot activate from status %s", sessionID, oldStatus), nil)
	}

	sess.Status = session.StatusActive
	if err := m.store.Update(ctx, sess); err != nil {
		lock.Unlock()
		return Result{}, err
	}
	lock.Unlock()

	eventType := eventlog.TypeSessionStarted
	if oldStatus == session.StatusPaused {
		eventType = eventlog.TypeSessionResumed
	}
	m.emit(ctx, eventlog.Event{
		Type:      eventType,
		SessionID: sess.ID,
		OldStatus: string(oldStatus),
		NewStatus: string(sess.Status),
	})
	m.notify(ctx, ChangeUpdated, sess.Clone())
	return m.result(sess, &def)
}

// PauseSession puts an active session on hold.
func (m *Manager) PauseSession(ctx context.Context, sessionID string) (Result, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()

	sess, def, err := m.load(ctx, sessionID, "pause")
	if err != nil {
		lock.Unlock()
		return Result{}, err
	}

	if sess.Status != session.StatusActive {
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrConflict, "engine", "pause",
			fmt.Sprintf("session %s cannot pause from status %s", sessionID, sess.Status), nil)
	}

	sess.Status = session.StatusPaused
	if err := m.store.Update(ctx, sess); err != nil {
		lock.Unlock()
		return Result{}, err
	}
	lock.Unlock()

	m.emit(ctx, eventlog.Event{
		Type:      eventlog.TypeSessionPaused,
		SessionID: sess.ID,
		OldStatus: string(session.StatusActive),
		NewStatus: string(sess.Status),
	})
	m.notify(ctx, ChangeUpdated, sess.Clone())
	return m.result(sess, &def)
}

// SetCurrentStage moves the session pointer to a stage. The move must be
// the workflow's first stage (when no stage is set) or follow a declared
// transition from the current stage.
func (m *Manager) SetCurrentStage(ctx context.Context, sessionID, stageID string) (Result, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()

	sess, def, err := m.load(ctx, sessionID, "set-stage")
	if err != nil {
		lock.Unlock()
		return Result{}, err
	}

	if sess.IsTerminal() {
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrConflict, "engine", "set-stage",
			fmt.Sprintf("session %s is %s and cannot change stage", sessionID, sess.Status), nil)
	}
	if !def.HasStage(stageID) {
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrValidation, "engine", "set-stage",
			fmt.Sprintf("workflow %s has no stage %s", def.ID, stageID), nil)
	}
	if err := m.checkMove(def, sess.CurrentStageID, stageID); err != nil {
		lock.Unlock()
		return Result{}, err
	}

	sess.CurrentStageID = stageID
	if err := m.enterStage(ctx, sess, stageID); err != nil {
		lock.Unlock()
		return Result{}, err
	}
	if err := m.store.Update(ctx, sess); err != nil {
		lock.Unlock()
		return Result{}, err
	}
	lock.Unlock()

	m.emit(ctx, eventlog.Event{
		Type:      eventlog.TypeStageEntered,
		SessionID: sess.ID,
		StageID:   stageID,
		NewStatus: string(sess.Status),
	})
	m.notify(ctx, ChangeUpdated, sess.Clone())
	return m.result(sess, &def)
}

func (m *Manager) checkMove(def workflowdef.Definition, from, to string) error {
	if from == "" {
		first, ok := def.FirstStage()
		if ok && first.ID == to {
			return nil
		}
		return services.Wrap(services.ErrValidation, "engine", "set-stage",
			fmt.Sprintf("session has no current stage; only the first stage %q can be entered", firstStageID(def)), nil)
	}
	for _, transition := range def.TransitionsFrom(from) {
		if transition.To == to {
			return nil
		}
	}
	return services.Wrap(services.ErrValidation, "engine", "set-stage",
		fmt.Sprintf("no declared transition from %s to %s", from, to), nil)
}

func firstStageID(def workflowdef.Definition) string {
	first, ok := def.FirstStage()
	if !ok {
		return ""
	}
	return first.ID
}

// CompleteStage marks a stage done, advances the current stage along the
// first matching transition, and recomputes progress. Completing an
// already-completed stage is a no-op returning the current snapshot.
func (m *Manager) CompleteStage(ctx context.Context, sessionID, stageID string) (Result, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()

	sess, def, err := m.load(ctx, sessionID, "complete-stage")
	if err != nil {
		lock.Unlock()
		return Result{}, err
	}

	if sess.Status != session.StatusActive {
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrConflict, "engine", "complete-stage",
			fmt.Sprintf("session %s must be active to complete stages, not %s", sessionID, sess.Status), nil)
	}
	if !def.HasStage(stageID) {
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrValidation, "engine", "complete-stage",
			fmt.Sprintf("workflow %s has no stage %s", def.ID, stageID), nil)
	}
	if sess.HasCompleted(stageID) {
		lock.Unlock()
		return m.result(sess, &def)
	}

	next, err := m.nextStage(ctx, def, stageID, sess.Context)
	if err != nil {
		lock.Unlock()
		return Result{}, err
	}

	now := time.Now().UTC()
	if err := m.store.UpsertStageInstance(ctx, &session.StageInstance{
		SessionID:   sess.ID,
		StageID:     stageID,
		Status:      session.InstanceCompleted,
		CompletedAt: &now,
	}); err != nil {
		lock.Unlock()
		return Result{}, err
	}

	sess.CompletedStages = append(sess.CompletedStages, stageID)
	sess.CurrentStageID = next
	if next != "" && !sess.HasCompleted(next) {
		if err := m.enterStage(ctx, sess, next); err != nil {
			lock.Unlock()
			return Result{}, err
		}
	}
	if err := m.store.Update(ctx, sess); err != nil {
		lock.Unlock()
		return Result{}, err
	}
	lock.Unlock()

	m.emit(ctx, eventlog.Event{
		Type:      eventlog.TypeStageCompleted,
		SessionID: sess.ID,
		StageID:   stageID,
		NewStatus: string(sess.Status),
	})
	if next != "" {
		m.emit(ctx, eventlog.Event{
			Type:      eventlog.TypeStageEntered,
			SessionID: sess.ID,
			StageID:   next,
			NewStatus: string(sess.Status),
		})
	}
	m.notify(ctx, ChangeUpdated, sess.Clone())
	return m.result(sess, &def)
}

// nextStage evaluates outgoing transitions in declaration order and returns
// the first whose condition holds, or empty when none match.
func (m *Manager) nextStage(ctx context.Context, def workflowdef.Definition, stageID string, sessionContext map[string]string) (string, error) {
	for _, transition := range def.TransitionsFrom(stageID) {
		ok, err := m.evaluator.Evaluate(ctx, transition.Condition, sessionContext)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "engine", "complete-stage",
				fmt.Sprintf("evaluate condition %q on %s->%s", transition.Condition, transition.From, transition.To), err)
		}
		if ok {
			return transition.To, nil
		}
	}
	return "", nil
}

// enterStage lazily records the in-progress stage instance.
func (m *Manager) enterStage(ctx context.Context, sess *session.Session, stageID string) error {
	return m.store.UpsertStageInstance(ctx, &session.StageInstance{
		SessionID: sess.ID,
		StageID:   stageID,
		Status:    session.InstanceInProgress,
	})
}

// CompleteSession finishes an active session. Unless forced, every workflow
// stage must already be completed.
func (m *Manager) CompleteSession(ctx context.Context, sessionID string, force bool) (Result, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()

	sess, def, err := m.load(ctx, sessionID, "complete")
	if err != nil {
		lock.Unlock()
		return Result{}, err
	}

	if sess.Status != session.StatusActive {
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrConflict, "engine", "complete",
			fmt.Sprintf("session %s must be active to complete, not %s", sessionID, sess.Status), nil)
	}
	if !force {
		if missing := progress.MissingStages(sess, &def); len(missing) > 0 {
			lock.Unlock()
			return Result{}, services.Wrap(services.ErrValidation, "engine", "complete",
				fmt.Sprintf("stages not completed: %s (use force to override)", strings.Join(missing, ", ")), nil)
		}
	}

	sess.Status = session.StatusCompleted
	if err := m.store.Update(ctx, sess); err != nil {
		lock.Unlock()
		return Result{}, err
	}
	lock.Unlock()

	m.emit(ctx, eventlog.Event{
		Type:      eventlog.TypeSessionCompleted,
		SessionID: sess.ID,
		OldStatus: string(session.StatusActive),
		NewStatus: string(sess.Status),
	})
	m.notify(ctx, ChangeUpdated, sess.Clone())
	return m.result(sess, &def)
}

// AbortSession fails a session with a reason. Aborting an already-failed
// session returns the stored snapshot without re-emitting; completed
// sessions cannot be aborted.
func (m *Manager) AbortSession(ctx context.Context, sessionID, reason string) (Result, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()

	sess, def, err := m.load(ctx, sessionID, "abort")
	if err != nil {
		lock.Unlock()
		return Result{}, err
	}

	if sess.Status == session.StatusFailed {
		lock.Unlock()
		return m.result(sess, &def)
	}
	if sess.Status == session.StatusCompleted {
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrConflict, "engine", "abort",
			fmt.Sprintf("session %s already completed", sessionID), nil)
	}

	oldStatus := sess.Status
	sess.Status = session.StatusFailed
	sess.FailureReason = strings.TrimSpace(reason)
	if err := m.store.Update(ctx, sess); err != nil {
		lock.Unlock()
		return Result{}, err
	}
	lock.Unlock()

	m.emit(ctx, eventlog.Event{
		Type:      eventlog.TypeSessionAborted,
		SessionID: sess.ID,
		OldStatus: string(oldStatus),
		NewStatus: string(sess.Status),
		Reason:    sess.FailureReason,
	})
	m.notify(ctx, ChangeUpdated, sess.Clone())
	return m.result(sess, &def)
}

// DeleteSession removes a session and its stage trail from any status.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()

	removed, err := m.store.Delete(ctx, sessionID)
	if err != nil {
		lock.Unlock()
		return err
	}
	if !removed {
		lock.Unlock()
		return services.Wrap(services.ErrNotFound, "engine", "delete",
			fmt.Sprintf("session %s not found", sessionID), nil)
	}
	lock.Unlock()
	m.releaseLockEntry(sessionID)

	m.emit(ctx, eventlog.Event{
		Type:      eventlog.TypeSessionDeleted,
		SessionID: sessionID,
	})
	m.notify(ctx, ChangeDeleted, &session.Session{ID: sessionID})
	return nil
}

// SetContextValue stores a key in the session's opaque context map so
// transition conditions can be driven externally.
func (m *Manager) SetContextValue(ctx context.Context, sessionID, key, value string) (Result, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{}, services.Wrap(services.ErrValidation, "engine", "set-context",
			"context key must not be empty", nil)
	}

	lock := m.sessionLock(sessionID)
	lock.Lock()

	sess, def, err := m.load(ctx, sessionID, "set-context")
	if err != nil {
		lock.Unlock()
		return Result{}, err
	}

	if sess.IsTerminal() {
		lock.Unlock()
		return Result{}, services.Wrap(services.ErrConflict, "engine", "set-context",
			fmt.Sprintf("session %s is %s and cannot change context", sessionID, sess.Status), nil)
	}

	if sess.Context == nil {
		sess.Context = map[string]string{}
	}
	sess.Context[key] = value
	if err := m.store.Update(ctx, sess); err != nil {
		lock.Unlock()
		return Result{}, err
	}
	lock.Unlock()

	m.emit(ctx, eventlog.Event{
		Type:      eventlog.TypeContextUpdated,
		SessionID: sess.ID,
		NewStatus: string(sess.Status),
	})
	m.notify(ctx, ChangeUpdated, sess.Clone())
	return m.result(sess, &def)
}

// GetSession returns the current snapshot with its progress.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (Result, error) {
	sess, def, err := m.load(ctx, sessionID, "get")
	if err != nil {
		return Result{}, err
	}
	return m.result(sess, &def)
}

// ListSessions returns sessions filtered by status.
func (m *Manager) ListSessions(ctx context.Context, statuses ...session.Status) ([]*session.Session, error) {
	return m.store.List(ctx, statuses...)
}

// StageInstances returns the stage entry trail for a session.
func (m *Manager) StageInstances(ctx context.Context, sessionID string) ([]*session.StageInstance, error) {
	if _, _, err := m.load(ctx, sessionID, "stages"); err != nil {
		return nil, err
	}
	return m.store.StageInstances(ctx, sessionID)
}

// SuggestNextStages lists stage ids reachable from the current stage via
// declared transitions. A fresh session suggests the first stage.
func (m *Manager) SuggestNextStages(ctx context.Context, sessionID string) ([]string, error) {
	sess, def, err := m.load(ctx, sessionID, "next")
	if err != nil {
		return nil, err
	}

	if sess.CurrentStageID == "" {
		if len(sess.CompletedStages) > 0 {
			return []string{}, nil
		}
		first, ok := def.FirstStage()
		if !ok {
			return []string{}, nil
		}
		return []string{first.ID}, nil
	}

	transitions := def.TransitionsFrom(sess.CurrentStageID)
	next := make([]string, 0, len(transitions))
	for _, transition := range transitions {
		next = append(next, transition.To)
	}
	return next, nil
}

func (m *Manager) load(ctx context.Context, sessionID, operation string) (*session.Session, workflowdef.Definition, error) {
	sess, err := m.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, workflowdef.Definition{}, err
	}
	if sess == nil {
		return nil, workflowdef.Definition{}, services.Wrap(services.ErrNotFound, "engine", operation,
			fmt.Sprintf("session %s not found", sessionID), nil)
	}
	def, err := m.defs.GetByID(sess.WorkflowID)
	if err != nil {
		return nil, workflowdef.Definition{}, services.Wrap(services.ErrValidation, "engine", operation,
			fmt.Sprintf("workflow %s for session %s is not in the catalog", sess.WorkflowID, sessionID), err)
	}
	return sess, def, nil
}

func (m *Manager) result(sess *session.Session, def *workflowdef.Definition) (Result, error) {
	pct, err := progress.ForSession(sess, def)
	if err != nil {
		return Result{}, err
	}
	return Result{Session: sess.Clone(), Progress: pct}, nil
}
