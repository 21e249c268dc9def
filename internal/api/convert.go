package api

import (
	"flowstate/internal/engine"
	"flowstate/internal/services"
	"flowstate/internal/session"
	"flowstate/internal/workflowdef"
)

// FromResult converts an engine outcome to its API representation.
func FromResult(res engine.Result) SessionView {
	view := FromSession(res.Session)
	view.Progress = res.Progress
	return view
}

// FromSession converts a session record to its API representation.
func FromSession(sess *session.Session) SessionView {
	if sess == nil {
		return SessionView{}
	}

	view := SessionView{
		ID:              sess.ID,
		WorkflowID:      sess.WorkflowID,
		Name:            sess.Name,
		Status:          string(sess.Status),
		CurrentStage:    sess.CurrentStageID,
		CompletedStages: append([]string{}, sess.CompletedStages...),
		FailureReason:   sess.FailureReason,
	}
	if len(sess.Context) > 0 {
		view.Context = make(map[string]string, len(sess.Context))
		for k, v := range sess.Context {
			view.Context[k] = v
		}
	}
	if !sess.CreatedAt.IsZero() {
		view.CreatedAt = sess.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !sess.UpdatedAt.IsZero() {
		view.UpdatedAt = sess.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromSessions converts a slice of sessions into API DTOs.
func FromSessions(sessions []*session.Session) []SessionView {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, FromSession(sess))
	}
	return out
}

// FromStageInstances converts a stage trail into API DTOs.
func FromStageInstances(instances []*session.StageInstance) []StageInstanceView {
	if len(instances) == 0 {
		return nil
	}
	out := make([]StageInstanceView, 0, len(instances))
	for _, inst := range instances {
		view := StageInstanceView{
			StageID: inst.StageID,
			Status:  string(inst.Status),
		}
		if !inst.StartedAt.IsZero() {
			view.StartedAt = inst.StartedAt.UTC().Format(dateTimeFormat)
		}
		if inst.CompletedAt != nil {
			view.CompletedAt = inst.CompletedAt.UTC().Format(dateTimeFormat)
		}
		out = append(out, view)
	}
	return out
}

// FromDefinition converts a workflow definition for display.
func FromDefinition(def workflowdef.Definition) WorkflowView {
	view := WorkflowView{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Version:     def.Version,
	}
	view.Stages = make([]StageView, 0, len(def.Stages))
	for _, stage := range def.Stages {
		view.Stages = append(view.Stages, StageView{
			ID:           stage.ID,
			Name:         stage.Name,
			Order:        stage.Order,
			Checklist:    append([]string{}, stage.Checklist...),
			Deliverables: append([]string{}, stage.Deliverables...),
		})
	}
	return view
}

// FromHealth converts a store health summary for display.
func FromHealth(health session.HealthSummary) HealthView {
	return HealthView{
		Total:     health.Total,
		Pending:   health.Pending,
		Active:    health.Active,
		Paused:    health.Paused,
		Completed: health.Completed,
		Failed:    health.Failed,
	}
}

// Success wraps a session view in the uniform envelope.
func Success(view SessionView) Result {
	return Result{Success: true, Session: &view}
}

// Failure classifies an error into the uniform envelope.
func Failure(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	return Result{
		Success: false,
		Error: &ErrorBody{
			Code:    services.ErrorCode(err),
			Message: err.Error(),
		},
	}
}
