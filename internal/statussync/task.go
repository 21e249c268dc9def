package statussync

import (
	"strings"
	"time"

	"flowstate/internal/services"
	"flowstate/internal/session"
	"flowstate/internal/workflowdef"
)

// TaskIDPrefix namespaces flowstate-owned tasks in the external system.
const TaskIDPrefix = "flow-"

// TaskType marks tasks created by flowstate.
const TaskType = "FLOW"

// Task is the external tracking system's representation of a session.
type Task struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	Status       ExternalStatus    `json:"status"`
	Progress     float64           `json:"progress"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	WorkflowID   string            `json:"workflow_id"`
	WorkflowName string            `json:"workflow_name"`
	CurrentStage string            `json:"current_stage,omitempty"`
	Metadata     map[string]string `json:"metadata"`
}

// TaskID derives the external task identifier for a session.
func TaskID(sessionID string) string {
	return TaskIDPrefix + sessionID
}

// SessionIDFromTaskID strips the task prefix. Malformed ids are a
// validation error.
func SessionIDFromTaskID(taskID string) (string, error) {
	sessionID, ok := strings.CutPrefix(taskID, TaskIDPrefix)
	if !ok || sessionID == "" {
		return "", services.Wrap(services.ErrValidation, "statussync", "parse-task-id",
			"task id "+taskID+" is not a flowstate task", nil)
	}
	return sessionID, nil
}

// BuildTask renders the full session snapshot as an external task. The
// function is pure; dispatch timing decides what the external system sees.
func BuildTask(sess *session.Session, def *workflowdef.Definition, progress float64) (Task, error) {
	status, err := MapStatus(sess.Status)
	if err != nil {
		return Task{}, err
	}

	name := sess.Name
	if name == "" {
		name = def.Name
	}

	return Task{
		ID:           TaskID(sess.ID),
		Name:         name,
		Type:         TaskType,
		Status:       status,
		Progress:     progress,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
		WorkflowID:   sess.WorkflowID,
		WorkflowName: def.Name,
		CurrentStage: sess.CurrentStageID,
		Metadata: map[string]string{
			"flow_session_id": sess.ID,
		},
	}, nil
}
