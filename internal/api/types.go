package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SessionView describes a session in a transport-friendly format.
type SessionView struct {
	ID              string            `json:"id"`
	WorkflowID      string            `json:"workflowId"`
	Name            string            `json:"name,omitempty"`
	Status          string            `json:"status"`
	CurrentStage    string            `json:"currentStage,omitempty"`
	CompletedStages []string          `json:"completedStages"`
	Context         map[string]string `json:"context,omitempty"`
	Progress        float64           `json:"progress"`
	FailureReason   string            `json:"failureReason,omitempty"`
	CreatedAt       string            `json:"createdAt,omitempty"`
	UpdatedAt       string            `json:"updatedAt,omitempty"`
}

// StageInstanceView describes one row of a session's stage trail.
type StageInstanceView struct {
	StageID     string `json:"stageId"`
	Status      string `json:"status"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// WorkflowView summarizes a catalog definition.
type WorkflowView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Version     int         `json:"version"`
	Stages      []StageView `json:"stages"`
}

// StageView describes a workflow stage for display.
type StageView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Order        int      `json:"order"`
	Checklist    []string `json:"checklist,omitempty"`
	Deliverables []string `json:"deliverables,omitempty"`
}

// ErrorBody carries a machine-readable failure classification.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the uniform envelope for command output.
type Result struct {
	Success  bool                `json:"success"`
	Session  *SessionView        `json:"session,omitempty"`
	Sessions []SessionView       `json:"sessions,omitempty"`
	Stages   []StageInstanceView `json:"stages,omitempty"`
	Next     []string            `json:"next,omitempty"`
	Error    *ErrorBody          `json:"error,omitempty"`
}

// HealthView summarizes session counts for status output.
type HealthView struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Paused    int `json:"paused"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
