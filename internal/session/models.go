package session

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a flow session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusActive,
	StatusPaused,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further mutation.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session is a stateful instance of a workflow execution, persisted in
// SQLite. It is owned exclusively by the engine manager and mutated only
// through its operations.
type Session struct {
	ID              string
	WorkflowID      string
	Name            string
	Status          Status
	CurrentStageID  string
	CompletedStages []string
	Context         map[string]string
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether the session reached a terminal status.
func (s *Session) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// HasCompleted reports whether the stage id is already in the completed set.
func (s *Session) HasCompleted(stageID string) bool {
	for _, id := range s.CompletedStages {
		if id == stageID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the session snapshot.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	clone.CompletedStages = append([]string{}, s.CompletedStages...)
	clone.Context = make(map[string]string, len(s.Context))
	for k, v := range s.Context {
		clone.Context[k] = v
	}
	return &clone
}

// InstanceStatus is the lifecycle of a single (session, stage) entry.
type InstanceStatus string

const (
	InstanceInProgress InstanceStatus = "in_progress"
	InstanceCompleted  InstanceStatus = "completed"
)

// StageInstance records a session having entered (and possibly completed) a
// stage. Rows are created lazily on first entry and deleted only via the
// session cascade.
type StageInstance struct {
	SessionID   string
	StageID     string
	Status      InstanceStatus
	StartedAt   time.Time
	CompletedAt *time.Time
}

// HealthSummary describes aggregated session counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Pending   int
	Active    int
	Paused    int
	Completed int
	Failed    int
}
