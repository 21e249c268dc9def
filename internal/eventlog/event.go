// Package eventlog records session lifecycle events to append-only sinks.
// The engine writes fire-and-forget; nothing in flowstate reads events back.
package eventlog

import "time"

// Event types emitted by the session engine.
const (
	TypeSessionCreated   = "session_created"
	TypeSessionStarted   = "session_started"
	TypeSessionPaused    = "session_paused"
	TypeSessionResumed   = "session_resumed"
	TypeStageEntered     = "stage_entered"
	TypeStageCompleted   = "stage_completed"
	TypeSessionCompleted = "session_completed"
	TypeSessionAborted   = "session_aborted"
	TypeSessionDeleted   = "session_deleted"
	TypeContextUpdated   = "context_updated"
)

// Event is a single lifecycle record.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	StageID   string    `json:"stage_id,omitempty"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
