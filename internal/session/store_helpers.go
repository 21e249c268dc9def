package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = "id, workflow_id, name, status, current_stage_id, completed_stages, context, failure_reason, created_at, updated_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id            string
		workflowID    string
		name          sql.NullString
		statusStr     string
		currentStage  sql.NullString
		completedRaw  sql.NullString
		contextRaw    sql.NullString
		failureReason sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&workflowID,
		&name,
		&statusStr,
		&currentStage,
		&completedRaw,
		&contextRaw,
		&failureReason,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:             id,
		WorkflowID:     workflowID,
		Name:           name.String,
		Status:         Status(statusStr),
		CurrentStageID: currentStage.String,
		FailureReason:  failureReason.String,
	}

	completed, err := decodeCompletedStages(completedRaw.String)
	if err != nil {
		return nil, fmt.Errorf("decode completed stages for %s: %w", id, err)
	}
	sess.CompletedStages = completed

	sessionContext, err := decodeContext(contextRaw.String)
	if err != nil {
		return nil, fmt.Errorf("decode context for %s: %w", id, err)
	}
	sess.Context = sessionContext

	if created, err := parseTimeString(createdRaw.String); err == nil {
		sess.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		sess.UpdatedAt = updated
	}
	return sess, nil
}

func scanStageInstance(scanner interface{ Scan(dest ...any) error }) (*StageInstance, error) {
	var (
		sessionID    string
		stageID      string
		statusStr    string
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)
	if err := scanner.Scan(&sessionID, &stageID, &statusStr, &startedRaw, &completedRaw); err != nil {
		return nil, err
	}

	inst := &StageInstance{
		SessionID: sessionID,
		StageID:   stageID,
		Status:    InstanceStatus(statusStr),
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		inst.StartedAt = started
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			inst.CompletedAt = &completed
		}
	}
	return inst, nil
}

// encodeColumns serializes the JSON-backed session columns. Empty slices and
// maps encode as explicit empties so the scanner never hands out shared
// defaults.
func encodeColumns(sess *Session) (completedJSON, contextJSON string, err error) {
	completed := sess.CompletedStages
	if completed == nil {
		completed = []string{}
	}
	completedBytes, err := json.Marshal(completed)
	if err != nil {
		return "", "", fmt.Errorf("marshal completed stages: %w", err)
	}

	sessionContext := sess.Context
	if sessionContext == nil {
		sessionContext = map[string]string{}
	}
	contextBytes, err := json.Marshal(sessionContext)
	if err != nil {
		return "", "", fmt.Errorf("marshal context: %w", err)
	}
	return string(completedBytes), string(contextBytes), nil
}

func decodeCompletedStages(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var stages []string
	if err := json.Unmarshal([]byte(raw), &stages); err != nil {
		return nil, err
	}
	if stages == nil {
		stages = []string{}
	}
	return stages, nil
}

func decodeContext(raw string) (map[string]string, error) {
	if raw == "" {
		return map[string]string{}, nil
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
