package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"flowstate/internal/config"
	"flowstate/internal/services"
)

// Store manages session persistence backed by SQLite. A file lock guards
// the database against concurrent flowstate processes.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the session database, acquires the
// single-instance lock, and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(cfg.LockFilePath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConflict, "session", "open",
			"session database is locked by another flowstate process", nil)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close releases the database connection and the store lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the on-disk location of the session database.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new session snapshot.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	completed, contextJSON, err := encodeColumns(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            id, workflow_id, name, status, current_stage_id,
            completed_stages, context, failure_reason, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.WorkflowID,
		nullableString(sess.Name),
		sess.Status,
		nullableString(sess.CurrentStageID),
		completed,
		contextJSON,
		nullableString(sess.FailureReason),
		sess.CreatedAt.Format(time.RFC3339Nano),
		sess.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID fetches a session by identifier. Absent rows return nil, nil.
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Update persists the full session snapshot and bumps updated_at.
func (s *Store) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	sess.UpdatedAt = time.Now().UTC()

	completed, contextJSON, err := encodeColumns(sess)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
         SET workflow_id = ?, name = ?, status = ?, current_stage_id = ?,
             completed_stages = ?, context = ?, failure_reason = ?, updated_at = ?
         WHERE id = ?`,
		sess.WorkflowID,
		nullableString(sess.Name),
		sess.Status,
		nullableString(sess.CurrentStageID),
		completed,
		contextJSON,
		nullableString(sess.FailureReason),
		sess.UpdatedAt.Format(time.RFC3339Nano),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "session", "update",
			fmt.Sprintf("session %s does not exist", sess.ID), nil)
	}
	return nil
}

// Delete removes a session and, via the foreign key cascade, its stage
// instances. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session rows: %w", err)
	}
	if affected > 0 {
		// sync_attempts carries no foreign key so the trail survives a
		// cascade-less schema change; clean it up explicitly.
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_attempts WHERE session_id = ?`, id); err != nil {
			return true, fmt.Errorf("delete sync attempts: %w", err)
		}
	}
	return affected > 0, nil
}

// List returns sessions filtered by status set (or all sessions when no
// status is provided) ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + sessionColumns + ` FROM sessions`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Stats returns a count of sessions grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates session state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusActive:
			health.Active += count
		case StatusPaused:
			health.Paused += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// UpsertStageInstance records a session entering or completing a stage. The
// (session_id, stage_id) pair is unique; re-entering an existing row updates
// its status and completion time while preserving started_at.
func (s *Store) UpsertStageInstance(ctx context.Context, inst *StageInstance) error {
	if inst == nil {
		return errors.New("stage instance is nil")
	}
	if inst.StartedAt.IsZero() {
		inst.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stage_instances (session_id, stage_id, status, started_at, completed_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(session_id, stage_id) DO UPDATE SET
             status = excluded.status,
             completed_at = excluded.completed_at`,
		inst.SessionID,
		inst.StageID,
		inst.Status,
		inst.StartedAt.Format(time.RFC3339Nano),
		nullableTime(inst.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert stage instance: %w", err)
	}
	return nil
}

// StageInstances returns the per-stage entry trail for a session ordered by
// first entry.
func (s *Store) StageInstances(ctx context.Context, sessionID string) ([]*StageInstance, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, stage_id, status, started_at, completed_at
         FROM stage_instances WHERE session_id = ? ORDER BY started_at, stage_id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage instances: %w", err)
	}
	defer rows.Close()

	var instances []*StageInstance
	for rows.Next() {
		inst, err := scanStageInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// RecordSyncAttempt appends an outbound sync bookkeeping row.
func (s *Store) RecordSyncAttempt(ctx context.Context, sessionID, state string, attempts int, lastError string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sync_attempts (session_id, state, attempts, last_error, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		sessionID,
		state,
		attempts,
		nullableString(lastError),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record sync attempt: %w", err)
	}
	return nil
}

// SyncAttempt is one row of the outbound sync trail.
type SyncAttempt struct {
	ID        int64
	SessionID string
	State     string
	Attempts  int
	LastError string
	UpdatedAt time.Time
}

// SyncAttempts returns the sync trail for a session, newest first.
func (s *Store) SyncAttempts(ctx context.Context, sessionID string) ([]*SyncAttempt, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, state, attempts, last_error, updated_at
         FROM sync_attempts WHERE session_id = ? ORDER BY id DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*SyncAttempt
	for rows.Next() {
		var (
			attempt    SyncAttempt
			lastError  sql.NullString
			updatedRaw sql.NullString
		)
		if err := rows.Scan(&attempt.ID, &attempt.SessionID, &attempt.State, &attempt.Attempts, &lastError, &updatedRaw); err != nil {
			return nil, err
		}
		attempt.LastError = lastError.String
		if updated, err := parseTimeString(updatedRaw.String); err == nil {
			attempt.UpdatedAt = updated
		}
		attempts = append(attempts, &attempt)
	}
	return attempts, rows.Err()
}
