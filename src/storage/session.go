package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// GetSessionByID retrieves a session by its ID. Returns nil when not found.
func GetSessionByID(ctx context.Context, db sqlscan.Querier, sessionID string) (*Session, error) {
	query := `SELECT id, created_at, updated_at FROM sessions WHERE id = ?`
	var s Session
	err := sqlscan.Get(ctx, db, &s, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetLatestSession retrieves the most recently updated session. Returns nil
// when no sessions exist.
func GetLatestSession(ctx context.Context, db sqlscan.Querier) (*Session, error) {
	query := `SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC LIMIT 1`
	var s Session
	err := sqlscan.Get(ctx, db, &s, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// CreateSession creates a new session in the database.
func CreateSession(ctx context.Context, db Execer, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}

	query := `INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`
	_, err := db.ExecContext(ctx, query, session.ID, session.CreatedAt, session.UpdatedAt)
	return err
}

// TouchSession bumps the session's updated_at.
func TouchSession(ctx context.Context, db Execer, sessionID string) error {
	query := `UPDATE sessions SET updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), sessionID)
	return err
}

// GetTurnsBySessionID retrieves all turns for a session ordered by creation
// time.
func GetTurnsBySessionID(ctx context.Context, db sqlscan.Querier, sessionID string) ([]Turn, error) {
	query := `SELECT id, session_id, role, content, capability, created_at FROM turns WHERE session_id = ? ORDER BY created_at, id`
	var turns []Turn
	if err := sqlscan.Select(ctx, db, &turns, query, sessionID); err != nil {
		return nil, err
	}
	return turns, nil
}

// CreateTurn persists one role-tagged message.
func CreateTurn(ctx context.Context, db Execer, turn *Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	query := `INSERT INTO turns (id, session_id, role, content, capability, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, turn.ID, turn.SessionID, turn.Role, turn.Content, turn.Capability, turn.CreatedAt)
	return err
}
