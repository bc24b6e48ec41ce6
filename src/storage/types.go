// Package storage persists chat sessions, turn transcripts and the local
// ticket outbox in sqlite. The orchestration core never touches it directly;
// callers (the CLI harness) own persistence.
package storage

import "time"

// Session groups the turns of one conversation.
type Session struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Turn is one persisted role-tagged message.
type Turn struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	// Capability records what the classifier detected for user turns.
	Capability string    `db:"capability"`
	CreatedAt  time.Time `db:"created_at"`
}

// OutboxTicket is a ticket request accepted by the local outbox backend when
// every remote tracker was unavailable, kept for later replay.
type OutboxTicket struct {
	ID          string    `db:"id"`
	Seq         int64     `db:"seq"`
	Summary     string    `db:"summary"`
	Description string    `db:"description"`
	Priority    string    `db:"priority"`
	Component   string    `db:"component"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

// Outbox ticket statuses.
const (
	OutboxPending  = "pending"
	OutboxReplayed = "replayed"
)
