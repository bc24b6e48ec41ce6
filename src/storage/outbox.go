package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// CreateOutboxTicket records a ticket request in the local outbox and
// assigns it a monotonically increasing sequence number. The returned ticket
// carries the generated ID and sequence.
func CreateOutboxTicket(ctx context.Context, db ExecQuerier, ticket *OutboxTicket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.Status == "" {
		ticket.Status = OutboxPending
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}

	// The sequence is assigned inside the INSERT so concurrent writers
	// cannot mint the same number; seq also carries a UNIQUE constraint.
	query := `INSERT INTO outbox_tickets (id, seq, summary, description, priority, component, status, created_at)
	          SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ? FROM outbox_tickets`
	_, err := db.ExecContext(ctx, query,
		ticket.ID, ticket.Summary, ticket.Description,
		ticket.Priority, ticket.Component, ticket.Status, ticket.CreatedAt)
	if err != nil {
		return err
	}

	row := struct {
		Seq int64 `db:"seq"`
	}{}
	if err := sqlscan.Get(ctx, db, &row, `SELECT seq FROM outbox_tickets WHERE id = ?`, ticket.ID); err != nil {
		return fmt.Errorf("failed to read assigned outbox sequence: %w", err)
	}
	ticket.Seq = row.Seq
	return nil
}

// ListPendingOutboxTickets returns pending tickets in sequence order.
func ListPendingOutboxTickets(ctx context.Context, db sqlscan.Querier) ([]OutboxTicket, error) {
	query := `SELECT id, seq, summary, description, priority, component, status, created_at
	          FROM outbox_tickets WHERE status = ? ORDER BY seq`
	var tickets []OutboxTicket
	if err := sqlscan.Select(ctx, db, &tickets, query, OutboxPending); err != nil {
		return nil, err
	}
	return tickets, nil
}

// MarkOutboxTicketReplayed flips a ticket to replayed after a successful
// replay against a remote tracker.
func MarkOutboxTicketReplayed(ctx context.Context, db Execer, ticketID string) error {
	query := `UPDATE outbox_tickets SET status = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, OutboxReplayed, ticketID)
	return err
}
