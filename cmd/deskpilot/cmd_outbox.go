package main

import (
	"context"
	"fmt"

	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/storage"
)

// OutboxCmd inspects the local ticket outbox.
type OutboxCmd struct {
	List   OutboxListCmd   `cmd:"" default:"1" help:"List pending outbox tickets"`
	Replay OutboxReplayCmd `cmd:"" help:"Replay pending tickets against the configured trackers"`
}

// OutboxListCmd lists pending tickets.
type OutboxListCmd struct{}

// Run executes the outbox list command.
func (c *OutboxListCmd) Run(cli *CLI) error {
	app, err := buildApp(cli, createCLILogger)
	if err != nil {
		return err
	}
	defer app.Close()

	tickets, err := storage.ListPendingOutboxTickets(context.Background(), app.DB.DB())
	if err != nil {
		return fmt.Errorf("failed to list outbox: %w", err)
	}
	if len(tickets) == 0 {
		fmt.Println("outbox is empty")
		return nil
	}

	for _, t := range tickets {
		fmt.Printf("OUTBOX-%-4d %-10s %s\n", t.Seq, t.Priority, t.Summary)
	}
	return nil
}

// OutboxReplayCmd pushes each pending ticket back through the ticket-creation
// chain. A ticket is only marked replayed when a remote tracker accepts it;
// the outbox adapter itself would re-queue, so replay refuses its results.
type OutboxReplayCmd struct{}

// Run executes the outbox replay command.
func (c *OutboxReplayCmd) Run(cli *CLI) error {
	app, err := buildApp(cli, createCLILogger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	db := app.DB.DB()

	tickets, err := storage.ListPendingOutboxTickets(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to list outbox: %w", err)
	}
	if len(tickets) == 0 {
		fmt.Println("outbox is empty")
		return nil
	}

	outboxNames := map[string]bool{}
	for _, b := range app.Config.Backends {
		if b.Type == "outbox" {
			outboxNames[b.Name] = true
		}
	}

	replayed := 0
	for _, t := range tickets {
		args := map[string]interface{}{
			"summary":     t.Summary,
			"description": t.Description,
		}
		if t.Priority != "" {
			args["priority"] = t.Priority
		}
		if t.Component != "" {
			args["component"] = t.Component
		}

		result, err := app.Gateway.Invoke(ctx, capability.TicketCreation, args)
		if err != nil {
			fmt.Printf("OUTBOX-%d: not replayed (%s)\n", t.Seq, result.ErrorDetail)
			continue
		}
		if outboxNames[result.Adapter] {
			fmt.Printf("OUTBOX-%d: no remote tracker accepted it, still queued\n", t.Seq)
			continue
		}

		if err := storage.MarkOutboxTicketReplayed(ctx, db, t.ID); err != nil {
			return fmt.Errorf("failed to mark OUTBOX-%d replayed: %w", t.Seq, err)
		}
		fmt.Printf("OUTBOX-%d: replayed as %s via %s\n", t.Seq, result.ID, result.Adapter)
		replayed++
	}

	fmt.Printf("%d of %d tickets replayed\n", replayed, len(tickets))
	return nil
}
