package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/elee1766/deskpilot/src/aisdk"
	"github.com/elee1766/deskpilot/src/storage"
)

// ChatCmd handles one utterance, or runs an interactive loop when no message
// is given.
type ChatCmd struct {
	Message []string `arg:"" optional:"" help:"Message to send; omit for interactive mode"`
	Session string   `short:"s" help:"Resume the session with this ID"`
	Resume  bool     `short:"r" help:"Resume the most recent session"`
}

// Run executes the chat command.
func (c *ChatCmd) Run(cli *CLI) error {
	// Interactive mode keeps stderr clean for the prompt; log lines go to a
	// file instead.
	makeLogger := createCLILogger
	if len(c.Message) == 0 {
		makeLogger = createSessionLogger
	}

	app, err := buildApp(cli, makeLogger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	session, err := c.resolveSession(ctx, app)
	if err != nil {
		return err
	}

	history, err := loadHistory(ctx, app, session.ID)
	if err != nil {
		return fmt.Errorf("failed to load session history: %w", err)
	}

	if len(c.Message) > 0 {
		_, err := runTurn(ctx, app, session.ID, history, strings.Join(c.Message, " "))
		return err
	}
	return c.interactive(ctx, app, session.ID, history)
}

// resolveSession picks an existing session or creates a fresh one.
func (c *ChatCmd) resolveSession(ctx context.Context, app *App) (*storage.Session, error) {
	db := app.DB.DB()

	if c.Session != "" {
		session, err := storage.GetSessionByID(ctx, db, c.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to look up session: %w", err)
		}
		if session == nil {
			return nil, fmt.Errorf("session %s not found", c.Session)
		}
		return session, nil
	}

	if c.Resume {
		session, err := storage.GetLatestSession(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("failed to look up latest session: %w", err)
		}
		if session != nil {
			return session, nil
		}
		// Nothing to resume; fall through to a fresh session.
	}

	session := &storage.Session{}
	if err := storage.CreateSession(ctx, db, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// loadHistory converts persisted turns into router messages.
func loadHistory(ctx context.Context, app *App, sessionID string) ([]*aisdk.Message, error) {
	turns, err := storage.GetTurnsBySessionID(ctx, app.DB.DB(), sessionID)
	if err != nil {
		return nil, err
	}

	history := make([]*aisdk.Message, 0, len(turns))
	for _, t := range turns {
		history = append(history, &aisdk.Message{
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	return history, nil
}

// runTurn drives one turn, prints the reply and persists both sides.
func runTurn(ctx context.Context, app *App, sessionID string, history []*aisdk.Message, input string) ([]*aisdk.Message, error) {
	reply := app.Orchestrator.HandleTurn(ctx, history, input)
	fmt.Println(reply.Text)

	db := app.DB.DB()
	capLabel := reply.State.Capability.String()

	if err := storage.CreateTurn(ctx, db, &storage.Turn{
		SessionID:  sessionID,
		Role:       "user",
		Content:    input,
		Capability: capLabel,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist user turn: %w", err)
	}
	if err := storage.CreateTurn(ctx, db, &storage.Turn{
		SessionID:  sessionID,
		Role:       "assistant",
		Content:    reply.Text,
		Capability: capLabel,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist assistant turn: %w", err)
	}
	if err := storage.TouchSession(ctx, db, sessionID); err != nil {
		app.Logger.Warn("failed to touch session", "error", err)
	}

	return reply.History, nil
}

// interactive reads utterances from stdin until EOF or /quit.
func (c *ChatCmd) interactive(ctx context.Context, app *App, sessionID string, history []*aisdk.Message) error {
	fmt.Fprintf(os.Stderr, "session %s (ctrl-d or /quit to exit)\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			break
		}
		if input == "/state" {
			printLastState(app, history)
			continue
		}

		updated, err := runTurn(ctx, app, sessionID, history, input)
		if err != nil {
			return err
		}
		history = updated
	}
	return scanner.Err()
}

// printLastState is a debugging aid for interactive sessions.
func printLastState(app *App, history []*aisdk.Message) {
	fmt.Fprintf(os.Stderr, "history: %d messages\n", len(history))
	for name, status := range app.Gateway.Health().Snapshot() {
		fmt.Fprintf(os.Stderr, "adapter %s: %s\n", name, status)
	}
}
