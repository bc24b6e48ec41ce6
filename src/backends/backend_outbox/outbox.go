// Package backend_outbox implements the last-resort ticket backend: it
// accepts the ticket into a local sqlite outbox for later replay, so a turn
// still completes when every remote tracker is down.
package backend_outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/schema"
	"github.com/elee1766/deskpilot/src/storage"
	"github.com/elee1766/deskpilot/src/toolgateway"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Default adapter name when the config leaves it unset.
const Name = "outbox"

// Config holds the adapter's settings.
type Config struct {
	// Name distinguishes this instance in the health registry. Defaults to
	// "outbox".
	Name string
	// DB is the opened session store; the outbox shares its database.
	DB       *storage.DB
	Priority int
	Logger   *slog.Logger
}

// Adapter records ticket requests locally. Implements
// toolgateway.BackendAdapter.
type Adapter struct {
	cfg    Config
	logger *slog.Logger
}

var _ toolgateway.BackendAdapter = (*Adapter)(nil)

// New creates an outbox adapter.
func New(cfg Config) *Adapter {
	if cfg.Name == "" {
		cfg.Name = Name
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		cfg:    cfg,
		logger: logger.With("adapter", cfg.Name),
	}
}

// Name implements toolgateway.BackendAdapter.
func (a *Adapter) Name() string { return a.cfg.Name }

// Capability implements toolgateway.BackendAdapter.
func (a *Adapter) Capability() capability.Capability { return capability.TicketCreation }

// Priority implements toolgateway.BackendAdapter.
func (a *Adapter) Priority() int { return a.cfg.Priority }

// ConnectTimeout implements toolgateway.BackendAdapter.
func (a *Adapter) ConnectTimeout() time.Duration { return time.Second }

// CallTimeout implements toolgateway.BackendAdapter.
func (a *Adapter) CallTimeout() time.Duration { return 2 * time.Second }

// ResponseFormat implements toolgateway.BackendAdapter.
func (a *Adapter) ResponseFormat() toolgateway.ResponseFormat { return toolgateway.FormatRest }

// Initialize verifies the database handle is usable.
func (a *Adapter) Initialize(ctx context.Context) error {
	if a.cfg.DB == nil {
		return fmt.Errorf("outbox has no database")
	}
	return a.cfg.DB.DB().PingContext(ctx)
}

// ParameterSchema declares the same ticket fields as the remote trackers so
// the outbox can stand in for any of them.
func (a *Adapter) ParameterSchema() *jsonschema.Schema {
	return schema.Object(map[string]*jsonschema.Schema{
		"summary":     schema.String("One-line ticket summary"),
		"description": schema.String("Detailed ticket description"),
		"priority":    schema.StringEnum("Ticket priority", "highest", "high", "medium", "low", "lowest"),
		"component":   schema.String("Component the ticket belongs to"),
	}, []string{"summary"})
}

// Aliases implements toolgateway.BackendAdapter.
func (a *Adapter) Aliases() map[string][]string {
	return map[string][]string{
		"summary":     {"title"},
		"description": {"details", "body"},
		"priority":    {"urgency", "severity"},
		"component":   {"area"},
	}
}

// outboxResponse is the adapter's FormatRest-shaped response.
type outboxResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	URL     string `json:"url,omitempty"`
}

// Call records the ticket and returns a synthetic OUTBOX-<seq> identifier.
func (a *Adapter) Call(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	ticket := &storage.OutboxTicket{
		Summary:     stringArg(args, "summary"),
		Description: stringArg(args, "description"),
		Priority:    stringArg(args, "priority"),
		Component:   stringArg(args, "component"),
	}
	if err := storage.CreateOutboxTicket(ctx, a.cfg.DB.DB(), ticket); err != nil {
		return nil, fmt.Errorf("failed to record outbox ticket: %w", err)
	}

	a.logger.Info("ticket queued in local outbox", "seq", ticket.Seq)
	return json.Marshal(outboxResponse{
		Success: true,
		ID:      fmt.Sprintf("OUTBOX-%d", ticket.Seq),
	})
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}
