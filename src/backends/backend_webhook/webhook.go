// Package backend_webhook implements a generic HTTP POST adapter for
// REST-style tracker and bridge backends. One instance serves exactly one
// capability; its schema and aliases are supplied at construction, so the
// same adapter covers ticket trackers, publish targets and external agent
// bridges.
package backend_webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/schema"
	"github.com/elee1766/deskpilot/src/toolgateway"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Config holds the adapter's settings.
type Config struct {
	// Name must be unique across all adapters.
	Name       string
	Capability capability.Capability
	URL        string
	Token      string
	Priority   int
	// Schema defaults to TicketSchema()/TicketAliases() when nil.
	Schema         *jsonschema.Schema
	Aliases        map[string][]string
	ConnectTimeout time.Duration
	CallTimeout    time.Duration
	Logger         *slog.Logger
}

// Adapter posts arguments as a JSON object and expects an explicit-flag
// response: {"success": bool, "id": ..., "url": ..., "error": ...}.
type Adapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

var _ toolgateway.BackendAdapter = (*Adapter)(nil)

// New creates a webhook adapter.
func New(cfg Config) *Adapter {
	if cfg.Schema == nil {
		cfg.Schema = TicketSchema()
		if cfg.Aliases == nil {
			cfg.Aliases = TicketAliases()
		}
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger.With("adapter", cfg.Name),
	}
}

// TicketSchema is the default ticket-creation schema.
func TicketSchema() *jsonschema.Schema {
	return schema.Object(map[string]*jsonschema.Schema{
		"summary":     schema.String("One-line ticket summary"),
		"description": schema.String("Detailed ticket description"),
		"priority":    schema.StringEnum("Ticket priority", "highest", "high", "medium", "low", "lowest"),
		"component":   schema.String("Component the ticket belongs to"),
	}, []string{"summary"})
}

// TicketAliases is the default ticket-creation alias table.
func TicketAliases() map[string][]string {
	return map[string][]string{
		"summary":     {"title"},
		"description": {"details", "body"},
		"priority":    {"urgency", "severity"},
		"component":   {"area"},
	}
}

// PublishSchema declares the chained publish stage's fields: the created
// ticket's identifier and link.
func PublishSchema() *jsonschema.Schema {
	return schema.Object(map[string]*jsonschema.Schema{
		"ticket_id": schema.String("Identifier of the created ticket"),
		"link":      schema.String("Browsable ticket URL"),
		"message":   schema.String("Announcement text"),
	}, []string{"ticket_id"})
}

// PublishAliases is the alias table for the publish stage.
func PublishAliases() map[string][]string {
	return map[string][]string{
		"ticket_id": {"id", "identifier", "key"},
		"link":      {"url", "self"},
		"message":   {"text", "summary"},
	}
}

// AgentSchema declares the external-agent delegation fields.
func AgentSchema() *jsonschema.Schema {
	return schema.Object(map[string]*jsonschema.Schema{
		"query":      schema.String("The user request to delegate"),
		"session_id": schema.String("Opaque session identifier"),
	}, []string{"query"})
}

// AgentAliases is the alias table for agent delegation.
func AgentAliases() map[string][]string {
	return map[string][]string{
		"query":      {"message", "input", "text"},
		"session_id": {"session"},
	}
}

// Name implements toolgateway.BackendAdapter.
func (a *Adapter) Name() string { return a.cfg.Name }

// Capability implements toolgateway.BackendAdapter.
func (a *Adapter) Capability() capability.Capability { return a.cfg.Capability }

// Priority implements toolgateway.BackendAdapter.
func (a *Adapter) Priority() int { return a.cfg.Priority }

// ConnectTimeout implements toolgateway.BackendAdapter.
func (a *Adapter) ConnectTimeout() time.Duration { return a.cfg.ConnectTimeout }

// CallTimeout implements toolgateway.BackendAdapter.
func (a *Adapter) CallTimeout() time.Duration { return a.cfg.CallTimeout }

// ResponseFormat implements toolgateway.BackendAdapter.
func (a *Adapter) ResponseFormat() toolgateway.ResponseFormat { return toolgateway.FormatRest }

// ParameterSchema implements toolgateway.BackendAdapter.
func (a *Adapter) ParameterSchema() *jsonschema.Schema { return a.cfg.Schema }

// Aliases implements toolgateway.BackendAdapter.
func (a *Adapter) Aliases() map[string][]string { return a.cfg.Aliases }

// Initialize probes the endpoint with a HEAD request. Backends that reject
// HEAD are still considered reachable; only transport errors fail connect.
func (a *Adapter) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, a.cfg.URL, nil)
	if err != nil {
		return err
	}
	a.authorize(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Call posts the arguments and returns the raw response body.
func (a *Adapter) Call(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("backend error: status %d", resp.StatusCode)
	}
	return json.RawMessage(data), nil
}

func (a *Adapter) authorize(req *http.Request) {
	if a.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	}
}
