// Package backend_jira implements a ticket-creation adapter against a
// Jira-compatible REST API.
package backend_jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/schema"
	"github.com/elee1766/deskpilot/src/toolgateway"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Default adapter name when the config leaves it unset.
const Name = "jira"

// Priorities accepted by the adapter's schema.
var priorityLevels = []string{"highest", "high", "medium", "low", "lowest"}

// jiraPriorityNames maps schema enum values to Jira priority names.
var jiraPriorityNames = map[string]string{
	"highest": "Highest",
	"high":    "High",
	"medium":  "Medium",
	"low":     "Low",
	"lowest":  "Lowest",
}

// Config holds the adapter's connection settings.
type Config struct {
	// Name distinguishes this instance in the health registry when several
	// trackers of the same type are configured. Defaults to "jira".
	Name       string
	BaseURL    string
	ProjectKey string
	IssueType  string
	// Token is sent as a bearer token when set.
	Token          string
	Priority       int
	ConnectTimeout time.Duration
	CallTimeout    time.Duration
	Logger         *slog.Logger
}

// Adapter creates Jira issues. Implements toolgateway.BackendAdapter.
type Adapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

var _ toolgateway.BackendAdapter = (*Adapter)(nil)

// New creates a Jira adapter.
func New(cfg Config) *Adapter {
	if cfg.Name == "" {
		cfg.Name = Name
	}
	if cfg.IssueType == "" {
		cfg.IssueType = "Task"
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

// Name implements toolgateway.BackendAdapter.
func (a *Adapter) Name() string { return a.cfg.Name }

// Capability implements toolgateway.BackendAdapter.
func (a *Adapter) Capability() capability.Capability { return capability.TicketCreation }

// Priority implements toolgateway.BackendAdapter.
func (a *Adapter) Priority() int { return a.cfg.Priority }

// ConnectTimeout implements toolgateway.BackendAdapter.
func (a *Adapter) ConnectTimeout() time.Duration { return a.cfg.ConnectTimeout }

// CallTimeout implements toolgateway.BackendAdapter.
func (a *Adapter) CallTimeout() time.Duration { return a.cfg.CallTimeout }

// ResponseFormat implements toolgateway.BackendAdapter. Jira signals success
// by returning the issue key.
func (a *Adapter) ResponseFormat() toolgateway.ResponseFormat { return toolgateway.FormatJira }

// Initialize verifies the server is reachable.
func (a *Adapter) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/rest/api/2/serverInfo", nil)
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

	if resp.StatusCode >= 500 {
		return fmt.Errorf("jira server error: status %d", resp.StatusCode)
	}
	return nil
}

// ParameterSchema declares the fields the adapter accepts.
func (a *Adapter) ParameterSchema() *jsonschema.Schema {
	return schema.Object(map[string]*jsonschema.Schema{
		"summary":     schema.String("One-line issue summary"),
		"description": schema.String("Detailed issue description"),
		"priority":    schema.StringEnum("Issue priority", priorityLevels...),
		"component":   schema.String("Component the issue belongs to"),
	}, []string{"summary"})
}

// Aliases maps schema fields to domain-argument names.
func (a *Adapter) Aliases() map[string][]string {
	return map[string][]string{
		"summary":     {"title"},
		"description": {"details", "body"},
		"priority":    {"urgency", "severity"},
		"component":   {"area"},
	}
}

// Call creates the issue and returns Jira's raw response.
func (a *Adapter) Call(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	fields := map[string]interface{}{
		"project":   map[string]string{"key": a.cfg.ProjectKey},
		"issuetype": map[string]string{"name": a.cfg.IssueType},
		"summary":   args["summary"],
	}
	if v, ok := args["description"].(string); ok && v != "" {
		fields["description"] = v
	}
	if v, ok := args["priority"].(string); ok && v != "" {
		fields["priority"] = map[string]string{"name": jiraPriorityNames[strings.ToLower(v)]}
	}
	if v, ok := args["component"].(string); ok && v != "" {
		fields["components"] = []map[string]string{{"name": v}}
	}

	body, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/rest/api/2/issue", bytes.NewReader(body))
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
		return nil, fmt.Errorf("jira server error: status %d", resp.StatusCode)
	}

	// 4xx bodies flow through: the normalizer reads Jira's errorMessages.
	return json.RawMessage(data), nil
}

func (a *Adapter) authorize(req *http.Request) {
	if a.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	}
}
