package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/elee1766/deskpilot/src/aisdk"
	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/classifier"
	"github.com/elee1766/deskpilot/src/modelrouter"
	"github.com/elee1766/deskpilot/src/retrieval"
	"github.com/elee1766/deskpilot/src/schema"
	"github.com/elee1766/deskpilot/src/toolgateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// fakeModel answers every chat completion with a fixed text.
type fakeModel struct {
	text string
	err  error
}

func (f *fakeModel) ModelName() string { return "fake" }

func (f *fakeModel) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &aisdk.ChatCompletionResponse{
		Choices: []aisdk.Choice{{Message: aisdk.Message{Role: "assistant", Content: f.text}}},
		Usage:   aisdk.Usage{PromptTokens: 1, CompletionTokens: 1},
	}, nil
}

// fakeTool is a scriptable ticket/publish/agent backend.
type fakeTool struct {
	name     string
	cap      capability.Capability
	format   toolgateway.ResponseFormat
	schema   *jsonschema.Schema
	aliases  map[string][]string
	response json.RawMessage
	callErr  error

	gotArgs map[string]interface{}
	calls   int
}

func (f *fakeTool) Name() string                                 { return f.name }
func (f *fakeTool) Capability() capability.Capability            { return f.cap }
func (f *fakeTool) Priority() int                                { return 0 }
func (f *fakeTool) Initialize(ctx context.Context) error         { return nil }
func (f *fakeTool) ResponseFormat() toolgateway.ResponseFormat   { return f.format }
func (f *fakeTool) ConnectTimeout() time.Duration                { return 100 * time.Millisecond }
func (f *fakeTool) CallTimeout() time.Duration                   { return 100 * time.Millisecond }
func (f *fakeTool) Aliases() map[string][]string                 { return f.aliases }
func (f *fakeTool) ParameterSchema() *jsonschema.Schema          { return f.schema }

func (f *fakeTool) Call(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	f.calls++
	f.gotArgs = args
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.response, nil
}

func ticketTool(name string, response string) *fakeTool {
	return &fakeTool{
		name:   name,
		cap:    capability.TicketCreation,
		format: toolgateway.FormatJira,
		schema: schema.Object(map[string]*jsonschema.Schema{
			"summary":     schema.String("summary"),
			"description": schema.String("description"),
			"priority":    schema.StringEnum("priority", "highest", "high", "medium", "low", "lowest"),
			"component":   schema.String("component"),
		}, []string{"summary"}),
		response: json.RawMessage(response),
	}
}

func publishTool(response string) *fakeTool {
	return &fakeTool{
		name:   "announcer",
		cap:    capability.Publish,
		format: toolgateway.FormatRest,
		schema: schema.Object(map[string]*jsonschema.Schema{
			"ticket_id": schema.String("ticket id"),
			"link":      schema.String("link"),
			"message":   schema.String("message"),
		}, []string{"ticket_id"}),
		response: json.RawMessage(response),
	}
}

func agentTool(response string) *fakeTool {
	return &fakeTool{
		name:   "bridge",
		cap:    capability.ExternalAgent,
		format: toolgateway.FormatAuto,
		schema: schema.Object(map[string]*jsonschema.Schema{
			"query": schema.String("query"),
		}, []string{"query"}),
		response: json.RawMessage(response),
	}
}

// stubRetriever returns fixed snippets.
type stubRetriever struct {
	snippets []retrieval.Snippet
	err      error
}

func (s *stubRetriever) Search(ctx context.Context, query string, topN int) ([]retrieval.Snippet, error) {
	return s.snippets, s.err
}

func newTestOrchestrator(t *testing.T, model aisdk.ModelClient, cfg Config) *Orchestrator {
	t.Helper()

	router, err := modelrouter.NewRouter(modelrouter.RouterConfig{
		Providers: []modelrouter.ProviderEntry{{Name: "fake", Client: model, Deadline: time.Second}},
	})
	require.NoError(t, err)

	cfg.Classifier = classifier.New(classifier.Config{})
	cfg.Router = router
	if cfg.Gateway == nil {
		cfg.Gateway = toolgateway.NewGateway(toolgateway.GatewayConfig{})
	}

	o, err := New(cfg)
	require.NoError(t, err)
	return o
}

func TestHandleTurnReplyPath(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{text: "You're welcome!"}, Config{})

	reply := o.HandleTurn(context.Background(), nil, "thanks for the help")

	assert.Equal(t, "You're welcome!", reply.Text)
	assert.Equal(t, capability.Reply, reply.State.Capability)
	assert.Equal(t, StageDone, reply.State.Stage)

	// History carries the user turn and the assistant turn, in order.
	require.Len(t, reply.History, 2)
	assert.Equal(t, "user", reply.History[0].Role)
	assert.Equal(t, "assistant", reply.History[1].Role)
}

func TestHandleTurnTicketWorkflow(t *testing.T) {
	tracker := ticketTool("jira", `{"key":"PROJ-42","self":"https://jira.example.com/browse/PROJ-42"}`)
	gateway := toolgateway.NewGateway(toolgateway.GatewayConfig{
		Adapters: []toolgateway.BackendAdapter{tracker},
	})

	o := newTestOrchestrator(t, &fakeModel{text: "score: 4 - clear and actionable"}, Config{Gateway: gateway})

	reply := o.HandleTurn(context.Background(), nil, "Create a ticket for login page crashes on submit, high priority")

	assert.Equal(t, capability.TicketCreation, reply.State.Capability)
	require.NotNil(t, reply.State.Creation)
	assert.True(t, reply.State.Creation.Success)
	assert.Equal(t, "PROJ-42", reply.State.Creation.ID)

	require.NotNil(t, reply.State.Evaluation)
	assert.Equal(t, 4, reply.State.Evaluation.Score)
	assert.False(t, reply.State.Evaluation.Degraded)

	// No publish target configured: the publication slot stays empty.
	assert.Nil(t, reply.State.Publication)

	assert.Contains(t, reply.Text, "PROJ-42")
	assert.Contains(t, reply.Text, "https://jira.example.com/browse/PROJ-42")
	assert.Contains(t, reply.Text, "4/5")

	// Extracted arguments reached the adapter in its own schema.
	assert.Equal(t, "login page crashes on submit", tracker.gotArgs["summary"])
	assert.Equal(t, "high", tracker.gotArgs["priority"])
}

func TestHandleTurnTicketWithPublish(t *testing.T) {
	tracker := ticketTool("jira", `{"key":"PROJ-7","self":"https://jira/PROJ-7"}`)
	announcer := publishTool(`{"success":true,"id":"msg-1"}`)
	gateway := toolgateway.NewGateway(toolgateway.GatewayConfig{
		Adapters: []toolgateway.BackendAdapter{tracker, announcer},
	})

	o := newTestOrchestrator(t, &fakeModel{text: "score: 5 - perfect"}, Config{
		Gateway:       gateway,
		PublishTarget: capability.Publish,
	})

	reply := o.HandleTurn(context.Background(), nil, "create a ticket for stale cache entries")

	require.NotNil(t, reply.State.Publication)
	assert.True(t, reply.State.Publication.Success)
	assert.Equal(t, 1, announcer.calls)
	assert.Equal(t, "PROJ-7", announcer.gotArgs["ticket_id"])
	assert.Contains(t, reply.Text, "announced")
}

func TestHandleTurnPublishSkippedWhenCreationFails(t *testing.T) {
	tracker := ticketTool("jira", `{"errorMessages":["project archived"]}`)
	announcer := publishTool(`{"success":true,"id":"msg-1"}`)
	gateway := toolgateway.NewGateway(toolgateway.GatewayConfig{
		Adapters: []toolgateway.BackendAdapter{tracker, announcer},
	})

	o := newTestOrchestrator(t, &fakeModel{text: "unused"}, Config{
		Gateway:       gateway,
		PublishTarget: capability.Publish,
	})

	reply := o.HandleTurn(context.Background(), nil, "create a ticket for anything")

	require.NotNil(t, reply.State.Creation)
	assert.False(t, reply.State.Creation.Success)
	assert.Equal(t, 0, announcer.calls, "publish must not run after a failed creation")

	require.NotNil(t, reply.State.Evaluation)
	assert.True(t, reply.State.Evaluation.Degraded)

	// The aggregated failure detail surfaces verbatim.
	assert.Contains(t, reply.Text, "I couldn't create the ticket")
	assert.Contains(t, reply.Text, "project archived")
}

func TestHandleTurnTicketWithNoBackends(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{text: "unused"}, Config{})

	reply := o.HandleTurn(context.Background(), nil, "create a ticket for a broken build")

	assert.Equal(t, capability.TicketCreation, reply.State.Capability)
	assert.Contains(t, reply.Text, "I couldn't create the ticket")
	assert.Equal(t, StageDone, reply.State.Stage)
}

func TestHandleTurnKnowledgeQuery(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{text: "Rotate keys under Settings > API."}, Config{
		Retriever: &stubRetriever{snippets: []retrieval.Snippet{
			{Source: "keys.md", Text: "API keys rotate under Settings.", Score: 1},
		}},
	})

	reply := o.HandleTurn(context.Background(), nil, "how do I rotate my API key?")

	assert.Equal(t, capability.KnowledgeQuery, reply.State.Capability)
	require.Len(t, reply.State.Context, 1)
	assert.Equal(t, "Rotate keys under Settings > API.", reply.Text)
}

func TestHandleTurnKnowledgeQuerySurvivesModelOutage(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{err: errors.New("503")}, Config{
		Retriever: &stubRetriever{snippets: []retrieval.Snippet{
			{Source: "keys.md", Text: "API keys rotate under Settings.", Score: 1},
		}},
	})

	reply := o.HandleTurn(context.Background(), nil, "how do I rotate my API key?")

	// The model is down but retrieval worked; the best snippet surfaces.
	assert.Contains(t, reply.Text, "API keys rotate under Settings.")
}

func TestHandleTurnDelegation(t *testing.T) {
	bridge := agentTool(`{"id":"ref-9","reply":"An engineer will join shortly."}`)
	gateway := toolgateway.NewGateway(toolgateway.GatewayConfig{
		Adapters: []toolgateway.BackendAdapter{bridge},
	})

	o := newTestOrchestrator(t, &fakeModel{text: "unused"}, Config{Gateway: gateway})

	reply := o.HandleTurn(context.Background(), nil, "please escalate this outage")

	assert.Equal(t, capability.ExternalAgent, reply.State.Capability)
	assert.Equal(t, "An engineer will join shortly.", reply.Text)
	assert.Equal(t, "please escalate this outage", bridge.gotArgs["query"])
}

func TestHandleTurnDelegationFailure(t *testing.T) {
	bridge := agentTool("")
	bridge.callErr = errors.New("bridge offline")
	gateway := toolgateway.NewGateway(toolgateway.GatewayConfig{
		Adapters: []toolgateway.BackendAdapter{bridge},
	})

	o := newTestOrchestrator(t, &fakeModel{text: "unused"}, Config{Gateway: gateway})

	reply := o.HandleTurn(context.Background(), nil, "hand off to a human please")

	assert.Contains(t, reply.Text, "couldn't hand this off")
	assert.Equal(t, StageDone, reply.State.Stage)
}

func TestHandleTurnModelOutageStillReplies(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{err: errors.New("503")}, Config{})

	reply := o.HandleTurn(context.Background(), nil, "hello there")

	// HandleTurn never errors; the outage degrades to an apology.
	assert.NotEmpty(t, reply.Text)
	assert.Contains(t, reply.Text, "unavailable")
}

func TestHandleTurnPreservesPriorHistory(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{text: "Again: under Settings."}, Config{})

	prior := []*aisdk.Message{
		{Role: "user", Content: "how do keys work?"},
		{Role: "assistant", Content: "They rotate under Settings."},
	}
	reply := o.HandleTurn(context.Background(), prior, "say that again?")

	require.Len(t, reply.History, 4)
	assert.Equal(t, "how do keys work?", reply.History[0].Content)
	assert.Equal(t, "say that again?", reply.History[2].Content)
	assert.Equal(t, "Again: under Settings.", reply.History[3].Content)
}
