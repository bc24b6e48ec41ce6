// Package workflow composes the classifier, model router, tool gateway and
// retrieval providers into the per-turn state machine:
//
//	classifying -> {replying | retrieving | creating -> evaluating ->
//	[publishing] | delegating} -> done
//
// The orchestrator is stateless and reentrant; all mutable per-turn state
// lives in the TurnState value, so distinct sessions run concurrently.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elee1766/deskpilot/src/aisdk"
	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/classifier"
	"github.com/elee1766/deskpilot/src/modelrouter"
	"github.com/elee1766/deskpilot/src/retrieval"
	"github.com/elee1766/deskpilot/src/toolgateway"
)

const defaultSystemPrompt = `You are a concise helpdesk assistant. Answer
directly; when document context is provided, ground your answer in it.`

// Orchestrator drives one conversation turn end to end.
type Orchestrator struct {
	classifier   *classifier.Classifier
	router       *modelrouter.Router
	gateway      *toolgateway.Gateway
	retriever    retrieval.Provider
	systemPrompt string
	topN         int
	// publishTarget enables the publishing stage when non-empty.
	publishTarget capability.Capability
	logger        *slog.Logger
}

// Config holds configuration for creating an Orchestrator.
type Config struct {
	Classifier *classifier.Classifier
	Router     *modelrouter.Router
	Gateway    *toolgateway.Gateway
	// Retriever may be nil; the retrieving stage then degrades to a plain
	// model reply.
	Retriever    retrieval.Provider
	SystemPrompt string
	// TopN bounds how many retrieved snippets feed the model. Defaults to 3.
	TopN int
	// PublishTarget, when non-empty, is the capability invoked by the
	// publishing stage after a successful creation.
	PublishTarget capability.Capability
	Logger        *slog.Logger
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if cfg.Router == nil {
		return nil, fmt.Errorf("model router is required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("tool gateway is required")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Orchestrator{
		classifier:    cfg.Classifier,
		router:        cfg.Router,
		gateway:       cfg.Gateway,
		retriever:     cfg.Retriever,
		systemPrompt:  cfg.SystemPrompt,
		topN:          cfg.TopN,
		publishTarget: cfg.PublishTarget,
		logger:        cfg.Logger.With("component", "orchestrator"),
	}, nil
}

// HandleTurn processes one utterance against prior history. It never returns
// an error or panics: every failure degrades to an explanatory reply and the
// turn completes.
func (o *Orchestrator) HandleTurn(ctx context.Context, history []*aisdk.Message, input string) (reply *TurnReply) {
	st := NewTurnState(history, input)
	logger := o.logger.With("turn_id", st.TurnID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("turn handler panicked", "panic", r)
			st.Reply = "Something went wrong while handling that request. Please try again."
			st.Stage = StageDone
			reply = o.finishTurn(st)
		}
	}()

	for st.Stage != StageDone {
		before := st.Stage
		switch st.Stage {
		case StageClassifying:
			o.handleClassifying(ctx, st)
		case StageReplying:
			o.handleReplying(ctx, st)
		case StageRetrieving:
			o.handleRetrieving(ctx, st)
		case StageCreating:
			o.handleCreating(ctx, st)
		case StageEvaluating:
			o.handleEvaluating(ctx, st)
		case StagePublishing:
			o.handlePublishing(ctx, st)
		case StageDelegating:
			o.handleDelegating(ctx, st)
		default:
			st.Stage = StageDone
		}
		logger.Debug("stage transition", "from", before.String(), "to", st.Stage.String())
	}

	return o.finishTurn(st)
}

// finishTurn appends the assistant reply to the history and packages the
// result.
func (o *Orchestrator) finishTurn(st *TurnState) *TurnReply {
	if st.Reply == "" {
		st.Reply = "I wasn't able to produce a response for that request."
	}

	history := append(st.Messages, &aisdk.Message{
		Role:      "assistant",
		Content:   st.Reply,
		CreatedAt: time.Now(),
	})
	return &TurnReply{Text: st.Reply, History: history, State: st}
}

// handleClassifying resolves the capability and routes to its path.
func (o *Orchestrator) handleClassifying(ctx context.Context, st *TurnState) {
	st.Capability = o.classifier.Classify(ctx, st.Input)

	switch st.Capability {
	case capability.TicketCreation:
		st.Stage = StageCreating
	case capability.KnowledgeQuery:
		st.Stage = StageRetrieving
	case capability.ExternalAgent:
		st.Stage = StageDelegating
	default:
		st.Stage = StageReplying
	}
}

// handleReplying answers directly from the model.
func (o *Orchestrator) handleReplying(ctx context.Context, st *TurnState) {
	st.Reply = o.modelReply(ctx, st.Messages, "")
	st.Stage = StageDone
}

// handleRetrieving gathers context, then answers grounded in it. A failed or
// empty retrieval degrades to a plain model reply.
func (o *Orchestrator) handleRetrieving(ctx context.Context, st *TurnState) {
	if o.retriever != nil {
		snippets, err := o.retriever.Search(ctx, st.Input, o.topN)
		if err != nil {
			o.logger.Warn("context retrieval failed", "error", err)
		} else {
			st.Context = snippets
		}
	}

	var contextBlock string
	if len(st.Context) > 0 {
		var b strings.Builder
		b.WriteString("Relevant documentation:\n")
		for _, s := range st.Context {
			fmt.Fprintf(&b, "--- %s ---\n%s\n", s.Source, s.Text)
		}
		contextBlock = b.String()
	}

	st.Reply = o.modelReply(ctx, st.Messages, contextBlock)
	if st.Reply == modelUnavailableReply && len(st.Context) > 0 {
		// The model is down but retrieval worked; surface the best snippet
		// rather than nothing.
		st.Reply = fmt.Sprintf("I couldn't reach the language model, but this may help:\n\n%s", st.Context[0].Text)
	}
	st.Stage = StageDone
}

// handleCreating runs the ticket-creation tool chain. The result slot is
// written even on failure; creating always flows to evaluating.
func (o *Orchestrator) handleCreating(ctx context.Context, st *TurnState) {
	args := ExtractTicketArgs(st.Input)

	result, err := o.gateway.Invoke(ctx, capability.TicketCreation, args)
	if err != nil {
		o.logger.Warn("ticket creation failed", "error", err)
	}
	st.Creation = &result
	st.Stage = StageEvaluating
}

// handleEvaluating scores the creation outcome. It tolerates a failed prior
// stage by recording a degraded evaluation, and gates publishing on both a
// configured target and creation success.
func (o *Orchestrator) handleEvaluating(ctx context.Context, st *TurnState) {
	st.Evaluation = o.evaluateCreation(ctx, st)

	if o.publishTarget != "" && st.Creation != nil && st.Creation.Success {
		st.Stage = StagePublishing
		return
	}
	st.Reply = o.composeTicketReply(st)
	st.Stage = StageDone
}

// handlePublishing announces the created ticket through the publish chain.
// Publish failure downgrades to a note, never fails the turn.
func (o *Orchestrator) handlePublishing(ctx context.Context, st *TurnState) {
	args := map[string]interface{}{
		"ticket_id": st.Creation.ID,
		"link":      st.Creation.Link,
		"message":   fmt.Sprintf("Ticket %s created via deskpilot", st.Creation.ID),
	}

	result, err := o.gateway.Invoke(ctx, o.publishTarget, args)
	if err != nil {
		o.logger.Warn("publish failed", "error", err)
	}
	st.Publication = &result

	st.Reply = o.composeTicketReply(st)
	st.Stage = StageDone
}

// handleDelegating hands the turn to an external agent backend.
func (o *Orchestrator) handleDelegating(ctx context.Context, st *TurnState) {
	result, err := o.gateway.Invoke(ctx, capability.ExternalAgent, map[string]interface{}{
		"query": st.Input,
	})
	if err != nil {
		o.logger.Warn("delegation failed", "error", err)
		st.Delegation = &result
		st.Reply = fmt.Sprintf("I couldn't hand this off to an external agent: %s", result.ErrorDetail)
		st.Stage = StageDone
		return
	}
	st.Delegation = &result

	if text := agentReplyText(result); text != "" {
		st.Reply = text
	} else if result.ID != "" {
		st.Reply = fmt.Sprintf("Your request was handed off to an external agent (reference %s).", result.ID)
	} else {
		st.Reply = "Your request was handed off to an external agent."
	}
	st.Stage = StageDone
}

const modelUnavailableReply = "I'm sorry, the language model is currently unavailable. Please try again shortly."

// modelReply invokes the router with the system prompt, optional context
// block and history, degrading to an apology when every provider fails.
func (o *Orchestrator) modelReply(ctx context.Context, history []*aisdk.Message, contextBlock string) string {
	messages := make([]*aisdk.Message, 0, len(history)+2)
	messages = append(messages, &aisdk.Message{Role: "system", Content: o.systemPrompt})
	if contextBlock != "" {
		messages = append(messages, &aisdk.Message{Role: "system", Content: contextBlock})
	}
	messages = append(messages, history...)

	result, err := o.router.Invoke(ctx, messages, "")
	if err != nil {
		o.logger.Warn("model reply failed", "error", err)
		return modelUnavailableReply
	}
	return strings.TrimSpace(result.Text)
}
