package workflow

import (
	"time"

	"github.com/elee1766/deskpilot/src/aisdk"
	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/retrieval"
	"github.com/elee1766/deskpilot/src/toolgateway"
	"github.com/google/uuid"
)

// Stage represents the orchestrator's position within one turn.
type Stage int

const (
	// StageClassifying is the entry point: detect the capability.
	StageClassifying Stage = iota
	// StageReplying answers directly from the model.
	StageReplying
	// StageRetrieving gathers document context before answering.
	StageRetrieving
	// StageCreating invokes the ticket-creation tool chain.
	StageCreating
	// StageEvaluating scores the creation outcome. Always follows creating.
	StageEvaluating
	// StagePublishing announces the created ticket. Runs only when a publish
	// target is configured and creation succeeded.
	StagePublishing
	// StageDelegating hands the turn to an external agent backend.
	StageDelegating
	// StageDone is terminal.
	StageDone
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageClassifying:
		return "classifying"
	case StageReplying:
		return "replying"
	case StageRetrieving:
		return "retrieving"
	case StageCreating:
		return "creating"
	case StageEvaluating:
		return "evaluating"
	case StagePublishing:
		return "publishing"
	case StageDelegating:
		return "delegating"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// EvalResult is the evaluating stage's slot: a model-backed quality score
// for the created ticket.
type EvalResult struct {
	Score      int
	Commentary string
	// Degraded marks an evaluation that could not run (model unavailable or
	// nothing to evaluate).
	Degraded bool
}

// TurnState is the unit of work for one utterance. It is built fresh per
// turn, mutated in place by each stage handler, and discarded (or persisted
// by the caller) at the terminal stage. Exactly one capability is active per
// turn; result slots populate strictly in workflow order and are never
// retroactively cleared.
type TurnState struct {
	TurnID string
	// Messages is the ordered role-tagged history including the new input.
	Messages []*aisdk.Message
	// Input is the raw user text for this turn.
	Input string
	// Capability is empty until the classifying stage resolves it.
	Capability capability.Capability
	// Stage is the next-step marker.
	Stage Stage

	// Per-stage result slots. Each handler writes only its own.
	Creation    *toolgateway.ToolResult
	Evaluation  *EvalResult
	Publication *toolgateway.ToolResult
	Context     []retrieval.Snippet
	Delegation  *toolgateway.ToolResult

	// Reply is the final user-facing text.
	Reply string
}

// NewTurnState builds the per-turn state from prior history and new input.
// The history slice is copied so concurrent turns never share backing arrays.
func NewTurnState(history []*aisdk.Message, input string) *TurnState {
	messages := make([]*aisdk.Message, len(history), len(history)+2)
	copy(messages, history)
	messages = append(messages, &aisdk.Message{
		Role:      "user",
		Content:   input,
		CreatedAt: time.Now(),
	})

	return &TurnState{
		TurnID:   uuid.New().String(),
		Messages: messages,
		Input:    input,
		Stage:    StageClassifying,
	}
}

// TurnReply is the outcome handed back to the caller.
type TurnReply struct {
	Text string
	// History is the updated ordered history including the assistant reply.
	History []*aisdk.Message
	// State exposes the finished turn for callers that persist or inspect it.
	State *TurnState
}
