package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/elee1766/deskpilot/src/aisdk"
	"github.com/elee1766/deskpilot/src/toolgateway"
)

const evaluateSystemPrompt = `You review helpdesk tickets. Given a ticket,
rate its completeness from 1 to 5 and give a one-sentence remark.
Respond exactly as: score: N - remark`

var scorePattern = regexp.MustCompile(`(?i)score:\s*([1-5])`)

// evaluateCreation scores the creating stage's outcome via the model router.
// A failed creation or an unavailable model yields a degraded evaluation,
// never an error: the turn must still complete.
func (o *Orchestrator) evaluateCreation(ctx context.Context, st *TurnState) *EvalResult {
	if st.Creation == nil || !st.Creation.Success {
		return &EvalResult{
			Degraded:   true,
			Commentary: "ticket creation did not succeed, nothing to evaluate",
		}
	}

	prompt := fmt.Sprintf("Ticket %s\nRequest: %s", st.Creation.ID, st.Input)
	result, err := o.router.Invoke(ctx, []*aisdk.Message{
		{Role: "system", Content: evaluateSystemPrompt},
		{Role: "user", Content: prompt},
	}, "")
	if err != nil {
		o.logger.Warn("evaluation model call failed", "error", err)
		return &EvalResult{
			Degraded:   true,
			Commentary: "quality check unavailable",
		}
	}

	eval := &EvalResult{Commentary: strings.TrimSpace(result.Text)}
	if m := scorePattern.FindStringSubmatch(result.Text); m != nil {
		eval.Score, _ = strconv.Atoi(m[1])
	}
	return eval
}

// composeTicketReply renders the ticket workflow outcome for the user. The
// exhaustion case surfaces the aggregated per-adapter detail verbatim; it
// must be actionable, never swallowed.
func (o *Orchestrator) composeTicketReply(st *TurnState) string {
	if st.Creation == nil || !st.Creation.Success {
		detail := "no ticket backends are configured"
		if st.Creation != nil && st.Creation.ErrorDetail != "" {
			detail = st.Creation.ErrorDetail
		}
		return fmt.Sprintf("I couldn't create the ticket: %s", detail)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created ticket %s", st.Creation.ID)
	if st.Creation.Link != "" {
		fmt.Fprintf(&b, " (%s)", st.Creation.Link)
	}
	b.WriteString(".")

	if st.Evaluation != nil && !st.Evaluation.Degraded && st.Evaluation.Score > 0 {
		fmt.Fprintf(&b, " Quality check: %d/5.", st.Evaluation.Score)
	}

	if st.Publication != nil {
		if st.Publication.Success {
			b.WriteString(" The ticket was announced to the publish target.")
		} else {
			b.WriteString(" Announcing the ticket failed; it was still created.")
		}
	}

	return b.String()
}

var agentReplyKeys = []string{"reply", "answer", "text", "message"}

// agentReplyText pulls a user-facing reply out of an agent backend's raw
// response, when it carries one.
func agentReplyText(result toolgateway.ToolResult) string {
	if len(result.Raw) == 0 {
		return ""
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(result.Raw, &m); err != nil {
		return ""
	}
	for _, k := range agentReplyKeys {
		if v, ok := m[k]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err == nil && s != "" {
				return s
			}
		}
	}
	return ""
}
