package classifier

import (
	"strings"

	"github.com/elee1766/deskpilot/src/capability"
)

// Rule pairs a predicate with the capability it detects. Rules are evaluated
// in slice order and the first match wins, so overlapping keywords resolve
// deterministically.
type Rule struct {
	Label capability.Capability
	Match func(text string) bool
}

// KeywordRule builds a rule that matches when any keyword appears in the
// lowercased input.
func KeywordRule(label capability.Capability, keywords ...string) Rule {
	return Rule{
		Label: label,
		Match: func(text string) bool {
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					return true
				}
			}
			return false
		},
	}
}

// DefaultRules returns the built-in rule order:
// ticket_creation > knowledge_query > external_agent.
func DefaultRules() []Rule {
	return []Rule{
		KeywordRule(capability.TicketCreation,
			"create a ticket", "open a ticket", "file a ticket",
			"create ticket", "open ticket", "file a bug",
			"report a bug", "raise an issue", "create an issue",
		),
		KeywordRule(capability.KnowledgeQuery,
			"how do i", "how to", "what is", "where is",
			"documentation", "docs", "explain", "look up", "search for",
		),
		KeywordRule(capability.ExternalAgent,
			"ask the agent", "escalate", "hand off", "handoff",
			"talk to a human", "transfer me",
		),
	}
}
