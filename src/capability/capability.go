// Package capability defines the closed set of user-intent categories the
// orchestrator can act on.
package capability

import "fmt"

// Capability is a user-intent category. The set is closed; a TurnState holds
// exactly one capability once classified.
type Capability string

const (
	// Reply is the fallback capability: answer directly from the model.
	Reply Capability = "reply"
	// TicketCreation drives the create/evaluate/publish ticket workflow.
	TicketCreation Capability = "ticket_creation"
	// KnowledgeQuery answers with retrieved document context.
	KnowledgeQuery Capability = "knowledge_query"
	// ExternalAgent delegates the turn to an external agent backend.
	ExternalAgent Capability = "external_agent"
	// Publish is an internal chained-stage capability used by the ticket
	// workflow to announce a created ticket. It is never produced by
	// classification.
	Publish Capability = "publish"
)

// All lists the capabilities a classifier may produce, in priority order.
var All = []Capability{TicketCreation, KnowledgeQuery, ExternalAgent, Reply}

// Parse validates a capability name from configuration.
func Parse(s string) (Capability, error) {
	switch Capability(s) {
	case Reply, TicketCreation, KnowledgeQuery, ExternalAgent, Publish:
		return Capability(s), nil
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// String implements fmt.Stringer.
func (c Capability) String() string { return string(c) }
