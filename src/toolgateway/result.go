package toolgateway

import "encoding/json"

// ToolResult is the canonical outcome of a tool capability invocation,
// produced uniformly regardless of which backend adapter served it.
type ToolResult struct {
	Success bool `json:"success"`
	// ID is the backend identifier for the created entity, e.g. an issue key.
	ID string `json:"id,omitempty"`
	// Link is a browsable URL for the entity, when the backend supplies one.
	Link string `json:"link,omitempty"`
	// Raw preserves the backend's native response payload.
	Raw json.RawMessage `json:"raw,omitempty"`
	// ErrorDetail is a human-readable failure description. On total
	// exhaustion it names every attempted adapter.
	ErrorDetail string `json:"error_detail,omitempty"`
	// Adapter names the backend that produced this result.
	Adapter string `json:"adapter,omitempty"`
}
