package toolgateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/elee1766/deskpilot/src/capability"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// BackendAdapter is one concrete backend implementation of a tool capability.
// Adapters are constructed at startup; the gateway connects them lazily under
// their connect timeout and calls them under their call timeout.
type BackendAdapter interface {
	// Name uniquely identifies the adapter in the health registry.
	Name() string

	// Capability names the tool capability this adapter serves.
	Capability() capability.Capability

	// Priority ranks the adapter within its capability; lower runs first.
	Priority() int

	// Initialize connects to the backend. Called lazily before the first
	// call; must be safe to call again after a previous failure.
	Initialize(ctx context.Context) error

	// ParameterSchema declares the adapter's argument schema: field types,
	// enum constraints and required fields.
	ParameterSchema() *jsonschema.Schema

	// Aliases maps a schema field name to accepted domain-argument aliases.
	Aliases() map[string][]string

	// ResponseFormat names the wire shape Call returns, for normalization.
	ResponseFormat() ResponseFormat

	// Call invokes the backend with schema-conformant arguments and returns
	// the raw native response.
	Call(ctx context.Context, args map[string]interface{}) (json.RawMessage, error)

	// ConnectTimeout bounds Initialize.
	ConnectTimeout() time.Duration

	// CallTimeout bounds Call.
	CallTimeout() time.Duration
}
