package toolgateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/elee1766/deskpilot/src/capability"
)

// Common error variables
var (
	// ErrSchemaViolation indicates an argument failed an adapter's declared schema
	ErrSchemaViolation = errors.New("schema violation")

	// ErrAdapterUnhealthy indicates an adapter is excluded by the health registry
	ErrAdapterUnhealthy = errors.New("adapter unhealthy")

	// ErrAllAdaptersExhausted indicates every adapter for a capability failed
	ErrAllAdaptersExhausted = errors.New("all adapters exhausted")

	// ErrNoAdapters indicates no adapter is configured for a capability
	ErrNoAdapters = errors.New("no adapters configured")
)

// SchemaViolationError reports a domain argument that cannot satisfy one
// adapter's schema. It fails only that adapter, never the whole gateway.
type SchemaViolationError struct {
	Adapter string
	Field   string
	Reason  string
}

// Error implements the error interface.
func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation on field %q: %s", e.Field, e.Reason)
}

// Is implements error matching.
func (e *SchemaViolationError) Is(target error) bool {
	return target == ErrSchemaViolation
}

// AdapterAttempt records one adapter's failure during a gateway walk.
type AdapterAttempt struct {
	Adapter string
	Err     error
}

// ExhaustedError aggregates every adapter failure for one invocation.
type ExhaustedError struct {
	Capability capability.Capability
	Attempts   []AdapterAttempt
}

// Error implements the error interface. The message names the capability and
// every attempted adapter so it can surface to the user as-is.
func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all backends for capability %q failed", e.Capability)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Adapter, a.Err)
	}
	return b.String()
}

// Is implements error matching.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllAdaptersExhausted
}
