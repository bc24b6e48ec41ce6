package toolgateway

import (
	"sync"
	"time"
)

// HealthStatus is the health registry's view of one adapter.
type HealthStatus int

const (
	// StatusUnknown means the adapter has never been observed failing.
	StatusUnknown HealthStatus = iota
	// StatusHealthy means the adapter succeeded at least once.
	StatusHealthy
	// StatusUnhealthy means the adapter timed out or errored and is
	// excluded from gateway walks.
	StatusUnhealthy
)

// String implements fmt.Stringer.
func (s HealthStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

type healthEntry struct {
	status         HealthStatus
	unhealthySince time.Time
}

// HealthRegistry is process-wide shared mutable state: any turn's failure
// writes it, every turn reads it. Updates are atomic per adapter. It is
// injected into the gateway, not owned by it, so tests can reset it between
// runs.
type HealthRegistry struct {
	mu sync.Mutex
	// cooldown re-admits an unhealthy adapter after the window elapses.
	// Zero keeps it unhealthy for the process lifetime.
	cooldown time.Duration
	entries  map[string]healthEntry
}

// NewHealthRegistry creates a registry with the given cooldown policy.
func NewHealthRegistry(cooldown time.Duration) *HealthRegistry {
	return &HealthRegistry{
		cooldown: cooldown,
		entries:  make(map[string]healthEntry),
	}
}

// IsHealthy reports whether an adapter may be attempted. Unknown adapters are
// eligible; unhealthy adapters become eligible again once the cooldown
// window (if any) has elapsed.
func (r *HealthRegistry) IsHealthy(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.status != StatusUnhealthy {
		return true
	}
	if r.cooldown > 0 && time.Since(e.unhealthySince) >= r.cooldown {
		// Re-admit: back to unknown until the next observation.
		r.entries[name] = healthEntry{status: StatusUnknown}
		return true
	}
	return false
}

// MarkHealthy records a successful call.
func (r *HealthRegistry) MarkHealthy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = healthEntry{status: StatusHealthy}
}

// MarkUnhealthy records a connect/call failure. The first transition wins so
// unhealthySince keeps the earliest observation.
func (r *HealthRegistry) MarkUnhealthy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[name]; ok && e.status == StatusUnhealthy {
		return
	}
	r.entries[name] = healthEntry{status: StatusUnhealthy, unhealthySince: time.Now()}
}

// Status returns the recorded status for an adapter.
func (r *HealthRegistry) Status(name string) HealthStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[name].status
}

// Snapshot returns a copy of all recorded statuses.
func (r *HealthRegistry) Snapshot() map[string]HealthStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]HealthStatus, len(r.entries))
	for name, e := range r.entries {
		out[name] = e.status
	}
	return out
}

// Reset clears all entries. Intended for tests.
func (r *HealthRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]healthEntry)
}
