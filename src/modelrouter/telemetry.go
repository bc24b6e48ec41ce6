package modelrouter

import (
	"sync/atomic"
	"time"
)

// Telemetry accumulates process-wide model call counters. Counters are only
// reset by restart (Reset exists for tests).
type Telemetry struct {
	calls            atomic.Int64
	errors           atomic.Int64
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
	latencyNanos     atomic.Int64

	// costPer1K is the configured cost per 1000 tokens, in USD. Stored as
	// micro-dollars to keep the struct lock-free.
	costPer1KMicro atomic.Int64
}

// TelemetrySnapshot is a point-in-time copy of the counters.
type TelemetrySnapshot struct {
	Calls            int64
	Errors           int64
	PromptTokens     int64
	CompletionTokens int64
	TotalLatency     time.Duration
	EstimatedCostUSD float64
}

// NewTelemetry creates telemetry with the given per-1000-token cost in USD.
func NewTelemetry(costPer1K float64) *Telemetry {
	t := &Telemetry{}
	t.SetCostPer1K(costPer1K)
	return t
}

// SetCostPer1K updates the per-1000-token rate used for cost estimates.
func (t *Telemetry) SetCostPer1K(usd float64) {
	t.costPer1KMicro.Store(int64(usd * 1e6))
}

func (t *Telemetry) recordCall(promptTokens, completionTokens int, latency time.Duration) {
	t.calls.Add(1)
	t.promptTokens.Add(int64(promptTokens))
	t.completionTokens.Add(int64(completionTokens))
	t.latencyNanos.Add(int64(latency))
}

func (t *Telemetry) recordError() {
	t.errors.Add(1)
}

// Snapshot returns a point-in-time copy of all counters plus the estimated
// cumulative cost.
func (t *Telemetry) Snapshot() TelemetrySnapshot {
	prompt := t.promptTokens.Load()
	completion := t.completionTokens.Load()
	rate := float64(t.costPer1KMicro.Load()) / 1e6

	return TelemetrySnapshot{
		Calls:            t.calls.Load(),
		Errors:           t.errors.Load(),
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalLatency:     time.Duration(t.latencyNanos.Load()),
		EstimatedCostUSD: float64(prompt+completion) / 1000 * rate,
	}
}

// Reset zeroes all counters. Intended for tests; production counters live
// for the process lifetime.
func (t *Telemetry) Reset() {
	t.calls.Store(0)
	t.errors.Store(0)
	t.promptTokens.Store(0)
	t.completionTokens.Store(0)
	t.latencyNanos.Store(0)
}
