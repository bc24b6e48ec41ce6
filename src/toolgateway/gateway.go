// Package toolgateway routes tool capability invocations across a
// priority-ordered, health-tracked chain of interchangeable backend adapters.
// Each adapter's connect and call run on dedicated workers under the
// adapter's own deadlines; the first success wins.
package toolgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/elee1766/deskpilot/src/capability"
)

// Gateway walks the adapter chain for a capability. It is safe for
// concurrent use: per-turn state stays with the caller, and the shared
// health registry is injected.
type Gateway struct {
	adapters map[capability.Capability][]BackendAdapter
	health   *HealthRegistry
	logger   *slog.Logger

	mu          sync.Mutex
	initialized map[string]bool
}

// GatewayConfig holds configuration for creating a Gateway.
type GatewayConfig struct {
	Adapters []BackendAdapter
	// Health is the injected process-wide adapter health registry.
	Health *HealthRegistry
	Logger *slog.Logger
}

// NewGateway creates a gateway over the configured adapters, ordered by
// priority within each capability.
func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Health == nil {
		cfg.Health = NewHealthRegistry(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	byCapability := make(map[capability.Capability][]BackendAdapter)
	for _, a := range cfg.Adapters {
		byCapability[a.Capability()] = append(byCapability[a.Capability()], a)
	}
	for _, chain := range byCapability {
		sort.SliceStable(chain, func(i, j int) bool {
			return chain[i].Priority() < chain[j].Priority()
		})
	}

	return &Gateway{
		adapters:    byCapability,
		health:      cfg.Health,
		logger:      cfg.Logger.With("component", "tool_gateway"),
		initialized: make(map[string]bool),
	}
}

// Health returns the injected health registry.
func (g *Gateway) Health() *HealthRegistry {
	return g.health
}

// Adapters returns the priority-ordered chain for a capability.
func (g *Gateway) Adapters(cap capability.Capability) []BackendAdapter {
	return g.adapters[cap]
}

// Invoke walks the capability's adapter chain in priority order: unhealthy
// adapters are skipped, connect/call failures mark the adapter unhealthy and
// fall through to the next, and the first successful response is normalized
// and returned. Exhaustion returns a failed ToolResult whose detail names
// every attempted adapter, alongside an *ExhaustedError.
func (g *Gateway) Invoke(ctx context.Context, cap capability.Capability, domainArgs map[string]interface{}) (ToolResult, error) {
	chain := g.adapters[cap]
	if len(chain) == 0 {
		err := fmt.Errorf("%w for capability %q", ErrNoAdapters, cap)
		return ToolResult{ErrorDetail: err.Error()}, err
	}

	attempts := []AdapterAttempt{}

	for _, adapter := range chain {
		name := adapter.Name()
		logger := g.logger.With("adapter", name, "capability", cap.String())

		if !g.health.IsHealthy(name) {
			attempts = append(attempts, AdapterAttempt{Adapter: name, Err: ErrAdapterUnhealthy})
			logger.Debug("skipping unhealthy adapter")
			continue
		}

		if err := g.ensureInitialized(ctx, adapter); err != nil {
			g.health.MarkUnhealthy(name)
			attempts = append(attempts, AdapterAttempt{Adapter: name, Err: err})
			logger.Warn("adapter connect failed", "error", err)
			continue
		}

		args, err := g.buildArguments(adapter, domainArgs)
		if err != nil {
			// A schema violation fails only this adapter. The backend is
			// not at fault, so its health is untouched.
			attempts = append(attempts, AdapterAttempt{Adapter: name, Err: err})
			logger.Warn("argument build failed", "error", err)
			continue
		}

		raw, err := runBounded(ctx, adapter.CallTimeout(), func(callCtx context.Context) (json.RawMessage, error) {
			return adapter.Call(callCtx, args)
		})
		if err != nil {
			g.health.MarkUnhealthy(name)
			attempts = append(attempts, AdapterAttempt{Adapter: name, Err: err})
			logger.Warn("adapter call failed", "error", err)
			continue
		}

		result := NormalizeResponse(raw, adapter.ResponseFormat())
		if !result.Success {
			// The backend answered but rejected the request; it stays
			// eligible for other invocations.
			attempts = append(attempts, AdapterAttempt{Adapter: name, Err: errors.New(result.ErrorDetail)})
			logger.Warn("adapter rejected request", "detail", result.ErrorDetail)
			continue
		}

		g.health.MarkHealthy(name)
		result.Adapter = name
		logger.Info("adapter call succeeded", "id", result.ID)
		return result, nil
	}

	exhausted := &ExhaustedError{Capability: cap, Attempts: attempts}
	return ToolResult{ErrorDetail: exhausted.Error()}, exhausted
}

// ensureInitialized connects the adapter once, under its connect timeout.
// A failed connect may be retried on a later invocation if the health
// registry re-admits the adapter.
func (g *Gateway) ensureInitialized(ctx context.Context, adapter BackendAdapter) error {
	name := adapter.Name()

	g.mu.Lock()
	done := g.initialized[name]
	g.mu.Unlock()
	if done {
		return nil
	}

	_, err := runBounded(ctx, adapter.ConnectTimeout(), func(connectCtx context.Context) (struct{}, error) {
		return struct{}{}, adapter.Initialize(connectCtx)
	})
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}

	g.mu.Lock()
	g.initialized[name] = true
	g.mu.Unlock()
	return nil
}

func (g *Gateway) buildArguments(adapter BackendAdapter, domainArgs map[string]interface{}) (map[string]interface{}, error) {
	fields, err := FieldsFromSchema(adapter.ParameterSchema(), adapter.Aliases())
	if err != nil {
		return nil, fmt.Errorf("invalid adapter schema: %w", err)
	}
	return BuildArguments(adapter.Name(), domainArgs, fields)
}

const defaultOpTimeout = 10 * time.Second

// runBounded dispatches fn to a worker goroutine and awaits it under the
// deadline. On expiry the worker is abandoned rather than killed; its late
// result lands in the buffered channel and is discarded.
func runBounded[T any](ctx context.Context, deadline time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if deadline <= 0 {
		deadline = defaultOpTimeout
	}

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deadline)

	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer cancel()
		v, err := fn(opCtx)
		ch <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case out := <-ch:
		return out.value, out.err
	case <-timer.C:
		return zero, fmt.Errorf("deadline %v exceeded", deadline)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
