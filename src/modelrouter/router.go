// Package modelrouter routes chat completions across configured providers.
// Every invocation runs on its own worker goroutine under a per-provider
// deadline; on failure the router retries exactly once against a secondary
// provider, and exhaustion yields a typed ModelUnavailable result instead of
// a propagated error.
package modelrouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elee1766/deskpilot/src/aisdk"
)

// ErrModelUnavailable is returned when every configured provider has failed
// for one invocation.
var ErrModelUnavailable = errors.New("model unavailable")

// ModelUnavailableError carries the per-provider failures behind
// ErrModelUnavailable.
type ModelUnavailableError struct {
	Attempts []ProviderAttempt
}

// ProviderAttempt records one failed provider call.
type ProviderAttempt struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ModelUnavailableError) Error() string {
	msg := "model unavailable"
	for _, a := range e.Attempts {
		msg += fmt.Sprintf("; %s: %v", a.Provider, a.Err)
	}
	return msg
}

// Is implements error matching.
func (e *ModelUnavailableError) Is(target error) bool {
	return target == ErrModelUnavailable
}

// ModelCallResult is the canonical outcome of one model invocation.
type ModelCallResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
	Provider         string
}

// ProviderEntry binds a provider name to a client and its call deadline.
type ProviderEntry struct {
	Name     string
	Client   aisdk.ModelClient
	Deadline time.Duration
}

// Router selects a provider by name and falls back to a secondary provider
// on failure. The router itself is stateless apart from telemetry; it is safe
// for concurrent use.
type Router struct {
	providers map[string]ProviderEntry
	primary   string
	secondary string
	telemetry *Telemetry
	logger    *slog.Logger
}

// RouterConfig holds configuration for creating a Router.
type RouterConfig struct {
	Providers []ProviderEntry
	// Primary is the provider used when a call names none.
	Primary string
	// Secondary, if set, is tried exactly once after a primary failure.
	Secondary string
	Telemetry *Telemetry
	Logger    *slog.Logger
}

const defaultDeadline = 30 * time.Second

// NewRouter creates a router over the configured providers.
func NewRouter(cfg RouterConfig) (*Router, error) {
	if len(cfg.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = NewTelemetry(0)
	}

	providers := make(map[string]ProviderEntry, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p.Client == nil {
			return nil, fmt.Errorf("provider %s has no client", p.Name)
		}
		if p.Deadline <= 0 {
			p.Deadline = defaultDeadline
		}
		providers[p.Name] = p
	}

	if cfg.Primary == "" {
		cfg.Primary = cfg.Providers[0].Name
	}
	if _, ok := providers[cfg.Primary]; !ok {
		return nil, fmt.Errorf("primary provider %s not configured", cfg.Primary)
	}
	if cfg.Secondary != "" {
		if _, ok := providers[cfg.Secondary]; !ok {
			return nil, fmt.Errorf("secondary provider %s not configured", cfg.Secondary)
		}
	}

	return &Router{
		providers: providers,
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		telemetry: cfg.Telemetry,
		logger:    cfg.Logger.With("component", "model_router"),
	}, nil
}

// Telemetry exposes the router's telemetry counters.
func (r *Router) Telemetry() *Telemetry {
	return r.telemetry
}

// Invoke sends messages to the named provider, or the primary when provider
// is empty. On failure it retries once against the secondary provider. All
// provider failures are folded into a *ModelUnavailableError; Invoke never
// panics and only returns other errors for caller mistakes (unknown name).
func (r *Router) Invoke(ctx context.Context, messages []*aisdk.Message, provider string) (*ModelCallResult, error) {
	if provider == "" {
		provider = r.primary
	}
	entry, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	attempts := []ProviderAttempt{}

	result, err := r.invokeOne(ctx, entry, messages)
	if err == nil {
		return result, nil
	}
	attempts = append(attempts, ProviderAttempt{Provider: entry.Name, Err: err})
	r.logger.Warn("provider call failed", "provider", entry.Name, "error", err)

	// Retry exactly once on the secondary, unless the failed provider was
	// already the secondary.
	if r.secondary != "" && r.secondary != provider {
		fallback := r.providers[r.secondary]
		result, err = r.invokeOne(ctx, fallback, messages)
		if err == nil {
			return result, nil
		}
		attempts = append(attempts, ProviderAttempt{Provider: fallback.Name, Err: err})
		r.logger.Warn("fallback provider call failed", "provider", fallback.Name, "error", err)
	}

	return nil, &ModelUnavailableError{Attempts: attempts}
}

// invokeResult pairs a response with its call error for channel handoff.
type invokeResult struct {
	resp *aisdk.ChatCompletionResponse
	err  error
}

// invokeOne runs a single provider call on a dedicated worker goroutine and
// awaits it under the provider's deadline. On expiry the worker is abandoned,
// not killed: the buffered channel lets its late result arrive and be
// discarded without leaking the goroutine.
func (r *Router) invokeOne(ctx context.Context, entry ProviderEntry, messages []*aisdk.Message) (*ModelCallResult, error) {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), entry.Deadline)

	ch := make(chan invokeResult, 1)
	go func() {
		defer cancel()
		resp, err := entry.Client.CreateChatCompletion(callCtx, &aisdk.ChatCompletionRequest{
			Messages: messages,
		})
		ch <- invokeResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(entry.Deadline)
	defer timer.Stop()

	select {
	case res := <-ch:
		latency := time.Since(start)
		if res.err != nil {
			r.telemetry.recordError()
			return nil, res.err
		}
		r.telemetry.recordCall(res.resp.Usage.PromptTokens, res.resp.Usage.CompletionTokens, latency)
		return &ModelCallResult{
			Text:             res.resp.Choices[0].Message.Content,
			PromptTokens:     res.resp.Usage.PromptTokens,
			CompletionTokens: res.resp.Usage.CompletionTokens,
			Latency:          latency,
			Provider:         entry.Name,
		}, nil
	case <-timer.C:
		r.telemetry.recordError()
		return nil, fmt.Errorf("provider %s exceeded deadline %v", entry.Name, entry.Deadline)
	case <-ctx.Done():
		r.telemetry.recordError()
		return nil, ctx.Err()
	}
}
