// Package classifier maps raw user text to a capability label. The fast path
// is an ordered keyword rule list; ambiguous input may fall through to a
// deadline-bounded model-backed classifier. Classification failure is never
// fatal: every error path resolves to the reply capability.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/modelrouter"
)

// ErrClassificationTimeout reports that the model fallback missed its
// deadline. Classify still degrades to reply; the typed error is what gets
// logged.
var ErrClassificationTimeout = errors.New("classification timed out")

// ModelFallback resolves ambiguous input with a model call. Implementations
// must respect ctx cancellation.
type ModelFallback interface {
	ClassifyText(ctx context.Context, text string) (capability.Capability, error)
}

// Classifier evaluates rules in order, optionally consulting a model-backed
// fallback for input no rule matches.
type Classifier struct {
	rules            []Rule
	fallback         ModelFallback
	fallbackDeadline time.Duration
	cache            *labelCache
	logger           *slog.Logger
}

// Config holds configuration for creating a Classifier.
type Config struct {
	// Rules defaults to DefaultRules when nil.
	Rules []Rule
	// Fallback, if set, is consulted when no rule matches.
	Fallback ModelFallback
	// FallbackDeadline bounds the fallback call. Defaults to 2s.
	FallbackDeadline time.Duration
	// CacheSize enables the label cache when > 0.
	CacheSize int
	Logger    *slog.Logger
}

// New creates a classifier.
func New(cfg Config) *Classifier {
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.FallbackDeadline <= 0 {
		cfg.FallbackDeadline = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Classifier{
		rules:            cfg.Rules,
		fallback:         cfg.Fallback,
		fallbackDeadline: cfg.FallbackDeadline,
		logger:           cfg.Logger.With("component", "classifier"),
	}
	if cfg.CacheSize > 0 {
		c.cache = newLabelCache(cfg.CacheSize)
	}
	return c
}

// Classify maps text to a capability label. It never returns an error: rule
// misses go to the model fallback when configured, and fallback timeout or
// failure degrades to reply.
func (c *Classifier) Classify(ctx context.Context, text string) capability.Capability {
	lowered := strings.ToLower(text)
	for _, rule := range c.rules {
		if rule.Match(lowered) {
			return rule.Label
		}
	}

	if c.fallback == nil {
		return capability.Reply
	}

	key := cacheKey(text)
	if c.cache != nil {
		if label, ok := c.cache.get(key); ok {
			return label
		}
	}

	fbCtx, cancel := context.WithTimeout(ctx, c.fallbackDeadline)
	defer cancel()

	label, err := c.fallback.ClassifyText(fbCtx, text)
	if err != nil {
		c.logger.Debug("model fallback failed, defaulting to reply", "error", c.fallbackError(err))
		return capability.Reply
	}
	if c.cache != nil {
		c.cache.put(key, label)
	}
	return label
}

// fallbackError types deadline misses as ErrClassificationTimeout; other
// fallback failures pass through unchanged.
func (c *Classifier) fallbackError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v", ErrClassificationTimeout, c.fallbackDeadline)
	}
	return err
}

// modelFallback asks the model router to pick a label.
type modelFallback struct {
	router *modelrouter.Router
}

// NewModelFallback builds a ModelFallback on top of the model router.
func NewModelFallback(router *modelrouter.Router) ModelFallback {
	return &modelFallback{router: router}
}

const fallbackSystemPrompt = `Classify the user message into exactly one of:
ticket_creation, knowledge_query, external_agent, reply.
Answer with the label only.`

func (m *modelFallback) ClassifyText(ctx context.Context, text string) (capability.Capability, error) {
	result, err := m.router.Invoke(ctx, promptMessages(fallbackSystemPrompt, text), "")
	if err != nil {
		return "", err
	}

	answer := strings.ToLower(strings.TrimSpace(result.Text))
	for _, label := range capability.All {
		if strings.Contains(answer, string(label)) {
			return label, nil
		}
	}
	return capability.Reply, nil
}
