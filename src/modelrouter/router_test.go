package modelrouter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elee1766/deskpilot/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a scriptable aisdk.ModelClient.
type fakeClient struct {
	model string
	text  string
	err   error
	// delay simulates a slow provider.
	delay time.Duration
	usage aisdk.Usage
	calls int
}

func (f *fakeClient) ModelName() string { return f.model }

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &aisdk.ChatCompletionResponse{
		Choices: []aisdk.Choice{{Message: aisdk.Message{Role: "assistant", Content: f.text}}},
		Usage:   f.usage,
	}, nil
}

func userMessage(text string) []*aisdk.Message {
	return []*aisdk.Message{{Role: "user", Content: text}}
}

func TestRouterPrimarySuccess(t *testing.T) {
	primary := &fakeClient{model: "m1", text: "hello", usage: aisdk.Usage{PromptTokens: 10, CompletionTokens: 5}}
	secondary := &fakeClient{model: "m2", text: "backup"}

	r, err := NewRouter(RouterConfig{
		Providers: []ProviderEntry{
			{Name: "primary", Client: primary},
			{Name: "secondary", Client: secondary},
		},
		Primary:   "primary",
		Secondary: "secondary",
	})
	require.NoError(t, err)

	result, err := r.Invoke(context.Background(), userMessage("hi"), "")
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Text)
	assert.Equal(t, "primary", result.Provider)
	assert.Equal(t, 10, result.PromptTokens)
	assert.Equal(t, 0, secondary.calls)
}

func TestRouterRetriesOnceOnSecondary(t *testing.T) {
	primary := &fakeClient{model: "m1", err: errors.New("503")}
	secondary := &fakeClient{model: "m2", text: "backup answer"}

	r, err := NewRouter(RouterConfig{
		Providers: []ProviderEntry{
			{Name: "primary", Client: primary},
			{Name: "secondary", Client: secondary},
		},
		Primary:   "primary",
		Secondary: "secondary",
	})
	require.NoError(t, err)

	result, err := r.Invoke(context.Background(), userMessage("hi"), "")
	require.NoError(t, err)
	assert.Equal(t, "backup answer", result.Text)
	assert.Equal(t, "secondary", result.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestRouterExhaustionIsTyped(t *testing.T) {
	primary := &fakeClient{model: "m1", err: errors.New("503")}
	secondary := &fakeClient{model: "m2", err: errors.New("429")}

	r, err := NewRouter(RouterConfig{
		Providers: []ProviderEntry{
			{Name: "primary", Client: primary},
			{Name: "secondary", Client: secondary},
		},
		Primary:   "primary",
		Secondary: "secondary",
	})
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), userMessage("hi"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))

	var unavailable *ModelUnavailableError
	require.True(t, errors.As(err, &unavailable))
	require.Len(t, unavailable.Attempts, 2)
	assert.Equal(t, "primary", unavailable.Attempts[0].Provider)
	assert.Equal(t, "secondary", unavailable.Attempts[1].Provider)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "429")
}

func TestRouterNoDoubleRetryOnSecondary(t *testing.T) {
	primary := &fakeClient{model: "m1", text: "unused"}
	secondary := &fakeClient{model: "m2", err: errors.New("503")}

	r, err := NewRouter(RouterConfig{
		Providers: []ProviderEntry{
			{Name: "primary", Client: primary},
			{Name: "secondary", Client: secondary},
		},
		Primary:   "primary",
		Secondary: "secondary",
	})
	require.NoError(t, err)

	// A call explicitly aimed at the secondary must not retry onto itself.
	_, err = r.Invoke(context.Background(), userMessage("hi"), "secondary")
	require.Error(t, err)

	var unavailable *ModelUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Len(t, unavailable.Attempts, 1)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, 0, primary.calls)
}

func TestRouterUnknownProvider(t *testing.T) {
	r, err := NewRouter(RouterConfig{
		Providers: []ProviderEntry{{Name: "only", Client: &fakeClient{model: "m"}}},
	})
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), userMessage("hi"), "nope")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrModelUnavailable), "a caller mistake is not a provider failure")
}

func TestRouterDeadlineBoundsTheTurn(t *testing.T) {
	slow := &fakeClient{model: "m1", text: "late", delay: time.Second}
	alsoSlow := &fakeClient{model: "m2", text: "late", delay: time.Second}

	r, err := NewRouter(RouterConfig{
		Providers: []ProviderEntry{
			{Name: "primary", Client: slow, Deadline: 30 * time.Millisecond},
			{Name: "secondary", Client: alsoSlow, Deadline: 30 * time.Millisecond},
		},
		Primary:   "primary",
		Secondary: "secondary",
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = r.Invoke(context.Background(), userMessage("hi"), "")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
	// Wall clock stays within the two per-provider deadlines plus slack.
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestRouterTelemetry(t *testing.T) {
	primary := &fakeClient{model: "m1", err: errors.New("503")}
	secondary := &fakeClient{model: "m2", text: "ok", usage: aisdk.Usage{PromptTokens: 100, CompletionTokens: 50}}

	tel := NewTelemetry(0.01)
	r, err := NewRouter(RouterConfig{
		Providers: []ProviderEntry{
			{Name: "primary", Client: primary},
			{Name: "secondary", Client: secondary},
		},
		Primary:   "primary",
		Secondary: "secondary",
		Telemetry: tel,
	})
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), userMessage("hi"), "")
	require.NoError(t, err)

	snap := tel.Snapshot()
	assert.Equal(t, int64(1), snap.Calls)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(100), snap.PromptTokens)
	assert.Equal(t, int64(50), snap.CompletionTokens)
	assert.InDelta(t, 0.0015, snap.EstimatedCostUSD, 1e-9)
	assert.Greater(t, snap.TotalLatency, time.Duration(0))

	tel.Reset()
	assert.Equal(t, int64(0), tel.Snapshot().Calls)
}
