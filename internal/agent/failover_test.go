package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/voicebot/internal/llm"
	"github.com/soyeahso/voicebot/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestFailoverSuccess(t *testing.T) {
	mock := &llm.MockClient{ProviderName: "mock", CompleteFunc: llm.Scripted("ok")}

	reg := llm.NewRegistry(silentLog())
	reg.Register("mock", mock)
	reg.SetFallback("mock")
	fc := NewFailoverClient(reg, "gpt-4o-mini", nil, silentLog())

	resp, err := fc.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "gpt-4o-mini", mock.Requests()[0].Model)
}

func TestFailoverTriesFallback(t *testing.T) {
	var callOrder []string

	primary := &llm.MockClient{
		ProviderName: "primary",
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			callOrder = append(callOrder, "primary")
			return nil, &llm.ProviderError{Provider: "primary", Message: "overloaded", Code: 529}
		},
	}
	fallback := &llm.MockClient{
		ProviderName: "fallback",
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			callOrder = append(callOrder, "fallback")
			return &llm.CompletionResponse{Content: "fallback response"}, nil
		},
	}

	reg := llm.NewRegistry(silentLog())
	reg.Register("primary", primary)
	reg.Register("fallback", fallback)

	fc := NewFailoverClient(reg, "primary", []string{"fallback"}, silentLog())

	resp, err := fc.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fallback response", resp.Content)
	assert.Equal(t, []string{"primary", "fallback"}, callOrder)
}

func TestFailoverNonRetryableStops(t *testing.T) {
	callCount := 0
	count := func(resp *llm.CompletionResponse, err error) func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
			callCount++
			return resp, err
		}
	}

	reg := llm.NewRegistry(silentLog())
	reg.Register("primary", &llm.MockClient{ProviderName: "primary", CompleteFunc: count(nil, fmt.Errorf("invalid schema"))})
	reg.Register("fallback", &llm.MockClient{ProviderName: "fallback", CompleteFunc: count(&llm.CompletionResponse{Content: "no"}, nil)})

	fc := NewFailoverClient(reg, "primary", []string{"fallback"}, silentLog())

	_, err := fc.Complete(context.Background(), llm.CompletionRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, callCount, "should not try fallback on non-retryable error")
}

func TestFailoverAllFail(t *testing.T) {
	reg := llm.NewRegistry(silentLog())
	fc := NewFailoverClient(reg, "missing", []string{"also-missing"}, silentLog())
	_, err := fc.Complete(context.Background(), llm.CompletionRequest{})
	assert.Error(t, err)
	assert.Equal(t, "failover", fc.Name())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&llm.ProviderError{Code: 429}))
	assert.True(t, isRetryable(&llm.ProviderError{Code: 529}))
	assert.True(t, isRetryable(fmt.Errorf("wrapped: %w", &llm.ProviderError{Code: 503})))
	assert.True(t, isRetryable(fmt.Errorf("server overloaded")))
	assert.True(t, isRetryable(fmt.Errorf("Rate limit exceeded")))
	assert.False(t, isRetryable(&llm.ProviderError{Code: 400}))
	assert.False(t, isRetryable(fmt.Errorf("invalid input")))
	assert.False(t, isRetryable(nil))
}
