package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fossflow/pkg/llm"
	"fossflow/pkg/llm/llmerrors"
)

type captureRecorder struct {
	provider  string
	model     string
	prompt    int
	completed int
	success   bool
	errorType string
	calls     int
}

func (c *captureRecorder) ObserveRequest(provider, model string, promptTokens, completionTokens int, success bool, errorType string, duration time.Duration) {
	c.provider = provider
	c.model = model
	c.prompt = promptTokens
	c.completed = completionTokens
	c.success = success
	c.errorType = errorType
	c.calls++
}

func TestMiddlewareRecordsSuccess(t *testing.T) {
	mock := llm.NewMockClient([]llm.CompletionResponse{
		{Content: "ok", Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 20}},
	}, nil)
	rec := &captureRecorder{}
	client := Wrap(mock, llm.ProviderOpenAI, rec)

	_, err := client.Complete(t.Context(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")}))
	require.NoError(t, err)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, llm.ProviderOpenAI, rec.provider)
	assert.Equal(t, "mock-model", rec.model)
	assert.Equal(t, 10, rec.prompt)
	assert.Equal(t, 20, rec.completed)
	assert.True(t, rec.success)
	assert.Empty(t, rec.errorType)
}

func TestMiddlewareRecordsFailure(t *testing.T) {
	mock := llm.NewMockClient(nil, llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "slow down"))
	rec := &captureRecorder{}
	client := Wrap(mock, llm.ProviderAnthropic, rec)

	_, err := client.Complete(t.Context(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")}))
	require.Error(t, err)

	assert.Equal(t, 1, rec.calls)
	assert.False(t, rec.success)
	assert.Equal(t, "rate_limit", rec.errorType)
}

func TestMiddlewarePreservesModelName(t *testing.T) {
	mock := llm.NewMockClient(nil, nil)
	client := Wrap(mock, llm.ProviderOllama, NopRecorder{})
	assert.Equal(t, "mock-model", client.GetModelName())
}
