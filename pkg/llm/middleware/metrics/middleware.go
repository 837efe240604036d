package metrics

import (
	"context"
	"time"

	"fossflow/pkg/llm"
	"fossflow/pkg/llm/llmerrors"
)

// Middleware wraps a llm.Client and records per-request metrics.
type Middleware struct {
	next     llm.Client
	recorder Recorder
	provider string
}

// Wrap decorates next with metrics recording.
func Wrap(next llm.Client, provider string, recorder Recorder) *Middleware {
	return &Middleware{
		next:     next,
		recorder: recorder,
		provider: provider,
	}
}

// Complete implements the llm.Client interface.
func (m *Middleware) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	start := time.Now()
	resp, err := m.next.Complete(ctx, in)
	duration := time.Since(start)

	errorType := ""
	if err != nil {
		errorType = llmerrors.TypeOf(err).String()
	}

	m.recorder.ObserveRequest(
		m.provider,
		m.next.GetModelName(),
		resp.Usage.PromptTokens,
		resp.Usage.CompletionTokens,
		err == nil,
		errorType,
		duration,
	)
	return resp, err
}

// GetModelName returns the model name of the wrapped client.
func (m *Middleware) GetModelName() string {
	return m.next.GetModelName()
}
