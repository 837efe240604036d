package llm

import (
	"context"
	"sync"

	"fossflow/pkg/llm/llmerrors"
)

// MockClient is a scripted Client for tests. It returns its responses in
// order and records every request it receives.
type MockClient struct {
	mu        sync.Mutex
	responses []CompletionResponse
	err       error
	requests  []CompletionRequest
	calls     int
}

// NewMockClient creates a mock that cycles through responses, or always
// fails with err if err is non-nil.
func NewMockClient(responses []CompletionResponse, err error) *MockClient {
	return &MockClient{responses: responses, err: err}
}

// Complete implements the Client interface.
func (m *MockClient) Complete(_ context.Context, in CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, in)
	m.calls++

	if m.err != nil {
		return CompletionResponse{}, m.err
	}
	if len(m.responses) == 0 {
		return CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "mock has no responses")
	}
	resp := m.responses[(m.calls-1)%len(m.responses)]
	return resp, nil
}

// GetModelName returns a fixed mock model name.
func (m *MockClient) GetModelName() string {
	return "mock-model"
}

// Calls returns how many times Complete was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of the recorded requests.
func (m *MockClient) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
