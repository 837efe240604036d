package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fossflow/pkg/llm/llmerrors"
)

func TestNewClientSelectsProvider(t *testing.T) {
	cases := []struct {
		name string
		cfg  ClientConfig
	}{
		{"openai", ClientConfig{Provider: ProviderOpenAI, Model: "gpt-4o", APIKey: "k"}},
		{"openai compatible", ClientConfig{Provider: ProviderOpenAI, Model: "local", APIKey: "k", BaseURL: "http://localhost:8080/v1"}},
		{"anthropic", ClientConfig{Provider: ProviderAnthropic, Model: "claude-sonnet-4-5", APIKey: "k"}},
		{"google", ClientConfig{Provider: ProviderGoogle, Model: "gemini-2.0-flash", APIKey: "k"}},
		{"ollama without key", ClientConfig{Provider: ProviderOllama, Model: "llama3"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.cfg.Model, client.GetModelName())
		})
	}
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  ClientConfig
	}{
		{"unknown provider", ClientConfig{Provider: "nope", Model: "m"}},
		{"empty model", ClientConfig{Provider: ProviderOpenAI, APIKey: "k"}},
		{"openai without key", ClientConfig{Provider: ProviderOpenAI, Model: "gpt-4o"}},
		{"anthropic without key", ClientConfig{Provider: ProviderAnthropic, Model: "claude"}},
		{"google without key", ClientConfig{Provider: ProviderGoogle, Model: "gemini"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		msg  string
		want llmerrors.ErrorType
	}{
		{"429 Too Many Requests", llmerrors.ErrorTypeRateLimit},
		{"quota exceeded for project", llmerrors.ErrorTypeRateLimit},
		{"401 Unauthorized", llmerrors.ErrorTypeAuth},
		{"invalid api key provided", llmerrors.ErrorTypeAuth},
		{"maximum context length exceeded", llmerrors.ErrorTypeBadPrompt},
		{"503 Service Unavailable", llmerrors.ErrorTypeTransient},
		{"connection reset by peer", llmerrors.ErrorTypeTransient},
		{"something inexplicable", llmerrors.ErrorTypeUnknown},
	}

	for _, tc := range cases {
		got := classifyError(errors.New(tc.msg))
		assert.Equal(t, tc.want, got.Type, "message %q", tc.msg)
	}
}

func TestMockClientScriptedResponses(t *testing.T) {
	mock := NewMockClient([]CompletionResponse{
		{Content: "first"},
		{Content: "second"},
	}, nil)

	req := NewCompletionRequest([]CompletionMessage{NewUserMessage("hi")})

	resp, err := mock.Complete(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = mock.Complete(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	// Cycles back to the start.
	resp, err = mock.Complete(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	assert.Equal(t, 3, mock.Calls())
	assert.Len(t, mock.Requests(), 3)
}

func TestMockClientError(t *testing.T) {
	wantErr := llmerrors.NewError(llmerrors.ErrorTypeAuth, "bad key")
	mock := NewMockClient(nil, wantErr)

	_, err := mock.Complete(t.Context(), NewCompletionRequest(nil))
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeAuth))
}
