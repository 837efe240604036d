package llm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClientInitIsConcurrencySafe(t *testing.T) {
	client := NewGeminiClient("test-key", "gemini-2.0-flash")

	// The SDK client is created on first use; concurrent callers must all
	// observe the same single initialization.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.init(t.Context())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.NotNil(t, client.client)
}

func TestGeminiClientConvertMessages(t *testing.T) {
	contents, system, err := convertMessages([]CompletionMessage{
		NewSystemMessage("instructions"),
		NewUserMessage("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "instructions", system)
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)

	// System-only conversations are rejected.
	_, _, err = convertMessages([]CompletionMessage{NewSystemMessage("instructions")})
	assert.Error(t, err)
}
