package generate

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fossflow/pkg/compact"
	"fossflow/pkg/config"
	"fossflow/pkg/icons"
	"fossflow/pkg/llm"
	"fossflow/pkg/llm/llmerrors"
	"fossflow/pkg/persistence"
)

const validResponse = `{
	"t": "Web App",
	"i": [["API", "server"], ["DB", "database"]],
	"v": [[[[0, 0, 0], [1, 4, 0]], [[0, 1]]]],
	"_": {"f": "compact", "v": "1.0"}
}`

func newTestService(t *testing.T, responses []llm.CompletionResponse, errResp error) (*Service, *llm.MockClient, *persistence.Store) {
	t.Helper()

	db, err := persistence.InitializeDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := persistence.NewStore(db)
	mock := llm.NewMockClient(responses, errResp)
	svc := NewService(mock, config.LLMSettings{Provider: llm.ProviderOpenAI}, store, nil, nil)
	return svc, mock, store
}

func TestGenerateSuccess(t *testing.T) {
	svc, mock, store := newTestService(t, []llm.CompletionResponse{
		{Content: validResponse, Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 50}},
	}, nil)

	result, err := svc.Generate(t.Context(), "a web app with a database", "")
	require.NoError(t, err)

	assert.Equal(t, "Web App", result.Diagram.Title)
	assert.Len(t, result.Diagram.Items, 2)
	// "database" is a legacy alias, resolved to the storage icon.
	assert.Equal(t, "storage", result.Diagram.Items[1].Icon)
	assert.Equal(t, 100, result.Usage.PromptTokens)

	// The request carries system instructions plus the user prompt.
	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, llm.RoleSystem, reqs[0].Messages[0].Role)
	assert.Contains(t, reqs[0].Messages[0].Content, `"f": "compact"`)
	assert.Equal(t, "a web app with a database", reqs[0].Messages[1].Content)

	gen, err := store.GetGenerationByID(result.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.StatusComplete, gen.Status)
	assert.Equal(t, int64(100), gen.PromptTokens)
	assert.NotEmpty(t, gen.Diagram)
}

func TestGenerateAppliesConfiguredTuning(t *testing.T) {
	mock := llm.NewMockClient([]llm.CompletionResponse{{Content: validResponse}}, nil)
	svc := NewService(mock, config.LLMSettings{
		Provider:    llm.ProviderOpenAI,
		MaxTokens:   512,
		Temperature: 0.9,
	}, nil, nil, nil)

	_, err := svc.Generate(t.Context(), "a web app", "")
	require.NoError(t, err)

	req := mock.Requests()[0]
	assert.Equal(t, 512, req.MaxTokens)
	assert.InDelta(t, 0.9, req.Temperature, 0.0001)
}

func TestGenerateZeroTuningKeepsDefaults(t *testing.T) {
	mock := llm.NewMockClient([]llm.CompletionResponse{{Content: validResponse}}, nil)
	svc := NewService(mock, config.LLMSettings{Provider: llm.ProviderOpenAI}, nil, nil, nil)

	_, err := svc.Generate(t.Context(), "a web app", "")
	require.NoError(t, err)

	req := mock.Requests()[0]
	assert.Equal(t, llm.NewCompletionRequest(nil).MaxTokens, req.MaxTokens)
	assert.InDelta(t, llm.TemperatureDefault, req.Temperature, 0.0001)
}

func TestGenerateRevisionIncludesCurrentDiagram(t *testing.T) {
	svc, mock, _ := newTestService(t, []llm.CompletionResponse{{Content: validResponse}}, nil)

	current := `{"t":"Old","i":[],"v":[],"_":{"f":"compact","v":"1.0"}}`
	_, err := svc.Generate(t.Context(), "add a cache", current)
	require.NoError(t, err)

	user := mock.Requests()[0].Messages[1].Content
	assert.Contains(t, user, current)
	assert.Contains(t, user, "add a cache")
}

func TestGenerateInvalidJSONRecordsFailure(t *testing.T) {
	svc, _, store := newTestService(t, []llm.CompletionResponse{
		{Content: "Sure! Here is your diagram: it has a server and"},
	}, nil)

	_, err := svc.Generate(t.Context(), "anything", "")
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeBadResponse))

	gens, err := store.ListGenerations(10)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, persistence.StatusFailed, gens[0].Status)
	assert.NotEmpty(t, gens[0].Error)
}

func TestGenerateSchemaViolationRecordsFailure(t *testing.T) {
	// Valid JSON but items are missing their icon field.
	svc, _, store := newTestService(t, []llm.CompletionResponse{
		{Content: `{"t":"Bad","i":[["only a name"]],"v":[]}`},
	}, nil)

	_, err := svc.Generate(t.Context(), "anything", "")
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeBadResponse))

	gens, err := store.ListGenerations(10)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, persistence.StatusFailed, gens[0].Status)
}

func TestGenerateLLMErrorPropagates(t *testing.T) {
	svc, _, store := newTestService(t, nil, llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "slow down"))

	_, err := svc.Generate(t.Context(), "anything", "")
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeRateLimit))

	gens, err := store.ListGenerations(10)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, persistence.StatusFailed, gens[0].Status)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	svc, _, _ := newTestService(t, []llm.CompletionResponse{
		{Content: "```json\n" + validResponse + "\n```"},
	}, nil)

	result, err := svc.Generate(t.Context(), "anything", "")
	require.NoError(t, err)
	assert.Equal(t, "Web App", result.Diagram.Title)
}

func TestGenerateSingleFlight(t *testing.T) {
	svc, _, _ := newTestService(t, []llm.CompletionResponse{{Content: validResponse}}, nil)

	// Hold the generation lock and verify a concurrent call is rejected.
	require.True(t, svc.mu.TryLock())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Generate(t.Context(), "anything", "")
		assert.ErrorIs(t, err, ErrBusy)
	}()
	wg.Wait()
	svc.mu.Unlock()

	// After release the service accepts requests again.
	_, err := svc.Generate(t.Context(), "anything", "")
	assert.NoError(t, err)
}

func TestNormalizeDocumentSkipsValidation(t *testing.T) {
	svc, _, _ := newTestService(t, nil, nil)

	// Garbage items would fail the validator but normalize totally.
	diagram, err := svc.NormalizeDocument(`{"t":"  ","i":[["only a name"], "junk"],"v":[]}`)
	require.NoError(t, err)
	assert.Equal(t, compact.DefaultTitle, diagram.Title)
	require.Len(t, diagram.Items, 2)
	assert.Equal(t, "Item 2", diagram.Items[1].Name)
	assert.Equal(t, icons.DefaultIcon, diagram.Items[1].Icon)
}

func TestNormalizeDocumentInvalidJSON(t *testing.T) {
	svc, _, _ := newTestService(t, nil, nil)

	_, err := svc.NormalizeDocument("not json at all")
	assert.ErrorIs(t, err, compact.ErrInvalidJSON)
}

func TestCustomPackIconsAreKnown(t *testing.T) {
	mock := llm.NewMockClient([]llm.CompletionResponse{
		{Content: `{"t":"AWS","i":[["Fn","aws_lambda"]],"v":[[[[0,0,0]],[]]],"_":{"f":"compact","v":"1.0"}}`},
	}, nil)
	svc := NewService(mock, config.LLMSettings{Provider: llm.ProviderOpenAI}, nil, nil, []icons.Icon{
		{ID: "aws_lambda", Name: "AWS Lambda"},
	})

	result, err := svc.Generate(t.Context(), "a lambda", "")
	require.NoError(t, err)
	assert.Equal(t, "aws_lambda", result.Diagram.Items[0].Icon)

	// Custom icons appear in the catalog handed to the prompt builder.
	prompt := BuildSystemPrompt(svc.Catalog())
	assert.Contains(t, prompt, "aws_lambda")
}

func TestTokenCounterFallback(t *testing.T) {
	var tc *TokenCounter
	assert.Equal(t, 25, tc.CountTokens(string(make([]byte, 100))))
	assert.True(t, tc.ValidateTokenLimit("short", 10))
}

func TestTokenCounterCounts(t *testing.T) {
	tc, err := NewTokenCounter()
	require.NoError(t, err)
	assert.Positive(t, tc.CountTokens("hello world"))
	assert.False(t, tc.ValidateTokenLimit("one two three four five six seven", 2))
}
