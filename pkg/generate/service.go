// Package generate turns natural-language prompts into normalized
// compact diagrams via a single synchronous LLM request.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"fossflow/pkg/compact"
	"fossflow/pkg/config"
	"fossflow/pkg/icons"
	"fossflow/pkg/llm"
	"fossflow/pkg/llm/llmerrors"
	"fossflow/pkg/logx"
	"fossflow/pkg/persistence"
)

// ErrBusy is returned when a generation is already in flight. The service
// runs one request at a time; callers should surface this as a retry-later
// condition rather than queueing.
var ErrBusy = errors.New("a generation is already in progress")

// Result is the outcome of a successful generation.
type Result struct {
	ID      string          `json:"id"`
	Diagram compact.Diagram `json:"diagram"`
	Usage   llm.Usage       `json:"usage"`
}

// Service orchestrates prompt building, the LLM call, validation,
// normalization and persistence.
type Service struct {
	client      llm.Client
	store       *persistence.Store
	counter     *TokenCounter
	logger      *logx.Logger
	catalog     []icons.Icon
	known       map[string]struct{}
	provider    string
	maxTokens   int
	temperature float32

	mu sync.Mutex // held for the duration of one generation
}

// NewService creates a generation service. settings supplies the provider
// name and the completion tuning knobs; zero MaxTokens/Temperature keep
// the request defaults. extraIcons extends the builtin catalog with
// custom pack icons. counter may be nil, in which case a character-based
// token estimate is used.
func NewService(client llm.Client, settings config.LLMSettings, store *persistence.Store, counter *TokenCounter, extraIcons []icons.Icon) *Service {
	catalog := append([]icons.Icon{}, icons.Catalog()...)
	catalog = append(catalog, extraIcons...)

	extra := make([]string, 0, len(extraIcons))
	for _, icon := range extraIcons {
		extra = append(extra, icon.ID)
	}

	return &Service{
		client:      client,
		store:       store,
		counter:     counter,
		logger:      logx.NewLogger("generate"),
		catalog:     catalog,
		known:       icons.KnownSet(extra...),
		provider:    settings.Provider,
		maxTokens:   settings.MaxTokens,
		temperature: settings.Temperature,
	}
}

// KnownIcons returns the icon set used for resolution.
func (s *Service) KnownIcons() map[string]struct{} {
	return s.known
}

// Catalog returns the full icon catalog, builtin plus custom packs.
func (s *Service) Catalog() []icons.Icon {
	return s.catalog
}

// Generate performs one diagram generation. Concurrent calls fail fast
// with ErrBusy. currentDiagram may be empty for a fresh diagram.
func (s *Service) Generate(ctx context.Context, prompt, currentDiagram string) (*Result, error) {
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	system := BuildSystemPrompt(s.catalog)
	user := BuildUserPrompt(prompt, currentDiagram)

	model := s.client.GetModelName()
	if budget := config.ContextWindow(model); !s.counter.ValidateTokenLimit(system+user, budget) {
		return nil, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt,
			fmt.Sprintf("prompt exceeds the %d token context window of %s", budget, model))
	}

	gen := &persistence.Generation{
		ID:        persistence.GenerateID(),
		Prompt:    prompt,
		Provider:  s.provider,
		Model:     model,
		Status:    persistence.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if s.store != nil {
		if err := s.store.InsertGeneration(gen); err != nil {
			return nil, fmt.Errorf("failed to record generation: %w", err)
		}
	}

	s.logger.Info("Generating diagram %s with %s/%s", gen.ID, s.provider, model)

	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(system),
		llm.NewUserMessage(user),
	})
	if s.maxTokens > 0 {
		req.MaxTokens = s.maxTokens
	}
	if s.temperature > 0 {
		req.Temperature = s.temperature
	}

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		s.fail(gen.ID, "", err)
		return nil, err
	}

	diagram, err := s.normalizeResponse(resp.Content)
	if err != nil {
		s.fail(gen.ID, resp.Content, err)
		return nil, err
	}

	encoded, err := json.Marshal(diagram)
	if err != nil {
		s.fail(gen.ID, resp.Content, err)
		return nil, fmt.Errorf("failed to encode diagram: %w", err)
	}

	if s.store != nil {
		if err := s.store.CompleteGeneration(gen.ID, resp.Content, string(encoded),
			int64(resp.Usage.PromptTokens), int64(resp.Usage.CompletionTokens)); err != nil {
			s.logger.Warn("Failed to persist generation %s result: %v", gen.ID, err)
		}
	}

	s.logger.Info("Generation %s complete: %d items, %d views (%d+%d tokens)",
		gen.ID, len(diagram.Items), len(diagram.Views),
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return &Result{ID: gen.ID, Diagram: diagram, Usage: resp.Usage}, nil
}

// normalizeResponse turns raw LLM output into a normalized diagram.
// The payload must extract as JSON and pass schema validation; anything
// that survives those gates normalizes totally.
func (s *Service) normalizeResponse(content string) (compact.Diagram, error) {
	raw, err := compact.ExtractJSON(content)
	if err != nil {
		return compact.Diagram{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadResponse,
			err, "model response was not valid JSON")
	}
	if err := compact.Validate(raw); err != nil {
		return compact.Diagram{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadResponse,
			err, "model response failed schema validation")
	}
	return compact.Normalize(raw, s.known), nil
}

// NormalizeDocument is the manual path for hand-edited payloads: JSON
// extraction and total normalization, with no schema validation gate.
func (s *Service) NormalizeDocument(content string) (compact.Diagram, error) {
	raw, err := compact.ExtractJSON(content)
	if err != nil {
		return compact.Diagram{}, err
	}
	return compact.Normalize(raw, s.known), nil
}

func (s *Service) fail(id, rawResponse string, cause error) {
	s.logger.Error("Generation %s failed: %v", id, cause)
	if s.store == nil {
		return
	}
	if err := s.store.FailGeneration(id, rawResponse, cause.Error()); err != nil {
		s.logger.Warn("Failed to persist generation %s failure: %v", id, err)
	}
}
