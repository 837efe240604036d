// Package metrics provides services for querying and aggregating metrics data.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// UsageMetrics represents aggregated token usage for a provider/model pair.
type UsageMetrics struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	Requests         int64  `json:"requests"`
	Failures         int64  `json:"failures"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// QueryService provides methods to query metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetUsage retrieves aggregated LLM usage broken down by provider and model.
func (q *QueryService) GetUsage(ctx context.Context) ([]*UsageMetrics, error) {
	now := time.Now()
	byKey := make(map[string]*UsageMetrics)

	get := func(key, provider, modelName string) *UsageMetrics {
		if m, ok := byKey[key]; ok {
			return m
		}
		m := &UsageMetrics{Provider: provider, Model: modelName}
		byKey[key] = m
		return m
	}

	// Request counts, split by status.
	requestsResult, _, err := q.queryAPI.Query(ctx, `sum by (provider, model, status) (llm_requests_total)`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query request counts: %w", err)
	}
	if vector, ok := requestsResult.(model.Vector); ok {
		for _, sample := range vector {
			provider := string(sample.Metric["provider"])
			modelName := string(sample.Metric["model"])
			m := get(provider+"/"+modelName, provider, modelName)
			m.Requests += int64(sample.Value)
			if sample.Metric["status"] == "error" {
				m.Failures += int64(sample.Value)
			}
		}
	}

	// Token usage, split by type.
	tokensResult, _, err := q.queryAPI.Query(ctx, `sum by (provider, model, type) (llm_tokens_total)`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query token counts: %w", err)
	}
	if vector, ok := tokensResult.(model.Vector); ok {
		for _, sample := range vector {
			provider := string(sample.Metric["provider"])
			modelName := string(sample.Metric["model"])
			m := get(provider+"/"+modelName, provider, modelName)
			switch sample.Metric["type"] {
			case "prompt":
				m.PromptTokens += int64(sample.Value)
			case "completion":
				m.CompletionTokens += int64(sample.Value)
			}
		}
	}

	usage := make([]*UsageMetrics, 0, len(byKey))
	for _, m := range byKey {
		m.TotalTokens = m.PromptTokens + m.CompletionTokens
		usage = append(usage, m)
	}
	return usage, nil
}
