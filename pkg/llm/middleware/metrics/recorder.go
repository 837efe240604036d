// Package metrics provides Prometheus-based metrics recording for LLM
// requests, applied as a Client middleware.
package metrics

import "time"

// Recorder receives observations about completed LLM requests.
type Recorder interface {
	ObserveRequest(
		provider, model string,
		promptTokens, completionTokens int,
		success bool,
		errorType string,
		duration time.Duration,
	)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

// ObserveRequest implements Recorder.
func (NopRecorder) ObserveRequest(string, string, int, int, bool, string, time.Duration) {}
