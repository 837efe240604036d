package persistence

import (
	"time"

	"github.com/google/uuid"
)

// Generation status constants.
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Generation records one LLM diagram generation attempt.
type Generation struct {
	ID               string     `json:"id"`
	Prompt           string     `json:"prompt"`
	Provider         string     `json:"provider"`
	Model            string     `json:"model"`
	Status           string     `json:"status"`
	RawResponse      string     `json:"raw_response,omitempty"`
	Diagram          string     `json:"diagram,omitempty"` // normalized diagram JSON
	Error            string     `json:"error,omitempty"`
	PromptTokens     int64      `json:"prompt_tokens"`
	CompletionTokens int64      `json:"completion_tokens"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// SavedDiagram is a user-saved diagram, kept separately from the
// generation history so edits survive regeneration.
type SavedDiagram struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"` // compact diagram JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerateID generates a new UUID for a generation or diagram record.
func GenerateID() string {
	return uuid.New().String()
}
