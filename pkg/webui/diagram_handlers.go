package webui

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fossflow/pkg/compact"
	"fossflow/pkg/generate"
	"fossflow/pkg/llm/llmerrors"
	"fossflow/pkg/persistence"
)

// generateRequest is the body of POST /api/generate.
type generateRequest struct {
	Prompt         string `json:"prompt"`
	CurrentDiagram string `json:"current_diagram,omitempty"`
}

// handleGenerate implements POST /api/generate.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, http.StatusBadRequest, "prompt cannot be empty")
		return
	}

	result, err := s.service.Generate(r.Context(), req.Prompt, req.CurrentDiagram)
	if err != nil {
		if errors.Is(err, generate.ErrBusy) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		var llmErr *llmerrors.Error
		if errors.As(err, &llmErr) {
			s.writeError(w, llmStatusCode(llmErr.Type), llmErr.Type.UserMessage())
			return
		}
		s.logger.Error("Generation failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// llmStatusCode maps completion error classes onto HTTP status codes.
func llmStatusCode(t llmerrors.ErrorType) int {
	switch t {
	case llmerrors.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case llmerrors.ErrorTypeAuth:
		return http.StatusBadGateway
	case llmerrors.ErrorTypeBadPrompt:
		return http.StatusBadRequest
	case llmerrors.ErrorTypeBadResponse, llmerrors.ErrorTypeEmptyResponse:
		return http.StatusBadGateway
	case llmerrors.ErrorTypeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// normalizeRequest is the body of POST /api/normalize.
type normalizeRequest struct {
	Document string `json:"document"`
}

// handleNormalize implements POST /api/normalize, the manual path for
// hand-edited compact payloads.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req normalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	diagram, err := s.service.NormalizeDocument(req.Document)
	if err != nil {
		if errors.Is(err, compact.ErrInvalidJSON) {
			s.writeError(w, http.StatusBadRequest, "document is not valid JSON")
			return
		}
		s.logger.Error("Normalization failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "normalization failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"diagram": diagram})
}

// handleIcons implements GET /api/icons.
func (s *Server) handleIcons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"icons": s.service.Catalog()})
}

// handleGenerations implements GET /api/generations?limit=N.
func (s *Server) handleGenerations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	gens, err := s.store.ListGenerations(limit)
	if err != nil {
		s.logger.Error("Failed to list generations: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list generations")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"generations": gens})
}

// handleGeneration implements GET /api/generations/{id}.
func (s *Server) handleGeneration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/generations/")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "generation id required")
		return
	}

	gen, err := s.store.GetGenerationByID(id)
	if err != nil {
		s.writeError(w, notFoundStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, gen)
}

// saveDiagramRequest is the body of POST /api/diagrams.
type saveDiagramRequest struct {
	ID      string          `json:"id,omitempty"`
	Title   string          `json:"title"`
	Diagram json.RawMessage `json:"diagram"`
}

// handleDiagrams implements GET and POST /api/diagrams.
func (s *Server) handleDiagrams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		diagrams, err := s.store.ListDiagrams()
		if err != nil {
			s.logger.Error("Failed to list diagrams: %v", err)
			s.writeError(w, http.StatusInternalServerError, "failed to list diagrams")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"diagrams": diagrams})

	case http.MethodPost:
		var req saveDiagramRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Diagram) == 0 {
			s.writeError(w, http.StatusBadRequest, "diagram cannot be empty")
			return
		}

		// Saved diagrams are normalized so stored content is always canonical.
		diagram, err := s.service.NormalizeDocument(string(req.Diagram))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "diagram is not valid JSON")
			return
		}
		encoded, err := json.Marshal(diagram)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to encode diagram")
			return
		}

		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = diagram.Title
		}

		now := time.Now().UTC()
		saved := &persistence.SavedDiagram{
			ID:        req.ID,
			Title:     title,
			Content:   string(encoded),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if saved.ID == "" {
			saved.ID = persistence.GenerateID()
		}

		if err := s.store.UpsertDiagram(saved); err != nil {
			s.logger.Error("Failed to save diagram: %v", err)
			s.writeError(w, http.StatusInternalServerError, "failed to save diagram")
			return
		}
		s.writeJSON(w, http.StatusOK, saved)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleDiagram implements GET and DELETE /api/diagrams/{id}.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/diagrams/")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "diagram id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		d, err := s.store.GetDiagramByID(id)
		if err != nil {
			s.writeError(w, notFoundStatus(err), err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, d)

	case http.MethodDelete:
		if err := s.store.DeleteDiagram(id); err != nil {
			s.writeError(w, notFoundStatus(err), err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
