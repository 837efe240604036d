package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store provides methods for database operations.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertGeneration records a new pending generation.
func (s *Store) InsertGeneration(gen *Generation) error {
	query := `
		INSERT INTO generations (id, prompt, provider, model, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, gen.ID, gen.Prompt, gen.Provider, gen.Model, gen.Status, gen.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert generation %s: %w", gen.ID, err)
	}
	return nil
}

// CompleteGeneration marks a generation as complete with its results.
func (s *Store) CompleteGeneration(id, rawResponse, diagram string, promptTokens, completionTokens int64) error {
	query := `
		UPDATE generations
		SET status = ?, raw_response = ?, diagram = ?,
		    prompt_tokens = ?, completion_tokens = ?, completed_at = ?
		WHERE id = ?
	`
	res, err := s.db.Exec(query, StatusComplete, rawResponse, diagram, promptTokens, completionTokens, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete generation %s: %w", id, err)
	}
	return requireRow(res, id)
}

// FailGeneration marks a generation as failed with an error message.
// rawResponse may be empty when the request never returned content.
func (s *Store) FailGeneration(id, rawResponse, errMsg string) error {
	query := `
		UPDATE generations
		SET status = ?, raw_response = ?, error = ?, completed_at = ?
		WHERE id = ?
	`
	res, err := s.db.Exec(query, StatusFailed, rawResponse, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark generation %s failed: %w", id, err)
	}
	return requireRow(res, id)
}

// GetGenerationByID retrieves a single generation.
func (s *Store) GetGenerationByID(id string) (*Generation, error) {
	query := `
		SELECT id, prompt, provider, model, status,
		       COALESCE(raw_response, ''), COALESCE(diagram, ''), COALESCE(error, ''),
		       prompt_tokens, completion_tokens, created_at, completed_at
		FROM generations WHERE id = ?
	`
	gen := &Generation{}
	err := s.db.QueryRow(query, id).Scan(
		&gen.ID, &gen.Prompt, &gen.Provider, &gen.Model, &gen.Status,
		&gen.RawResponse, &gen.Diagram, &gen.Error,
		&gen.PromptTokens, &gen.CompletionTokens, &gen.CreatedAt, &gen.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("generation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation %s: %w", id, err)
	}
	return gen, nil
}

// ListGenerations returns the most recent generations, newest first.
// The diagram and raw response bodies are omitted to keep listings small.
func (s *Store) ListGenerations(limit int) ([]*Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, prompt, provider, model, status, COALESCE(error, ''),
		       prompt_tokens, completion_tokens, created_at, completed_at
		FROM generations
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var gens []*Generation
	for rows.Next() {
		gen := &Generation{}
		if err := rows.Scan(
			&gen.ID, &gen.Prompt, &gen.Provider, &gen.Model, &gen.Status, &gen.Error,
			&gen.PromptTokens, &gen.CompletionTokens, &gen.CreatedAt, &gen.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		gens = append(gens, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("generation rows error: %w", err)
	}
	return gens, nil
}

// UpsertDiagram inserts or updates a saved diagram.
func (s *Store) UpsertDiagram(d *SavedDiagram) error {
	query := `
		INSERT INTO diagrams (id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query, d.ID, d.Title, d.Content, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert diagram %s: %w", d.ID, err)
	}
	return nil
}

// GetDiagramByID retrieves a saved diagram.
func (s *Store) GetDiagramByID(id string) (*SavedDiagram, error) {
	query := `SELECT id, title, content, created_at, updated_at FROM diagrams WHERE id = ?`
	d := &SavedDiagram{}
	err := s.db.QueryRow(query, id).Scan(&d.ID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("diagram %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get diagram %s: %w", id, err)
	}
	return d, nil
}

// ListDiagrams returns all saved diagrams, most recently updated first.
func (s *Store) ListDiagrams() ([]*SavedDiagram, error) {
	query := `SELECT id, title, content, created_at, updated_at FROM diagrams ORDER BY updated_at DESC`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagrams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var diagrams []*SavedDiagram
	for rows.Next() {
		d := &SavedDiagram{}
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagram: %w", err)
		}
		diagrams = append(diagrams, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("diagram rows error: %w", err)
	}
	return diagrams, nil
}

// DeleteDiagram removes a saved diagram.
func (s *Store) DeleteDiagram(id string) error {
	res, err := s.db.Exec(`DELETE FROM diagrams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete diagram %s: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
