package settings

import (
	"context"
	"database/sql"
	"sync"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context) (*Settings, error) {
	s := &Settings{}
	query := `SELECT id, generator_provider, anthropic_api_key, anthropic_model, gemini_api_key, gemini_model, notion_api_key, default_language FROM settings WHERE id = 1`
	err := r.db.QueryRowContext(ctx, query).Scan(&s.ID, &s.GeneratorProvider, &s.AnthropicAPIKey, &s.AnthropicModel, &s.GeminiAPIKey, &s.GeminiModel, &s.NotionAPIKey, &s.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepo) Update(ctx context.Context, s *Settings) error {
	query := `
		UPDATE settings
		SET generator_provider = $1, anthropic_api_key = $2, anthropic_model = $3, gemini_api_key = $4, gemini_model = $5, notion_api_key = $6, default_language = $7, updated_at = NOW()
		WHERE id = 1
	`
	_, err := r.db.ExecContext(ctx, query, s.GeneratorProvider, s.AnthropicAPIKey, s.AnthropicModel, s.GeminiAPIKey, s.GeminiModel, s.NotionAPIKey, s.DefaultLanguage)
	return err
}

// MemoryRepo keeps settings in process, for running without a database.
type MemoryRepo struct {
	mu sync.RWMutex
	s  Settings
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{s: Settings{ID: 1}}
}

func (r *MemoryRepo) Get(ctx context.Context) (*Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.s
	return &s, nil
}

func (r *MemoryRepo) Update(ctx context.Context, s *Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = *s
	r.s.ID = 1
	return nil
}
