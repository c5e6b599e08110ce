package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid settings")

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Settings struct {
	ID                int    `json:"-"`
	GeneratorProvider string `json:"generator_provider"`
	AnthropicAPIKey   string `json:"anthropic_api_key"`
	AnthropicModel    string `json:"anthropic_model"`
	GeminiAPIKey      string `json:"gemini_api_key"`
	GeminiModel       string `json:"gemini_model"`
	NotionAPIKey      string `json:"notion_api_key"`
	DefaultLanguage   string `json:"default_language"`
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

// Service reads settings from the repository, filling empty values from
// the process configuration.
type Service struct {
	repo     Repository
	defaults Settings
}

func NewService(repo Repository, defaults Settings) *Service {
	return &Service{repo: repo, defaults: defaults}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	merged := *stored
	fill(&merged.GeneratorProvider, s.defaults.GeneratorProvider)
	fill(&merged.AnthropicAPIKey, s.defaults.AnthropicAPIKey)
	fill(&merged.AnthropicModel, s.defaults.AnthropicModel)
	fill(&merged.GeminiAPIKey, s.defaults.GeminiAPIKey)
	fill(&merged.GeminiModel, s.defaults.GeminiModel)
	fill(&merged.NotionAPIKey, s.defaults.NotionAPIKey)
	fill(&merged.DefaultLanguage, s.defaults.DefaultLanguage)
	return &merged, nil
}

// Update stores set. Masked or empty secrets keep their stored value so a
// client can send back what GET returned.
func (s *Service) Update(ctx context.Context, set *Settings) error {
	switch set.GeneratorProvider {
	case "", ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown generator provider %q", ErrInvalid, set.GeneratorProvider)
	}

	stored, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	keepSecret(&set.AnthropicAPIKey, stored.AnthropicAPIKey)
	keepSecret(&set.GeminiAPIKey, stored.GeminiAPIKey)
	keepSecret(&set.NotionAPIKey, stored.NotionAPIKey)
	return s.repo.Update(ctx, set)
}

// Masked returns a copy safe to show to clients.
func (s *Settings) Masked() *Settings {
	m := *s
	m.AnthropicAPIKey = mask(m.AnthropicAPIKey)
	m.GeminiAPIKey = mask(m.GeminiAPIKey)
	m.NotionAPIKey = mask(m.NotionAPIKey)
	return &m
}

const maskMarker = "****"

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return maskMarker
	}
	return secret[:4] + maskMarker + secret[len(secret)-4:]
}

func keepSecret(incoming *string, stored string) {
	if *incoming == "" || strings.Contains(*incoming, maskMarker) {
		*incoming = stored
	}
}

func fill(v *string, def string) {
	if *v == "" {
		*v = def
	}
}
