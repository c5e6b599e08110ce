package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"contenthub/internal/generator"
)

const defaultModel = "gemini-2.0-flash"

// DynamicGenerator reads the API key from settings on every call and
// rebuilds its client when the key changes.
type DynamicGenerator struct {
	settings   generator.SettingsSource
	client     *genai.Client
	currentKey string
	mu         sync.RWMutex
	clientOpts []option.ClientOption
}

func NewDynamicGenerator(src generator.SettingsSource, opts ...option.ClientOption) *DynamicGenerator {
	return &DynamicGenerator{
		settings:   src,
		clientOpts: opts,
	}
}

func (g *DynamicGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Draft, error) {
	s, err := g.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	if s.GeminiAPIKey == "" {
		return nil, &generator.NotConfiguredError{Provider: "gemini"}
	}

	client, err := g.getClient(ctx, s.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	name := s.GeminiModel
	if name == "" {
		name = defaultModel
	}
	model := client.GenerativeModel(name)
	model.SetMaxOutputTokens(int32(generator.MaxTokens(req.Category)))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(generator.SystemPrompt(req.Domains))},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(generator.UserPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, generator.ErrNoJSON
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonMaxTokens {
		return nil, generator.ErrTruncated
	}

	var text strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return generator.ParseDraft(text.String())
}

func (g *DynamicGenerator) getClient(ctx context.Context, key string) (*genai.Client, error) {
	g.mu.RLock()
	if g.client != nil && g.currentKey == key {
		defer g.mu.RUnlock()
		return g.client, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double check
	if g.client != nil && g.currentKey == key {
		return g.client, nil
	}

	if g.client != nil {
		if err := g.client.Close(); err != nil {
			slog.Warn("failed to close previous genai client", "error", err)
		}
	}

	opts := append(append([]option.ClientOption(nil), g.clientOpts...), option.WithAPIKey(key))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	g.client = client
	g.currentKey = key
	return client, nil
}
