package anthropic

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"contenthub/internal/generator"
)

const defaultModel = "claude-sonnet-4-5"

// DynamicGenerator reads the API key from settings on every call and
// rebuilds its client when the key changes.
type DynamicGenerator struct {
	settings   generator.SettingsSource
	client     *anthropic.Client
	currentKey string
	mu         sync.RWMutex
	clientOpts []option.RequestOption
}

func NewDynamicGenerator(src generator.SettingsSource, opts ...option.RequestOption) *DynamicGenerator {
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

	if s.AnthropicAPIKey == "" {
		return nil, &generator.NotConfiguredError{Provider: "anthropic"}
	}

	model := s.AnthropicModel
	if model == "" {
		model = defaultModel
	}

	client := g.getClient(s.AnthropicAPIKey)
	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(generator.MaxTokens(req.Category)),
		System: []anthropic.TextBlockParam{
			{Text: generator.SystemPrompt(req.Domains)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(generator.UserPrompt(req))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic generate: %w", err)
	}

	if resp.StopReason == "max_tokens" {
		return nil, generator.ErrTruncated
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return generator.ParseDraft(text.String())
}

func (g *DynamicGenerator) getClient(key string) *anthropic.Client {
	g.mu.RLock()
	if g.client != nil && g.currentKey == key {
		defer g.mu.RUnlock()
		return g.client
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil && g.currentKey == key {
		return g.client
	}

	opts := append(append([]option.RequestOption(nil), g.clientOpts...), option.WithAPIKey(key))
	client := anthropic.NewClient(opts...)
	g.client = &client
	g.currentKey = key
	return g.client
}
