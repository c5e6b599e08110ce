package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contenthub/internal/generator"
	"contenthub/internal/ingestion"
	"contenthub/internal/taxonomy"
)

// GeneratePayload is the body of a generation call.
type GeneratePayload struct {
	RawText  string `json:"raw_text"`
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
}

// AI structures raw notes through the configured generator.
type AI struct {
	generator       generator.Generator
	taxonomy        *taxonomy.Service
	defaultLanguage string
}

func NewAI(gen generator.Generator, tax *taxonomy.Service, defaultLanguage string) *AI {
	return &AI{generator: gen, taxonomy: tax, defaultLanguage: defaultLanguage}
}

func (a *AI) Name() string { return NameAIGenerate }

func (a *AI) Extract(ctx context.Context, payload json.RawMessage) (*ingestion.Record, error) {
	var p GeneratePayload
	if err := decodeObject(NameAIGenerate, payload, &p); err != nil {
		return nil, err
	}
	if blank(p.RawText) {
		return nil, ingestion.NewExtractionError(NameAIGenerate, "raw_text is required", nil)
	}

	requested := p.Language
	if requested == "" {
		requested = a.defaultLanguage
	}

	draft, err := a.generator.Generate(ctx, generator.Request{
		RawText:  p.RawText,
		Category: p.Type,
		Language: requested,
		Domains:  a.taxonomy.DomainSlugs(),
	})
	if err != nil {
		return nil, err
	}

	domains, dropped := a.taxonomy.FilterDomains(draft.Domain)
	var warnings []string
	for _, d := range dropped {
		warnings = append(warnings, fmt.Sprintf("generated domain %q is not a known domain", d))
	}

	detected := strings.ToLower(strings.TrimSpace(draft.DetectedLanguage))
	language := detected
	if len(language) != 2 {
		language = requested
	}

	return &ingestion.Record{
		Title:    draft.Title,
		Markdown: draft.Markdown,
		Type:     p.Type,
		Summary:  draft.Summary,
		Domain:   domains,
		Tools:    taxonomy.NormalizeSlugs(draft.Tools),
		Concepts: draft.Concepts,
		Language: language,
		Metadata: ingestion.Metadata{
			AI: &ingestion.AIAnnotations{
				QualityScore:     draft.Score(),
				DetectedLanguage: detected,
			},
			Warnings: warnings,
		},
	}, nil
}

func (a *AI) Validate(r *ingestion.Record) ingestion.ValidationResult {
	var errs []string
	if blank(r.Title) {
		errs = append(errs, "AI failed to generate a title")
	}
	if blank(r.Markdown) {
		errs = append(errs, "AI failed to generate body content")
	}
	if blank(r.Summary) {
		errs = append(errs, "AI failed to generate a summary")
	}
	return ingestion.Validation(errs)
}
