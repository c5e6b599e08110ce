package ingestion

import (
	"context"
	"encoding/json"
)

// Record is the canonical shape every adapter produces and every stage
// consumes.
type Record struct {
	Title      string   `json:"title" validate:"nonblank"`
	Markdown   string   `json:"markdown" validate:"nonblank"`
	Type       string   `json:"type" validate:"category"`
	Summary    string   `json:"summary" validate:"nonblank"`
	Domain     []string `json:"domain,omitempty"`
	Tools      []string `json:"tools,omitempty"`
	Concepts   []string `json:"concepts,omitempty"`
	Language   string   `json:"language,omitempty" validate:"omitempty,len=2,lowercase"`
	ExternalID string   `json:"externalId,omitempty"`
	SourceURL  string   `json:"sourceUrl,omitempty"`
	Metadata   Metadata `json:"metadata"`
}

// Metadata carries adapter annotations. SourceType is stamped by the
// orchestrator before any stage runs; AI is set only by the generation
// adapter. Extra is the open fallback for anything else.
type Metadata struct {
	SourceType string         `json:"sourceType,omitempty"`
	AI         *AIAnnotations `json:"ai,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

type AIAnnotations struct {
	QualityScore     float64 `json:"qualityScore"`
	DetectedLanguage string  `json:"detectedLanguage,omitempty"`
}

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validation builds a result from a list of violations.
func Validation(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Adapter translates one origin's payload into a Record.
//
// Extract may read from third-party APIs but never writes to the content
// store. Validate is pure and reports problems instead of failing.
type Adapter interface {
	Name() string
	Extract(ctx context.Context, payload json.RawMessage) (*Record, error)
	Validate(r *Record) ValidationResult
}
