// Package adapters holds the source adapters that turn origin payloads into
// ingestion records.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"contenthub/internal/ingestion"
)

const (
	NameAPI        = "api"
	NameNotion     = "notion"
	NameAIGenerate = "ai-generate"
	NameBrowser    = "browser"
)

// GenericLabels are the caller labels accepted by the direct ingest endpoint.
var GenericLabels = []string{"cli", "slack", "browser", "meeting", "manual"}

func IsGenericLabel(label string) bool {
	for _, l := range GenericLabels {
		if l == label {
			return true
		}
	}
	return false
}

// DirectPayload is the body of a direct ingest call.
type DirectPayload struct {
	Source     string   `json:"source,omitempty"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Type       string   `json:"type"`
	Summary    string   `json:"summary"`
	Domain     []string `json:"domain,omitempty"`
	Tools      []string `json:"tools,omitempty"`
	Concepts   []string `json:"concepts,omitempty"`
	Language   string   `json:"language,omitempty"`
	ExternalID string   `json:"externalId,omitempty"`
	SourceURL  string   `json:"sourceUrl,omitempty"`
}

// Direct copies a pre-structured payload into a record.
type Direct struct {
	name string
}

func NewAPI() *Direct {
	return &Direct{name: NameAPI}
}

// NewGeneric returns a direct adapter reporting label as its name.
func NewGeneric(label string) *Direct {
	return &Direct{name: label}
}

func (a *Direct) Name() string { return a.name }

func (a *Direct) Extract(_ context.Context, payload json.RawMessage) (*ingestion.Record, error) {
	var p DirectPayload
	if err := decodeObject(a.name, payload, &p); err != nil {
		return nil, err
	}
	return &ingestion.Record{
		Title:      p.Title,
		Markdown:   p.Body,
		Type:       p.Type,
		Summary:    p.Summary,
		Domain:     p.Domain,
		Tools:      p.Tools,
		Concepts:   p.Concepts,
		Language:   p.Language,
		ExternalID: p.ExternalID,
		SourceURL:  p.SourceURL,
	}, nil
}

func (a *Direct) Validate(r *ingestion.Record) ingestion.ValidationResult {
	var errs []string
	if blank(r.Title) {
		errs = append(errs, "title is required")
	}
	if blank(r.Markdown) {
		errs = append(errs, "body is required")
	}
	if blank(r.Type) {
		errs = append(errs, "type is required")
	}
	if blank(r.Summary) {
		errs = append(errs, "summary is required")
	}
	return ingestion.Validation(errs)
}

func decodeObject(source string, payload json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ingestion.NewExtractionError(source, "expected a JSON object", nil)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return ingestion.NewExtractionError(source, "malformed payload", err)
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
