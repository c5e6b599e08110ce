// Package generator turns raw notes into a structured content draft with a
// large language model.
package generator

import (
	"context"
	"errors"
	"fmt"
)

// Request is one generation call. Domains lists the domain slugs the model
// may choose from.
type Request struct {
	RawText  string
	Category string
	Language string
	Domains  []string
}

// Draft is the structured output of a generation call.
type Draft struct {
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	Markdown         string   `json:"markdown"`
	Domain           []string `json:"domain"`
	Tools            []string `json:"tools"`
	Concepts         []string `json:"concepts"`
	DetectedLanguage string   `json:"detectedLanguage"`
	QualityScore     *float64 `json:"qualityScore"`
}

type Generator interface {
	Generate(ctx context.Context, req Request) (*Draft, error)
}

// NotConfiguredError means the selected provider has no credentials.
type NotConfiguredError struct {
	Provider string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s api key not configured", e.Provider)
}

func IsNotConfigured(err error) bool {
	var nc *NotConfiguredError
	return errors.As(err, &nc)
}

var (
	ErrTruncated = errors.New("generation was truncated (output too long), try shorter input or a simpler content type")
	ErrNoJSON    = errors.New("generation returned no structured content")
)

// DefaultQualityScore is used when the model omits a score.
const DefaultQualityScore = 0.5

// Score returns the draft's quality score clamped to [0, 1].
func (d *Draft) Score() float64 {
	if d.QualityScore == nil {
		return DefaultQualityScore
	}
	s := *d.QualityScore
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
