package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contenthub/internal/content"
	"contenthub/internal/docstore"
)

type persistStage struct {
	defaultLanguage string
	now             func() time.Time
}

func (s *persistStage) Name() string { return "persist" }

// Run writes the content record as a draft. Updates merge into the
// existing record and keep its slug.
func (s *persistStage) Run(ctx context.Context, ex *Execution) error {
	now := s.now().UTC()
	r := ex.Raw

	language := r.Language
	if language == "" {
		language = s.defaultLanguage
	}

	data := map[string]any{
		"title":       r.Title,
		"type":        r.Type,
		"summary":     r.Summary,
		"body":        ex.Body,
		"domains":     nonNil(ex.DomainIDs),
		"tools":       nonNil(ex.ToolIDs),
		"concepts":    nonNil(r.Concepts),
		"language":    language,
		"readingTime": ex.ReadingTime,
		"status":      content.StatusDraft,
		"source": content.Source{
			Type:         r.Metadata.SourceType,
			ExternalID:   r.ExternalID,
			URL:          r.SourceURL,
			LastSyncedAt: now,
		},
	}
	if ai := r.Metadata.AI; ai != nil {
		data["ai"] = content.AIEnrichment{
			QualityScore:     ai.QualityScore,
			AutoTags:         union(r.Concepts, ex.DomainSlugs),
			AutoSummary:      r.Summary,
			DetectedLanguage: ai.DetectedLanguage,
			EnrichedAt:       now,
		}
	}

	var (
		doc *docstore.Document
		err error
	)
	if ex.ExistingID != "" {
		doc, err = ex.Store.Update(ctx, content.CollectionContent, ex.ExistingID, data)
		if err != nil {
			return fmt.Errorf("update content %s: %w", ex.ExistingID, err)
		}
		ex.Action = ActionUpdated
	} else {
		data["slug"] = ex.Slug
		doc, err = ex.Store.Create(ctx, content.CollectionContent, data)
		if err != nil {
			if s.lostRace(ctx, ex, err) {
				return &DuplicateError{SourceType: r.Metadata.SourceType, ExternalID: r.ExternalID}
			}
			return fmt.Errorf("create content: %w", err)
		}
		ex.Action = ActionCreated
	}

	var c content.Content
	if err := doc.Decode(&c); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	ex.Content = &c
	return nil
}

// lostRace reports whether a create conflict came from a concurrent run that
// stored the same origin record first. The slug index may fire before the
// source index, so a slug conflict is checked against the source key.
func (s *persistStage) lostRace(ctx context.Context, ex *Execution, err error) bool {
	var conflict *docstore.ConflictError
	if !errors.As(err, &conflict) {
		return false
	}
	switch conflict.Constraint {
	case content.SourceKeyConstraint:
		return true
	case content.SlugConstraint:
		if ex.Raw.ExternalID == "" {
			return false
		}
		doc, findErr := findBySource(ctx, ex.Store, ex.Raw.Metadata.SourceType, ex.Raw.ExternalID)
		return findErr == nil && doc != nil
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
