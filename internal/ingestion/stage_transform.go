package ingestion

import (
	"context"
	"time"

	"contenthub/internal/render"
	"contenthub/internal/taxonomy"
)

type transformStage struct {
	taxonomy *taxonomy.Service
	renderer *render.Renderer
	now      func() time.Time
}

func (s *transformStage) Name() string { return "transform" }

func (s *transformStage) Run(_ context.Context, ex *Execution) error {
	if ex.ExistingID != "" && ex.ExistingSlug != "" {
		ex.Slug = ex.ExistingSlug
	} else {
		slug := taxonomy.Slugify(ex.Raw.Title)
		if slug == "" {
			return &ValidationError{
				Prefix:     "Validation failed",
				Violations: []string{"title must contain at least one letter or digit"},
			}
		}
		if cat, ok := s.taxonomy.Category(ex.Raw.Type); ok && cat.PrependDateToSlug {
			slug = taxonomy.DatedSlug(slug, s.now().UTC())
		}
		ex.Slug = slug
	}

	body := s.renderer.MarkdownToBody(ex.Raw.Markdown)
	ex.Body = &body
	ex.ReadingTime = render.ReadingTime(body.PlainText())
	return nil
}
