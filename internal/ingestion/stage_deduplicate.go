package ingestion

import (
	"context"
	"fmt"

	"contenthub/internal/content"
	"contenthub/internal/docstore"
)

type deduplicateStage struct{}

func (deduplicateStage) Name() string { return "deduplicate" }

// Run looks up content already ingested from the same origin. A match turns
// the run into an update; records without an external id always create.
func (deduplicateStage) Run(ctx context.Context, ex *Execution) error {
	if ex.Raw.ExternalID == "" {
		return nil
	}
	doc, err := findBySource(ctx, ex.Store, ex.Raw.Metadata.SourceType, ex.Raw.ExternalID)
	if err != nil {
		return err
	}
	if doc != nil {
		ex.ExistingID = doc.ID
		ex.ExistingSlug = doc.String("slug")
	}
	return nil
}

func findBySource(ctx context.Context, store docstore.Store, sourceType, externalID string) (*docstore.Document, error) {
	res, err := store.Find(ctx, content.CollectionContent, docstore.Query{
		Where: docstore.And(
			docstore.Eq("source.type", sourceType),
			docstore.Eq("source.externalId", externalID),
		),
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("find existing content: %w", err)
	}
	doc, _ := res.First()
	return doc, nil
}
