package ingestlog

import (
	"context"
	"fmt"

	"contenthub/internal/content"
	"contenthub/internal/docstore"
	"contenthub/internal/ingestion"
)

type Filter struct {
	Status string
	Page   int
	Limit  int
}

type Page struct {
	Entries     []ingestion.LogEntry `json:"entries"`
	TotalDocs   int                  `json:"totalDocs"`
	Page        int                  `json:"page"`
	HasNextPage bool                 `json:"hasNextPage"`
}

type Repository interface {
	List(ctx context.Context, f Filter) (*Page, error)
	Get(ctx context.Context, id string) (*ingestion.LogEntry, error)
	Count(ctx context.Context, status string) (int, error)
}

// StoreRepo reads the ingestion log through the document store.
type StoreRepo struct {
	store docstore.Store
}

func NewStoreRepo(store docstore.Store) *StoreRepo {
	return &StoreRepo{store: store}
}

func (r *StoreRepo) List(ctx context.Context, f Filter) (*Page, error) {
	q := docstore.Query{Sort: "-createdAt", Page: f.Page, Limit: f.Limit}
	if f.Status != "" {
		q.Where = docstore.Eq("status", f.Status)
	}
	res, err := r.store.Find(ctx, content.CollectionIngestionLogs, q)
	if err != nil {
		return nil, err
	}

	entries := make([]ingestion.LogEntry, 0, len(res.Docs))
	for _, doc := range res.Docs {
		var e ingestion.LogEntry
		if err := doc.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return &Page{Entries: entries, TotalDocs: res.TotalDocs, Page: res.Page, HasNextPage: res.HasNextPage}, nil
}

func (r *StoreRepo) Get(ctx context.Context, id string) (*ingestion.LogEntry, error) {
	res, err := r.store.Find(ctx, content.CollectionIngestionLogs, docstore.Query{Where: docstore.Eq("id", id), Limit: 1})
	if err != nil {
		return nil, err
	}
	doc, ok := res.First()
	if !ok {
		return nil, fmt.Errorf("ingestion log %s: %w", id, docstore.ErrNotFound)
	}
	var e ingestion.LogEntry
	if err := doc.Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *StoreRepo) Count(ctx context.Context, status string) (int, error) {
	var where docstore.Where
	if status != "" {
		where = docstore.Eq("status", status)
	}
	return r.store.Count(ctx, content.CollectionIngestionLogs, where)
}
