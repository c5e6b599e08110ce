package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UniqueIndex mirrors a partial unique index: documents whose indexed
// fields are all non-empty strings must not share the same values.
type UniqueIndex struct {
	Name       string
	Collection string
	Fields     []string
}

// DefaultIndexes matches the unique indexes created by the migrations.
var DefaultIndexes = []UniqueIndex{
	{Name: "content_slug_key", Collection: "content", Fields: []string{"slug"}},
	{Name: "content_source_key", Collection: "content", Fields: []string{"source.type", "source.externalId"}},
	{Name: "tools_slug_key", Collection: "tools", Fields: []string{"slug"}},
	{Name: "domains_slug_key", Collection: "domains", Fields: []string{"slug"}},
	{Name: "api_keys_hash_key", Collection: "api-keys", Fields: []string{"keyHash"}},
}

var _ Store = (*MemoryStore)(nil)

type memDoc struct {
	doc Document
	seq int64
}

type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string][]*memDoc
	indexes []UniqueIndex
	seq     int64
	now     func() time.Time
}

func NewMemoryStore(indexes ...UniqueIndex) *MemoryStore {
	if indexes == nil {
		indexes = DefaultIndexes
	}
	return &MemoryStore{
		docs:    make(map[string][]*memDoc),
		indexes: indexes,
		now:     time.Now,
	}
}

func (s *MemoryStore) Find(ctx context.Context, collection string, q Query) (*FindResult, error) {
	q = q.normalized()

	s.mu.RLock()
	var matched []*memDoc
	for _, d := range s.docs[collection] {
		if q.Where == nil || q.Where.Match(d.doc) {
			matched = append(matched, d)
		}
	}
	s.mu.RUnlock()

	sortDocs(matched, q.Sort)

	total := len(matched)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	docs := make([]Document, 0, end-start)
	for _, d := range matched[start:end] {
		docs = append(docs, clone(d.doc))
	}

	return &FindResult{
		Docs:        docs,
		TotalDocs:   total,
		Page:        q.Page,
		HasNextPage: end < total,
	}, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data any) (*Document, error) {
	_, m, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	doc := Document{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now, Data: m}
	if err := s.checkUnique(collection, doc); err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}

	s.seq++
	s.docs[collection] = append(s.docs[collection], &memDoc{doc: doc, seq: s.seq})
	out := clone(doc)
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, data any) (*Document, error) {
	_, m, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.docs[collection] {
		if d.doc.ID != id {
			continue
		}
		merged := clone(d.doc)
		for k, v := range m {
			merged.Data[k] = v
		}
		merged.UpdatedAt = s.now().UTC()
		if err := s.checkUnique(collection, merged); err != nil {
			return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		d.doc = merged
		out := clone(merged)
		return &out, nil
	}
	return nil, fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
}

func (s *MemoryStore) Count(ctx context.Context, collection string, where Where) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.docs[collection] {
		if where == nil || where.Match(d.doc) {
			n++
		}
	}
	return n, nil
}

// checkUnique must be called with the write lock held.
func (s *MemoryStore) checkUnique(collection string, candidate Document) error {
	for _, idx := range s.indexes {
		if idx.Collection != collection {
			continue
		}
		key, ok := indexKey(candidate, idx.Fields)
		if !ok {
			continue
		}
		for _, d := range s.docs[collection] {
			if d.doc.ID == candidate.ID {
				continue
			}
			if other, ok := indexKey(d.doc, idx.Fields); ok && other == key {
				return &ConflictError{Collection: collection, Constraint: idx.Name}
			}
		}
	}
	return nil
}

func indexKey(doc Document, fields []string) (string, bool) {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := lookup(doc, f)
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\x00"), true
}

func sortDocs(docs []*memDoc, sortBy string) {
	desc := strings.HasPrefix(sortBy, "-")
	field := strings.TrimPrefix(sortBy, "-")

	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		var less, equal bool
		switch field {
		case "createdAt":
			less, equal = a.doc.CreatedAt.Before(b.doc.CreatedAt), a.doc.CreatedAt.Equal(b.doc.CreatedAt)
		case "updatedAt":
			less, equal = a.doc.UpdatedAt.Before(b.doc.UpdatedAt), a.doc.UpdatedAt.Equal(b.doc.UpdatedAt)
		default:
			av, _ := lookup(a.doc, field)
			bv, _ := lookup(b.doc, field)
			as, bs := fmt.Sprint(av), fmt.Sprint(bv)
			less, equal = as < bs, as == bs
		}
		if equal {
			less = a.seq < b.seq
		}
		if desc {
			return !less
		}
		return less
	})
}

func clone(doc Document) Document {
	b, err := json.Marshal(doc.Data)
	if err != nil {
		return doc
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return doc
	}
	if data == nil {
		data = map[string]any{}
	}
	doc.Data = data
	return doc
}
