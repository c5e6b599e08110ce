// Package docstore is the generic document store the ingestion pipeline
// reads and writes through: find, create, update and count over named
// collections of JSON documents.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultLimit = 10
	MaxLimit     = 500
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("unique constraint violation")
)

// ConflictError reports which unique constraint a write violated.
type ConflictError struct {
	Collection string
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrConflict, e.Constraint, e.Collection)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

type Store interface {
	Find(ctx context.Context, collection string, q Query) (*FindResult, error)
	Create(ctx context.Context, collection string, data any) (*Document, error)
	Update(ctx context.Context, collection, id string, data any) (*Document, error)
	Count(ctx context.Context, collection string, where Where) (int, error)
}

type Query struct {
	Where Where
	// Sort is a field path, prefixed with "-" for descending order.
	Sort  string
	Limit int
	Page  int
}

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Sort == "" {
		q.Sort = "-createdAt"
	}
	return q
}

type FindResult struct {
	Docs        []Document `json:"docs"`
	TotalDocs   int        `json:"totalDocs"`
	Page        int        `json:"page"`
	HasNextPage bool       `json:"hasNextPage"`
}

func (r *FindResult) First() (*Document, bool) {
	if r == nil || len(r.Docs) == 0 {
		return nil, false
	}
	return &r.Docs[0], true
}

type Document struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Data      map[string]any `json:"data"`
}

// Decode copies the document into v, exposing id and timestamps as
// top-level "id", "createdAt" and "updatedAt" keys.
func (d Document) Decode(v any) error {
	m := make(map[string]any, len(d.Data)+3)
	for k, val := range d.Data {
		m[k] = val
	}
	m["id"] = d.ID
	m["createdAt"] = d.CreatedAt
	m["updatedAt"] = d.UpdatedAt

	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// String returns the string at a dotted field path, or "".
func (d Document) String(field string) string {
	v, ok := lookup(d, field)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// encodeData marshals a struct or map into a JSON object, dropping the keys
// that live in dedicated columns.
func encodeData(data any) ([]byte, map[string]any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("encode data: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, nil, fmt.Errorf("data must be a JSON object: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	delete(m, "id")
	delete(m, "createdAt")
	delete(m, "updatedAt")

	b, err = json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("encode data: %w", err)
	}
	return b, m, nil
}
