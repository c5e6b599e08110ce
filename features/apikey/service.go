package apikey

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"contenthub/internal/content"
	"contenthub/internal/docstore"
)

type Service struct {
	store docstore.Store
	now   func() time.Time
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create stores a new active key and returns its plaintext once.
func (s *Service) Create(ctx context.Context, name, source string) (string, *Key, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil, fmt.Errorf("api key name is required")
	}
	plain, err := Generate()
	if err != nil {
		return "", nil, err
	}
	doc, err := s.store.Create(ctx, content.CollectionAPIKeys, map[string]any{
		"name":    name,
		"source":  source,
		"keyHash": Hash(plain),
		"active":  true,
	})
	if err != nil {
		return "", nil, fmt.Errorf("store api key: %w", err)
	}
	var k Key
	if err := doc.Decode(&k); err != nil {
		return "", nil, err
	}
	return plain, &k, nil
}

// Verify resolves an active key. Keys stored before hashing was introduced
// are matched on their plaintext field.
func (s *Service) Verify(ctx context.Context, plain string) (*Key, error) {
	if plain == "" {
		return nil, ErrInvalidKey
	}

	hash := Hash(plain)
	doc, err := s.findActive(ctx, "keyHash", hash)
	if err != nil {
		return nil, err
	}
	if doc == nil || subtle.ConstantTimeCompare([]byte(doc.String("keyHash")), []byte(hash)) != 1 {
		doc, err = s.findActive(ctx, "key", plain)
		if err != nil {
			return nil, err
		}
		if doc == nil || subtle.ConstantTimeCompare([]byte(doc.String("key")), []byte(plain)) != 1 {
			return nil, ErrInvalidKey
		}
	}

	var k Key
	if err := doc.Decode(&k); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if _, err := s.store.Update(ctx, content.CollectionAPIKeys, doc.ID, map[string]any{"lastUsedAt": now}); err != nil {
		slog.WarnContext(ctx, "failed to update api key last use", "keyId", doc.ID, "error", err)
	} else {
		k.LastUsedAt = &now
	}
	return &k, nil
}

func (s *Service) findActive(ctx context.Context, field, value string) (*docstore.Document, error) {
	res, err := s.store.Find(ctx, content.CollectionAPIKeys, docstore.Query{
		Where: docstore.And(docstore.Eq(field, value), docstore.Eq("active", true)),
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup api key: %w", err)
	}
	doc, ok := res.First()
	if !ok {
		return nil, nil
	}
	return doc, nil
}
