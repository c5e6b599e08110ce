package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"contenthub/internal/content"
	"contenthub/internal/docstore"
)

// Service is the single owner of category, domain and tool knowledge:
// validity checks, label mapping and slug to id resolution.
type Service struct {
	catalog    *Catalog
	categories map[string]Category
	domains    map[string]Domain
}

func NewService(c *Catalog) *Service {
	s := &Service{
		catalog:    c,
		categories: make(map[string]Category, len(c.Categories)),
		domains:    make(map[string]Domain, len(c.Domains)),
	}
	for _, cat := range c.Categories {
		s.categories[cat.Slug] = cat
	}
	for _, d := range c.Domains {
		s.domains[d.Slug] = d
	}
	return s
}

func (s *Service) CategorySlugs() []string {
	out := make([]string, 0, len(s.catalog.Categories))
	for _, c := range s.catalog.Categories {
		out = append(out, c.Slug)
	}
	return out
}

func (s *Service) IsValidCategory(slug string) bool {
	_, ok := s.categories[slug]
	return ok
}

func (s *Service) Category(slug string) (Category, bool) {
	c, ok := s.categories[slug]
	return c, ok
}

func (s *Service) IsValidDomain(slug string) bool {
	_, ok := s.domains[slug]
	return ok
}

func (s *Service) DomainSlugs() []string {
	out := make([]string, 0, len(s.catalog.Domains))
	for _, d := range s.catalog.Domains {
		out = append(out, d.Slug)
	}
	return out
}

// CategoryFromLabel maps a display label ("Tool Focus") or slug onto a
// category slug.
func (s *Service) CategoryFromLabel(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	if _, ok := s.categories[label]; ok {
		return label, true
	}
	for _, c := range s.catalog.Categories {
		if matchesAlias(label, c.Name, c.Aliases) {
			return c.Slug, true
		}
	}
	return "", false
}

func (s *Service) DomainFromLabel(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	if _, ok := s.domains[label]; ok {
		return label, true
	}
	for _, d := range s.catalog.Domains {
		if matchesAlias(label, d.Name, d.Aliases) {
			return d.Slug, true
		}
	}
	return "", false
}

// FilterDomains keeps the valid domain slugs in input order and reports
// the rest as dropped.
func (s *Service) FilterDomains(slugs []string) (kept, dropped []string) {
	kept = make([]string, 0, len(slugs))
	seen := map[string]bool{}
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		if !s.IsValidDomain(slug) {
			if slug != "" {
				dropped = append(dropped, slug)
			}
			continue
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true
		kept = append(kept, slug)
	}
	return kept, dropped
}

// Resolution maps slugs onto persisted identifiers.
type Resolution struct {
	IDs       []string
	Resolved  []string
	Unmatched []string
}

func (s *Service) ResolveTools(ctx context.Context, store docstore.Store, slugs []string) (*Resolution, error) {
	return resolveSlugs(ctx, store, content.CollectionTools, slugs)
}

func (s *Service) ResolveDomains(ctx context.Context, store docstore.Store, slugs []string) (*Resolution, error) {
	return resolveSlugs(ctx, store, content.CollectionDomains, slugs)
}

func resolveSlugs(ctx context.Context, store docstore.Store, collection string, slugs []string) (*Resolution, error) {
	res := &Resolution{IDs: []string{}, Resolved: []string{}}

	unique := make([]string, 0, len(slugs))
	seen := map[string]bool{}
	for _, slug := range slugs {
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		unique = append(unique, slug)
	}
	if len(unique) == 0 {
		return res, nil
	}

	found, err := store.Find(ctx, collection, docstore.Query{
		Where: docstore.In("slug", unique...),
		Limit: len(unique),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", collection, err)
	}

	ids := make(map[string]string, len(found.Docs))
	for _, doc := range found.Docs {
		ids[doc.String("slug")] = doc.ID
	}

	for _, slug := range unique {
		id, ok := ids[slug]
		if !ok {
			res.Unmatched = append(res.Unmatched, slug)
			continue
		}
		res.IDs = append(res.IDs, id)
		res.Resolved = append(res.Resolved, slug)
	}
	return res, nil
}

// Seed creates the catalogue's domains and tools that are not yet
// persisted. Safe to run repeatedly and concurrently.
func (s *Service) Seed(ctx context.Context, store docstore.Store) (int, error) {
	created := 0
	for _, d := range s.catalog.Domains {
		ok, err := ensure(ctx, store, content.CollectionDomains, d.Slug, map[string]any{"slug": d.Slug, "name": d.Name})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	for _, t := range s.catalog.Tools {
		ok, err := ensure(ctx, store, content.CollectionTools, t.Slug, map[string]any{"slug": t.Slug, "name": t.Name})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		slog.InfoContext(ctx, "taxonomy seeded", "created", created)
	}
	return created, nil
}

func ensure(ctx context.Context, store docstore.Store, collection, slug string, data map[string]any) (bool, error) {
	n, err := store.Count(ctx, collection, docstore.Eq("slug", slug))
	if err != nil {
		return false, fmt.Errorf("seed %s/%s: %w", collection, slug, err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := store.Create(ctx, collection, data); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("seed %s/%s: %w", collection, slug, err)
	}
	return true, nil
}

func matchesAlias(label, name string, aliases []string) bool {
	if strings.EqualFold(label, name) {
		return true
	}
	for _, a := range aliases {
		if strings.EqualFold(label, a) {
			return true
		}
	}
	return false
}
