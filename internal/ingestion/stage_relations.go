package ingestion

import (
	"context"
	"fmt"

	"contenthub/internal/taxonomy"
)

type relationsStage struct {
	taxonomy *taxonomy.Service
}

func (s *relationsStage) Name() string { return "resolve-relations" }

// Run maps tool and domain slugs to persisted ids. Unknown slugs are
// dropped with a warning, never an error.
func (s *relationsStage) Run(ctx context.Context, ex *Execution) error {
	tools, err := s.taxonomy.ResolveTools(ctx, ex.Store, taxonomy.NormalizeSlugs(ex.Raw.Tools))
	if err != nil {
		return err
	}
	for _, slug := range tools.Unmatched {
		ex.warn(fmt.Sprintf("tool %q not found", slug))
	}

	kept, dropped := s.taxonomy.FilterDomains(ex.Raw.Domain)
	for _, slug := range dropped {
		ex.warn(fmt.Sprintf("domain %q is not a known domain", slug))
	}
	domains, err := s.taxonomy.ResolveDomains(ctx, ex.Store, kept)
	if err != nil {
		return err
	}
	for _, slug := range domains.Unmatched {
		ex.warn(fmt.Sprintf("domain %q not found", slug))
	}

	ex.ToolIDs = tools.IDs
	ex.DomainIDs = domains.IDs
	ex.DomainSlugs = domains.Resolved
	return nil
}
