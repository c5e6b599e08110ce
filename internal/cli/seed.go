package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"contenthub/internal/config"
	"contenthub/internal/taxonomy"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the catalog's tools and domains if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd.Context(), func(cfg *config.Config, b *backend) error {
				catalog, err := taxonomy.DefaultCatalog()
				if cfg.TaxonomyPath != "" {
					catalog, err = taxonomy.LoadCatalog(cfg.TaxonomyPath)
				}
				if err != nil {
					return err
				}
				n, err := taxonomy.NewService(catalog).Seed(cmd.Context(), b.store)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d taxonomy entries\n", n)
				return nil
			})
		},
	}
}
