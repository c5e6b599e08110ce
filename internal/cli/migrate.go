package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"contenthub/internal/app"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	migrateCmd.AddCommand(newMigrateStepCommand(ctx, "up", "Apply all pending migrations", true))
	migrateCmd.AddCommand(newMigrateStepCommand(ctx, "down", "Roll back every migration", false))
	return migrateCmd
}

func newMigrateStepCommand(ctx *commandContext, use, short string, up bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := app.OpenDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := app.Migrate(db, cfg.MigrationPath, up); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations %s: done\n", use)
			return nil
		},
	}
}
