package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"contenthub/internal/logger"
)

// NewRootCommand builds the contenthub command tree. Without a subcommand
// it serves the HTTP API.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newCommandContext())
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "contenthub",
		Short:         "Content ingestion service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat))
			return nil
		},
	}

	serveCmd := newServeCommand(ctx)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newKeysCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newSeedCommand(ctx))
	rootCmd.AddCommand(newIngestCommand(ctx))

	return rootCmd
}
