package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"contenthub/internal/app"
	"contenthub/internal/config"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the replay worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if memory {
				return serveMemory(cmd.Context(), cfg)
			}
			return servePostgres(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "Keep everything in memory, without Postgres or NSQ")
	return cmd
}

func serveMemory(ctx context.Context, cfg *config.Config) error {
	slog.Warn("running with in-memory storage, data is lost on exit")
	b := memoryBackend()
	a, err := app.New(cfg, b.store, b.settings, nil)
	if err != nil {
		return err
	}
	if err := seed(ctx, a); err != nil {
		return err
	}
	return a.Run(ctx)
}

func servePostgres(ctx context.Context, cfg *config.Config) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.NSQProducer.Stop()

	b := postgresBackend(deps.DB)
	defer b.close()

	a, err := app.New(cfg, b.store, b.settings, deps.NSQProducer)
	if err != nil {
		return err
	}
	if err := seed(ctx, a); err != nil {
		return err
	}

	if cfg.EnableReplayWorker {
		consumer, err := app.StartReplayConsumer(cfg, a.ReplayConsumer)
		if err != nil {
			slog.Error("replay worker disabled", "error", err)
		} else {
			defer consumer.Stop()
		}
	}

	return a.Run(ctx)
}

func seed(ctx context.Context, a *app.App) error {
	n, err := a.Taxonomy.Seed(ctx, a.Store)
	if err != nil {
		return fmt.Errorf("seed taxonomy: %w", err)
	}
	if n > 0 {
		slog.Info("taxonomy seeded", "created", n)
	}
	return nil
}
