package cli

import (
	"context"
	"database/sql"
	"sync"

	"contenthub/internal/app"
	"contenthub/internal/config"
	"contenthub/internal/docstore"
	"contenthub/internal/settings"
)

// backend is the storage a command runs against.
type backend struct {
	store    docstore.Store
	settings settings.Repository
	close    func()
}

type commandContext struct {
	loadConfig  func() (*config.Config, error)
	openBackend func(ctx context.Context, cfg *config.Config) (*backend, error)

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{
		loadConfig:  config.Load,
		openBackend: openPostgresBackend,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = c.loadConfig()
	})
	return c.config, c.configErr
}

func (c *commandContext) withBackend(ctx context.Context, fn func(*config.Config, *backend) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	b, err := c.openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()
	return fn(cfg, b)
}

func openPostgresBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return postgresBackend(db), nil
}

func postgresBackend(db *sql.DB) *backend {
	return &backend{
		store:    docstore.NewPostgresStore(db),
		settings: settings.NewPostgresRepo(db),
		close:    func() { _ = db.Close() },
	}
}

func memoryBackend() *backend {
	return &backend{
		store:    docstore.NewMemoryStore(),
		settings: settings.NewMemoryRepo(),
		close:    func() {},
	}
}
