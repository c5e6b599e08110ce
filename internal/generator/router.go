package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contenthub/internal/settings"
)

type SettingsSource interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Router dispatches to the provider selected in settings at call time, so a
// provider switch takes effect without a restart.
type Router struct {
	settings  SettingsSource
	providers map[string]Generator
	timeout   time.Duration
}

func NewRouter(src SettingsSource, timeout time.Duration, providers map[string]Generator) *Router {
	return &Router{settings: src, providers: providers, timeout: timeout}
}

func (r *Router) Generate(ctx context.Context, req Request) (*Draft, error) {
	s, err := r.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	g, ok := r.providers[s.GeneratorProvider]
	if !ok {
		return nil, fmt.Errorf("unknown generator provider %q", s.GeneratorProvider)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	d, err := g.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "content generated",
		"provider", s.GeneratorProvider,
		"category", req.Category,
		"duration", time.Since(start),
	)
	return d, nil
}
