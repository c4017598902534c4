package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emiafrica/market-intel/internal/server"
	"github.com/emiafrica/market-intel/internal/server/ws"
	"github.com/emiafrica/market-intel/internal/service"
)

// ServeMode runs the HTTP API and, when the bus is available, the
// websocket hub. It blocks until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus,
			[]string{service.PriceChannel, service.ListingChannel}, a.logger)
		g.Go(func() error {
			err := hub.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	srv := server.New(server.Config{
		Addr:            fmt.Sprintf(":%d", a.cfg.Server.Port),
		APIKey:          a.cfg.Server.APIKey,
		AllowedOrigins:  a.cfg.Server.CORSOrigins,
		RateLimit:       a.cfg.Server.RateLimit,
		RateWindow:      a.cfg.Server.RateWindow.Duration,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout.Duration,
	}, server.Deps{
		Listings:  deps.Listings,
		Analytics: deps.Analytics,
		Geo:       deps.GeoStore,
		Catalog:   deps.CatalogStore,
		Limiter:   deps.RateLimiter,
		Hub:       hub,
	}, a.logger)

	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
}

// ExportMode runs one history export and exits. MaxAge zero exports the
// whole ledger up to now.
func (a *App) ExportMode(ctx context.Context, deps *Dependencies) error {
	cutoff := time.Now().UTC()
	if maxAge := a.cfg.Export.MaxAge.Duration; maxAge > 0 {
		cutoff = cutoff.Add(-maxAge)
	}

	count, path, err := deps.Archiver.ExportHistory(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("app: export history: %w", err)
	}
	a.logger.Info("export complete", "rows", count, "path", path)
	return nil
}

// FullMode runs the API alongside a periodic export loop.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.ServeMode(gctx, deps) })

	g.Go(func() error {
		ticker := time.NewTicker(a.cfg.Export.Interval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := a.ExportMode(gctx, deps); err != nil {
					// Export failures are retried next tick; the API keeps
					// serving.
					a.logger.Error("periodic export failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
