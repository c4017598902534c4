// Package server assembles the HTTP surface: routes, middleware chain
// and lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emiafrica/market-intel/internal/domain"
	"github.com/emiafrica/market-intel/internal/server/handler"
	"github.com/emiafrica/market-intel/internal/server/middleware"
	"github.com/emiafrica/market-intel/internal/server/ws"
	"github.com/emiafrica/market-intel/internal/service"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr            string
	APIKey          string
	AllowedOrigins  []string
	RateLimit       int
	RateWindow      time.Duration
	ShutdownTimeout time.Duration
	Version         string
}

// Server owns the http.Server and its graceful shutdown.
type Server struct {
	httpSrv *http.Server
	cfg     Config
	logger  *slog.Logger
}

// Deps are the collaborators the routes need. Hub and Limiter may be nil
// when the deployment runs without Redis.
type Deps struct {
	Listings  *service.ListingService
	Analytics *service.AnalyticsService
	Geo       domain.GeoStore
	Catalog   domain.CatalogStore
	Limiter   domain.RateLimiter
	Hub       *ws.Hub
}

// New builds the route table and wraps it in the middleware chain.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	health := handler.NewHealth(cfg.Version)
	listings := handler.NewListing(deps.Listings)
	analytics := handler.NewAnalytics(deps.Analytics)
	geo := handler.NewGeo(deps.Geo)
	catalog := handler.NewCatalog(deps.Catalog)

	mux.HandleFunc("GET /api/health", health.Get)

	mux.HandleFunc("POST /api/listings", listings.Create)
	mux.HandleFunc("GET /api/listings", listings.List)
	mux.HandleFunc("GET /api/listings/{id}", listings.Get)
	mux.HandleFunc("PUT /api/listings/{id}/price", listings.UpdatePrice)
	mux.HandleFunc("PUT /api/listings/{id}/status", listings.SetStatus)
	mux.HandleFunc("PUT /api/listings/{id}/note", listings.SetNote)
	mux.HandleFunc("DELETE /api/listings/{id}", listings.Delete)
	mux.HandleFunc("GET /api/listings/{id}/history", listings.History)
	mux.HandleFunc("GET /api/listings/{id}/analytics", analytics.View)

	mux.HandleFunc("GET /api/markets/{id}/listings", listings.MarketListings)
	mux.HandleFunc("GET /api/products/{id}/compare", analytics.CompareProduct)
	mux.HandleFunc("GET /api/services/{id}/compare", analytics.CompareService)

	mux.HandleFunc("GET /api/regions", geo.Regions)
	mux.HandleFunc("GET /api/districts", geo.Districts)
	mux.HandleFunc("GET /api/towns", geo.Towns)
	mux.HandleFunc("GET /api/markets", geo.Markets)

	mux.HandleFunc("GET /api/products", catalog.Products)
	mux.HandleFunc("GET /api/services", catalog.Services)
	mux.HandleFunc("GET /api/categories", catalog.Categories)
	mux.HandleFunc("GET /api/tags", catalog.Tags)

	if deps.Hub != nil {
		mux.Handle("GET /ws", deps.Hub)
	}

	var h http.Handler = mux
	h = middleware.RateLimit(deps.Limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	h = middleware.APIKey(cfg.APIKey)(h)
	h = middleware.CORS(cfg.AllowedOrigins)(h)
	h = middleware.Logging(logger)(h)

	return &Server{
		httpSrv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then drains within the shutdown
// timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
