package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/emiafrica/market-intel/internal/blob/s3"
	"github.com/emiafrica/market-intel/internal/cache/redis"
	"github.com/emiafrica/market-intel/internal/config"
	"github.com/emiafrica/market-intel/internal/domain"
	"github.com/emiafrica/market-intel/internal/service"
	"github.com/emiafrica/market-intel/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	ListingStore domain.ListingStore
	HistoryStore domain.HistoryStore
	GeoStore     domain.GeoStore
	CatalogStore domain.CatalogStore

	// Redis-backed collaborators; nil when redis is disabled
	ListingCache   domain.ListingCache
	AnalyticsCache domain.AnalyticsCache
	LockManager    domain.LockManager
	RateLimiter    domain.RateLimiter
	SignalBus      domain.SignalBus

	// Blob storage; nil unless the mode exports
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver

	// Services
	Listings  *service.ListingService
	Analytics *service.AnalyticsService
}

// needsS3 reports whether the mode requires object storage.
func needsS3(mode string) bool {
	switch mode {
	case "export", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.ListingStore = postgres.NewListingStore(pool)
	deps.HistoryStore = postgres.NewHistoryStore(pool)
	deps.GeoStore = postgres.NewGeoStore(pool)
	deps.CatalogStore = postgres.NewCatalogStore(pool)

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		rdClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() {
			if err := rdClient.Close(); err != nil {
				logger.Warn("redis close failed", "error", err)
			}
		})

		deps.ListingCache = redis.NewListingCache(rdClient, cfg.Pricing.CacheTTL.Duration)
		deps.AnalyticsCache = redis.NewAnalyticsCache(rdClient, cfg.Pricing.AnalyticsTTL.Duration)
		deps.LockManager = redis.NewLockManager(rdClient, logger)
		deps.RateLimiter = redis.NewRateLimiter(rdClient)
		deps.SignalBus = redis.NewSignalBus(rdClient, logger)
	}

	// --- S3 (only for exporting modes) ---
	if needsS3(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect s3: %w", err)
		}
		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.HistoryStore, deps.BlobWriter, logger)
	}

	// --- Services ---
	deps.Listings = service.NewListingService(
		deps.ListingStore, deps.HistoryStore, deps.GeoStore, deps.CatalogStore,
		service.ListingServiceOpts{
			Cache:     deps.ListingCache,
			Analytics: deps.AnalyticsCache,
			Locks:     deps.LockManager,
			Bus:       deps.SignalBus,
		},
		logger,
	)
	deps.Analytics = service.NewAnalyticsService(
		deps.ListingStore, deps.HistoryStore, deps.GeoStore, deps.AnalyticsCache, logger,
	)

	return deps, cleanup, nil
}
