// Package service holds the business orchestration between the HTTP
// surface and the stores: validation, transactional price writes, event
// fan-out and cache maintenance.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

// PriceChannel is the signal bus channel carrying price-change events.
const PriceChannel = "prices"

// ListingChannel is the signal bus channel carrying listing lifecycle
// events (created, hidden, unhidden, deleted).
const ListingChannel = "listings"

// writeLockTTL bounds how long a crashed writer can starve a listing.
const writeLockTTL = 10 * time.Second

// PriceEvent is the JSON payload published on PriceChannel after each
// committed price change.
type PriceEvent struct {
	Type      string          `json:"type"`
	ListingID string          `json:"listing_id"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Average   decimal.Decimal `json:"average"`
	Lowest    decimal.Decimal `json:"lowest"`
	Highest   decimal.Decimal `json:"highest"`
	At        time.Time       `json:"at"`
}

// ListingEvent is the JSON payload published on ListingChannel.
type ListingEvent struct {
	Type      string    `json:"type"`
	ListingID string    `json:"listing_id"`
	At        time.Time `json:"at"`
}

// ListingService orchestrates listing reads and writes. Cache and bus are
// optional; a nil value disables that concern, which is how unit tests
// and the memory-backed development mode run.
type ListingService struct {
	listings domain.ListingStore
	history  domain.HistoryStore
	geo      domain.GeoStore
	catalog  domain.CatalogStore

	cache     domain.ListingCache
	analytics domain.AnalyticsCache
	locks     domain.LockManager
	bus       domain.SignalBus

	logger *slog.Logger
}

// ListingServiceOpts bundles the optional collaborators.
type ListingServiceOpts struct {
	Cache     domain.ListingCache
	Analytics domain.AnalyticsCache
	Locks     domain.LockManager
	Bus       domain.SignalBus
}

// NewListingService wires a ListingService.
func NewListingService(
	listings domain.ListingStore,
	history domain.HistoryStore,
	geo domain.GeoStore,
	catalog domain.CatalogStore,
	opts ListingServiceOpts,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{
		listings:  listings,
		history:   history,
		geo:       geo,
		catalog:   catalog,
		cache:     opts.Cache,
		analytics: opts.Analytics,
		locks:     opts.Locks,
		bus:       opts.Bus,
		logger:    logger,
	}
}

// Create validates the input, resolves its stem and geo references and
// inserts the listing with its first ledger row.
func (s *ListingService) Create(ctx context.Context, in domain.NewListingInput) (domain.PriceListing, error) {
	l := domain.PriceListing{
		Stem:     in.Stem,
		Geo:      in.Geo,
		Price:    in.Price,
		Currency: in.Currency,
		Note:     in.Note,
		Status:   true,
	}
	if l.Currency == "" {
		l.Currency = domain.DefaultCurrency
	}
	if err := l.Validate(); err != nil {
		return domain.PriceListing{}, err
	}
	if err := s.resolveRefs(ctx, l); err != nil {
		return domain.PriceListing{}, err
	}

	created, err := s.listings.Create(ctx, l)
	if err != nil {
		return domain.PriceListing{}, fmt.Errorf("create listing: %w", err)
	}

	s.cacheSet(ctx, created)
	s.publishListing(ctx, "listing_created", created.ID)
	s.logger.Info("listing created",
		"listing_id", created.ID,
		"stem_kind", created.Stem.Kind,
		"stem_id", created.Stem.ID,
		"price", created.Price)
	return created, nil
}

// resolveRefs verifies that the stem and geo anchor point at real rows.
func (s *ListingService) resolveRefs(ctx context.Context, l domain.PriceListing) error {
	switch l.Stem.Kind {
	case domain.StemProduct:
		if _, err := s.catalog.GetProduct(ctx, l.Stem.ID); err != nil {
			return fmt.Errorf("resolve product %s: %w", l.Stem.ID, err)
		}
	case domain.StemService:
		if _, err := s.catalog.GetService(ctx, l.Stem.ID); err != nil {
			return fmt.Errorf("resolve service %s: %w", l.Stem.ID, err)
		}
	}
	if l.Geo.TownID != "" {
		if _, err := s.geo.GetTown(ctx, l.Geo.TownID); err != nil {
			return fmt.Errorf("resolve town %s: %w", l.Geo.TownID, err)
		}
	}
	if l.Geo.MarketID != "" {
		if _, err := s.geo.GetMarket(ctx, l.Geo.MarketID); err != nil {
			return fmt.Errorf("resolve market %s: %w", l.Geo.MarketID, err)
		}
	}
	return nil
}

// UpdatePrice applies a price write. An actual change appends to the
// ledger, refreshes the aggregates and publishes a price event; a write
// carrying the stored values does none of that.
func (s *ListingService) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, currency string) (domain.PriceListing, error) {
	if !price.IsPositive() {
		return domain.PriceListing{}, domain.NewValidationError(
			domain.CodeNonPositivePrice, "price", "price must be a positive amount")
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, "listing:"+id, writeLockTTL)
		if err != nil {
			return domain.PriceListing{}, fmt.Errorf("acquire write lock %s: %w", id, err)
		}
		defer unlock()
	}

	updated, appended, err := s.listings.UpdatePrice(ctx, id, price, currency)
	if err != nil {
		return domain.PriceListing{}, fmt.Errorf("update price %s: %w", id, err)
	}

	s.cacheSet(ctx, updated)
	if appended {
		s.invalidateAnalytics(ctx, id)
		s.publishPrice(ctx, updated)
		s.logger.Info("price changed",
			"listing_id", id,
			"price", updated.Price,
			"average", updated.AveragePrice)
	}
	return updated, nil
}

// SetStatus hides or unhides a listing without touching the ledger.
func (s *ListingService) SetStatus(ctx context.Context, id string, active bool) (domain.PriceListing, error) {
	updated, err := s.listings.SetStatus(ctx, id, active)
	if err != nil {
		return domain.PriceListing{}, fmt.Errorf("set status %s: %w", id, err)
	}
	s.cacheSet(ctx, updated)
	event := "listing_hidden"
	if active {
		event = "listing_unhidden"
	}
	s.publishListing(ctx, event, id)
	return updated, nil
}

// SetNote replaces the annotation without touching the ledger.
func (s *ListingService) SetNote(ctx context.Context, id string, note string) (domain.PriceListing, error) {
	updated, err := s.listings.SetNote(ctx, id, note)
	if err != nil {
		return domain.PriceListing{}, fmt.Errorf("set note %s: %w", id, err)
	}
	s.cacheSet(ctx, updated)
	return updated, nil
}

// Get prefers the cache and falls back to the store.
func (s *ListingService) Get(ctx context.Context, id string) (domain.PriceListing, error) {
	if s.cache != nil {
		if l, err := s.cache.Get(ctx, id); err == nil {
			return l, nil
		}
	}
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return domain.PriceListing{}, err
	}
	s.cacheSet(ctx, l)
	return l, nil
}

// List returns listings matching the filter plus the unpaged total.
func (s *ListingService) List(ctx context.Context, f domain.ListingFilter, opts domain.ListOpts) ([]domain.PriceListing, int64, error) {
	listings, err := s.listings.List(ctx, f, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}
	total, err := s.listings.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}
	return listings, total, nil
}

// GetHistory returns the ledger for one listing. The listing must exist;
// a fresh listing returns its single seed row, never an empty ledger.
func (s *ListingService) GetHistory(ctx context.Context, id string, order domain.HistoryOrder, limit int) ([]domain.PricePoint, error) {
	if _, err := s.listings.GetByID(ctx, id); err != nil {
		return nil, err
	}
	points, err := s.history.ListForListing(ctx, id, order, limit)
	if err != nil {
		return nil, fmt.Errorf("list history %s: %w", id, err)
	}
	return points, nil
}

// Delete removes the listing and, through the store, its ledger.
func (s *ListingService) Delete(ctx context.Context, id string) error {
	if err := s.listings.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.Warn("cache invalidate failed", "listing_id", id, "error", err)
		}
	}
	s.invalidateAnalytics(ctx, id)
	s.publishListing(ctx, "listing_deleted", id)
	s.logger.Info("listing deleted", "listing_id", id)
	return nil
}

// Cache and bus failures are logged, never surfaced: the store is the
// source of truth and the caller's write already committed.

func (s *ListingService) cacheSet(ctx context.Context, l domain.PriceListing) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, l); err != nil {
		s.logger.Warn("cache set failed", "listing_id", l.ID, "error", err)
	}
}

func (s *ListingService) invalidateAnalytics(ctx context.Context, id string) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.Invalidate(ctx, id); err != nil {
		s.logger.Warn("analytics invalidate failed", "listing_id", id, "error", err)
	}
}

func (s *ListingService) publishPrice(ctx context.Context, l domain.PriceListing) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(PriceEvent{
		Type:      "price_changed",
		ListingID: l.ID,
		Price:     l.Price,
		Currency:  l.Currency,
		Average:   l.AveragePrice,
		Lowest:    l.LowestPrice,
		Highest:   l.HighestPrice,
		At:        l.UpdatedAt,
	})
	if err != nil {
		s.logger.Warn("price event marshal failed", "listing_id", l.ID, "error", err)
		return
	}
	if err := s.bus.Publish(ctx, PriceChannel, payload); err != nil {
		s.logger.Warn("price event publish failed", "listing_id", l.ID, "error", err)
	}
}

func (s *ListingService) publishListing(ctx context.Context, event, id string) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(ListingEvent{Type: event, ListingID: id, At: time.Now().UTC()})
	if err != nil {
		s.logger.Warn("listing event marshal failed", "listing_id", id, "error", err)
		return
	}
	if err := s.bus.Publish(ctx, ListingChannel, payload); err != nil {
		s.logger.Warn("listing event publish failed", "listing_id", id, "error", err)
	}
}
