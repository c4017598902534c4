package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/emiafrica/market-intel/internal/analytics"
	"github.com/emiafrica/market-intel/internal/domain"
)

// maxSnapshotPoints caps the history snapshot an analytics computation
// reads. At one append per price change this covers years of data for
// any realistic listing.
const maxSnapshotPoints = 10000

// maxCompareMarkets bounds the comparison view fan-out.
const maxCompareMarkets = 3

// AnalyticsService computes the derived statistics views over history
// snapshots, with an optional Redis-backed result cache.
type AnalyticsService struct {
	listings domain.ListingStore
	history  domain.HistoryStore
	geo      domain.GeoStore

	cache  domain.AnalyticsCache
	logger *slog.Logger
}

// NewAnalyticsService wires an AnalyticsService. cache may be nil.
func NewAnalyticsService(
	listings domain.ListingStore,
	history domain.HistoryStore,
	geo domain.GeoStore,
	cache domain.AnalyticsCache,
	logger *slog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		listings: listings,
		history:  history,
		geo:      geo,
		cache:    cache,
		logger:   logger,
	}
}

// View returns the full analytics view for one listing, from cache when
// fresh enough.
func (s *AnalyticsService) View(ctx context.Context, listingID string) (domain.AnalyticsView, error) {
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, listingID); err == nil {
			return v, nil
		}
	}

	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return domain.AnalyticsView{}, err
	}

	points, err := s.history.ListForListing(ctx, listingID, domain.OrderAsc, maxSnapshotPoints)
	if err != nil {
		return domain.AnalyticsView{}, fmt.Errorf("analytics snapshot %s: %w", listingID, err)
	}

	view := analytics.Compute(points)

	if s.cache != nil {
		if err := s.cache.Set(ctx, listingID, view); err != nil {
			s.logger.Warn("analytics cache set failed", "listing_id", listingID, "error", err)
		}
	}
	return view, nil
}

// CompareMarkets builds per-market price summaries for one stem across up
// to three markets. Markets without a listing for the stem are skipped.
func (s *AnalyticsService) CompareMarkets(ctx context.Context, stem domain.Stem, marketIDs []string) ([]domain.MarketSummary, error) {
	if err := stem.Validate(); err != nil {
		return nil, err
	}
	if len(marketIDs) == 0 {
		return nil, domain.NewValidationError("needs_markets", "markets",
			"at least one market id is required")
	}
	if len(marketIDs) > maxCompareMarkets {
		return nil, domain.NewValidationError("too_many_markets", "markets",
			fmt.Sprintf("at most %d markets can be compared", maxCompareMarkets))
	}

	summaries := make([]domain.MarketSummary, len(marketIDs))
	found := make([]bool, len(marketIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, marketID := range marketIDs {
		g.Go(func() error {
			sum, ok, err := s.marketSummary(gctx, stem, marketID)
			if err != nil {
				return err
			}
			summaries[i], found[i] = sum, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.MarketSummary, 0, len(marketIDs))
	for i, ok := range found {
		if ok {
			out = append(out, summaries[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketName < out[j].MarketName })
	return out, nil
}

func (s *AnalyticsService) marketSummary(ctx context.Context, stem domain.Stem, marketID string) (domain.MarketSummary, bool, error) {
	market, err := s.geo.GetMarket(ctx, marketID)
	if err != nil {
		return domain.MarketSummary{}, false, fmt.Errorf("resolve market %s: %w", marketID, err)
	}

	listings, err := s.listings.List(ctx, domain.ListingFilter{
		MarketID: marketID,
		StemKind: stem.Kind,
		StemID:   stem.ID,
	}, domain.ListOpts{Limit: 1})
	if err != nil {
		return domain.MarketSummary{}, false, fmt.Errorf("find listing for market %s: %w", marketID, err)
	}
	if len(listings) == 0 {
		return domain.MarketSummary{}, false, nil
	}
	l := listings[0]

	count, err := s.history.CountForListing(ctx, l.ID)
	if err != nil {
		return domain.MarketSummary{}, false, fmt.Errorf("count history %s: %w", l.ID, err)
	}

	return domain.MarketSummary{
		MarketID:   market.ID,
		MarketName: market.Name,
		ListingID:  l.ID,
		Latest:     l.Price,
		Min:        l.LowestPrice,
		Max:        l.HighestPrice,
		Avg:        l.AveragePrice,
		Points:     int(count),
	}, true, nil
}
