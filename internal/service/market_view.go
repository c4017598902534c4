package service

import (
	"context"
	"fmt"

	"github.com/emiafrica/market-intel/internal/domain"
)

// defaultRecentPoints is how much history each listing carries in the
// market view when the caller does not say.
const defaultRecentPoints = 10

// ListingWithHistory is one row of the market listings view: the current
// listing plus its most recent ledger entries, newest first.
type ListingWithHistory struct {
	Listing domain.PriceListing `json:"listing"`
	Recent  []domain.PricePoint `json:"recent"`
}

// MarketView is what a market page renders: the market itself and every
// active listing on it with a slice of recent history.
type MarketView struct {
	Market   domain.Market        `json:"market"`
	Listings []ListingWithHistory `json:"listings"`
}

// MarketListings builds the market view. historyLimit <= 0 falls back to
// a small default; hidden listings are excluded.
func (s *ListingService) MarketListings(ctx context.Context, marketID string, historyLimit int) (MarketView, error) {
	market, err := s.geo.GetMarket(ctx, marketID)
	if err != nil {
		return MarketView{}, err
	}
	if historyLimit <= 0 {
		historyLimit = defaultRecentPoints
	}

	active := true
	listings, err := s.listings.List(ctx,
		domain.ListingFilter{MarketID: marketID, Status: &active},
		domain.ListOpts{})
	if err != nil {
		return MarketView{}, fmt.Errorf("list market %s listings: %w", marketID, err)
	}

	view := MarketView{Market: market, Listings: make([]ListingWithHistory, 0, len(listings))}
	for _, l := range listings {
		recent, err := s.history.ListForListing(ctx, l.ID, domain.OrderDesc, historyLimit)
		if err != nil {
			return MarketView{}, fmt.Errorf("recent history %s: %w", l.ID, err)
		}
		view.Listings = append(view.Listings, ListingWithHistory{Listing: l, Recent: recent})
	}
	return view, nil
}
