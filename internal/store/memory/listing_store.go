// Package memory provides in-process store implementations with the same
// transactional semantics as the postgres ones. They back unit tests and
// the local development mode; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

// ListingStore keeps listings in a map and writes history rows through a
// shared HistoryStore under one mutex, mirroring the single-transaction
// guarantee of the postgres implementation.
type ListingStore struct {
	mu       sync.RWMutex
	listings map[string]domain.PriceListing
	history  *HistoryStore

	// now is swappable so tests can pin timestamps.
	now func() time.Time
}

// NewListingStore creates a ListingStore writing its ledger rows into hs.
func NewListingStore(hs *HistoryStore) *ListingStore {
	return &ListingStore{
		listings: make(map[string]domain.PriceListing),
		history:  hs,
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source. Test use only.
func (s *ListingStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *ListingStore) Create(ctx context.Context, l domain.PriceListing) (domain.PriceListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if _, ok := s.listings[l.ID]; ok {
		return domain.PriceListing{}, domain.ErrAlreadyExists
	}
	if l.Currency == "" {
		l.Currency = domain.DefaultCurrency
	}
	l.AveragePrice = l.Price
	l.LowestPrice = l.Price
	l.HighestPrice = l.Price
	l.UpdatedAt = s.now()
	s.listings[l.ID] = l

	s.history.append(domain.PricePoint{
		ListingID:  l.ID,
		Price:      l.Price,
		Currency:   l.Currency,
		RecordedAt: l.UpdatedAt,
	})
	return l, nil
}

func (s *ListingStore) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, currency string) (domain.PriceListing, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return domain.PriceListing{}, false, domain.ErrNotFound
	}

	l.UpdatedAt = s.now()
	if l.Price.Equal(price) && l.Currency == currency {
		s.listings[id] = l
		return l, false, nil
	}

	l.Price = price
	l.Currency = currency
	s.history.append(domain.PricePoint{
		ListingID:  id,
		Price:      price,
		Currency:   currency,
		RecordedAt: l.UpdatedAt,
	})

	points := s.history.pointsFor(id)
	sum := decimal.Zero
	lo, hi := points[0].Price, points[0].Price
	for _, p := range points {
		sum = sum.Add(p.Price)
		if p.Price.LessThan(lo) {
			lo = p.Price
		}
		if p.Price.GreaterThan(hi) {
			hi = p.Price
		}
	}
	l.AveragePrice = sum.Div(decimal.NewFromInt(int64(len(points)))).Round(2)
	l.LowestPrice = lo
	l.HighestPrice = hi

	s.listings[id] = l
	return l, true, nil
}

func (s *ListingStore) SetStatus(ctx context.Context, id string, active bool) (domain.PriceListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return domain.PriceListing{}, domain.ErrNotFound
	}
	l.Status = active
	l.UpdatedAt = s.now()
	s.listings[id] = l
	return l, nil
}

func (s *ListingStore) SetNote(ctx context.Context, id string, note string) (domain.PriceListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return domain.PriceListing{}, domain.ErrNotFound
	}
	l.Note = note
	l.UpdatedAt = s.now()
	s.listings[id] = l
	return l, nil
}

func (s *ListingStore) GetByID(ctx context.Context, id string) (domain.PriceListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return domain.PriceListing{}, domain.ErrNotFound
	}
	return l, nil
}

func matches(l domain.PriceListing, f domain.ListingFilter) bool {
	if f.TownID != "" && l.Geo.TownID != f.TownID {
		return false
	}
	if f.MarketID != "" && l.Geo.MarketID != f.MarketID {
		return false
	}
	if f.StemKind != "" && l.Stem.Kind != f.StemKind {
		return false
	}
	if f.StemID != "" && l.Stem.ID != f.StemID {
		return false
	}
	if f.Status != nil && l.Status != *f.Status {
		return false
	}
	return true
}

func (s *ListingStore) List(ctx context.Context, f domain.ListingFilter, opts domain.ListOpts) ([]domain.PriceListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PriceListing
	for _, l := range s.listings {
		if matches(l, f) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *ListingStore) Count(ctx context.Context, f domain.ListingFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, l := range s.listings {
		if matches(l, f) {
			n++
		}
	}
	return n, nil
}

func (s *ListingStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.listings, id)
	s.history.deleteFor(id)
	return nil
}

var _ domain.ListingStore = (*ListingStore)(nil)
