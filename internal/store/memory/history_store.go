package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emiafrica/market-intel/internal/domain"
)

// HistoryStore keeps the append-only ledger in memory. A monotonic seq
// counter stands in for the database identity column so same-instant
// appends keep their insertion order.
type HistoryStore struct {
	mu     sync.RWMutex
	points []domain.PricePoint
	seq    int64
}

// NewHistoryStore creates an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// append inserts one row under this store's own mutex. ListingStore calls
// it from inside its write lock; the two stores lock independently.
func (s *HistoryStore) append(p domain.PricePoint) domain.PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(p)
}

func (s *HistoryStore) appendLocked(p domain.PricePoint) domain.PricePoint {
	s.seq++
	p.Seq = s.seq
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now()
	}
	s.points = append(s.points, p)
	return p
}

func (s *HistoryStore) pointsFor(listingID string) []domain.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PricePoint
	for _, p := range s.points {
		if p.ListingID == listingID {
			out = append(out, p)
		}
	}
	return out
}

func (s *HistoryStore) deleteFor(listingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.points[:0]
	for _, p := range s.points {
		if p.ListingID != listingID {
			kept = append(kept, p)
		}
	}
	s.points = kept
}

func (s *HistoryStore) Append(ctx context.Context, p domain.PricePoint) (domain.PricePoint, error) {
	return s.append(p), nil
}

func (s *HistoryStore) ListForListing(ctx context.Context, listingID string, order domain.HistoryOrder, limit int) ([]domain.PricePoint, error) {
	out := s.pointsFor(listingID)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	if order == domain.OrderDesc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *HistoryStore) CountForListing(ctx context.Context, listingID string) (int64, error) {
	return int64(len(s.pointsFor(listingID))), nil
}

func (s *HistoryStore) ListBefore(ctx context.Context, before time.Time, opts domain.ListOpts) ([]domain.PricePoint, error) {
	s.mu.RLock()
	var out []domain.PricePoint
	for _, p := range s.points {
		if p.RecordedAt.Before(before) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].Seq < out[j].Seq
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

var _ domain.HistoryStore = (*HistoryStore)(nil)
