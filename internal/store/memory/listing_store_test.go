package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

func newTestListing() domain.PriceListing {
	return domain.PriceListing{
		Stem:     domain.Stem{Kind: domain.StemProduct, ID: "p1"},
		Geo:      domain.GeoAnchor{TownID: "t1"},
		Price:    decimal.New(10, 0),
		Currency: domain.DefaultCurrency,
		Status:   true,
	}
}

func TestNoopUpdateRefreshesTimestampOnly(t *testing.T) {
	hs := NewHistoryStore()
	s := NewListingStore(hs)
	ctx := context.Background()

	clock := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return clock })

	created, err := s.Create(ctx, newTestListing())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock = clock.Add(time.Hour)
	got, appended, err := s.UpdatePrice(ctx, created.ID, decimal.New(10, 0), domain.DefaultCurrency)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if appended {
		t.Error("same price should not append to the ledger")
	}
	if !got.UpdatedAt.Equal(clock) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, clock)
	}
	if n, _ := hs.CountForListing(ctx, created.ID); n != 1 {
		t.Errorf("history count = %d, want 1", n)
	}
}

func TestUpdatePriceRecomputesAggregates(t *testing.T) {
	hs := NewHistoryStore()
	s := NewListingStore(hs)
	ctx := context.Background()

	created, err := s.Create(ctx, newTestListing())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, appended, err := s.UpdatePrice(ctx, created.ID, decimal.New(15, 0), domain.DefaultCurrency)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if !appended {
		t.Fatal("price change should append to the ledger")
	}
	if avg := got.AveragePrice.String(); avg != "12.5" {
		t.Errorf("average = %s, want 12.5", avg)
	}
	if lo, hi := got.LowestPrice.String(), got.HighestPrice.String(); lo != "10" || hi != "15" {
		t.Errorf("bounds = %s/%s, want 10/15", lo, hi)
	}
}

func TestConcurrentUpdatesKeepAggregatesConsistent(t *testing.T) {
	hs := NewHistoryStore()
	s := NewListingStore(hs)
	ctx := context.Background()

	created, err := s.Create(ctx, newTestListing())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Distinct prices, none equal to the seed, so every write is
			// a real change and must append exactly one ledger row.
			s.UpdatePrice(ctx, created.ID, decimal.New(int64(11+i), 0), domain.DefaultCurrency)
		}(i)
	}
	wg.Wait()

	count, err := hs.CountForListing(ctx, created.ID)
	if err != nil {
		t.Fatalf("CountForListing: %v", err)
	}
	if count != writers+1 {
		t.Fatalf("history count = %d, want %d (no lost appends)", count, writers+1)
	}

	points, _ := hs.ListForListing(ctx, created.ID, domain.OrderAsc, 0)
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
	wantAvg := sum.Div(decimal.NewFromInt(int64(len(points)))).Round(2)

	final, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !final.AveragePrice.Equal(wantAvg) {
		t.Errorf("average = %s, want %s from the ledger", final.AveragePrice, wantAvg)
	}
	if !final.LowestPrice.Equal(lo) || !final.HighestPrice.Equal(hi) {
		t.Errorf("bounds = %s/%s, want %s/%s", final.LowestPrice, final.HighestPrice, lo, hi)
	}
}

func TestDeleteCascadesHistory(t *testing.T) {
	hs := NewHistoryStore()
	s := NewListingStore(hs)
	ctx := context.Background()

	created, err := s.Create(ctx, newTestListing())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.UpdatePrice(ctx, created.ID, decimal.New(12, 0), domain.DefaultCurrency)

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := hs.CountForListing(ctx, created.ID); n != 0 {
		t.Errorf("history survived delete, count = %d", n)
	}
	if _, err := s.GetByID(ctx, created.ID); err != domain.ErrNotFound {
		t.Errorf("GetByID after delete = %v, want ErrNotFound", err)
	}
}
