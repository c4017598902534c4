package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

func TestHistoryOrderTieBreaksOnSeq(t *testing.T) {
	s := NewHistoryStore()
	ctx := context.Background()
	at := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	// Two appends at the same instant must keep insertion order.
	first, _ := s.Append(ctx, domain.PricePoint{
		ListingID: "l1", Price: decimal.New(10, 0), RecordedAt: at,
	})
	second, _ := s.Append(ctx, domain.PricePoint{
		ListingID: "l1", Price: decimal.New(11, 0), RecordedAt: at,
	})
	if second.Seq <= first.Seq {
		t.Fatalf("seq not monotone: %d then %d", first.Seq, second.Seq)
	}

	asc, err := s.ListForListing(ctx, "l1", domain.OrderAsc, 0)
	if err != nil {
		t.Fatalf("ListForListing: %v", err)
	}
	if asc[0].Seq != first.Seq || asc[1].Seq != second.Seq {
		t.Errorf("asc order broke seq tie: %+v", asc)
	}

	desc, _ := s.ListForListing(ctx, "l1", domain.OrderDesc, 0)
	if desc[0].Seq != second.Seq {
		t.Errorf("desc should start with latest seq, got %+v", desc)
	}
}

func TestHistoryLimit(t *testing.T) {
	s := NewHistoryStore()
	ctx := context.Background()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.Append(ctx, domain.PricePoint{
			ListingID:  "l1",
			Price:      decimal.New(int64(10+i), 0),
			RecordedAt: base.AddDate(0, 0, i),
		})
	}

	latest, _ := s.ListForListing(ctx, "l1", domain.OrderDesc, 2)
	if len(latest) != 2 {
		t.Fatalf("limit ignored, got %d", len(latest))
	}
	if got := latest[0].Price.String(); got != "14" {
		t.Errorf("newest price = %s, want 14", got)
	}
}

func TestListBeforeCutoff(t *testing.T) {
	s := NewHistoryStore()
	ctx := context.Background()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		s.Append(ctx, domain.PricePoint{
			ListingID:  "l1",
			Price:      decimal.New(int64(10+i), 0),
			RecordedAt: base.AddDate(0, 0, i),
		})
	}

	points, err := s.ListBefore(ctx, base.AddDate(0, 0, 2), domain.ListOpts{})
	if err != nil {
		t.Fatalf("ListBefore: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 rows strictly before cutoff, got %d", len(points))
	}
	if !points[0].RecordedAt.Before(points[1].RecordedAt) {
		t.Errorf("export scan should be chronological: %+v", points)
	}
}
