package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
	"github.com/emiafrica/market-intel/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc     *ListingService
	history *memory.HistoryStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureOpts(t, ListingServiceOpts{})
}

func newFixtureOpts(t *testing.T, opts ListingServiceOpts) fixture {
	t.Helper()

	geo := memory.NewGeoStore()
	geo.AddRegion(domain.Region{ID: "r1", Name: "Ashanti"})
	geo.AddDistrict(domain.District{ID: "d1", Name: "Kumasi Metro", RegionID: "r1"})
	geo.AddTown(domain.Town{ID: "t1", Name: "Kumasi", DistrictID: "d1"})
	geo.AddMarket(domain.Market{ID: "m1", Name: "Kejetia", TownID: "t1"})

	catalog := memory.NewCatalogStore()
	catalog.AddCategory(domain.Category{ID: "c1", Name: "Grains"})
	catalog.AddProduct(domain.Product{ID: "p1", Name: "Maize 50kg", CategoryID: "c1"})
	catalog.AddService(domain.Service{ID: "s1", Name: "Grain milling", CategoryID: "c1"})

	history := memory.NewHistoryStore()
	listings := memory.NewListingStore(history)

	svc := NewListingService(listings, history, geo, catalog, opts, testLogger())
	return fixture{svc: svc, history: history}
}

func maizeInput(price string) domain.NewListingInput {
	return domain.NewListingInput{
		Stem:  domain.ProductStem("p1"),
		Geo:   domain.GeoAnchor{TownID: "t1", MarketID: "m1"},
		Price: decimal.RequireFromString(price),
	}
}

func TestCreateSeedsAggregatesAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Create(ctx, maizeInput("10.00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Currency != domain.DefaultCurrency {
		t.Errorf("currency = %s, want %s", l.Currency, domain.DefaultCurrency)
	}
	if !l.AveragePrice.Equal(l.Price) || !l.LowestPrice.Equal(l.Price) || !l.HighestPrice.Equal(l.Price) {
		t.Errorf("aggregates should equal initial price, got %+v", l)
	}
	if !l.Status {
		t.Error("new listing should be active")
	}

	count, err := f.history.CountForListing(ctx, l.ID)
	if err != nil {
		t.Fatalf("CountForListing: %v", err)
	}
	if count != 1 {
		t.Errorf("history count = %d, want 1 seed entry", count)
	}
}

func TestCreateRejectsInvalidStem(t *testing.T) {
	f := newFixture(t)

	in := maizeInput("10.00")
	in.Stem = domain.Stem{}
	_, err := f.svc.Create(context.Background(), in)
	if !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	var verr *domain.ValidationError
	errors.As(err, &verr)
	if verr.Code != domain.CodeExactlyOneStem {
		t.Errorf("code = %s, want %s", verr.Code, domain.CodeExactlyOneStem)
	}
}

func TestCreateRejectsMissingGeoAnchor(t *testing.T) {
	f := newFixture(t)

	in := maizeInput("10.00")
	in.Geo = domain.GeoAnchor{}
	_, err := f.svc.Create(context.Background(), in)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Code != domain.CodeNeedsGeoAnchor {
		t.Fatalf("expected geo anchor validation error, got %v", err)
	}
}

func TestCreateAcceptsSingleAnchor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	townOnly := maizeInput("10.00")
	townOnly.Geo = domain.GeoAnchor{TownID: "t1"}
	if _, err := f.svc.Create(ctx, townOnly); err != nil {
		t.Errorf("town-only anchor rejected: %v", err)
	}

	marketOnly := maizeInput("10.00")
	marketOnly.Geo = domain.GeoAnchor{MarketID: "m1"}
	if _, err := f.svc.Create(ctx, marketOnly); err != nil {
		t.Errorf("market-only anchor rejected: %v", err)
	}
}

func TestCreateRejectsNonPositivePrice(t *testing.T) {
	f := newFixture(t)

	in := maizeInput("0")
	_, err := f.svc.Create(context.Background(), in)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Code != domain.CodeNonPositivePrice {
		t.Fatalf("expected price validation error, got %v", err)
	}
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := maizeInput("10.00")
	in.Stem = domain.ProductStem("nope")
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown product: got %v, want ErrNotFound", err)
	}

	in = maizeInput("10.00")
	in.Geo.MarketID = "nope"
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown market: got %v, want ErrNotFound", err)
	}
}

func TestUpdatePriceRecomputesAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Create(ctx, maizeInput("10.00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := f.svc.UpdatePrice(ctx, l.ID, decimal.RequireFromString("15.00"), "")
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if got := updated.AveragePrice.String(); got != "12.5" {
		t.Errorf("average = %s, want 12.5", got)
	}
	if got := updated.LowestPrice.String(); got != "10" {
		t.Errorf("lowest = %s, want 10", got)
	}
	if got := updated.HighestPrice.String(); got != "15" {
		t.Errorf("highest = %s, want 15", got)
	}

	count, _ := f.history.CountForListing(ctx, l.ID)
	if count != 2 {
		t.Errorf("history count = %d, want 2", count)
	}
}

func TestUpdatePriceSameValueSkipsLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, _ := f.svc.Create(ctx, maizeInput("10.00"))
	if _, err := f.svc.UpdatePrice(ctx, l.ID, decimal.RequireFromString("15.00"), ""); err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}

	// Re-saving the same price must not grow the ledger or move aggregates.
	same, err := f.svc.UpdatePrice(ctx, l.ID, decimal.RequireFromString("15.00"), "")
	if err != nil {
		t.Fatalf("UpdatePrice noop: %v", err)
	}
	if got := same.AveragePrice.String(); got != "12.5" {
		t.Errorf("average moved on noop update: %s", got)
	}

	count, _ := f.history.CountForListing(ctx, l.ID)
	if count != 2 {
		t.Errorf("history count = %d, want 2 after noop update", count)
	}
}

func TestUpdatePriceUnknownListing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdatePrice(context.Background(), "nope", decimal.RequireFromString("5"), "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCurrencyChangeAppendsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, _ := f.svc.Create(ctx, maizeInput("10.00"))
	if _, err := f.svc.UpdatePrice(ctx, l.ID, decimal.RequireFromString("10.00"), "USD"); err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}

	count, _ := f.history.CountForListing(ctx, l.ID)
	if count != 2 {
		t.Errorf("currency change should append, count = %d", count)
	}
}

func TestSetStatusKeepsLedgerAndAllowsPriceUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, _ := f.svc.Create(ctx, maizeInput("10.00"))
	hidden, err := f.svc.SetStatus(ctx, l.ID, false)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if hidden.Status {
		t.Error("listing should be hidden")
	}

	count, _ := f.history.CountForListing(ctx, l.ID)
	if count != 1 {
		t.Errorf("SetStatus must not touch the ledger, count = %d", count)
	}

	// A hidden listing keeps tracking prices.
	updated, err := f.svc.UpdatePrice(ctx, l.ID, decimal.RequireFromString("12.00"), "")
	if err != nil {
		t.Fatalf("UpdatePrice on hidden listing: %v", err)
	}
	if updated.Status {
		t.Error("price update must not unhide the listing")
	}
	count, _ = f.history.CountForListing(ctx, l.ID)
	if count != 2 {
		t.Errorf("hidden listing should accrue history, count = %d", count)
	}
}

func TestGetHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, _ := f.svc.Create(ctx, maizeInput("10.00"))
	f.svc.UpdatePrice(ctx, l.ID, decimal.RequireFromString("12.00"), "")
	f.svc.UpdatePrice(ctx, l.ID, decimal.RequireFromString("11.00"), "")

	points, err := f.svc.GetHistory(ctx, l.ID, domain.OrderDesc, 2)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("limit ignored, got %d points", len(points))
	}
	if got := points[0].Price.String(); got != "11" {
		t.Errorf("newest price = %s, want 11", got)
	}
	if got := points[1].Price.String(); got != "12" {
		t.Errorf("second price = %s, want 12", got)
	}
}

func TestGetHistoryUnknownListing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetHistory(context.Background(), "nope", domain.OrderDesc, 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteCascadesHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, _ := f.svc.Create(ctx, maizeInput("10.00"))
	f.svc.UpdatePrice(ctx, l.ID, decimal.RequireFromString("12.00"), "")

	if err := f.svc.Delete(ctx, l.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, l.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("listing should be gone, got %v", err)
	}
	count, _ := f.history.CountForListing(ctx, l.ID)
	if count != 0 {
		t.Errorf("history should cascade, count = %d", count)
	}
}
