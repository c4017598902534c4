package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// ListingFilter narrows listing list queries. Zero-valued fields are not
// applied; Status is a tri-state pointer so "only hidden" is expressible.
type ListingFilter struct {
	TownID    string
	MarketID  string
	StemKind  StemKind
	StemID    string
	Status    *bool
}

// Aggregates is the recomputed materialized view over one listing's
// history rows.
type Aggregates struct {
	Average decimal.Decimal
	Lowest  decimal.Decimal
	Highest decimal.Decimal
}

// ListingStore persists current-state listing rows.
//
// Create and UpdatePrice are transactional with the history ledger: the
// postgres implementation appends the history row and recomputes the
// aggregates inside a single transaction holding a row lock on the
// listing, so readers never observe aggregates older than the most recent
// committed append.
type ListingStore interface {
	// Create inserts the listing with aggregates seeded to its price and
	// appends the first history row atomically.
	Create(ctx context.Context, l PriceListing) (PriceListing, error)

	// UpdatePrice applies a price-bearing update. When the new price and
	// currency equal the stored values it only refreshes UpdatedAt and
	// reports appended=false; otherwise it appends a history row and
	// recomputes aggregates in the same transaction.
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal, currency string) (PriceListing, bool, error)

	// SetStatus toggles the active flag only; the ledger is untouched.
	SetStatus(ctx context.Context, id string, active bool) (PriceListing, error)

	// SetNote replaces the free-text annotation only.
	SetNote(ctx context.Context, id string, note string) (PriceListing, error)

	GetByID(ctx context.Context, id string) (PriceListing, error)
	List(ctx context.Context, f ListingFilter, opts ListOpts) ([]PriceListing, error)
	Count(ctx context.Context, f ListingFilter) (int64, error)

	// Delete hard-deletes the listing and cascades to its history rows.
	// Administrative use only; normal removal is SetStatus(false).
	Delete(ctx context.Context, id string) error
}

// HistoryStore persists the append-only price ledger.
type HistoryStore interface {
	// Append inserts a ledger entry. It never overwrites or merges with
	// prior entries, even ones recorded at the same instant.
	Append(ctx context.Context, p PricePoint) (PricePoint, error)

	// ListForListing returns entries ordered by (recorded_at, seq) in the
	// requested direction. limit <= 0 means no cap.
	ListForListing(ctx context.Context, listingID string, order HistoryOrder, limit int) ([]PricePoint, error)

	CountForListing(ctx context.Context, listingID string) (int64, error)

	// ListBefore returns entries recorded strictly before the cutoff,
	// across all listings, for export jobs.
	ListBefore(ctx context.Context, before time.Time, opts ListOpts) ([]PricePoint, error)
}

// GeoStore serves the read-mostly Region/District/Town/Market hierarchy.
type GeoStore interface {
	ListRegions(ctx context.Context) ([]Region, error)
	ListDistricts(ctx context.Context, regionID string) ([]District, error)
	ListTowns(ctx context.Context, districtID string) ([]Town, error)
	ListMarkets(ctx context.Context, townID string) ([]Market, error)
	GetTown(ctx context.Context, id string) (Town, error)
	GetMarket(ctx context.Context, id string) (Market, error)
}

// CatalogStore serves the Product/Service stems and their taxonomy.
type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	GetService(ctx context.Context, id string) (Service, error)
	ListProducts(ctx context.Context, categoryID string, opts ListOpts) ([]Product, error)
	ListServices(ctx context.Context, categoryID string, opts ListOpts) ([]Service, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListTags(ctx context.Context) ([]Tag, error)
}
