package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StemKind discriminates the two variants of a Stem.
type StemKind string

const (
	StemProduct StemKind = "product"
	StemService StemKind = "service"
)

// Stem identifies the thing being priced: exactly one of a Product or a
// Service. The zero value is invalid.
type Stem struct {
	Kind StemKind `json:"kind"`
	ID   string   `json:"id"`
}

// ProductStem builds a product-kind stem reference.
func ProductStem(id string) Stem { return Stem{Kind: StemProduct, ID: id} }

// ServiceStem builds a service-kind stem reference.
func ServiceStem(id string) Stem { return Stem{Kind: StemService, ID: id} }

// Validate enforces the exactly-one-variant rule.
func (s Stem) Validate() error {
	if s.ID == "" || (s.Kind != StemProduct && s.Kind != StemService) {
		return NewValidationError(CodeExactlyOneStem, "stem",
			"exactly one of product or service must be referenced")
	}
	return nil
}

// GeoAnchor locates a listing by town and/or market. At least one must be
// set; a market always belongs to a town, so both may legitimately be
// present.
type GeoAnchor struct {
	TownID   string `json:"town_id,omitempty"`
	MarketID string `json:"market_id,omitempty"`
}

// Validate enforces the at-least-one-anchor rule.
func (g GeoAnchor) Validate() error {
	if g.TownID == "" && g.MarketID == "" {
		return NewValidationError(CodeNeedsGeoAnchor, "geo",
			"a listing needs a town and/or a market reference")
	}
	return nil
}

// DefaultCurrency is used when a write omits the currency code.
const DefaultCurrency = "GHS"

// PriceListing is the current-state record for one (stem, geo-anchor) pair.
// AveragePrice, LowestPrice and HighestPrice are derived from the history
// ledger and are never client-settable; they always reflect the ledger as
// of the last committed price write.
type PriceListing struct {
	ID       string    `json:"id"`
	Stem     Stem      `json:"stem"`
	Geo      GeoAnchor `json:"geo"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`

	AveragePrice decimal.Decimal `json:"average_price"`
	LowestPrice  decimal.Decimal `json:"lowest_price"`
	HighestPrice decimal.Decimal `json:"highest_price"`

	Status    bool      `json:"status"` // active=true, hidden=false
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the invariants a listing row must satisfy at write time.
func (l PriceListing) Validate() error {
	if err := l.Stem.Validate(); err != nil {
		return err
	}
	if err := l.Geo.Validate(); err != nil {
		return err
	}
	if !l.Price.IsPositive() {
		return NewValidationError(CodeNonPositivePrice, "price",
			"price must be a positive amount")
	}
	if l.Currency == "" {
		return NewValidationError(CodeBadCurrency, "currency",
			"currency code must not be empty")
	}
	return nil
}

// NewListingInput carries the client-settable fields of a listing creation.
type NewListingInput struct {
	Stem     Stem
	Geo      GeoAnchor
	Price    decimal.Decimal
	Currency string // empty means DefaultCurrency
	Note     string
}
