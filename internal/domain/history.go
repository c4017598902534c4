package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryOrder selects the retrieval direction for ledger scans.
type HistoryOrder string

const (
	// OrderAsc returns entries oldest-first, for chronological analytics.
	OrderAsc HistoryOrder = "asc"
	// OrderDesc returns entries newest-first, for "latest N" queries.
	OrderDesc HistoryOrder = "desc"
)

// DefaultHistoryWindow caps the number of points served to analytics and
// history endpoints unless the caller asks for fewer.
const DefaultHistoryWindow = 90

// PricePoint is one append-only ledger entry: the price a listing carried
// at recording time. Entries are never mutated; Seq is assigned by the
// store monotonically so that entries sharing a RecordedAt still order
// deterministically.
type PricePoint struct {
	ID         string          `json:"id"`
	ListingID  string          `json:"listing_id"`
	Seq        int64           `json:"-"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	RecordedAt time.Time       `json:"recorded_at"`
}
