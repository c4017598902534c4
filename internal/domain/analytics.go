package domain

import "github.com/shopspring/decimal"

// CurvePoint is one bucket of an averaged price curve. Label is a quarter
// label ("2025Q1") or a month label ("Jan") depending on the curve.
type CurvePoint struct {
	Label    string          `json:"label"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// StepPoint is one bucket of the month-over-month step series: the mean
// price of a (year, month) bucket and its percentage change against the
// immediately preceding chronological bucket.
type StepPoint struct {
	Year     int             `json:"year"`
	Month    string          `json:"month"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	DeltaPct decimal.Decimal `json:"delta_pct"`
}

// VolatilityPoint reports the sample standard deviation of prices recorded
// in one month label (across years).
type VolatilityPoint struct {
	Label string          `json:"label"`
	Std   decimal.Decimal `json:"std"`
}

// StabilityPoint reports the coefficient of variation (stddev/mean) of one
// quarter bucket. Lower is more stable.
type StabilityPoint struct {
	Label string          `json:"label"`
	CV    decimal.Decimal `json:"cv"`
}

// AnalyticsView bundles every derived statistic served for one listing's
// history snapshot. Empty history produces empty slices and nil quarter
// labels, never an error.
type AnalyticsView struct {
	QuarterlyCurve    []CurvePoint      `json:"quarterly_curve"`
	MonthlyCurve      []CurvePoint      `json:"monthly_curve"`
	TopQuarterOverall *string           `json:"top_quarter_overall"`
	TopQuarterRecent  *string           `json:"top_quarter_recent"`
	HighJumpMonths    []StepPoint       `json:"high_jump_months"`
	HighDropMonths    []StepPoint       `json:"high_drop_months"`
	VolatileMonths    []VolatilityPoint `json:"volatile_months"`
	StableQuarters    []StabilityPoint  `json:"stable_quarters"`
}

// MarketSummary is the per-market aggregate block of the comparison view.
type MarketSummary struct {
	MarketID   string          `json:"market_id"`
	MarketName string          `json:"market_name"`
	ListingID  string          `json:"listing_id"`
	Latest     decimal.Decimal `json:"latest"`
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	Avg        decimal.Decimal `json:"avg"`
	Points     int             `json:"points"`
}
