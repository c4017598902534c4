package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// meanOf computes the exact decimal arithmetic mean of prices, unrounded.
// Callers round per view so ranking comparisons stay exact.
func meanOf(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices))))
}

// sampleStd computes the sample standard deviation (n-1 denominator) of
// prices. A bucket with fewer than two points has a deviation of zero, not
// NaN, so singleton buckets stay eligible for volatility rankings.
func sampleStd(prices []decimal.Decimal) float64 {
	n := len(prices)
	if n < 2 {
		return 0
	}
	mean := 0.0
	vals := make([]float64, n)
	for i, p := range prices {
		vals[i] = p.InexactFloat64()
		mean += vals[i]
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}
