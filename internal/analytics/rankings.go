package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

// Default ranking sizes, matching the served views.
const (
	DefaultTopN      = 5
	DefaultStableTop = 3
)

// quarterMeans computes the unrounded mean per quarter label.
func quarterMeans(points []domain.PricePoint) map[string]decimal.Decimal {
	groups := make(map[string][]decimal.Decimal)
	for _, p := range points {
		q := bucketOf(p.RecordedAt).Quarter
		groups[q] = append(groups[q], p.Price)
	}
	means := make(map[string]decimal.Decimal, len(groups))
	for q, prices := range groups {
		means[q] = meanOf(prices)
	}
	return means
}

// cheapestQuarter picks the label with the lowest mean; ties resolve to
// the earliest label.
func cheapestQuarter(means map[string]decimal.Decimal) *string {
	if len(means) == 0 {
		return nil
	}
	labels := make([]string, 0, len(means))
	for q := range means {
		labels = append(labels, q)
	}
	sort.Strings(labels)

	best := labels[0]
	for _, q := range labels[1:] {
		if means[q].LessThan(means[best]) {
			best = q
		}
	}
	return &best
}

// TopQuarterOverall returns the quarter label with the lowest mean price
// across all recorded history, or nil for an empty snapshot.
func TopQuarterOverall(points []domain.PricePoint) *string {
	return cheapestQuarter(quarterMeans(points))
}

// TopQuarterRecent is TopQuarterOverall restricted to entries from the
// most recent year present in the snapshot.
func TopQuarterRecent(points []domain.PricePoint) *string {
	year, ok := maxYear(points)
	if !ok {
		return nil
	}
	recent := points[:0:0]
	for _, p := range points {
		if bucketOf(p.RecordedAt).Year == year {
			recent = append(recent, p)
		}
	}
	return cheapestQuarter(quarterMeans(recent))
}

// HighJumpMonths returns the topN step buckets with a positive delta,
// largest first. Filtering and ranking use the exact delta, so a rise too
// small to survive 1 dp rounding still makes the list. Ties keep
// chronological order.
func HighJumpMonths(points []domain.PricePoint, topN int) []domain.StepPoint {
	var steps []stepEntry
	for _, s := range stepSeries(points) {
		if s.delta.IsPositive() {
			steps = append(steps, s)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].delta.GreaterThan(steps[j].delta)
	})
	return headSteps(steps, topN)
}

// HighDropMonths returns the topN step buckets with a negative delta,
// most negative first. Ties keep chronological order.
func HighDropMonths(points []domain.PricePoint, topN int) []domain.StepPoint {
	var steps []stepEntry
	for _, s := range stepSeries(points) {
		if s.delta.IsNegative() {
			steps = append(steps, s)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].delta.LessThan(steps[j].delta)
	})
	return headSteps(steps, topN)
}

func headSteps(steps []stepEntry, n int) []domain.StepPoint {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(steps) > n {
		steps = steps[:n]
	}
	if steps == nil {
		return nil
	}
	out := make([]domain.StepPoint, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.view())
	}
	return out
}

// VolatileMonths groups raw entries by month label across years and ranks
// the topN labels by sample standard deviation, descending. A label with a
// single data point has a deviation of zero and stays eligible.
func VolatileMonths(points []domain.PricePoint, topN int) []domain.VolatilityPoint {
	groups := make(map[string][]decimal.Decimal)
	for _, p := range points {
		m := bucketOf(p.RecordedAt).Month
		groups[m] = append(groups[m], p.Price)
	}
	if len(groups) == 0 {
		return nil
	}

	// Assemble in calendar order so equal deviations rank Jan before Dec.
	vols := make([]domain.VolatilityPoint, 0, len(groups))
	for _, m := range monthLabels {
		prices, ok := groups[m]
		if !ok {
			continue
		}
		vols = append(vols, domain.VolatilityPoint{
			Label: m,
			Std:   decimal.NewFromFloat(sampleStd(prices)).Round(2),
		})
	}
	sort.SliceStable(vols, func(i, j int) bool {
		return vols[i].Std.GreaterThan(vols[j].Std)
	})

	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(vols) > topN {
		vols = vols[:topN]
	}
	return vols
}

// StableQuarters ranks quarters by coefficient of variation (stddev/mean)
// ascending, most stable first. Quarters with a zero mean are excluded
// since the ratio is undefined; a singleton quarter has cv 0.
func StableQuarters(points []domain.PricePoint, topN int) []domain.StabilityPoint {
	groups := make(map[string][]decimal.Decimal)
	for _, p := range points {
		q := bucketOf(p.RecordedAt).Quarter
		groups[q] = append(groups[q], p.Price)
	}
	if len(groups) == 0 {
		return nil
	}

	labels := make([]string, 0, len(groups))
	for q := range groups {
		labels = append(labels, q)
	}
	sort.Strings(labels)

	stab := make([]domain.StabilityPoint, 0, len(labels))
	for _, q := range labels {
		prices := groups[q]
		mean := meanOf(prices)
		if mean.IsZero() {
			continue
		}
		cv := sampleStd(prices) / mean.InexactFloat64()
		stab = append(stab, domain.StabilityPoint{
			Label: q,
			CV:    decimal.NewFromFloat(cv).Round(3),
		})
	}
	sort.SliceStable(stab, func(i, j int) bool {
		return stab[i].CV.LessThan(stab[j].CV)
	})

	if topN <= 0 {
		topN = DefaultStableTop
	}
	if len(stab) > topN {
		stab = stab[:topN]
	}
	return stab
}
