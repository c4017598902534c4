package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

// QuarterlyCurve groups the snapshot by quarter label and averages each
// group, sorted ascending by label. The "YYYYQn" format sorts
// lexicographically in chronological order.
func QuarterlyCurve(points []domain.PricePoint) []domain.CurvePoint {
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

	curve := make([]domain.CurvePoint, 0, len(labels))
	for _, q := range labels {
		curve = append(curve, domain.CurvePoint{
			Label:    q,
			AvgPrice: meanOf(groups[q]).Round(2),
		})
	}
	return curve
}

// MonthlyCurve averages prices per month label across all years combined,
// reindexed into fixed calendar order Jan..Dec. Months with no data are
// dropped, not zero-filled.
func MonthlyCurve(points []domain.PricePoint) []domain.CurvePoint {
	groups := make(map[string][]decimal.Decimal)
	for _, p := range points {
		m := bucketOf(p.RecordedAt).Month
		groups[m] = append(groups[m], p.Price)
	}
	if len(groups) == 0 {
		return nil
	}

	curve := make([]domain.CurvePoint, 0, len(groups))
	for _, m := range monthLabels {
		prices, ok := groups[m]
		if !ok {
			continue
		}
		curve = append(curve, domain.CurvePoint{
			Label:    m,
			AvgPrice: meanOf(prices).Round(2),
		})
	}
	return curve
}

// monthStep is an intermediate (year, month) bucket of the step series.
type monthStep struct {
	year     int
	monthIdx int
	month    string
	avg      decimal.Decimal
}

// stepEntry is one bucket of the step series with its delta kept exact.
// Views round to 1 dp; rankings compare the exact value so a small step
// does not vanish at the rounding boundary.
type stepEntry struct {
	year  int
	month string
	avg   decimal.Decimal
	delta decimal.Decimal
}

func (s stepEntry) view() domain.StepPoint {
	return domain.StepPoint{
		Year:     s.year,
		Month:    s.month,
		AvgPrice: s.avg.Round(2),
		DeltaPct: s.delta.Round(1),
	}
}

// MonthSteps groups the snapshot by (year, month) in chronological order
// and computes each bucket's percentage change against the immediately
// preceding bucket. The first bucket has no predecessor and is dropped;
// buckets following a zero-mean bucket are dropped as well since the
// ratio is undefined.
func MonthSteps(points []domain.PricePoint) []domain.StepPoint {
	entries := stepSeries(points)
	if entries == nil {
		return nil
	}
	out := make([]domain.StepPoint, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.view())
	}
	return out
}

// stepSeries computes the chronological step buckets without rounding.
func stepSeries(points []domain.PricePoint) []stepEntry {
	type key struct{ year, month int }
	groups := make(map[key][]decimal.Decimal)
	for _, p := range points {
		b := bucketOf(p.RecordedAt)
		k := key{b.Year, b.MonthIdx}
		groups[k] = append(groups[k], p.Price)
	}
	if len(groups) == 0 {
		return nil
	}

	steps := make([]monthStep, 0, len(groups))
	for k, prices := range groups {
		steps = append(steps, monthStep{
			year:     k.year,
			monthIdx: k.month,
			month:    monthLabels[k.month-1],
			avg:      meanOf(prices),
		})
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].year != steps[j].year {
			return steps[i].year < steps[j].year
		}
		return steps[i].monthIdx < steps[j].monthIdx
	})

	hundred := decimal.NewFromInt(100)
	out := make([]stepEntry, 0, len(steps)-1)
	for i := 1; i < len(steps); i++ {
		prev := steps[i-1].avg
		if prev.IsZero() {
			continue
		}
		out = append(out, stepEntry{
			year:  steps[i].year,
			month: steps[i].month,
			avg:   steps[i].avg,
			delta: steps[i].avg.Sub(prev).Div(prev).Mul(hundred),
		})
	}
	return out
}
