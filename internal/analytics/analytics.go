package analytics

import "github.com/emiafrica/market-intel/internal/domain"

// Compute bundles every derived view for one history snapshot. An empty
// snapshot yields empty slices and nil quarter labels, never an error: a
// missing chart is preferable to a failed request on these paths.
func Compute(points []domain.PricePoint) domain.AnalyticsView {
	return domain.AnalyticsView{
		QuarterlyCurve:    QuarterlyCurve(points),
		MonthlyCurve:      MonthlyCurve(points),
		TopQuarterOverall: TopQuarterOverall(points),
		TopQuarterRecent:  TopQuarterRecent(points),
		HighJumpMonths:    HighJumpMonths(points, DefaultTopN),
		HighDropMonths:    HighDropMonths(points, DefaultTopN),
		VolatileMonths:    VolatileMonths(points, DefaultTopN),
		StableQuarters:    StableQuarters(points, DefaultStableTop),
	}
}
