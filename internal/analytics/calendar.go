// Package analytics computes derived statistics over a listing's history
// snapshot. Every function is a pure function of the supplied points: no
// storage access, no side effects, safe to run in parallel across listings.
package analytics

import (
	"fmt"
	"time"

	"github.com/emiafrica/market-intel/internal/domain"
)

// monthLabels holds the fixed calendar ordering used by every month-keyed
// view. Labels match time.Month abbreviations ("Jan".."Dec").
var monthLabels = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// bucket is the calendar key derived from one recorded point.
type bucket struct {
	Year     int
	MonthIdx int    // 1..12
	Month    string // "Jan".."Dec"
	Quarter  string // "2025Q1"; lexicographic order is chronological
}

// bucketOf derives the calendar bucket for a timestamp. Bucketing is done
// in UTC so a point lands in the same bucket regardless of server zone.
func bucketOf(ts time.Time) bucket {
	u := ts.UTC()
	y, m := u.Year(), int(u.Month())
	return bucket{
		Year:     y,
		MonthIdx: m,
		Month:    monthLabels[m-1],
		Quarter:  fmt.Sprintf("%dQ%d", y, (m-1)/3+1),
	}
}

// maxYear returns the largest calendar year present in the points, or
// false when the snapshot is empty.
func maxYear(points []domain.PricePoint) (int, bool) {
	if len(points) == 0 {
		return 0, false
	}
	max := bucketOf(points[0].RecordedAt).Year
	for _, p := range points[1:] {
		if y := bucketOf(p.RecordedAt).Year; y > max {
			max = y
		}
	}
	return max, true
}
