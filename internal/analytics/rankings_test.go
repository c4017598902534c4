package analytics

import (
	"testing"
	"time"

	"github.com/emiafrica/market-intel/internal/domain"
)

func TestTopQuarterOverallPicksCheapest(t *testing.T) {
	points := []domain.PricePoint{
		pt("10", 2025, time.January, 1),
		pt("12", 2025, time.February, 1),
		pt("11", 2025, time.March, 1),
		pt("50", 2025, time.April, 1),
		pt("52", 2025, time.May, 1),
	}
	got := TopQuarterOverall(points)
	if got == nil || *got != "2025Q1" {
		t.Fatalf("TopQuarterOverall = %v, want 2025Q1", got)
	}
}

func TestTopQuarterOverallTieBreaksEarliest(t *testing.T) {
	points := []domain.PricePoint{
		pt("10", 2024, time.January, 1),
		pt("10", 2025, time.July, 1),
	}
	got := TopQuarterOverall(points)
	if got == nil || *got != "2024Q1" {
		t.Fatalf("tie should resolve to earliest label, got %v", got)
	}
}

func TestTopQuarterRecentRestrictsToMaxYear(t *testing.T) {
	points := []domain.PricePoint{
		pt("1", 2024, time.January, 1), // cheapest ever, but not recent
		pt("30", 2025, time.January, 1),
		pt("20", 2025, time.October, 1),
	}
	got := TopQuarterRecent(points)
	if got == nil || *got != "2025Q4" {
		t.Fatalf("TopQuarterRecent = %v, want 2025Q4", got)
	}
}

func TestTopQuartersEmpty(t *testing.T) {
	if got := TopQuarterOverall(nil); got != nil {
		t.Errorf("TopQuarterOverall(nil) = %v, want nil", got)
	}
	if got := TopQuarterRecent(nil); got != nil {
		t.Errorf("TopQuarterRecent(nil) = %v, want nil", got)
	}
}

func TestHighJumpAndDropMonths(t *testing.T) {
	points := []domain.PricePoint{
		pt("100", 2025, time.January, 1),
		pt("150", 2025, time.February, 1), // +50%
		pt("120", 2025, time.March, 1),    // -20%
		pt("132", 2025, time.April, 1),    // +10%
	}

	jumps := HighJumpMonths(points, 5)
	if len(jumps) != 2 {
		t.Fatalf("expected 2 positive steps, got %+v", jumps)
	}
	if jumps[0].Month != "Feb" || jumps[1].Month != "Apr" {
		t.Errorf("jump order = %s,%s, want Feb,Apr", jumps[0].Month, jumps[1].Month)
	}
	if got := jumps[0].DeltaPct.String(); got != "50" {
		t.Errorf("Feb delta = %s, want 50", got)
	}

	drops := HighDropMonths(points, 5)
	if len(drops) != 1 || drops[0].Month != "Mar" {
		t.Fatalf("expected only Mar as a drop, got %+v", drops)
	}
	if got := drops[0].DeltaPct.String(); got != "-20" {
		t.Errorf("Mar delta = %s, want -20", got)
	}
}

func TestHighJumpMonthsHonorsTopN(t *testing.T) {
	points := []domain.PricePoint{
		pt("100", 2025, time.January, 1),
		pt("110", 2025, time.February, 1),
		pt("132", 2025, time.March, 1),
		pt("165", 2025, time.April, 1),
	}
	jumps := HighJumpMonths(points, 2)
	if len(jumps) != 2 {
		t.Fatalf("expected top 2, got %d", len(jumps))
	}
	if jumps[0].Month != "Apr" && jumps[0].Month != "Mar" {
		t.Errorf("unexpected top jump %+v", jumps[0])
	}
}

func TestHighJumpRanksOnExactDelta(t *testing.T) {
	// Feb rises by 0.04%, below 1 dp display resolution, then Mar jumps.
	points := []domain.PricePoint{
		pt("100", 2025, time.January, 1),
		pt("100.04", 2025, time.February, 1),
		pt("110", 2025, time.March, 1),
	}

	jumps := HighJumpMonths(points, 0)
	if len(jumps) != 2 {
		t.Fatalf("expected both rises ranked, got %d: %+v", len(jumps), jumps)
	}
	if jumps[0].Month != "Mar" || jumps[1].Month != "Feb" {
		t.Errorf("unexpected order: %+v", jumps)
	}
	// The tiny rise stays in the ranking; only its displayed delta rounds
	// away.
	if got := jumps[1].DeltaPct.String(); got != "0" {
		t.Errorf("Feb displayed delta = %s, want 0", got)
	}

	if drops := HighDropMonths(points, 0); len(drops) != 0 {
		t.Errorf("no month fell, got %+v", drops)
	}
}

func TestVolatileMonthsSingletonIsZero(t *testing.T) {
	points := []domain.PricePoint{
		pt("10", 2025, time.January, 1),
		pt("10", 2025, time.February, 1),
		pt("30", 2025, time.February, 15),
	}

	vols := VolatileMonths(points, 5)
	if len(vols) != 2 {
		t.Fatalf("expected 2 labels, got %+v", vols)
	}
	if vols[0].Label != "Feb" {
		t.Errorf("most volatile = %s, want Feb", vols[0].Label)
	}
	if !vols[1].Std.IsZero() {
		t.Errorf("singleton bucket std = %s, want 0", vols[1].Std)
	}
}

func TestStableQuartersRanksByCV(t *testing.T) {
	points := []domain.PricePoint{
		// 2025Q1: tight around 100
		pt("100", 2025, time.January, 1),
		pt("101", 2025, time.February, 1),
		// 2025Q2: wild
		pt("50", 2025, time.April, 1),
		pt("150", 2025, time.May, 1),
		// 2025Q3: singleton, cv 0
		pt("80", 2025, time.July, 1),
	}

	stab := StableQuarters(points, 3)
	if len(stab) != 3 {
		t.Fatalf("expected 3 quarters, got %+v", stab)
	}
	if stab[0].Label != "2025Q3" {
		t.Errorf("most stable = %s, want singleton 2025Q3", stab[0].Label)
	}
	if stab[1].Label != "2025Q1" || stab[2].Label != "2025Q2" {
		t.Errorf("unexpected ranking: %+v", stab)
	}
}

func TestComputeEmptySnapshot(t *testing.T) {
	view := Compute(nil)
	if view.TopQuarterOverall != nil || view.TopQuarterRecent != nil {
		t.Errorf("expected nil quarters for empty input")
	}
	if len(view.QuarterlyCurve) != 0 || len(view.MonthlyCurve) != 0 ||
		len(view.HighJumpMonths) != 0 || len(view.HighDropMonths) != 0 ||
		len(view.VolatileMonths) != 0 || len(view.StableQuarters) != 0 {
		t.Errorf("expected empty views, got %+v", view)
	}
}
