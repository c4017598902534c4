package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

func pt(price string, year int, month time.Month, day int) domain.PricePoint {
	return domain.PricePoint{
		Price:      decimal.RequireFromString(price),
		Currency:   domain.DefaultCurrency,
		RecordedAt: time.Date(year, month, day, 12, 0, 0, 0, time.UTC),
	}
}

func TestQuarterlyCurveGroupsAndSorts(t *testing.T) {
	points := []domain.PricePoint{
		pt("10", 2025, time.February, 1),
		pt("12", 2025, time.March, 1),
		pt("11", 2025, time.January, 1),
		pt("50", 2025, time.April, 1),
		pt("52", 2025, time.May, 1),
		pt("40", 2024, time.December, 1),
	}

	curve := QuarterlyCurve(points)
	if len(curve) != 3 {
		t.Fatalf("expected 3 quarters, got %d", len(curve))
	}
	if curve[0].Label != "2024Q4" || curve[1].Label != "2025Q1" || curve[2].Label != "2025Q2" {
		t.Fatalf("unexpected quarter order: %+v", curve)
	}
	if got := curve[1].AvgPrice.String(); got != "11" {
		t.Errorf("2025Q1 mean = %s, want 11", got)
	}
	if got := curve[2].AvgPrice.String(); got != "51" {
		t.Errorf("2025Q2 mean = %s, want 51", got)
	}
}

func TestQuarterlyCurveRoundsToTwoDecimals(t *testing.T) {
	points := []domain.PricePoint{
		pt("10", 2025, time.January, 1),
		pt("10", 2025, time.January, 2),
		pt("11", 2025, time.February, 1),
	}
	curve := QuarterlyCurve(points)
	if len(curve) != 1 {
		t.Fatalf("expected 1 quarter, got %d", len(curve))
	}
	if got := curve[0].AvgPrice.String(); got != "10.33" {
		t.Errorf("mean = %s, want 10.33", got)
	}
}

func TestMonthlyCurveCombinesYears(t *testing.T) {
	// Entries priced 10,20,10,20 in January across two years average to
	// 15.00 for the Jan label.
	points := []domain.PricePoint{
		pt("10", 2024, time.January, 5),
		pt("20", 2024, time.January, 20),
		pt("10", 2025, time.January, 5),
		pt("20", 2025, time.January, 20),
		pt("7", 2025, time.March, 1),
	}

	curve := MonthlyCurve(points)
	if len(curve) != 2 {
		t.Fatalf("expected 2 month labels, got %d", len(curve))
	}
	if curve[0].Label != "Jan" || curve[1].Label != "Mar" {
		t.Fatalf("expected calendar order Jan,Mar, got %+v", curve)
	}
	if got := curve[0].AvgPrice.String(); got != "15" {
		t.Errorf("Jan mean = %s, want 15", got)
	}
}

func TestMonthlyCurveEmptyMonthsDropped(t *testing.T) {
	curve := MonthlyCurve([]domain.PricePoint{pt("5", 2025, time.June, 1)})
	if len(curve) != 1 || curve[0].Label != "Jun" {
		t.Fatalf("expected only Jun, got %+v", curve)
	}
}

func TestMonthStepsChronologicalAcrossYears(t *testing.T) {
	// An alphabetical month sort would put Apr 2025 before Dec 2024; the
	// step series must be chronological.
	points := []domain.PricePoint{
		pt("100", 2024, time.December, 1),
		pt("110", 2025, time.January, 1),
		pt("99", 2025, time.April, 1),
	}

	steps := MonthSteps(points)
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Year != 2025 || steps[0].Month != "Jan" {
		t.Fatalf("first step should be Jan 2025, got %+v", steps[0])
	}
	if got := steps[0].DeltaPct.String(); got != "10" {
		t.Errorf("Jan delta = %s, want 10", got)
	}
	if steps[1].Month != "Apr" {
		t.Fatalf("second step should be Apr, got %+v", steps[1])
	}
	if got := steps[1].DeltaPct.String(); got != "-10" {
		t.Errorf("Apr delta = %s, want -10", got)
	}
}

func TestMonthStepsFirstBucketDropped(t *testing.T) {
	steps := MonthSteps([]domain.PricePoint{pt("10", 2025, time.January, 1)})
	if len(steps) != 0 {
		t.Fatalf("single bucket has no steps, got %+v", steps)
	}
}

func TestCurvesEmptyInput(t *testing.T) {
	if got := QuarterlyCurve(nil); got != nil {
		t.Errorf("QuarterlyCurve(nil) = %+v, want nil", got)
	}
	if got := MonthlyCurve(nil); got != nil {
		t.Errorf("MonthlyCurve(nil) = %+v, want nil", got)
	}
	if got := MonthSteps(nil); got != nil {
		t.Errorf("MonthSteps(nil) = %+v, want nil", got)
	}
}
