package handlers

import (
	"reflect"
	"testing"

	"github.com/choiwjun/chamgab-sub000/models"
)

func TestLatestBusinessStatsPicksMaxMonth(t *testing.T) {
	t.Parallel()

	rows := []models.BusinessStatistic{
		{IndustryCode: "I56111", BaseYearMonth: "202312", SurvivalRate: 70},
		{IndustryCode: "I56111", BaseYearMonth: "202406", SurvivalRate: 80},
		{IndustryCode: "I56220", BaseYearMonth: "202406", SurvivalRate: 75},
		{IndustryCode: "I56220", BaseYearMonth: "202401", SurvivalRate: 72},
	}

	latest := LatestBusinessStats(rows)
	if len(latest) != 2 {
		t.Fatalf("latest rows want=2 got=%d", len(latest))
	}
	for _, r := range latest {
		if r.BaseYearMonth != "202406" {
			t.Fatalf("unexpected month %s", r.BaseYearMonth)
		}
	}
}

func TestLatestMonthIdempotent(t *testing.T) {
	t.Parallel()

	rows := []models.SalesStatistic{
		{BaseYearMonth: "202403", MonthlyAvgSales: 1},
		{BaseYearMonth: "202405", MonthlyAvgSales: 2},
		{BaseYearMonth: "202405", MonthlyAvgSales: 3},
	}

	once := LatestSalesStats(rows)
	twice := LatestSalesStats(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("latest(latest(rows)) != latest(rows): %v vs %v", once, twice)
	}
}

func TestLatestMonthEmptyUnchanged(t *testing.T) {
	t.Parallel()

	if got := LatestStoreStats(nil); len(got) != 0 {
		t.Fatalf("empty input should stay empty, got %v", got)
	}
	var empty []models.BusinessStatistic
	if got := LatestBusinessStats(empty); len(got) != 0 {
		t.Fatalf("empty input should stay empty, got %v", got)
	}
}
