package handlers

import (
	"reflect"
	"testing"

	"github.com/choiwjun/chamgab-sub000/models"
)

func TestPredictGoldenBaseline(t *testing.T) {
	t.Parallel()

	p := NewPredictor(DefaultPredictorConfig())
	result := p.Predict(DefaultFeatures(), 0)

	// Regression baseline for the all-defaults vector:
	// 15 + 75*0.6 + clamp(3*2) - (1.2-1)*5 - 0.3*10 = 62.
	if result.SuccessProbability != 62.0 {
		t.Fatalf("success_probability want=62.0 got=%v", result.SuccessProbability)
	}
	if result.Confidence != 50.0 {
		t.Fatalf("confidence want=50.0 got=%v", result.Confidence)
	}
	if result.Source != "rule_based" {
		t.Fatalf("source want=rule_based got=%s", result.Source)
	}
	if result.Recommendation == "" {
		t.Fatal("expected non-empty recommendation")
	}
}

func TestPredictDeterminism(t *testing.T) {
	t.Parallel()

	p := NewPredictor(DefaultPredictorConfig())
	features := models.PredictionFeatures{
		SurvivalRate:     81.3,
		MonthlyAvgSales:  52000000,
		SalesGrowthRate:  -2.7,
		StoreCount:       240,
		FranchiseRatio:   0.45,
		CompetitionRatio: 2.4,
	}

	first := p.Predict(features, 6)
	for i := 0; i < 10; i++ {
		if got := p.Predict(features, 6); !reflect.DeepEqual(first, got) {
			t.Fatalf("prediction not deterministic: %+v vs %+v", first, got)
		}
	}
}

func TestPredictBounds(t *testing.T) {
	t.Parallel()

	p := NewPredictor(DefaultPredictorConfig())
	vectors := []models.PredictionFeatures{
		{},
		{SurvivalRate: 100, MonthlyAvgSales: 900000000, SalesGrowthRate: 80, StoreCount: 5, FranchiseRatio: 0, CompetitionRatio: 0.05},
		{SurvivalRate: 0, MonthlyAvgSales: 0, SalesGrowthRate: -90, StoreCount: 5000, FranchiseRatio: 1, CompetitionRatio: 50},
		DefaultFeatures(),
	}

	for i, features := range vectors {
		for real := 0; real <= 6; real++ {
			result := p.Predict(features, real)
			if result.SuccessProbability < 0 || result.SuccessProbability > 100 {
				t.Fatalf("vector %d: success_probability out of range: %v", i, result.SuccessProbability)
			}
			if result.Confidence < 0 || result.Confidence > 100 {
				t.Fatalf("vector %d: confidence out of range: %v", i, result.Confidence)
			}
		}
	}
}

func TestPredictFactorOrdering(t *testing.T) {
	t.Parallel()

	p := NewPredictor(DefaultPredictorConfig())
	features := models.PredictionFeatures{
		SurvivalRate:     55,
		MonthlyAvgSales:  80000000,
		SalesGrowthRate:  12,
		StoreCount:       400,
		FranchiseRatio:   0.7,
		CompetitionRatio: 3.1,
	}

	result := p.Predict(features, 6)
	if len(result.Factors) != 6 {
		t.Fatalf("factors want=6 got=%d", len(result.Factors))
	}
	for i := 0; i+1 < len(result.Factors); i++ {
		a, b := result.Factors[i], result.Factors[i+1]
		if abs(a.Impact) < abs(b.Impact) {
			t.Fatalf("factors not sorted by |impact|: %v before %v", a, b)
		}
	}
	for _, f := range result.Factors {
		if f.Direction != "positive" && f.Direction != "negative" {
			t.Fatalf("unexpected direction %q", f.Direction)
		}
		if f.Impact < 0 && f.Direction != "negative" {
			t.Fatalf("negative impact with direction %q", f.Direction)
		}
	}
}

func TestPredictConfidenceScalesWithRealInputs(t *testing.T) {
	t.Parallel()

	p := NewPredictor(DefaultPredictorConfig())
	features := DefaultFeatures()

	if got := p.Predict(features, 6).Confidence; got != 95.0 {
		t.Fatalf("confidence with all real inputs want=95.0 got=%v", got)
	}
	if got := p.Predict(features, 3).Confidence; got != 72.5 {
		t.Fatalf("confidence with 3 real inputs want=72.5 got=%v", got)
	}
	// Out-of-range counts are clamped, never below the floor.
	if got := p.Predict(features, -4).Confidence; got != 50.0 {
		t.Fatalf("confidence floor want=50.0 got=%v", got)
	}
	if got := p.Predict(features, 99).Confidence; got != 95.0 {
		t.Fatalf("confidence ceiling want=95.0 got=%v", got)
	}
}

func TestRecommendationBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		want  string
	}{
		{80, recommendationFor(80)},
		{75, recommendationFor(75)},
		{60, recommendationFor(60)},
		{45, recommendationFor(45)},
		{10, recommendationFor(10)},
	}
	if cases[0].want != cases[1].want {
		t.Fatal("75 and 80 should share a band")
	}
	if cases[1].want == cases[2].want || cases[2].want == cases[3].want || cases[3].want == cases[4].want {
		t.Fatal("adjacent bands should differ")
	}
	for _, c := range cases {
		if c.want == "" {
			t.Fatalf("empty recommendation for score %v", c.score)
		}
	}
}

func TestFeaturesFromStats(t *testing.T) {
	t.Parallel()

	biz := []models.BusinessStatistic{
		{DistrictCode: "11680-001", IndustryCode: "I56111", BaseYearMonth: "202401", SurvivalRate: 60},
		{DistrictCode: "11680-001", IndustryCode: "I56111", BaseYearMonth: "202406", SurvivalRate: 82},
	}
	sales := []models.SalesStatistic{
		{DistrictCode: "11680-001", IndustryCode: "I56111", BaseYearMonth: "202406", MonthlyAvgSales: 50000000, SalesGrowthRate: 5},
	}
	stores := []models.StoreStatistic{
		{DistrictCode: "11680-001", IndustryCode: "I56111", BaseYearMonth: "202406", StoreCount: 200, FranchiseCount: 50},
	}

	features, real := FeaturesFromStats(biz, sales, stores)
	if real != 6 {
		t.Fatalf("real inputs want=6 got=%d", real)
	}
	if features.SurvivalRate != 82 {
		t.Fatalf("survival should come from the latest month: got %v", features.SurvivalRate)
	}
	if features.MonthlyAvgSales != 50000000 || features.SalesGrowthRate != 5 {
		t.Fatalf("unexpected sales features: %+v", features)
	}
	if features.StoreCount != 200 {
		t.Fatalf("store_count want=200 got=%v", features.StoreCount)
	}
	if features.FranchiseRatio != 0.25 {
		t.Fatalf("franchise_ratio want=0.25 got=%v", features.FranchiseRatio)
	}
	if features.CompetitionRatio != 2.0 {
		t.Fatalf("competition_ratio want=2.0 got=%v", features.CompetitionRatio)
	}
}

func TestFeaturesFromStatsAllMissing(t *testing.T) {
	t.Parallel()

	features, real := FeaturesFromStats(nil, nil, nil)
	if real != 0 {
		t.Fatalf("real inputs want=0 got=%d", real)
	}
	if features != DefaultFeatures() {
		t.Fatalf("expected defaults, got %+v", features)
	}
}
