package handlers

import (
	"sort"

	"github.com/choiwjun/chamgab-sub000/models"
	"github.com/choiwjun/chamgab-sub000/utils"
)

// Feature defaults used whenever a statistics table has no row for the
// requested district/industry pair.
const (
	DefaultSurvivalRate     = 75.0
	DefaultMonthlyAvgSales  = 40000000.0
	DefaultSalesGrowthRate  = 3.0
	DefaultStoreCount       = 120.0
	DefaultFranchiseRatio   = 0.3
	DefaultCompetitionRatio = 1.2
)

// PredictorConfig holds the empirically tuned weights of the rule-based
// predictor. Overridable at construction; DefaultPredictorConfig is the
// calibration the frontend thresholds were tuned against.
type PredictorConfig struct {
	BaseOffset         float64
	SurvivalWeight     float64
	GrowthWeight       float64
	GrowthCap          float64
	CompetitionWeight  float64
	CompetitionFloor   float64
	CompetitionCap     float64
	FranchiseWeight    float64
	FranchiseCap       float64
	ConfidenceBase     float64
	ConfidencePerInput float64
	ConfidenceCeiling  float64
}

func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		BaseOffset:         15,
		SurvivalWeight:     0.6,
		GrowthWeight:       2,
		GrowthCap:          10,
		CompetitionWeight:  5,
		CompetitionFloor:   -5,
		CompetitionCap:     10,
		FranchiseWeight:    10,
		FranchiseCap:       8,
		ConfidenceBase:     50,
		ConfidencePerInput: 7.5,
		ConfidenceCeiling:  95,
	}
}

// Factor labels surfaced to the frontend. The keys are internal feature
// names; the labels are part of the response contract.
var factorNames = map[string]string{
	"survival_rate":     "높은 생존율",
	"monthly_avg_sales": "높은 평균 매출",
	"sales_growth_rate": "매출 성장세",
	"store_count":       "적정 점포 밀도",
	"franchise_ratio":   "프랜차이즈 포화도",
	"competition_ratio": "경쟁 강도",
}

// FactorName maps an internal feature key to its frontend label.
func FactorName(key string) string {
	if name, ok := factorNames[key]; ok {
		return name
	}
	return key
}

// Predictor computes a success probability without the external ML service.
// Pure and deterministic: identical inputs always yield identical outputs.
type Predictor struct {
	Config PredictorConfig
}

func NewPredictor(cfg PredictorConfig) *Predictor {
	return &Predictor{Config: cfg}
}

func DefaultFeatures() models.PredictionFeatures {
	return models.PredictionFeatures{
		SurvivalRate:     DefaultSurvivalRate,
		MonthlyAvgSales:  DefaultMonthlyAvgSales,
		SalesGrowthRate:  DefaultSalesGrowthRate,
		StoreCount:       DefaultStoreCount,
		FranchiseRatio:   DefaultFranchiseRatio,
		CompetitionRatio: DefaultCompetitionRatio,
	}
}

// Predict scores a feature vector. realInputs is how many of the six inputs
// came from actual rows rather than defaults; it only drives confidence.
func (p *Predictor) Predict(f models.PredictionFeatures, realInputs int) models.PredictionResult {
	cfg := p.Config

	// Weighted scoring:
	// - survival rate carries the baseline
	// - sales growth adds or subtracts, magnitude capped
	// - competition and franchise saturation are penalties
	base := cfg.BaseOffset + f.SurvivalRate*cfg.SurvivalWeight
	growth := utils.Clamp(f.SalesGrowthRate*cfg.GrowthWeight, -cfg.GrowthCap, cfg.GrowthCap)
	competitionPenalty := utils.Clamp((f.CompetitionRatio-1.0)*cfg.CompetitionWeight, cfg.CompetitionFloor, cfg.CompetitionCap)
	franchisePenalty := utils.Clamp(f.FranchiseRatio*cfg.FranchiseWeight, 0, cfg.FranchiseCap)

	score := utils.Clamp(base+growth-competitionPenalty-franchisePenalty, 0, 100)

	if realInputs < 0 {
		realInputs = 0
	}
	if realInputs > 6 {
		realInputs = 6
	}
	confidence := utils.Clamp(cfg.ConfidenceBase+cfg.ConfidencePerInput*float64(realInputs),
		cfg.ConfidenceBase, cfg.ConfidenceCeiling)

	return models.PredictionResult{
		SuccessProbability: utils.Round1(score),
		Confidence:         utils.Round1(confidence),
		Factors:            p.factorBreakdown(f),
		Recommendation:     recommendationFor(score),
		Source:             "rule_based",
	}
}

// factorBreakdown maps each input to a signed impact relative to its
// neutral point, sorted by absolute impact descending. Ties keep the fixed
// feature order so the output stays deterministic.
func (p *Predictor) factorBreakdown(f models.PredictionFeatures) []models.FactorContribution {
	impacts := []struct {
		key    string
		impact float64
	}{
		{"survival_rate", (f.SurvivalRate - 70) * 0.8},
		{"monthly_avg_sales", (f.MonthlyAvgSales - DefaultMonthlyAvgSales) / 4000000 * 0.6},
		{"sales_growth_rate", f.SalesGrowthRate * 1.5},
		{"store_count", (DefaultStoreCount - f.StoreCount) * 0.05},
		{"franchise_ratio", (DefaultFranchiseRatio - f.FranchiseRatio) * 20},
		{"competition_ratio", (1.0 - f.CompetitionRatio) * 10},
	}

	factors := make([]models.FactorContribution, 0, len(impacts))
	for _, entry := range impacts {
		direction := "positive"
		if entry.impact < 0 {
			direction = "negative"
		}
		factors = append(factors, models.FactorContribution{
			Name:      FactorName(entry.key),
			Impact:    utils.Round1(entry.impact),
			Direction: direction,
		})
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return abs(factors[i].Impact) > abs(factors[j].Impact)
	})
	return factors
}

func recommendationFor(score float64) string {
	switch {
	case score >= 75:
		return "성공 가능성이 높은 상권입니다. 적극적인 창업 검토를 추천합니다."
	case score >= 60:
		return "양호한 상권입니다. 차별화 전략과 함께라면 성공 가능성이 충분합니다."
	case score >= 45:
		return "평균적인 상권입니다. 경쟁 전략과 비용 관리가 중요합니다."
	default:
		return "신중한 접근이 필요한 상권입니다. 추가 상권 조사를 권장합니다."
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// FeaturesFromStats builds the predictor's feature vector from the latest
// month of each statistics table, defaulting per input when a table has no
// rows. The second return is how many inputs came from real data.
func FeaturesFromStats(biz []models.BusinessStatistic, sales []models.SalesStatistic, stores []models.StoreStatistic) (models.PredictionFeatures, int) {
	features := DefaultFeatures()
	realInputs := 0

	if latest := LatestBusinessStats(biz); len(latest) > 0 {
		var sum float64
		for _, r := range latest {
			sum += r.SurvivalRate
		}
		features.SurvivalRate = sum / float64(len(latest))
		realInputs++
	}

	if latest := LatestSalesStats(sales); len(latest) > 0 {
		var salesSum, growthSum float64
		for _, r := range latest {
			salesSum += r.MonthlyAvgSales
			growthSum += r.SalesGrowthRate
		}
		features.MonthlyAvgSales = salesSum / float64(len(latest))
		features.SalesGrowthRate = growthSum / float64(len(latest))
		realInputs += 2
	}

	if latest := LatestStoreStats(stores); len(latest) > 0 {
		var storeSum, franchiseSum float64
		for _, r := range latest {
			storeSum += float64(r.StoreCount)
			franchiseSum += float64(r.FranchiseCount)
		}
		features.StoreCount = storeSum
		// Competition is expressed relative to a 100-store baseline.
		features.CompetitionRatio = storeSum / 100.0
		realInputs += 2
		if storeSum > 0 {
			features.FranchiseRatio = franchiseSum / storeSum
			realInputs++
		}
	}

	return features, realInputs
}
