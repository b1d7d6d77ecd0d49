package models

// PredictionFeatures is the normalized feature vector fed to both the
// external ML API and the rule-based fallback predictor.
type PredictionFeatures struct {
	SurvivalRate     float64 `json:"survival_rate"`
	MonthlyAvgSales  float64 `json:"monthly_avg_sales"`
	SalesGrowthRate  float64 `json:"sales_growth_rate"`
	StoreCount       float64 `json:"store_count"`
	FranchiseRatio   float64 `json:"franchise_ratio"`
	CompetitionRatio float64 `json:"competition_ratio"`
}

// FactorContribution is one ranked entry of the per-factor breakdown.
// Direction is "positive" or "negative".
type FactorContribution struct {
	Name      string  `json:"name"`
	Impact    float64 `json:"impact"`
	Direction string  `json:"direction"`
}

// PredictionResult is derived per request, never persisted.
// Source is "ml_model" or "rule_based".
type PredictionResult struct {
	SuccessProbability float64              `json:"success_probability"`
	Confidence         float64              `json:"confidence"`
	Factors            []FactorContribution `json:"factors"`
	Recommendation     string               `json:"recommendation"`
	Source             string               `json:"source"`
}

// ComparisonEntry is one ranked row of a multi-district comparison.
type ComparisonEntry struct {
	DistrictCode       string  `json:"district_code"`
	DistrictName       string  `json:"district_name"`
	SuccessProbability float64 `json:"success_probability"`
	Ranking            int     `json:"ranking"`
}
