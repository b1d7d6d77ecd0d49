package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/choiwjun/chamgab-sub000/models"
	"github.com/choiwjun/chamgab-sub000/utils"
)

const genericErrorDetail = "서버 오류가 발생했습니다."

// CommercialConfig is built once in main and injected here, so the
// ML-call decision and all tuning knobs are testable without touching the
// process environment.
type CommercialConfig struct {
	MLAPIURL      string
	MLTimeout     time.Duration
	CompareFanOut int
	Predictor     PredictorConfig
	Aggregator    AggregatorConfig
}

func DefaultCommercialConfig() CommercialConfig {
	return CommercialConfig{
		MLTimeout:     3 * time.Second,
		CompareFanOut: 8,
		Predictor:     DefaultPredictorConfig(),
		Aggregator:    DefaultAggregatorConfig(),
	}
}

// Commercial bundles the statistics accessor, the rule-based predictor and
// the optional ML client behind the commercial analysis endpoints.
type Commercial struct {
	Stats     StatsProvider
	Predictor *Predictor
	ML        *MLClient
	Config    CommercialConfig
}

func NewCommercial(stats StatsProvider, cfg CommercialConfig) *Commercial {
	if cfg.CompareFanOut <= 0 {
		cfg.CompareFanOut = 8
	}
	var ml *MLClient
	if cfg.MLAPIURL != "" {
		ml = NewMLClient(cfg.MLAPIURL, cfg.MLTimeout)
	}
	return &Commercial{
		Stats:     stats,
		Predictor: NewPredictor(cfg.Predictor),
		ML:        ml,
		Config:    cfg,
	}
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// Predict handles POST /commercial/predict. The ML API is tried first when
// configured; any failure there silently falls back to the rule-based
// predictor, with only the source field telling the two apart.
func (c *Commercial) Predict(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	districtCode := query.Get("district_code")
	industryCode := query.Get("industry_code")
	if districtCode == "" || industryCode == "" {
		writeDetail(w, http.StatusBadRequest, "district_code와 industry_code는 필수입니다.")
		return
	}

	ctx := r.Context()
	features, realInputs, err := c.loadFeatures(ctx, districtCode, industryCode)
	if err != nil {
		log.Printf("Predict: statistics fetch failed for %s/%s: %v", districtCode, industryCode, err)
		writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
		return
	}

	// Explicit query overrides win over stored statistics and count as
	// real data for the confidence estimate.
	overrides := []struct {
		param  string
		target *float64
	}{
		{"survival_rate", &features.SurvivalRate},
		{"monthly_avg_sales", &features.MonthlyAvgSales},
		{"sales_growth_rate", &features.SalesGrowthRate},
		{"store_count", &features.StoreCount},
		{"franchise_ratio", &features.FranchiseRatio},
		{"competition_ratio", &features.CompetitionRatio},
	}
	for _, o := range overrides {
		raw := query.Get(o.param)
		if raw == "" {
			continue
		}
		// Unparseable overrides keep the stored value and do not count as
		// real data for the confidence estimate.
		value, ok := utils.ParseNum(raw)
		if !ok {
			continue
		}
		*o.target = value
		realInputs++
	}
	if realInputs > 6 {
		realInputs = 6
	}

	result := c.predict(ctx, features, realInputs)
	writeJSON(w, http.StatusOK, result)
}

// predict runs the ML model when configured, and substitutes the
// rule-based output on any ML failure. No retries; one attempt is final.
func (c *Commercial) predict(ctx context.Context, features models.PredictionFeatures, realInputs int) models.PredictionResult {
	if c.ML.Enabled() {
		result, err := c.ML.Predict(ctx, features)
		if err == nil {
			return *result
		}
		log.Printf("ML prediction unavailable, using rule-based fallback: %v", err)
	}
	return c.Predictor.Predict(features, realInputs)
}

func (c *Commercial) loadFeatures(ctx context.Context, districtCode, industryCode string) (models.PredictionFeatures, int, error) {
	biz, err := c.Stats.BusinessStats(ctx, districtCode, industryCode)
	if err != nil {
		return models.PredictionFeatures{}, 0, err
	}
	sales, err := c.Stats.SalesStats(ctx, districtCode, industryCode)
	if err != nil {
		return models.PredictionFeatures{}, 0, err
	}
	stores, err := c.Stats.StoreStats(ctx, districtCode, industryCode)
	if err != nil {
		return models.PredictionFeatures{}, 0, err
	}

	features, realInputs := FeaturesFromStats(biz, sales, stores)
	return features, realInputs, nil
}

type compareRequest struct {
	DistrictCodes []string `json:"district_codes"`
	IndustryCode  string   `json:"industry_code"`
}

type compareResponse struct {
	Comparisons []models.ComparisonEntry `json:"comparisons"`
}

// CompareBusiness handles POST /commercial/business/compare. Per-district
// fetch+predict runs as a bounded fan-out; ranking only ever uses the
// rule-based predictor so comparisons stay deterministic.
func (c *Commercial) CompareBusiness(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "요청 본문을 해석할 수 없습니다.")
		return
	}
	if len(req.DistrictCodes) == 0 || req.IndustryCode == "" {
		writeDetail(w, http.StatusBadRequest, "district_codes와 industry_code는 필수입니다.")
		return
	}

	ctx := r.Context()
	entries := make([]models.ComparisonEntry, len(req.DistrictCodes))
	errs := make([]error, len(req.DistrictCodes))

	sem := make(chan struct{}, c.Config.CompareFanOut)
	var wg sync.WaitGroup
	for i, code := range req.DistrictCodes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			entries[i], errs[i] = c.compareDistrict(ctx, code, req.IndustryCode)
		}(i, code)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			// All-or-nothing: a failed district poisons the whole comparison.
			log.Printf("CompareBusiness: fetch failed: %v", err)
			writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
			return
		}
	}

	writeJSON(w, http.StatusOK, compareResponse{Comparisons: rankComparisons(entries)})
}

func (c *Commercial) compareDistrict(ctx context.Context, districtCode, industryCode string) (models.ComparisonEntry, error) {
	features, realInputs, err := c.loadFeatures(ctx, districtCode, industryCode)
	if err != nil {
		return models.ComparisonEntry{}, err
	}

	name := districtCode
	if district, err := c.Stats.District(ctx, districtCode); err != nil {
		return models.ComparisonEntry{}, err
	} else if district != nil {
		name = district.Name
	}

	result := c.Predictor.Predict(features, realInputs)
	return models.ComparisonEntry{
		DistrictCode:       districtCode,
		DistrictName:       name,
		SuccessProbability: result.SuccessProbability,
	}, nil
}

// rankComparisons sorts descending by success probability and assigns
// 1-based rankings. Ties break by district_code ascending so the order is
// deterministic regardless of fan-out completion order.
func rankComparisons(entries []models.ComparisonEntry) []models.ComparisonEntry {
	ranked := make([]models.ComparisonEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].SuccessProbability != ranked[j].SuccessProbability {
			return ranked[i].SuccessProbability > ranked[j].SuccessProbability
		}
		return ranked[i].DistrictCode < ranked[j].DistrictCode
	})
	for i := range ranked {
		ranked[i].Ranking = i + 1
	}
	return ranked
}

// ListDistricts handles GET /commercial/districts.
func (c *Commercial) ListDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := c.Stats.Districts(r.Context())
	if err != nil {
		log.Printf("ListDistricts: %v", err)
		writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
		return
	}
	if districts == nil {
		districts = []models.District{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"districts": districts})
}

// ListIndustries handles GET /commercial/industries.
func (c *Commercial) ListIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := c.Stats.Industries(r.Context())
	if err != nil {
		log.Printf("ListIndustries: %v", err)
		writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
		return
	}
	if industries == nil {
		industries = []models.Industry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"industries": industries})
}
