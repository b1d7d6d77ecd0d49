package handlers

import (
	"math"
	"sort"

	"github.com/choiwjun/chamgab-sub000/models"
	"github.com/choiwjun/chamgab-sub000/utils"
)

// AggregatorConfig holds the classification thresholds shared by the
// district endpoints. The defaults mirror the frontend's vocabulary;
// overridable at construction like the predictor weights.
type AggregatorConfig struct {
	// Age-share thresholds for district type classification (ratios 0-1).
	UniversityAgeShare  float64
	OfficeAgeShare      float64
	ResidentialAgeShare float64
	// Sales growth threshold (%) separating 상승/보합/하락.
	TrendThreshold float64
	// Weekend/weekday ratio band separating 주말형/균형/주중형.
	WeekendRatioBand float64
	// Industry categories never recommended as best industries.
	ExcludedCategories []string
}

func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		UniversityAgeShare:  0.25,
		OfficeAgeShare:      0.50,
		ResidentialAgeShare: 0.40,
		TrendThreshold:      3.0,
		WeekendRatioBand:    0.15,
		ExcludedCategories:  []string{"숙박", "부동산", "공공"},
	}
}

const defaultDistrictType = "복합상권"

// Fixed slot → clock-range table surfaced to the frontend.
var timeSlotLabels = map[string]string{
	"00-06": "새벽 (00시-06시)",
	"06-11": "오전 (06시-11시)",
	"11-14": "점심 (11시-14시)",
	"14-17": "오후 (14시-17시)",
	"17-21": "저녁 (17시-21시)",
	"21-24": "심야 (21시-24시)",
}

var personaTable = map[string]string{
	"10대":      "학원가를 오가는 10대 학생층",
	"20대":      "트렌드에 민감한 20대 대학생과 사회초년생",
	"30대":      "외식과 편의를 중시하는 30대 직장인",
	"40대":      "가족 단위 소비가 많은 40대 학부모층",
	"50대":      "실속 소비를 선호하는 50대 중장년층",
	"60대 이상": "생활 밀착 소비 중심의 시니어층",
}

var suggestedIndustriesTable = map[string][]string{
	"10대":      {"분식", "패스트푸드", "문구"},
	"20대":      {"카페", "주점", "패션소매"},
	"30대":      {"한식", "피트니스", "편의점"},
	"40대":      {"한식", "학원", "베이커리"},
	"50대":      {"한식", "정육", "약국"},
	"60대 이상": {"한식", "청과", "약국"},
}

// Guaranteed non-empty fallback when the age group has no table entry.
var fallbackSuggestedIndustries = []string{"카페", "한식", "편의점"}

// Industry codes that pair well with each primary age group; matching
// industries get a flat recommendation bonus.
var ageMatchIndustries = map[string][]string{
	"10대":      {"I56191", "I56193", "G47612"},
	"20대":      {"I56220", "I56211", "G47416"},
	"30대":      {"I56111", "R91131", "G47122"},
	"40대":      {"I56111", "P85501", "I56192"},
	"50대":      {"I56111", "G47216", "G47212"},
	"60대 이상": {"I56111", "G47215", "G47212"},
}

// Per-type fallback shown when no industry qualifies for a profile.
var fallbackIndustriesByType = map[string][]BestIndustry{
	"대학상권":         {{Code: "I56220", Name: "카페"}, {Code: "I56211", Name: "주점"}, {Code: "I56191", Name: "분식"}},
	"오피스상권":       {{Code: "I56111", Name: "한식"}, {Code: "I56220", Name: "카페"}, {Code: "G47122", Name: "편의점"}},
	"주거상권":         {{Code: "I56111", Name: "한식"}, {Code: "G47212", Name: "약국"}, {Code: "G47216", Name: "정육"}},
	defaultDistrictType: {{Code: "I56220", Name: "카페"}, {Code: "I56111", Name: "한식"}, {Code: "G47122", Name: "편의점"}},
}

// Response shapes for the district endpoints.

type CharacteristicsResponse struct {
	DistrictCode    string  `json:"district_code"`
	DistrictType    string  `json:"district_type"`
	PrimaryAgeGroup string  `json:"primary_age_group"`
	PeakTime        string  `json:"peak_time"`
	AvgTicketPrice  float64 `json:"avg_ticket_price"`
}

type HourScore struct {
	Slot    string  `json:"slot"`
	Label   string  `json:"label"`
	Traffic float64 `json:"traffic"`
	Score   int     `json:"score"`
}

type PeakHoursResponse struct {
	DistrictCode string      `json:"district_code"`
	Hours        []HourScore `json:"hours"`
	BestTime     string      `json:"best_time"`
}

type AgeShare struct {
	Group      string  `json:"group"`
	Percentage float64 `json:"percentage"`
}

type DemographicsResponse struct {
	DistrictCode        string     `json:"district_code"`
	Distribution        []AgeShare `json:"distribution"`
	PrimaryTarget       string     `json:"primary_target"`
	Persona             string     `json:"persona"`
	SuggestedIndustries []string   `json:"suggested_industries"`
}

type GrowthPotentialResponse struct {
	DistrictCode    string  `json:"district_code"`
	GrowthScore     float64 `json:"growth_score"`
	Trend           string  `json:"trend"`
	SalesGrowthRate float64 `json:"sales_growth_rate"`
	SurvivalRate    float64 `json:"survival_rate"`
}

type CompetitionResponse struct {
	DistrictCode     string                `json:"district_code"`
	TotalStores      int                   `json:"total_stores"`
	FranchiseRatio   float64               `json:"franchise_ratio"`
	DensityScore     float64               `json:"density_score"`
	CompetitionLevel string                `json:"competition_level"`
	Alternatives     []AlternativeDistrict `json:"alternatives"`
}

type BestIndustry struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	SurvivalRate float64 `json:"survival_rate,omitempty"`
}

type ProfileResponse struct {
	DistrictCode   string         `json:"district_code"`
	DistrictType   string         `json:"district_type"`
	BestIndustries []BestIndustry `json:"best_industries"`
}

type IndustryRecommendation struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Score           float64 `json:"score"`
	BreakevenMonths int     `json:"breakeven_months"`
}

type RecommendIndustryResponse struct {
	DistrictCode    string                   `json:"district_code"`
	PrimaryAgeGroup string                   `json:"primary_age_group"`
	Recommendations []IndustryRecommendation `json:"recommendations"`
}

type WeekendAnalysisResponse struct {
	DistrictCode string  `json:"district_code"`
	WeekdayAvg   float64 `json:"weekday_avg"`
	WeekendAvg   float64 `json:"weekend_avg"`
	WeekendRatio float64 `json:"weekend_ratio"`
	Pattern      string  `json:"pattern"`
	Strategy     string  `json:"strategy"`
}

// industrySnapshot folds the latest month of all three statistics tables
// into one record per industry, district-wide.
type industrySnapshot struct {
	Code            string
	SurvivalRate    float64
	MonthlyAvgSales float64
	SalesGrowthRate float64
	StoreCount      int
	hasSurvival     bool
	hasSales        bool
}

func industrySnapshots(biz []models.BusinessStatistic, sales []models.SalesStatistic, stores []models.StoreStatistic) []industrySnapshot {
	byCode := map[string]*industrySnapshot{}
	get := func(code string) *industrySnapshot {
		if snap, ok := byCode[code]; ok {
			return snap
		}
		snap := &industrySnapshot{Code: code}
		byCode[code] = snap
		return snap
	}

	for _, r := range LatestBusinessStats(biz) {
		snap := get(r.IndustryCode)
		snap.SurvivalRate = r.SurvivalRate
		snap.hasSurvival = true
	}
	for _, r := range LatestSalesStats(sales) {
		snap := get(r.IndustryCode)
		snap.MonthlyAvgSales = r.MonthlyAvgSales
		snap.SalesGrowthRate = r.SalesGrowthRate
		snap.hasSales = true
	}
	for _, r := range LatestStoreStats(stores) {
		snap := get(r.IndustryCode)
		snap.StoreCount += r.StoreCount
	}

	result := make([]industrySnapshot, 0, len(byCode))
	for _, snap := range byCode {
		result = append(result, *snap)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// classifyDistrictType applies the fixed age-share thresholds. A district
// with no traffic data is 복합상권.
func classifyDistrictType(cfg AggregatorConfig, traffic *models.FootTrafficRecord) string {
	if traffic == nil {
		return defaultDistrictType
	}
	total := traffic.TotalByAge()
	if total <= 0 {
		return defaultDistrictType
	}

	switch {
	case traffic.Age20s/total > cfg.UniversityAgeShare:
		return "대학상권"
	case (traffic.Age30s+traffic.Age40s)/total > cfg.OfficeAgeShare:
		return "오피스상권"
	case (traffic.Age50s+traffic.Age60sPlus)/total > cfg.ResidentialAgeShare:
		return "주거상권"
	default:
		return defaultDistrictType
	}
}

// primaryAgeGroup picks the age bucket with the maximum count; ties go to
// the first bucket in the fixed iteration order. Returns "" with no data.
func primaryAgeGroup(traffic *models.FootTrafficRecord) string {
	if traffic == nil || traffic.TotalByAge() <= 0 {
		return ""
	}
	best := ""
	bestCount := -1.0
	for _, bucket := range traffic.AgeBuckets() {
		if bucket.Count > bestCount {
			best = bucket.Group
			bestCount = bucket.Count
		}
	}
	return best
}

// peakTimeSlot picks the time bucket with the maximum traffic; ties go to
// the earliest slot. Returns "" with no data.
func peakTimeSlot(traffic *models.FootTrafficRecord) string {
	if traffic == nil || traffic.TotalTraffic() <= 0 {
		return ""
	}
	best := ""
	bestTraffic := -1.0
	for _, bucket := range traffic.TimeBuckets() {
		if bucket.Traffic > bestTraffic {
			best = bucket.Slot
			bestTraffic = bucket.Traffic
		}
	}
	return best
}

func buildCharacteristics(cfg AggregatorConfig, district *models.District, traffic *models.FootTrafficRecord, sales []models.SalesStatistic) CharacteristicsResponse {
	code := ""
	storedTicket := 0.0
	storedType := ""
	if district != nil {
		code = district.Code
		storedTicket = district.AvgTicketPrice
		storedType = district.DistrictType
	}
	if code == "" && traffic != nil {
		code = traffic.DistrictCode
	}

	districtType := classifyDistrictType(cfg, traffic)
	if districtType == defaultDistrictType && traffic == nil && storedType != "" {
		districtType = storedType
	}

	primaryAge := primaryAgeGroup(traffic)
	if primaryAge == "" {
		primaryAge = "30대"
	}

	peakSlot := peakTimeSlot(traffic)
	if peakSlot == "" {
		peakSlot = "17-21"
	}

	// Average ticket price: curated override, else estimated from monthly
	// sales at ~1500 transactions/month, else the 15,000 won default.
	ticket := 15000.0
	if storedTicket > 0 {
		ticket = storedTicket
	} else if latest := LatestSalesStats(sales); len(latest) > 0 {
		var sum float64
		for _, r := range latest {
			sum += r.MonthlyAvgSales
		}
		avgSales := sum / float64(len(latest))
		if avgSales > 0 {
			ticket = math.Round(avgSales / 1500)
		}
	}

	return CharacteristicsResponse{
		DistrictCode:    code,
		DistrictType:    districtType,
		PrimaryAgeGroup: primaryAge,
		PeakTime:        timeSlotLabels[peakSlot],
		AvgTicketPrice:  ticket,
	}
}

func buildPeakHours(districtCode string, traffic *models.FootTrafficRecord) PeakHoursResponse {
	resp := PeakHoursResponse{DistrictCode: districtCode}

	var buckets []models.TimeBucket
	maxTraffic := 0.0
	if traffic != nil {
		buckets = traffic.TimeBuckets()
		for _, b := range buckets {
			if b.Traffic > maxTraffic {
				maxTraffic = b.Traffic
			}
		}
	} else {
		buckets = (models.FootTrafficRecord{}).TimeBuckets()
	}

	bestSlot := ""
	bestScore := -1
	for _, b := range buckets {
		score := 0
		if maxTraffic > 0 {
			// 0-10 scale relative to the busiest slot.
			score = int(math.Round(b.Traffic / maxTraffic * 10))
		}
		resp.Hours = append(resp.Hours, HourScore{
			Slot:    b.Slot,
			Label:   timeSlotLabels[b.Slot],
			Traffic: b.Traffic,
			Score:   score,
		})
		if score > bestScore {
			bestScore = score
			bestSlot = b.Slot
		}
	}

	if maxTraffic > 0 {
		resp.BestTime = timeSlotLabels[bestSlot]
	} else {
		resp.BestTime = timeSlotLabels["17-21"]
	}
	return resp
}

func buildDemographics(districtCode string, traffic *models.FootTrafficRecord) DemographicsResponse {
	resp := DemographicsResponse{DistrictCode: districtCode}

	var buckets []models.AgeBucket
	total := 0.0
	if traffic != nil {
		buckets = traffic.AgeBuckets()
		total = traffic.TotalByAge()
	} else {
		buckets = (models.FootTrafficRecord{}).AgeBuckets()
	}

	primary := ""
	primaryPct := -1.0
	for _, b := range buckets {
		pct := 0.0
		if total > 0 {
			// One decimal place.
			pct = math.Round(b.Count/total*1000) / 10
		}
		resp.Distribution = append(resp.Distribution, AgeShare{Group: b.Group, Percentage: pct})
		if pct > primaryPct {
			primary = b.Group
			primaryPct = pct
		}
	}

	if total <= 0 {
		primary = "30대"
	}
	resp.PrimaryTarget = primary
	resp.Persona = personaTable[primary]

	industries := suggestedIndustriesTable[primary]
	if len(industries) == 0 {
		industries = fallbackSuggestedIndustries
	}
	resp.SuggestedIndustries = industries
	return resp
}

func buildGrowthPotential(cfg AggregatorConfig, districtCode string, biz []models.BusinessStatistic, sales []models.SalesStatistic) GrowthPotentialResponse {
	growth := DefaultSalesGrowthRate
	if latest := LatestSalesStats(sales); len(latest) > 0 {
		var sum float64
		for _, r := range latest {
			sum += r.SalesGrowthRate
		}
		growth = sum / float64(len(latest))
	}

	survival := DefaultSurvivalRate
	if latest := LatestBusinessStats(biz); len(latest) > 0 {
		var sum float64
		for _, r := range latest {
			sum += r.SurvivalRate
		}
		survival = sum / float64(len(latest))
	}

	// Growth term capped at 50, survival term at 30, constant offset 15.
	growthTerm := utils.Clamp(growth*5+10, 0, 50)
	survivalTerm := math.Min(survival*0.35, 30)
	score := utils.Clamp(growthTerm+survivalTerm+15, 0, 100)

	trend := "보합"
	if growth > cfg.TrendThreshold {
		trend = "상승"
	} else if growth < -cfg.TrendThreshold {
		trend = "하락"
	}

	return GrowthPotentialResponse{
		DistrictCode:    districtCode,
		GrowthScore:     utils.Round1(score),
		Trend:           trend,
		SalesGrowthRate: utils.Round1(growth),
		SurvivalRate:    utils.Round1(survival),
	}
}

// densityScore maps total store count onto a 0-10 scale in three tiers.
func densityScore(totalStores int) float64 {
	stores := float64(totalStores)
	switch {
	case stores < 50:
		return stores / 50 * 3
	case stores <= 300:
		return 3 + (stores-50)/250*4
	default:
		return math.Min(7+(stores-300)/200*3, 10)
	}
}

func buildCompetition(districtCode string, stores []models.StoreStatistic, alternatives []AlternativeDistrict) CompetitionResponse {
	totalStores := 0
	totalFranchise := 0
	for _, r := range LatestStoreStats(stores) {
		totalStores += r.StoreCount
		totalFranchise += r.FranchiseCount
	}

	franchiseRatio := 0.0
	if totalStores > 0 {
		franchiseRatio = math.Round(float64(totalFranchise)/float64(totalStores)*100) / 100
	}

	score := utils.Round1(densityScore(totalStores))
	level := "낮음"
	if score >= 7 {
		level = "높음"
	} else if score >= 3 {
		level = "보통"
	}

	if alternatives == nil {
		alternatives = []AlternativeDistrict{}
	}
	return CompetitionResponse{
		DistrictCode:     districtCode,
		TotalStores:      totalStores,
		FranchiseRatio:   franchiseRatio,
		DensityScore:     score,
		CompetitionLevel: level,
		Alternatives:     alternatives,
	}
}

func buildProfile(cfg AggregatorConfig, districtCode string, traffic *models.FootTrafficRecord, snapshots []industrySnapshot, catalog map[string]models.Industry) ProfileResponse {
	districtType := classifyDistrictType(cfg, traffic)

	excluded := map[string]bool{}
	for _, category := range cfg.ExcludedCategories {
		excluded[category] = true
	}

	seen := map[string]bool{}
	var best []BestIndustry
	for _, snap := range snapshots {
		if !snap.hasSurvival || seen[snap.Code] {
			continue
		}
		ind, known := catalog[snap.Code]
		if known && excluded[ind.Category] {
			continue
		}
		name := snap.Code
		if known {
			name = ind.Name
		}
		seen[snap.Code] = true
		best = append(best, BestIndustry{
			Code:         snap.Code,
			Name:         name,
			SurvivalRate: utils.Round1(snap.SurvivalRate),
		})
	}

	sort.SliceStable(best, func(i, j int) bool {
		if best[i].SurvivalRate != best[j].SurvivalRate {
			return best[i].SurvivalRate > best[j].SurvivalRate
		}
		return best[i].Code < best[j].Code
	})
	if len(best) > 4 {
		best = best[:4]
	}
	if len(best) == 0 {
		best = fallbackIndustriesByType[districtType]
	}

	return ProfileResponse{
		DistrictCode:   districtCode,
		DistrictType:   districtType,
		BestIndustries: best,
	}
}

func buildRecommendIndustry(cfg AggregatorConfig, districtCode string, traffic *models.FootTrafficRecord, snapshots []industrySnapshot, catalog map[string]models.Industry) RecommendIndustryResponse {
	primaryAge := primaryAgeGroup(traffic)
	if primaryAge == "" {
		primaryAge = "30대"
	}

	matched := map[string]bool{}
	for _, code := range ageMatchIndustries[primaryAge] {
		matched[code] = true
	}

	var recs []IndustryRecommendation
	for _, snap := range snapshots {
		survival := DefaultSurvivalRate
		if snap.hasSurvival {
			survival = snap.SurvivalRate
		}
		growth := DefaultSalesGrowthRate
		sales := 0.0
		if snap.hasSales {
			growth = snap.SalesGrowthRate
			sales = snap.MonthlyAvgSales
		}

		score := 0.5*survival + 0.3*utils.Clamp(growth+10, 0, 30)
		if matched[snap.Code] {
			score += 20
		}
		score = math.Min(score, 100)

		// Months to recover a 50M won startup cost at a 15% margin.
		breakeven := 18
		if sales > 0 {
			breakeven = int(math.Round(50000000 / (sales * 0.15)))
			if breakeven < 6 {
				breakeven = 6
			}
		}

		name := snap.Code
		if ind, ok := catalog[snap.Code]; ok {
			name = ind.Name
		}
		recs = append(recs, IndustryRecommendation{
			Code:            snap.Code,
			Name:            name,
			Score:           utils.Round1(score),
			BreakevenMonths: breakeven,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Code < recs[j].Code
	})
	if len(recs) > 5 {
		recs = recs[:5]
	}
	if recs == nil {
		recs = []IndustryRecommendation{}
	}

	return RecommendIndustryResponse{
		DistrictCode:    districtCode,
		PrimaryAgeGroup: primaryAge,
		Recommendations: recs,
	}
}

func buildWeekendAnalysis(cfg AggregatorConfig, districtCode string, traffic *models.FootTrafficRecord) WeekendAnalysisResponse {
	weekday := 0.0
	weekend := 0.0
	if traffic != nil {
		weekday = traffic.WeekdayAvg
		weekend = traffic.WeekendAvg
	}

	ratio := 1.0
	if weekday > 0 {
		ratio = weekend / weekday
	} else if weekend > 0 {
		// No weekday baseline at all: the traffic is weekend-only.
		ratio = 1 + cfg.WeekendRatioBand
	}

	pattern := "균형"
	strategy := "주중과 주말 유동인구가 고르게 분포합니다. 상시 운영 전략이 적합합니다."
	if ratio >= 1+cfg.WeekendRatioBand {
		pattern = "주말형"
		strategy = "주말 유동인구가 뚜렷하게 많습니다. 주말 집중 프로모션과 좌석 회전 관리가 중요합니다."
	} else if ratio <= 1-cfg.WeekendRatioBand {
		pattern = "주중형"
		strategy = "주중 유동인구 중심의 상권입니다. 점심·저녁 직장인 수요를 공략하는 운영이 유리합니다."
	}

	return WeekendAnalysisResponse{
		DistrictCode: districtCode,
		WeekdayAvg:   utils.Round1(weekday),
		WeekendAvg:   utils.Round1(weekend),
		WeekendRatio: math.Round(ratio*100) / 100,
		Pattern:      pattern,
		Strategy:     strategy,
	}
}
