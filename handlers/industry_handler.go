package handlers

import (
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/choiwjun/chamgab-sub000/models"
	"github.com/choiwjun/chamgab-sub000/utils"
)

const (
	defaultTopRegionLimit = 5
	maxTopRegionLimit     = 20
)

type RegionSales struct {
	DistrictCode    string  `json:"district_code"`
	DistrictName    string  `json:"district_name"`
	MonthlyAvgSales float64 `json:"monthly_avg_sales"`
	SurvivalRate    float64 `json:"survival_rate"`
	StoreCount      int     `json:"store_count"`
}

type IndustryStatisticsResponse struct {
	IndustryCode    string        `json:"industry_code"`
	IndustryName    string        `json:"industry_name"`
	Category        string        `json:"category"`
	DistrictCount   int           `json:"district_count"`
	AvgSurvivalRate float64       `json:"avg_survival_rate"`
	AvgMonthlySales float64       `json:"avg_monthly_sales"`
	AvgGrowthRate   float64       `json:"avg_growth_rate"`
	TotalStores     int           `json:"total_stores"`
	TopRegions      []RegionSales `json:"top_regions"`
}

// GetIndustryStatistics handles GET /commercial/industries/{code}/statistics.
// Unknown industry codes with zero backing rows are a 404.
func (c *Commercial) GetIndustryStatistics(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	ctx := r.Context()

	limit := defaultTopRegionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxTopRegionLimit {
		limit = maxTopRegionLimit
	}

	industries, err := c.Stats.Industries(ctx)
	if err != nil {
		log.Printf("IndustryStatistics: catalog fetch failed: %v", err)
		writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
		return
	}
	industry := models.Industry{Code: code, Name: code, Category: "기타"}
	known := false
	for _, ind := range industries {
		if ind.Code == code {
			industry = ind
			known = true
			break
		}
	}

	biz, err := c.Stats.BusinessStatsByIndustry(ctx, code)
	if err != nil {
		log.Printf("IndustryStatistics: business fetch failed: %v", err)
		writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
		return
	}
	sales, err := c.Stats.SalesStatsByIndustry(ctx, code)
	if err != nil {
		log.Printf("IndustryStatistics: sales fetch failed: %v", err)
		writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
		return
	}
	stores, err := c.Stats.StoreStatsByIndustry(ctx, code)
	if err != nil {
		log.Printf("IndustryStatistics: store fetch failed: %v", err)
		writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
		return
	}

	if !known && len(biz) == 0 && len(sales) == 0 && len(stores) == 0 {
		writeDetail(w, http.StatusNotFound, "해당 업종 데이터를 찾을 수 없습니다: "+code)
		return
	}

	districts, err := c.Stats.Districts(ctx)
	if err != nil {
		log.Printf("IndustryStatistics: districts fetch failed: %v", err)
		writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
		return
	}
	names := make(map[string]string, len(districts))
	for _, d := range districts {
		names[d.Code] = d.Name
	}

	writeJSON(w, http.StatusOK, buildIndustryStatistics(industry, biz, sales, stores, names, limit))
}

// regionRollup folds one district's latest-month rows for an industry.
type regionRollup struct {
	code        string
	survival    float64
	sales       float64
	growth      float64
	storeCount  int
	hasSurvival bool
	hasSales    bool
}

// buildIndustryStatistics aggregates an industry across all districts that
// report it: per-district latest month, cross-district averages and the top
// regions by monthly sales.
func buildIndustryStatistics(industry models.Industry, biz []models.BusinessStatistic, sales []models.SalesStatistic, stores []models.StoreStatistic, districtNames map[string]string, limit int) IndustryStatisticsResponse {
	byDistrict := map[string]*regionRollup{}
	get := func(code string) *regionRollup {
		if rollup, ok := byDistrict[code]; ok {
			return rollup
		}
		rollup := &regionRollup{code: code}
		byDistrict[code] = rollup
		return rollup
	}

	// The latest reporting month can differ per district, so the
	// latest-month filter is applied per district group.
	bizByDistrict := map[string][]models.BusinessStatistic{}
	for _, r := range biz {
		bizByDistrict[r.DistrictCode] = append(bizByDistrict[r.DistrictCode], r)
	}
	for code, rows := range bizByDistrict {
		latest := LatestBusinessStats(rows)
		var sum float64
		for _, r := range latest {
			sum += r.SurvivalRate
		}
		rollup := get(code)
		rollup.survival = sum / float64(len(latest))
		rollup.hasSurvival = true
	}

	salesByDistrict := map[string][]models.SalesStatistic{}
	for _, r := range sales {
		salesByDistrict[r.DistrictCode] = append(salesByDistrict[r.DistrictCode], r)
	}
	for code, rows := range salesByDistrict {
		latest := LatestSalesStats(rows)
		var salesSum, growthSum float64
		for _, r := range latest {
			salesSum += r.MonthlyAvgSales
			growthSum += r.SalesGrowthRate
		}
		rollup := get(code)
		rollup.sales = salesSum / float64(len(latest))
		rollup.growth = growthSum / float64(len(latest))
		rollup.hasSales = true
	}

	storesByDistrict := map[string][]models.StoreStatistic{}
	for _, r := range stores {
		storesByDistrict[r.DistrictCode] = append(storesByDistrict[r.DistrictCode], r)
	}
	for code, rows := range storesByDistrict {
		rollup := get(code)
		for _, r := range LatestStoreStats(rows) {
			rollup.storeCount += r.StoreCount
		}
	}

	resp := IndustryStatisticsResponse{
		IndustryCode: industry.Code,
		IndustryName: industry.Name,
		Category:     industry.Category,
		TopRegions:   []RegionSales{},
	}

	var survivalSum, salesSum, growthSum float64
	survivalCount, salesCount := 0, 0
	for _, rollup := range byDistrict {
		resp.DistrictCount++
		resp.TotalStores += rollup.storeCount
		if rollup.hasSurvival {
			survivalSum += rollup.survival
			survivalCount++
		}
		if rollup.hasSales {
			salesSum += rollup.sales
			growthSum += rollup.growth
			salesCount++
		}

		name := rollup.code
		if n, ok := districtNames[rollup.code]; ok {
			name = n
		}
		resp.TopRegions = append(resp.TopRegions, RegionSales{
			DistrictCode:    rollup.code,
			DistrictName:    name,
			MonthlyAvgSales: rollup.sales,
			SurvivalRate:    utils.Round1(rollup.survival),
			StoreCount:      rollup.storeCount,
		})
	}

	if survivalCount > 0 {
		resp.AvgSurvivalRate = utils.Round1(survivalSum / float64(survivalCount))
	}
	if salesCount > 0 {
		resp.AvgMonthlySales = salesSum / float64(salesCount)
		resp.AvgGrowthRate = utils.Round1(growthSum / float64(salesCount))
	}

	sort.SliceStable(resp.TopRegions, func(i, j int) bool {
		if resp.TopRegions[i].MonthlyAvgSales != resp.TopRegions[j].MonthlyAvgSales {
			return resp.TopRegions[i].MonthlyAvgSales > resp.TopRegions[j].MonthlyAvgSales
		}
		return resp.TopRegions[i].DistrictCode < resp.TopRegions[j].DistrictCode
	})
	if len(resp.TopRegions) > limit {
		resp.TopRegions = resp.TopRegions[:limit]
	}

	return resp
}
