package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/choiwjun/chamgab-sub000/models"
)

// Per-district aggregation endpoints. Each one is fetch → pure transform →
// encode; a failed fetch returns a uniform 500 with nothing partial.

func districtCode(r *http.Request) string {
	return mux.Vars(r)["code"]
}

// GetDistrictCharacteristics handles GET /commercial/districts/{code}/characteristics.
func (c *Commercial) GetDistrictCharacteristics(w http.ResponseWriter, r *http.Request) {
	code := districtCode(r)
	ctx := r.Context()

	district, err := c.Stats.District(ctx, code)
	if err != nil {
		c.districtError(w, "characteristics", code, err)
		return
	}
	traffic, err := c.Stats.FootTraffic(ctx, code)
	if err != nil {
		c.districtError(w, "characteristics", code, err)
		return
	}
	sales, err := c.Stats.SalesStats(ctx, code, "")
	if err != nil {
		c.districtError(w, "characteristics", code, err)
		return
	}

	resp := buildCharacteristics(c.Config.Aggregator, district, traffic, sales)
	if resp.DistrictCode == "" {
		resp.DistrictCode = code
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDistrictPeakHours handles GET /commercial/districts/{code}/peak-hours.
func (c *Commercial) GetDistrictPeakHours(w http.ResponseWriter, r *http.Request) {
	code := districtCode(r)

	traffic, err := c.Stats.FootTraffic(r.Context(), code)
	if err != nil {
		c.districtError(w, "peak-hours", code, err)
		return
	}

	writeJSON(w, http.StatusOK, buildPeakHours(code, traffic))
}

// GetDistrictDemographics handles GET /commercial/districts/{code}/demographics.
func (c *Commercial) GetDistrictDemographics(w http.ResponseWriter, r *http.Request) {
	code := districtCode(r)

	traffic, err := c.Stats.FootTraffic(r.Context(), code)
	if err != nil {
		c.districtError(w, "demographics", code, err)
		return
	}

	writeJSON(w, http.StatusOK, buildDemographics(code, traffic))
}

// GetDistrictGrowthPotential handles GET /commercial/districts/{code}/growth-potential.
func (c *Commercial) GetDistrictGrowthPotential(w http.ResponseWriter, r *http.Request) {
	code := districtCode(r)
	ctx := r.Context()

	biz, err := c.Stats.BusinessStats(ctx, code, "")
	if err != nil {
		c.districtError(w, "growth-potential", code, err)
		return
	}
	sales, err := c.Stats.SalesStats(ctx, code, "")
	if err != nil {
		c.districtError(w, "growth-potential", code, err)
		return
	}

	writeJSON(w, http.StatusOK, buildGrowthPotential(c.Config.Aggregator, code, biz, sales))
}

// GetDistrictCompetition handles GET /commercial/districts/{code}/competition.
func (c *Commercial) GetDistrictCompetition(w http.ResponseWriter, r *http.Request) {
	code := districtCode(r)
	ctx := r.Context()

	stores, err := c.Stats.StoreStats(ctx, code, "")
	if err != nil {
		c.districtError(w, "competition", code, err)
		return
	}

	// Alternatives share the two-character sido prefix of the code.
	var alternatives []AlternativeDistrict
	if len(code) >= 2 {
		alternatives, err = c.Stats.SiblingDistricts(ctx, code[:2], code)
		if err != nil {
			c.districtError(w, "competition", code, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, buildCompetition(code, stores, alternatives))
}

// GetDistrictProfile handles GET /commercial/districts/{code}/profile.
func (c *Commercial) GetDistrictProfile(w http.ResponseWriter, r *http.Request) {
	code := districtCode(r)
	ctx := r.Context()

	traffic, snapshots, catalog, err := c.loadDistrictSnapshots(ctx, code)
	if err != nil {
		c.districtError(w, "profile", code, err)
		return
	}

	writeJSON(w, http.StatusOK, buildProfile(c.Config.Aggregator, code, traffic, snapshots, catalog))
}

// GetDistrictRecommendIndustry handles GET /commercial/districts/{code}/recommend-industry.
func (c *Commercial) GetDistrictRecommendIndustry(w http.ResponseWriter, r *http.Request) {
	code := districtCode(r)
	ctx := r.Context()

	traffic, snapshots, catalog, err := c.loadDistrictSnapshots(ctx, code)
	if err != nil {
		c.districtError(w, "recommend-industry", code, err)
		return
	}

	writeJSON(w, http.StatusOK, buildRecommendIndustry(c.Config.Aggregator, code, traffic, snapshots, catalog))
}

// GetDistrictWeekendAnalysis handles GET /commercial/districts/{code}/weekend-analysis.
func (c *Commercial) GetDistrictWeekendAnalysis(w http.ResponseWriter, r *http.Request) {
	code := districtCode(r)

	traffic, err := c.Stats.FootTraffic(r.Context(), code)
	if err != nil {
		c.districtError(w, "weekend-analysis", code, err)
		return
	}

	writeJSON(w, http.StatusOK, buildWeekendAnalysis(c.Config.Aggregator, code, traffic))
}

func (c *Commercial) loadDistrictSnapshots(ctx context.Context, code string) (*models.FootTrafficRecord, []industrySnapshot, map[string]models.Industry, error) {
	traffic, err := c.Stats.FootTraffic(ctx, code)
	if err != nil {
		return nil, nil, nil, err
	}
	biz, err := c.Stats.BusinessStats(ctx, code, "")
	if err != nil {
		return nil, nil, nil, err
	}
	sales, err := c.Stats.SalesStats(ctx, code, "")
	if err != nil {
		return nil, nil, nil, err
	}
	stores, err := c.Stats.StoreStats(ctx, code, "")
	if err != nil {
		return nil, nil, nil, err
	}
	industries, err := c.Stats.Industries(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	catalog := make(map[string]models.Industry, len(industries))
	for _, ind := range industries {
		catalog[ind.Code] = ind
	}
	return traffic, industrySnapshots(biz, sales, stores), catalog, nil
}

func (c *Commercial) districtError(w http.ResponseWriter, endpoint, code string, err error) {
	log.Printf("District %s: %s failed: %v", endpoint, code, err)
	writeDetail(w, http.StatusInternalServerError, genericErrorDetail)
}
