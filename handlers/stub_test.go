package handlers

import (
	"context"
	"errors"

	"github.com/choiwjun/chamgab-sub000/models"
)

// stubStatsProvider serves canned rows keyed by district code. failAll
// simulates a query failure on every fetch.
type stubStatsProvider struct {
	business  map[string][]models.BusinessStatistic
	sales     map[string][]models.SalesStatistic
	stores    map[string][]models.StoreStatistic
	traffic   map[string]*models.FootTrafficRecord
	districts map[string]*models.District
	industry  []models.Industry
	siblings  []AlternativeDistrict
	failAll   bool
}

var errStubQuery = errors.New("query failed")

func (s *stubStatsProvider) BusinessStats(ctx context.Context, districtCode, industryCode string) ([]models.BusinessStatistic, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	return filterBizByIndustry(s.business[districtCode], industryCode), nil
}

func (s *stubStatsProvider) SalesStats(ctx context.Context, districtCode, industryCode string) ([]models.SalesStatistic, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	return filterSalesByIndustry(s.sales[districtCode], industryCode), nil
}

func (s *stubStatsProvider) StoreStats(ctx context.Context, districtCode, industryCode string) ([]models.StoreStatistic, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	return filterStoresByIndustry(s.stores[districtCode], industryCode), nil
}

func (s *stubStatsProvider) FootTraffic(ctx context.Context, districtCode string) (*models.FootTrafficRecord, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	return s.traffic[districtCode], nil
}

func (s *stubStatsProvider) District(ctx context.Context, code string) (*models.District, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	return s.districts[code], nil
}

func (s *stubStatsProvider) Districts(ctx context.Context) ([]models.District, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	var result []models.District
	for _, d := range s.districts {
		result = append(result, *d)
	}
	return result, nil
}

func (s *stubStatsProvider) Industries(ctx context.Context) ([]models.Industry, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	return s.industry, nil
}

func (s *stubStatsProvider) SiblingDistricts(ctx context.Context, sidoPrefix, excludeCode string) ([]AlternativeDistrict, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	return s.siblings, nil
}

func (s *stubStatsProvider) BusinessStatsByIndustry(ctx context.Context, industryCode string) ([]models.BusinessStatistic, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	var result []models.BusinessStatistic
	for _, rows := range s.business {
		result = append(result, filterBizByIndustry(rows, industryCode)...)
	}
	return result, nil
}

func (s *stubStatsProvider) SalesStatsByIndustry(ctx context.Context, industryCode string) ([]models.SalesStatistic, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	var result []models.SalesStatistic
	for _, rows := range s.sales {
		result = append(result, filterSalesByIndustry(rows, industryCode)...)
	}
	return result, nil
}

func (s *stubStatsProvider) StoreStatsByIndustry(ctx context.Context, industryCode string) ([]models.StoreStatistic, error) {
	if s.failAll {
		return nil, errStubQuery
	}
	var result []models.StoreStatistic
	for _, rows := range s.stores {
		result = append(result, filterStoresByIndustry(rows, industryCode)...)
	}
	return result, nil
}

func filterBizByIndustry(rows []models.BusinessStatistic, industryCode string) []models.BusinessStatistic {
	if industryCode == "" {
		return rows
	}
	var filtered []models.BusinessStatistic
	for _, r := range rows {
		if r.IndustryCode == industryCode {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func filterSalesByIndustry(rows []models.SalesStatistic, industryCode string) []models.SalesStatistic {
	if industryCode == "" {
		return rows
	}
	var filtered []models.SalesStatistic
	for _, r := range rows {
		if r.IndustryCode == industryCode {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func filterStoresByIndustry(rows []models.StoreStatistic, industryCode string) []models.StoreStatistic {
	if industryCode == "" {
		return rows
	}
	var filtered []models.StoreStatistic
	for _, r := range rows {
		if r.IndustryCode == industryCode {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
