package handlers

import "github.com/choiwjun/chamgab-sub000/models"

// Point-in-time metrics only ever look at the most recent reporting month.
// base_year_month is YYYYMM, so the lexicographic maximum is the latest.
// Filtering is idempotent and leaves an empty row set unchanged.

func maxYearMonth(months []string) string {
	max := ""
	for _, m := range months {
		if m > max {
			max = m
		}
	}
	return max
}

func LatestBusinessStats(rows []models.BusinessStatistic) []models.BusinessStatistic {
	months := make([]string, len(rows))
	for i, r := range rows {
		months[i] = r.BaseYearMonth
	}
	max := maxYearMonth(months)
	if max == "" {
		return rows
	}
	var latest []models.BusinessStatistic
	for _, r := range rows {
		if r.BaseYearMonth == max {
			latest = append(latest, r)
		}
	}
	return latest
}

func LatestSalesStats(rows []models.SalesStatistic) []models.SalesStatistic {
	months := make([]string, len(rows))
	for i, r := range rows {
		months[i] = r.BaseYearMonth
	}
	max := maxYearMonth(months)
	if max == "" {
		return rows
	}
	var latest []models.SalesStatistic
	for _, r := range rows {
		if r.BaseYearMonth == max {
			latest = append(latest, r)
		}
	}
	return latest
}

func LatestStoreStats(rows []models.StoreStatistic) []models.StoreStatistic {
	months := make([]string, len(rows))
	for i, r := range rows {
		months[i] = r.BaseYearMonth
	}
	max := maxYearMonth(months)
	if max == "" {
		return rows
	}
	var latest []models.StoreStatistic
	for _, r := range rows {
		if r.BaseYearMonth == max {
			latest = append(latest, r)
		}
	}
	return latest
}
