package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/patrickmn/go-cache"

	"github.com/choiwjun/chamgab-sub000/config"
	"github.com/choiwjun/chamgab-sub000/models"
	"github.com/choiwjun/chamgab-sub000/utils"
)

// StatsProvider 통계 데이터 제공 인터페이스. An empty slice is a valid
// "no data yet" outcome; only query failures return an error.
type StatsProvider interface {
	BusinessStats(ctx context.Context, districtCode, industryCode string) ([]models.BusinessStatistic, error)
	SalesStats(ctx context.Context, districtCode, industryCode string) ([]models.SalesStatistic, error)
	StoreStats(ctx context.Context, districtCode, industryCode string) ([]models.StoreStatistic, error)
	FootTraffic(ctx context.Context, districtCode string) (*models.FootTrafficRecord, error)
	District(ctx context.Context, code string) (*models.District, error)
	Districts(ctx context.Context) ([]models.District, error)
	Industries(ctx context.Context) ([]models.Industry, error)
	SiblingDistricts(ctx context.Context, sidoPrefix, excludeCode string) ([]AlternativeDistrict, error)
	BusinessStatsByIndustry(ctx context.Context, industryCode string) ([]models.BusinessStatistic, error)
	SalesStatsByIndustry(ctx context.Context, industryCode string) ([]models.SalesStatistic, error)
	StoreStatsByIndustry(ctx context.Context, industryCode string) ([]models.StoreStatistic, error)
}

// AlternativeDistrict is a nearby sibling district used by the competition
// endpoint, sorted ascending by store count.
type AlternativeDistrict struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	StoreCount int    `json:"store_count"`
}

// SQLStatsStore reads the four statistics tables from Postgres, decoding
// rows once at this boundary. Fetches are cached per district/industry pair.
type SQLStatsStore struct {
	DB         *sql.DB
	StatsCache *cache.Cache
	Catalog    *cache.Cache
}

func NewSQLStatsStore(db *sql.DB, statsCache, catalogCache *cache.Cache) *SQLStatsStore {
	return &SQLStatsStore{DB: db, StatsCache: statsCache, Catalog: catalogCache}
}

func (s *SQLStatsStore) BusinessStats(ctx context.Context, districtCode, industryCode string) ([]models.BusinessStatistic, error) {
	cacheKey := config.GetCacheKey("commercial:business", districtCode, industryCode)
	if s.StatsCache != nil {
		if cached, found := s.StatsCache.Get(cacheKey); found {
			return cached.([]models.BusinessStatistic), nil
		}
	}

	query := `
		SELECT district_code, industry_code, base_year_month,
		       COALESCE(survival_rate, 0),
		       COALESCE(open_count, 0),
		       COALESCE(close_count, 0)
		FROM business_stats
		WHERE district_code = $1`
	args := []interface{}{districtCode}
	if industryCode != "" {
		query += ` AND industry_code = $2`
		args = append(args, industryCode)
	}
	query += ` ORDER BY base_year_month`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("business_stats query failed: %v", err)
	}
	defer rows.Close()

	var result []models.BusinessStatistic
	for rows.Next() {
		var row models.BusinessStatistic
		var survival sql.NullFloat64
		if err := rows.Scan(&row.DistrictCode, &row.IndustryCode, &row.BaseYearMonth,
			&survival, &row.OpenCount, &row.CloseCount); err != nil {
			return nil, fmt.Errorf("business_stats scan failed: %v", err)
		}
		row.SurvivalRate = utils.Clamp(utils.Num(survival, 0), 0, 100)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("business_stats rows failed: %v", err)
	}

	if s.StatsCache != nil {
		s.StatsCache.SetDefault(cacheKey, result)
	}
	return result, nil
}

func (s *SQLStatsStore) SalesStats(ctx context.Context, districtCode, industryCode string) ([]models.SalesStatistic, error) {
	cacheKey := config.GetCacheKey("commercial:sales", districtCode, industryCode)
	if s.StatsCache != nil {
		if cached, found := s.StatsCache.Get(cacheKey); found {
			return cached.([]models.SalesStatistic), nil
		}
	}

	query := `
		SELECT district_code, industry_code, base_year_month,
		       COALESCE(monthly_avg_sales, 0),
		       COALESCE(sales_growth_rate, 0)
		FROM sales_stats
		WHERE district_code = $1`
	args := []interface{}{districtCode}
	if industryCode != "" {
		query += ` AND industry_code = $2`
		args = append(args, industryCode)
	}
	query += ` ORDER BY base_year_month`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sales_stats query failed: %v", err)
	}
	defer rows.Close()

	var result []models.SalesStatistic
	for rows.Next() {
		var row models.SalesStatistic
		var sales, growth sql.NullFloat64
		if err := rows.Scan(&row.DistrictCode, &row.IndustryCode, &row.BaseYearMonth,
			&sales, &growth); err != nil {
			return nil, fmt.Errorf("sales_stats scan failed: %v", err)
		}
		row.MonthlyAvgSales = utils.Num(sales, 0)
		row.SalesGrowthRate = utils.Num(growth, 0)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales_stats rows failed: %v", err)
	}

	if s.StatsCache != nil {
		s.StatsCache.SetDefault(cacheKey, result)
	}
	return result, nil
}

func (s *SQLStatsStore) StoreStats(ctx context.Context, districtCode, industryCode string) ([]models.StoreStatistic, error) {
	cacheKey := config.GetCacheKey("commercial:store", districtCode, industryCode)
	if s.StatsCache != nil {
		if cached, found := s.StatsCache.Get(cacheKey); found {
			return cached.([]models.StoreStatistic), nil
		}
	}

	query := `
		SELECT district_code, industry_code, base_year_month,
		       COALESCE(store_count, 0),
		       COALESCE(franchise_count, 0)
		FROM store_stats
		WHERE district_code = $1`
	args := []interface{}{districtCode}
	if industryCode != "" {
		query += ` AND industry_code = $2`
		args = append(args, industryCode)
	}
	query += ` ORDER BY base_year_month`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store_stats query failed: %v", err)
	}
	defer rows.Close()

	var result []models.StoreStatistic
	for rows.Next() {
		var row models.StoreStatistic
		if err := rows.Scan(&row.DistrictCode, &row.IndustryCode, &row.BaseYearMonth,
			&row.StoreCount, &row.FranchiseCount); err != nil {
			return nil, fmt.Errorf("store_stats scan failed: %v", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store_stats rows failed: %v", err)
	}

	if s.StatsCache != nil {
		s.StatsCache.SetDefault(cacheKey, result)
	}
	return result, nil
}

func (s *SQLStatsStore) FootTraffic(ctx context.Context, districtCode string) (*models.FootTrafficRecord, error) {
	cacheKey := config.GetCacheKey("commercial:traffic", districtCode)
	if s.StatsCache != nil {
		if cached, found := s.StatsCache.Get(cacheKey); found {
			return cached.(*models.FootTrafficRecord), nil
		}
	}

	var row models.FootTrafficRecord
	err := s.DB.QueryRowContext(ctx, `
		SELECT district_code,
		       COALESCE(time_00_06, 0), COALESCE(time_06_11, 0), COALESCE(time_11_14, 0),
		       COALESCE(time_14_17, 0), COALESCE(time_17_21, 0), COALESCE(time_21_24, 0),
		       COALESCE(age_10s, 0), COALESCE(age_20s, 0), COALESCE(age_30s, 0),
		       COALESCE(age_40s, 0), COALESCE(age_50s, 0), COALESCE(age_60s_plus, 0),
		       COALESCE(weekday_avg, 0), COALESCE(weekend_avg, 0)
		FROM foot_traffic
		WHERE district_code = $1`, districtCode).Scan(
		&row.DistrictCode,
		&row.Time0006, &row.Time0611, &row.Time1114,
		&row.Time1417, &row.Time1721, &row.Time2124,
		&row.Age10s, &row.Age20s, &row.Age30s,
		&row.Age40s, &row.Age50s, &row.Age60sPlus,
		&row.WeekdayAvg, &row.WeekendAvg,
	)
	if err == sql.ErrNoRows {
		// No traffic data yet is not an error.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("foot_traffic query failed: %v", err)
	}

	if s.StatsCache != nil {
		s.StatsCache.SetDefault(cacheKey, &row)
	}
	return &row, nil
}

func (s *SQLStatsStore) District(ctx context.Context, code string) (*models.District, error) {
	var d models.District
	var districtType sql.NullString
	var ticket sql.NullFloat64
	err := s.DB.QueryRowContext(ctx, `
		SELECT code, name, sido, district_type, avg_ticket_price
		FROM districts
		WHERE code = $1`, code).Scan(&d.Code, &d.Name, &d.Sido, &districtType, &ticket)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("districts query failed: %v", err)
	}
	d.DistrictType = districtType.String
	d.AvgTicketPrice = utils.Num(ticket, 0)
	return &d, nil
}

func (s *SQLStatsStore) Districts(ctx context.Context) ([]models.District, error) {
	cacheKey := "commercial:districts"
	if s.Catalog != nil {
		if cached, found := s.Catalog.Get(cacheKey); found {
			return cached.([]models.District), nil
		}
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT code, name, sido, COALESCE(district_type, '')
		FROM districts
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("districts query failed: %v", err)
	}
	defer rows.Close()

	var result []models.District
	for rows.Next() {
		var d models.District
		if err := rows.Scan(&d.Code, &d.Name, &d.Sido, &d.DistrictType); err != nil {
			return nil, fmt.Errorf("districts scan failed: %v", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("districts rows failed: %v", err)
	}

	if s.Catalog != nil {
		s.Catalog.SetDefault(cacheKey, result)
	}
	return result, nil
}

// Industries merges the static catalog with any industry codes that only
// appear in the statistics tables, so a code with data never 404s on the
// catalog endpoint.
func (s *SQLStatsStore) Industries(ctx context.Context) ([]models.Industry, error) {
	cacheKey := "commercial:industries"
	if s.Catalog != nil {
		if cached, found := s.Catalog.Get(cacheKey); found {
			return cached.([]models.Industry), nil
		}
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT code, name, category FROM industries
		UNION
		SELECT DISTINCT b.industry_code, b.industry_code, '기타'
		FROM business_stats b
		WHERE b.industry_code NOT IN (SELECT code FROM industries)`)
	if err != nil {
		return nil, fmt.Errorf("industries query failed: %v", err)
	}
	defer rows.Close()

	var result []models.Industry
	for rows.Next() {
		var ind models.Industry
		if err := rows.Scan(&ind.Code, &ind.Name, &ind.Category); err != nil {
			return nil, fmt.Errorf("industries scan failed: %v", err)
		}
		result = append(result, ind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("industries rows failed: %v", err)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })

	if s.Catalog != nil {
		s.Catalog.SetDefault(cacheKey, result)
	}
	return result, nil
}

// SiblingDistricts returns districts sharing the same two-character sido
// prefix, sorted ascending by total store count, capped to 2.
func (s *SQLStatsStore) SiblingDistricts(ctx context.Context, sidoPrefix, excludeCode string) ([]AlternativeDistrict, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT d.code, d.name, COALESCE(SUM(st.store_count), 0) AS total_stores
		FROM districts d
		LEFT JOIN store_stats st ON st.district_code = d.code
		WHERE LEFT(d.code, 2) = $1 AND d.code <> $2
		GROUP BY d.code, d.name
		ORDER BY total_stores ASC, d.code ASC
		LIMIT 2`, sidoPrefix, excludeCode)
	if err != nil {
		return nil, fmt.Errorf("sibling districts query failed: %v", err)
	}
	defer rows.Close()

	var result []AlternativeDistrict
	for rows.Next() {
		var alt AlternativeDistrict
		if err := rows.Scan(&alt.Code, &alt.Name, &alt.StoreCount); err != nil {
			return nil, fmt.Errorf("sibling districts scan failed: %v", err)
		}
		result = append(result, alt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sibling districts rows failed: %v", err)
	}
	return result, nil
}

// Cross-district fetches for the industry rollup endpoint.

func (s *SQLStatsStore) BusinessStatsByIndustry(ctx context.Context, industryCode string) ([]models.BusinessStatistic, error) {
	cacheKey := config.GetCacheKey("commercial:business:industry", industryCode)
	if s.StatsCache != nil {
		if cached, found := s.StatsCache.Get(cacheKey); found {
			return cached.([]models.BusinessStatistic), nil
		}
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT district_code, industry_code, base_year_month,
		       COALESCE(survival_rate, 0),
		       COALESCE(open_count, 0),
		       COALESCE(close_count, 0)
		FROM business_stats
		WHERE industry_code = $1
		ORDER BY district_code, base_year_month`, industryCode)
	if err != nil {
		return nil, fmt.Errorf("business_stats by industry query failed: %v", err)
	}
	defer rows.Close()

	var result []models.BusinessStatistic
	for rows.Next() {
		var row models.BusinessStatistic
		var survival sql.NullFloat64
		if err := rows.Scan(&row.DistrictCode, &row.IndustryCode, &row.BaseYearMonth,
			&survival, &row.OpenCount, &row.CloseCount); err != nil {
			return nil, fmt.Errorf("business_stats by industry scan failed: %v", err)
		}
		row.SurvivalRate = utils.Clamp(utils.Num(survival, 0), 0, 100)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("business_stats by industry rows failed: %v", err)
	}

	if s.StatsCache != nil {
		s.StatsCache.SetDefault(cacheKey, result)
	}
	return result, nil
}

func (s *SQLStatsStore) SalesStatsByIndustry(ctx context.Context, industryCode string) ([]models.SalesStatistic, error) {
	cacheKey := config.GetCacheKey("commercial:sales:industry", industryCode)
	if s.StatsCache != nil {
		if cached, found := s.StatsCache.Get(cacheKey); found {
			return cached.([]models.SalesStatistic), nil
		}
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT district_code, industry_code, base_year_month,
		       COALESCE(monthly_avg_sales, 0),
		       COALESCE(sales_growth_rate, 0)
		FROM sales_stats
		WHERE industry_code = $1
		ORDER BY district_code, base_year_month`, industryCode)
	if err != nil {
		return nil, fmt.Errorf("sales_stats by industry query failed: %v", err)
	}
	defer rows.Close()

	var result []models.SalesStatistic
	for rows.Next() {
		var row models.SalesStatistic
		var sales, growth sql.NullFloat64
		if err := rows.Scan(&row.DistrictCode, &row.IndustryCode, &row.BaseYearMonth,
			&sales, &growth); err != nil {
			return nil, fmt.Errorf("sales_stats by industry scan failed: %v", err)
		}
		row.MonthlyAvgSales = utils.Num(sales, 0)
		row.SalesGrowthRate = utils.Num(growth, 0)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales_stats by industry rows failed: %v", err)
	}

	if s.StatsCache != nil {
		s.StatsCache.SetDefault(cacheKey, result)
	}
	return result, nil
}

func (s *SQLStatsStore) StoreStatsByIndustry(ctx context.Context, industryCode string) ([]models.StoreStatistic, error) {
	cacheKey := config.GetCacheKey("commercial:store:industry", industryCode)
	if s.StatsCache != nil {
		if cached, found := s.StatsCache.Get(cacheKey); found {
			return cached.([]models.StoreStatistic), nil
		}
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT district_code, industry_code, base_year_month,
		       COALESCE(store_count, 0),
		       COALESCE(franchise_count, 0)
		FROM store_stats
		WHERE industry_code = $1
		ORDER BY district_code, base_year_month`, industryCode)
	if err != nil {
		return nil, fmt.Errorf("store_stats by industry query failed: %v", err)
	}
	defer rows.Close()

	var result []models.StoreStatistic
	for rows.Next() {
		var row models.StoreStatistic
		if err := rows.Scan(&row.DistrictCode, &row.IndustryCode, &row.BaseYearMonth,
			&row.StoreCount, &row.FranchiseCount); err != nil {
			return nil, fmt.Errorf("store_stats by industry scan failed: %v", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store_stats by industry rows failed: %v", err)
	}

	if s.StatsCache != nil {
		s.StatsCache.SetDefault(cacheKey, result)
	}
	return result, nil
}
