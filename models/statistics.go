package models

// One row per (district, industry, month). All numerics are coerced at the
// accessor boundary, so downstream code never re-validates shape.

type BusinessStatistic struct {
	DistrictCode  string  `json:"district_code"`
	IndustryCode  string  `json:"industry_code"`
	BaseYearMonth string  `json:"base_year_month"`
	SurvivalRate  float64 `json:"survival_rate"`
	OpenCount     int     `json:"open_count"`
	CloseCount    int     `json:"close_count"`
}

type SalesStatistic struct {
	DistrictCode    string  `json:"district_code"`
	IndustryCode    string  `json:"industry_code"`
	BaseYearMonth   string  `json:"base_year_month"`
	MonthlyAvgSales float64 `json:"monthly_avg_sales"`
	SalesGrowthRate float64 `json:"sales_growth_rate"`
}

type StoreStatistic struct {
	DistrictCode   string `json:"district_code"`
	IndustryCode   string `json:"industry_code"`
	BaseYearMonth  string `json:"base_year_month"`
	StoreCount     int    `json:"store_count"`
	FranchiseCount int    `json:"franchise_count"`
}

// FootTrafficRecord holds one district's pedestrian volume bucketed by
// time-of-day and age group.
type FootTrafficRecord struct {
	DistrictCode string  `json:"district_code"`
	Time0006     float64 `json:"time_00_06"`
	Time0611     float64 `json:"time_06_11"`
	Time1114     float64 `json:"time_11_14"`
	Time1417     float64 `json:"time_14_17"`
	Time1721     float64 `json:"time_17_21"`
	Time2124     float64 `json:"time_21_24"`
	Age10s       float64 `json:"age_10s"`
	Age20s       float64 `json:"age_20s"`
	Age30s       float64 `json:"age_30s"`
	Age40s       float64 `json:"age_40s"`
	Age50s       float64 `json:"age_50s"`
	Age60sPlus   float64 `json:"age_60s_plus"`
	WeekdayAvg   float64 `json:"weekday_avg"`
	WeekendAvg   float64 `json:"weekend_avg"`
}

// TimeBucket / AgeBucket pair a fixed bucket label with its traffic volume.
// Iteration order is fixed so that max-bucket tie-breaks are deterministic.

type TimeBucket struct {
	Slot    string
	Traffic float64
}

type AgeBucket struct {
	Group string
	Count float64
}

func (f FootTrafficRecord) TimeBuckets() []TimeBucket {
	return []TimeBucket{
		{"00-06", f.Time0006},
		{"06-11", f.Time0611},
		{"11-14", f.Time1114},
		{"14-17", f.Time1417},
		{"17-21", f.Time1721},
		{"21-24", f.Time2124},
	}
}

func (f FootTrafficRecord) AgeBuckets() []AgeBucket {
	return []AgeBucket{
		{"10대", f.Age10s},
		{"20대", f.Age20s},
		{"30대", f.Age30s},
		{"40대", f.Age40s},
		{"50대", f.Age50s},
		{"60대 이상", f.Age60sPlus},
	}
}

func (f FootTrafficRecord) TotalTraffic() float64 {
	return f.Time0006 + f.Time0611 + f.Time1114 + f.Time1417 + f.Time1721 + f.Time2124
}

func (f FootTrafficRecord) TotalByAge() float64 {
	return f.Age10s + f.Age20s + f.Age30s + f.Age40s + f.Age50s + f.Age60sPlus
}
