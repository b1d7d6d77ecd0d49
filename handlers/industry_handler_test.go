package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/choiwjun/chamgab-sub000/models"
)

func industryGet(t *testing.T, c *Commercial, url string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/industries/{code}/statistics", c.GetIndustryStatistics).Methods(http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestGetIndustryStatistics(t *testing.T) {
	t.Parallel()

	stub := districtStub()
	stub.business["11680-002"] = []models.BusinessStatistic{
		{DistrictCode: "11680-002", IndustryCode: "I56220", BaseYearMonth: "202405", SurvivalRate: 70},
	}
	stub.sales["11680-002"] = []models.SalesStatistic{
		{DistrictCode: "11680-002", IndustryCode: "I56220", BaseYearMonth: "202405", MonthlyAvgSales: 60000000, SalesGrowthRate: 2},
	}
	stub.districts["11680-002"] = &models.District{Code: "11680-002", Name: "선릉역"}

	c := newTestCommercial(stub)
	rec := industryGet(t, c, "/industries/I56220/statistics")

	if rec.Code != http.StatusOK {
		t.Fatalf("status want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp IndustryStatisticsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.IndustryName != "카페" || resp.Category != "식음료" {
		t.Fatalf("catalog lookup failed: %+v", resp)
	}
	if resp.DistrictCount != 2 {
		t.Fatalf("district_count want=2 got=%d", resp.DistrictCount)
	}
	if resp.AvgSurvivalRate != 77.5 {
		t.Fatalf("avg_survival_rate want=77.5 got=%v", resp.AvgSurvivalRate)
	}
	if len(resp.TopRegions) != 2 || resp.TopRegions[0].DistrictCode != "11680-002" {
		t.Fatalf("top regions should sort by sales: %+v", resp.TopRegions)
	}
}

func TestGetIndustryStatisticsLimit(t *testing.T) {
	t.Parallel()

	stub := districtStub()
	stub.business["11680-002"] = []models.BusinessStatistic{
		{DistrictCode: "11680-002", IndustryCode: "I56220", BaseYearMonth: "202406", SurvivalRate: 70},
	}

	c := newTestCommercial(stub)
	rec := industryGet(t, c, "/industries/I56220/statistics?limit=1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status want=200 got=%d", rec.Code)
	}
	var resp IndustryStatisticsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.TopRegions) != 1 {
		t.Fatalf("limit not applied: got %d regions", len(resp.TopRegions))
	}
}

func TestGetIndustryStatisticsUnknownCode(t *testing.T) {
	t.Parallel()

	c := newTestCommercial(districtStub())
	rec := industryGet(t, c, "/industries/Z99999/statistics")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status want=404 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var detail detailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if detail.Detail != "해당 업종 데이터를 찾을 수 없습니다: Z99999" {
		t.Fatalf("unexpected detail: %s", detail.Detail)
	}
}

func TestGetIndustryStatisticsUncataloguedButObserved(t *testing.T) {
	t.Parallel()

	// Rows exist but the catalog has no entry: still a 200, with the code
	// echoed as the name.
	stub := districtStub()
	stub.business["11680-001"] = append(stub.business["11680-001"], models.BusinessStatistic{
		DistrictCode: "11680-001", IndustryCode: "X00001", BaseYearMonth: "202406", SurvivalRate: 50,
	})

	c := newTestCommercial(stub)
	rec := industryGet(t, c, "/industries/X00001/statistics")

	if rec.Code != http.StatusOK {
		t.Fatalf("status want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp IndustryStatisticsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.IndustryName != "X00001" {
		t.Fatalf("uncatalogued industry should echo its code: %+v", resp)
	}
}

func TestGetIndustryStatisticsQueryFailure(t *testing.T) {
	t.Parallel()

	c := newTestCommercial(&stubStatsProvider{failAll: true})
	rec := industryGet(t, c, "/industries/I56220/statistics")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status want=500 got=%d", rec.Code)
	}
}
