package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-report/metrics"
	"github.com/warp/payroll-report/payroll"
	"github.com/warp/payroll-report/store/sqldb"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := sqldb.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	return NewHandler(store, metrics.NewWith(reg, reg))
}

func setupRouter(t *testing.T, scenarioID string) (*Handler, *chi.Mux) {
	t.Helper()
	h := setupTestHandler(t)
	r := NewRouter(h, RouterOptions{AllowedOrigins: []string{"*"}})
	if scenarioID != "" {
		rec := do(t, r, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"`+scenarioID+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	return h, r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// REPORT
// =============================================================================

func TestGetReport_Demo(t *testing.T) {
	// GIVEN: the demo dataset
	// WHEN: requesting the report
	// THEN: every department with a membership appears, ordered by code
	_, r := setupRouter(t, "demo")

	rec := do(t, r, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[payroll.ReportDTO](t, rec)
	var codes []string
	for _, d := range report.Departments {
		codes = append(codes, d.Code)
		require.NotNil(t, d.Name)
		assert.True(t, d.Total.IsPositive(), d.Code)
	}
	assert.Equal(t, []string{"d001", "d002", "d003", "d005"}, codes)
	assert.Equal(t, "1985-10-01", report.Quarters[0].Start.String())
	assert.Equal(t, "1991-01-01", report.Quarters[len(report.Quarters)-1].Start.String())
}

func TestGetReport_IsCachedUntilRefresh(t *testing.T) {
	_, r := setupRouter(t, "demo")

	first := decode[payroll.ReportDTO](t, do(t, r, http.MethodGet, "/api/report", ""))
	second := decode[payroll.ReportDTO](t, do(t, r, http.MethodGet, "/api/report", ""))
	refreshed := decode[payroll.ReportDTO](t, do(t, r, http.MethodGet, "/api/report?refresh=true", ""))

	assert.Equal(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.RunID, refreshed.RunID)
}

func TestGetReport_Text(t *testing.T) {
	_, r := setupRouter(t, "single-quarter")

	rec := do(t, r, http.MethodGet, "/api/report?format=text", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"Department: Marketing\n\t1990-01-01: 8426.966292134832\n"+
			"Department: Finance\n\t1990-01-01: 16292.134831460675\n",
		rec.Body.String())
}

func TestGetReport_NoSalaryData(t *testing.T) {
	_, r := setupRouter(t, "empty")

	rec := do(t, r, http.MethodGet, "/api/report", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_salary_data", decode[ErrorResponse](t, rec).Code)
}

func TestGetReport_StoreUnavailable(t *testing.T) {
	h, r := setupRouter(t, "demo")
	require.NoError(t, h.Store.Close())

	rec := do(t, r, http.MethodGet, "/api/report?refresh=true", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "store_unavailable", decode[ErrorResponse](t, rec).Code)
}

// =============================================================================
// QUARTERS
// =============================================================================

func TestListQuarters(t *testing.T) {
	_, r := setupRouter(t, "single-quarter")

	rec := do(t, r, http.MethodGet, "/api/quarters", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[QuarterListDTO](t, rec)
	require.Len(t, list.Quarters, 1)
	assert.Equal(t, "1990-01-01", list.Quarters[0].Start.String())
	assert.Equal(t, "1990-03-31", list.Quarters[0].End.String())
}

func TestGetQuarter_ContainingDate(t *testing.T) {
	// GIVEN: two salaries inside Q1 1990 (30 and 58 of 89 days)
	// WHEN: asking for the quarter containing Feb 14
	// THEN: costs are 25000*30/89 and 25000*58/89, rounded to cents
	_, r := setupRouter(t, "single-quarter")

	rec := do(t, r, http.MethodGet, "/api/quarters/1990-02-14", "")
	require.Equal(t, http.StatusOK, rec.Code)

	q := decode[QuarterReportDTO](t, rec)
	assert.Equal(t, "1990-01-01", q.Quarter.Start.String())
	require.Len(t, q.Departments, 2)
	assert.Equal(t, "d001", q.Departments[0].Code)
	assert.Equal(t, "8426.97", q.Departments[0].Cost.StringFixed(2))
	assert.Equal(t, 8426.966292134832, q.Departments[0].RawCost)
	assert.Equal(t, "16292.13", q.Departments[1].Cost.StringFixed(2))
	assert.Equal(t, "24719.10", q.Total.StringFixed(2))
}

func TestGetQuarter_OutsideData(t *testing.T) {
	_, r := setupRouter(t, "single-quarter")

	rec := do(t, r, http.MethodGet, "/api/quarters/2001-07-04", "")
	require.Equal(t, http.StatusOK, rec.Code)

	q := decode[QuarterReportDTO](t, rec)
	assert.Empty(t, q.Departments)
	assert.True(t, q.Total.IsZero())
}

func TestGetQuarter_InvalidDate(t *testing.T) {
	_, r := setupRouter(t, "single-quarter")

	for _, path := range []string{"/api/quarters/1990-13-01", "/api/quarters/yesterday"} {
		rec := do(t, r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func TestGetDepartment(t *testing.T) {
	_, r := setupRouter(t, "unknown-department")

	rec := do(t, r, http.MethodGet, "/api/departments/d001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	known := decode[DepartmentDetailDTO](t, rec)
	require.NotNil(t, known.Name)
	assert.Equal(t, "Marketing", *known.Name)
	assert.NotEmpty(t, known.RunID)
	assert.NotEmpty(t, known.Quarters)

	rec = do(t, r, http.MethodGet, "/api/departments/d404", "")
	require.Equal(t, http.StatusOK, rec.Code)
	unknown := decode[DepartmentDetailDTO](t, rec)
	assert.Nil(t, unknown.Name)
	assert.Equal(t, "d404", unknown.Code)

	rec = do(t, r, http.MethodGet, "/api/departments/d999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// OPERATIONS
// =============================================================================

func TestHealth(t *testing.T) {
	h, r := setupRouter(t, "")

	rec := do(t, r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthDTO{Status: "ok", Driver: "sqlite3"}, decode[HealthDTO](t, rec))

	require.NoError(t, h.Store.Close())
	rec = do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, r := setupRouter(t, "demo")
	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/report", "").Code)

	rec := do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `payroll_report_runs_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `payroll_gateway_queries_total{op="salaries_intersecting",result="ok"}`)
}

func TestReportRefresher_RunNow(t *testing.T) {
	h, _ := setupRouter(t, "demo")
	refresher := NewReportRefresher(h, 0)
	assert.False(t, refresher.Enabled)

	refresher.RunNow()

	h.mu.RLock()
	defer h.mu.RUnlock()
	require.NotNil(t, h.latest)
	assert.Len(t, h.latest.Departments, 4)
}

func TestReportRefresher_StartStop(t *testing.T) {
	h, _ := setupRouter(t, "demo")
	refresher := NewReportRefresher(h, time.Hour)

	refresher.Start()
	refresher.Stop()

	report, err := h.Latest(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.Departments)
}
