package payroll_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/generic/store"
	"github.com/warp/payroll-report/payroll"
)

// share mirrors the aggregator arithmetic at runtime precision.
func share(perQuarter, days, length int) float64 {
	fraction := float64(days) / float64(length)
	return float64(float64(perQuarter) * fraction)
}

func newTestStore() *store.Memory {
	m := store.NewMemory()
	m.AddDepartment("d001", "Marketing")
	m.AddDepartment("d002", "Finance")
	m.AddSalary(
		// Q4 1989: Dec 1 - Dec 31 (30 of 91 days); Q1 1990: Jan 1 - Feb 15 (45 of 89 days)
		salary(40000, "d001", "1989-12-01", "1990-02-15"),
		// Q1 1990 only: Jan 15 - Mar 31 (75 of 89 days); still active
		salary(80000, "d002", "1990-01-15", "9999-01-01"),
	)
	return m
}

// =============================================================================
// PARTITIONER
// =============================================================================

func TestGenerateQuarters_FromStoreRange(t *testing.T) {
	quarters, err := payroll.NewPartitioner(newTestStore()).GenerateQuarters(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []generic.Period{
		generic.MustParsePeriod("1989-10-01", "1989-12-31"),
		generic.MustParsePeriod("1990-01-01", "1990-03-31"),
	}, quarters)
}

func TestGenerateQuarters_EmptyStore(t *testing.T) {
	_, err := payroll.NewPartitioner(store.NewMemory()).GenerateQuarters(context.Background())
	assert.ErrorIs(t, err, generic.ErrNoSalaryData)
}

// =============================================================================
// DRIVER
// =============================================================================

func TestGenerateReport_ReshapesByDepartment(t *testing.T) {
	// GIVEN: one department spanning two quarters, one active in the second
	// WHEN: generating the report
	// THEN: each department lists its quarters ascending with pro-rated costs
	var progress bytes.Buffer
	driver := payroll.NewDriver(newTestStore())
	driver.Progress = &progress

	report, err := driver.GenerateReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"Generating data for 1989-10-01 to 1989-12-31...\n"+
			"Generating data for 1990-01-01 to 1990-03-31...\n",
		progress.String())

	require.Len(t, report.Departments, 2)
	assert.NotEqual(t, uuid.Nil, report.RunID)

	marketing := report.Departments[0]
	assert.Equal(t, generic.DepartmentCode("d001"), marketing.Code)
	assert.Equal(t, "Marketing", marketing.DisplayName())
	assert.Equal(t, []payroll.QuarterCost{
		{QuarterStart: generic.MustParseTimePoint("1989-10-01"), Cost: share(10000, 30, 91)},
		{QuarterStart: generic.MustParseTimePoint("1990-01-01"), Cost: share(10000, 45, 89)},
	}, marketing.Costs)

	finance := report.Departments[1]
	assert.Equal(t, []payroll.QuarterCost{
		{QuarterStart: generic.MustParseTimePoint("1990-01-01"), Cost: share(20000, 75, 89)},
	}, finance.Costs)
}

func TestGenerateReport_ParallelMatchesSequential(t *testing.T) {
	m := store.NewMemory()
	m.AddDepartment("d001", "Marketing")
	m.AddDepartment("d002", "Finance")
	m.AddDepartment("d003", "Human Resources")
	depts := []string{"d001", "d002", "d003"}
	start := generic.MustParseTimePoint("1985-01-01")
	for i := 0; i < 300; i++ {
		from := start.AddDays(i * 17)
		m.AddSalary(generic.SalaryRecord{
			Amount:     int64(40000 + i*113),
			Department: generic.DepartmentCode(depts[i%3]),
			Validity:   generic.Period{Start: from, End: from.AddDays(365)},
		})
	}

	sequential, err := payroll.NewDriver(m).GenerateReport(context.Background())
	require.NoError(t, err)

	parallel := payroll.NewDriver(m)
	parallel.Parallelism = 8
	concurrent, err := parallel.GenerateReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequential.Quarters, concurrent.Quarters)
	assert.Equal(t, sequential.Departments, concurrent.Departments)
}

func TestGenerateReport_UnknownDepartmentIsNotAnError(t *testing.T) {
	m := store.NewMemory()
	m.AddSalary(salary(100000, "d404", "1990-02-01", "1990-05-01"))

	report, err := payroll.NewDriver(m).GenerateReport(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Departments, 1)
	assert.False(t, report.Departments[0].Known)
	assert.Equal(t, "None", report.Departments[0].DisplayName())

	var out bytes.Buffer
	require.NoError(t, payroll.RenderText(&out, report))
	assert.True(t, strings.HasPrefix(out.String(), "Department: None\n"), out.String())
}

func TestGenerateReport_StoreFailureAbortsRun(t *testing.T) {
	m := newTestStore()
	m.Err = errors.New("server has gone away")

	report, err := payroll.NewDriver(m).GenerateReport(context.Background())

	assert.Nil(t, report)
	assert.True(t, generic.IsStoreError(err))
}

func TestByDepartment(t *testing.T) {
	q1 := generic.MustParseTimePoint("1990-01-01")
	q2 := generic.MustParseTimePoint("1990-04-01")

	got := payroll.ByDepartment(map[generic.TimePoint]payroll.QuarterCosts{
		q1: {"d001": 1, "d002": 2},
		q2: {"d001": 3},
	})

	assert.Equal(t, map[generic.DepartmentCode]map[generic.TimePoint]float64{
		"d001": {q1: 1, q2: 3},
		"d002": {q1: 2},
	}, got)
}

// =============================================================================
// RENDERING
// =============================================================================

func TestRenderText(t *testing.T) {
	report, err := payroll.NewDriver(newTestStore()).GenerateReport(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, payroll.RenderText(&out, report))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Department: Marketing",
		"\t1989-10-01: " + payroll.FormatCost(share(10000, 30, 91)),
		"\t1990-01-01: " + payroll.FormatCost(share(10000, 45, 89)),
		"Department: Finance",
		"\t1990-01-01: " + payroll.FormatCost(share(20000, 75, 89)),
	}, lines)
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "8426.966292134832", payroll.FormatCost(8426.966292134832))
	assert.Equal(t, "50000", payroll.FormatCost(50000))
}

func TestRenderJSON_RoundsToCentsAndTotals(t *testing.T) {
	report, err := payroll.NewDriver(newTestStore()).GenerateReport(context.Background())
	require.NoError(t, err)

	dto := report.ToDTO()
	require.Len(t, dto.Departments, 2)
	require.Len(t, dto.Quarters, 2)

	marketing := dto.Departments[0]
	require.NotNil(t, marketing.Name)
	assert.Equal(t, "Marketing", *marketing.Name)
	// 10000*30/91 = 3296.703..., 10000*45/89 = 5056.179...
	assert.Equal(t, "3296.70", marketing.Quarters[0].Cost.StringFixed(2))
	assert.Equal(t, "5056.18", marketing.Quarters[1].Cost.StringFixed(2))
	assert.Equal(t, "8352.88", marketing.Total.StringFixed(2))

	var out bytes.Buffer
	require.NoError(t, payroll.RenderJSON(&out, report))
	assert.Contains(t, out.String(), `"quarter_start": "1989-10-01"`)
	assert.Contains(t, out.String(), `"run_id": "`+report.RunID.String()+`"`)
}
