package factory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/store/sqldb"
)

const sampleJSON = `{
	"departments": [
		{"code": "d001", "name": "Marketing"}
	],
	"employees": [
		{
			"emp_no": 1,
			"first_name": "Ada",
			"last_name": "Byron",
			"gender": "F",
			"hire_date": "1990-01-02",
			"departments": [{"code": "d001", "from": "1990-01-02"}],
			"salaries": [
				{"amount": 100000, "from": "1990-01-02", "to": "1990-02-01"},
				{"amount": 110000, "from": "1990-02-01"}
			]
		}
	]
}`

func TestParseDataset(t *testing.T) {
	ds, err := NewDatasetFactory().ParseDataset(sampleJSON)
	require.NoError(t, err)

	assert.Equal(t, []sqldb.Department{{Code: "d001", Name: "Marketing"}}, ds.Departments)
	require.Len(t, ds.Employees, 1)
	assert.Equal(t, generic.MustParseTimePoint("1990-01-02"), ds.Employees[0].HireDate)
	assert.True(t, ds.Employees[0].BirthDate.IsZero())

	require.Len(t, ds.Memberships, 1)
	assert.Equal(t, generic.SentinelEndDate, ds.Memberships[0].Validity.End)

	require.Len(t, ds.Salaries, 2)
	assert.Equal(t, generic.MustParsePeriod("1990-01-02", "1990-02-01"), ds.Salaries[0].Validity)
	assert.Equal(t, generic.SentinelEndDate, ds.Salaries[1].Validity.End)
	assert.Equal(t, int64(110000), ds.Salaries[1].Amount)
}

func TestParseDataset_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{"malformed", `{"departments": [`, "invalid dataset JSON"},
		{"unknown field", `{"teams": []}`, "invalid dataset JSON"},
		{"missing name", `{"departments": [{"code": "d001"}]}`, "invalid dataset"},
		{"zero amount", `{"employees": [{"emp_no": 1, "first_name": "A", "last_name": "B", "hire_date": "1990-01-01",
			"salaries": [{"amount": 0, "from": "1990-01-01"}]}]}`, "Amount"},
		{"bad date", `{"employees": [{"emp_no": 1, "first_name": "A", "last_name": "B", "hire_date": "01/01/1990"}]}`, "hire_date"},
		{"end before start", `{"employees": [{"emp_no": 1, "first_name": "A", "last_name": "B", "hire_date": "1990-01-01",
			"salaries": [{"amount": 5, "from": "1990-02-01", "to": "1990-01-01"}]}]}`, "salary from 1990-02-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDatasetFactory().ParseDataset(tt.json)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestToJSON_RoundTripsDemoDataset(t *testing.T) {
	f := NewDatasetFactory()
	demo := sqldb.DemoDataset()

	data, err := json.Marshal(f.ToJSON(demo))
	require.NoError(t, err)
	back, err := f.ParseDataset(string(data))
	require.NoError(t, err)

	assert.Equal(t, demo.Departments, back.Departments)
	assert.Equal(t, demo.Employees, back.Employees)
	assert.ElementsMatch(t, demo.Memberships, back.Memberships)
	assert.ElementsMatch(t, demo.Salaries, back.Salaries)
}
