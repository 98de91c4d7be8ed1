package sqldb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-report/generic"
)

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in   string
		want Driver
	}{
		{"sqlite", DriverSQLite},
		{"SQLite3", DriverSQLite},
		{"postgres", DriverPostgres},
		{"postgresql", DriverPostgres},
		{"pgx", DriverPostgres},
		{"mysql", DriverMySQL},
		{" mariadb ", DriverMySQL},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDriver(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDriver("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	query := "SELECT 1 FROM t WHERE a < ? AND b > ? OR c = ?"

	assert.Equal(t, "SELECT 1 FROM t WHERE a < $1 AND b > $2 OR c = $3", DriverPostgres.Rebind(query))
	assert.Equal(t, query, DriverMySQL.Rebind(query))
	assert.Equal(t, query, DriverSQLite.Rebind(query))
}

func TestDateValue_Scan(t *testing.T) {
	want := generic.MustParseTimePoint("1990-02-15")

	tests := []struct {
		name string
		src  any
	}{
		{"time", time.Date(1990, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"string", "1990-02-15"},
		{"bytes", []byte("1990-02-15")},
		{"datetime string", "1990-02-15 00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d dateValue
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, want, d.TimePoint)
		})
	}

	var d dateValue
	assert.Error(t, d.Scan(nil))
	assert.Error(t, d.Scan(42))
	assert.True(t, generic.IsParseError(d.Scan("15/02/1990")))
}
