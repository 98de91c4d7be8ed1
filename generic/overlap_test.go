package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-report/generic"
)

func q1990() generic.Period {
	return generic.MustParsePeriod("1990-01-01", "1990-03-31")
}

func TestOverlapFraction_Branches(t *testing.T) {
	ref := q1990() // 89 days

	cases := []struct {
		name     string
		record   generic.Period
		wantDays int
	}{
		{"starts before, ends after", generic.MustParsePeriod("1989-06-01", "1990-06-01"), 89},
		{"starts before, ends inside", generic.MustParsePeriod("1989-01-01", "1990-01-31"), 30},
		{"starts before, ends on end", generic.MustParsePeriod("1989-01-01", "1990-03-31"), 89},
		{"starts inside, ends after", generic.MustParsePeriod("1990-03-01", "1990-12-30"), 30},
		{"starts on start, ends after", generic.MustParsePeriod("1990-01-01", "1990-12-30"), 89},
		{"inside", generic.MustParsePeriod("1990-02-01", "1990-03-31"), 58},
		{"starts on start, ends inside", generic.MustParsePeriod("1990-01-01", "1990-01-31"), 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := generic.OverlapFraction(tc.record, ref)
			require.NoError(t, err)
			assert.Equal(t, float64(tc.wantDays)/89, got)
		})
	}
}

func TestOverlapFraction_DegenerateReference(t *testing.T) {
	// GIVEN: a single-day reference period (length zero)
	ref := generic.MustParsePeriod("1990-01-01", "1990-01-01")

	_, err := generic.OverlapFraction(q1990(), ref)

	assert.ErrorIs(t, err, generic.ErrDegeneratePeriod)
	assert.True(t, generic.IsClientError(err))
}

func TestOverlapFraction_BoundedAndOneIffContained(t *testing.T) {
	ref := q1990()
	start := generic.MustParseTimePoint("1989-10-01")

	// Sweep every record start/end pair around the quarter that the gateway
	// predicate would return, checking 0 <= f <= 1 and f == 1 <=> coverage.
	for s := 0; s < 200; s += 3 {
		for e := s; e < 220; e += 5 {
			record := generic.Period{Start: start.AddDays(s), End: start.AddDays(e)}
			if !generic.Intersects(record, ref) {
				continue
			}

			f, err := generic.OverlapFraction(record, ref)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, f, 0.0, record.String())
			assert.LessOrEqual(t, f, 1.0, record.String())
			assert.Equal(t, record.Covers(ref), f == 1, record.String())
		}
	}
}

func TestOverlapFraction_CenturiesLongPeriods(t *testing.T) {
	// GIVEN: a reference period of 182621 days
	// WHEN: the record starts before it and ends one day short of its end
	// THEN: the fraction is just below 1
	ref := generic.MustParsePeriod("1500-01-01", "2000-01-01")
	rec := generic.MustParsePeriod("1400-01-01", "1999-12-31")

	f, err := generic.OverlapFraction(rec, ref)
	require.NoError(t, err)
	assert.Less(t, f, 1.0)
	assert.Equal(t, float64(182620)/float64(182621), f)

	full, err := generic.OverlapFraction(generic.MustParsePeriod("1400-01-01", "2000-01-02"), ref)
	require.NoError(t, err)
	assert.Equal(t, 1.0, full)
}
