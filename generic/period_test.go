package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-report/generic"
)

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestParsePeriod_StringAndDateFormsAgree(t *testing.T) {
	p, err := generic.ParsePeriod("1990-01-01", "1990-03-31")
	require.NoError(t, err)

	assert.Equal(t, "1990-01-01", p.StartString())
	assert.Equal(t, "1990-03-31", p.EndString())

	reparsed, err := time.Parse(generic.DateLayout, p.StartString())
	require.NoError(t, err)
	assert.True(t, reparsed.Equal(p.Start.Time))
}

func TestParsePeriod_SingleDigitMonthNormalized(t *testing.T) {
	// GIVEN: the unpadded form the quarter builder historically produced
	p, err := generic.ParsePeriod("1990-4-01", "1990-6-30")
	require.NoError(t, err)

	// THEN: the string form is canonical
	assert.Equal(t, "1990-04-01", p.StartString())
	assert.Equal(t, "1990-06-30", p.EndString())
}

func TestNewPeriod_MatchesParsePeriod(t *testing.T) {
	native, err := generic.NewPeriod(
		time.Date(1989, time.April, 25, 13, 45, 0, 0, time.UTC),
		time.Date(1990, time.April, 25, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	parsed := generic.MustParsePeriod("1989-04-25", "1990-04-25")
	assert.Equal(t, parsed, native)
}

func TestParsePeriod_MalformedInput(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
	}{
		{"slashes", "1990/01/01", "1990-03-31"},
		{"empty end", "1990-01-01", ""},
		{"month out of range", "1990-13-01", "1991-01-01"},
		{"trailing text", "1990-01-01T00:00", "1990-03-31"},
		{"two digit year", "90-01-01", "90-03-31"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := generic.ParsePeriod(tc.start, tc.end)
			require.Error(t, err)
			assert.True(t, generic.IsParseError(err))

			var pe *generic.ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParsePeriod_EndBeforeStart(t *testing.T) {
	_, err := generic.ParsePeriod("1990-03-31", "1990-01-01")
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
	assert.False(t, generic.IsParseError(err))
}

// =============================================================================
// ACCESSORS
// =============================================================================

func TestPeriod_LengthAndContainment(t *testing.T) {
	q1 := generic.MustParsePeriod("1990-01-01", "1990-03-31")
	assert.Equal(t, 89, q1.Length())

	assert.True(t, q1.Contains(generic.MustParseTimePoint("1990-01-01")))
	assert.True(t, q1.Contains(generic.MustParseTimePoint("1990-03-31")))
	assert.False(t, q1.Contains(generic.MustParseTimePoint("1990-04-01")))

	year := generic.MustParsePeriod("1989-12-01", "1990-12-30")
	assert.True(t, year.Covers(q1))
	assert.False(t, q1.Covers(year))
	assert.True(t, q1.Covers(q1))
}

func TestPeriod_LengthUpToSentinel(t *testing.T) {
	active := generic.Period{Start: generic.MustParseTimePoint("1990-01-01"), End: generic.SentinelEndDate}
	assert.Equal(t, 2925227, active.Length())

	assert.Equal(t, -2925227, generic.DaysBetween(generic.SentinelEndDate, active.Start))
}

func TestTimePoint_JSONRoundTrip(t *testing.T) {
	tp := generic.MustParseTimePoint("2000-10-01")
	b, err := tp.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2000-10-01"`, string(b))

	var back generic.TimePoint
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, tp, back)

	assert.True(t, generic.IsParseError(back.UnmarshalJSON([]byte(`"yesterday"`))))
}
