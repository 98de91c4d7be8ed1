package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Closed date interval [Start, End]
// =============================================================================

// Period is an immutable closed interval of calendar dates. Both bounds are
// inclusive and Start <= End always holds for a Period built by one of the
// constructors below.
//
// Examples:
//   - Salary validity: 1989-04-25 - 1990-04-25
//   - Calendar quarter: 1990-01-01 - 1990-03-31
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod builds a Period from native dates. Time-of-day is discarded.
func NewPeriod(start, end time.Time) (Period, error) {
	return newPeriod(FromTime(start), FromTime(end))
}

// ParsePeriod builds a Period from YYYY-MM-DD strings.
func ParsePeriod(start, end string) (Period, error) {
	s, err := ParseTimePoint(start)
	if err != nil {
		return Period{}, fmt.Errorf("period start: %w", err)
	}
	e, err := ParseTimePoint(end)
	if err != nil {
		return Period{}, fmt.Errorf("period end: %w", err)
	}
	return newPeriod(s, e)
}

// MustParsePeriod panics if the period cannot be parsed.
func MustParsePeriod(start, end string) Period {
	p, err := ParsePeriod(start, end)
	if err != nil {
		panic(err)
	}
	return p
}

func newPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: %s > %s", ErrInvalidPeriod, start, end)
	}
	return Period{Start: start, End: end}, nil
}

// StartString returns the canonical YYYY-MM-DD form of Start.
func (p Period) StartString() string { return p.Start.String() }

// EndString returns the canonical YYYY-MM-DD form of End.
func (p Period) EndString() string { return p.End.String() }

// Length is End - Start in days. A single-day period has length 0.
func (p Period) Length() int { return DaysBetween(p.Start, p.End) }

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Covers reports whether p fully contains other.
func (p Period) Covers(other Period) bool {
	return p.Start.BeforeOrEqual(other.Start) && p.End.AfterOrEqual(other.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
