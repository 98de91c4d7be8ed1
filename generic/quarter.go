package generic

import "time"

// =============================================================================
// QUARTERS - Calendar-quarter partitioning
// =============================================================================

// quarterStart maps a month to the first month of its quarter.
func quarterStart(m int) int {
	return ((m-1)/3)*3 + 1
}

// quarterEndDay is 31 for quarters ending in March and December, 30 otherwise.
func quarterEndDay(startMonth int) int {
	if startMonth == 1 || startMonth == 10 {
		return 31
	}
	return 30
}

func quarterPeriod(year, startMonth int) Period {
	return Period{
		Start: NewTimePoint(year, time.Month(startMonth), 1),
		End:   NewTimePoint(year, time.Month(startMonth+2), quarterEndDay(startMonth)),
	}
}

// QuarterContaining returns the calendar quarter that contains t.
func QuarterContaining(t TimePoint) Period {
	return quarterPeriod(t.Year(), quarterStart(int(t.Month())))
}

// Quarters returns the ordered calendar quarters from the one containing
// oldest through the one containing newest. The result is empty when newest
// lies in an earlier quarter than oldest.
func Quarters(oldest, newest TimePoint) []Period {
	year, month := oldest.Year(), int(oldest.Month())

	var quarters []Period
	for {
		if month > 12 {
			month = 1
			year++
		} else {
			month = quarterStart(month)
		}

		if (year == newest.Year() && month > int(newest.Month())) || year > newest.Year() {
			break
		}

		quarters = append(quarters, quarterPeriod(year, month))
		month += 3
	}
	return quarters
}
