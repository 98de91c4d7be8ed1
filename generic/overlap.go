package generic

// =============================================================================
// OVERLAP - Pro-ration of a record period over a reference period
// =============================================================================

// OverlapFraction returns the share of ref's length covered by record, in
// days. It assumes the two periods intersect; the gateway predicate guarantees
// that for every record the aggregator sees.
//
//	record starts before ref, ends after  -> 1
//	record starts before ref, ends inside -> (record.End - ref.Start) / len(ref)
//	record starts inside ref, ends after  -> (ref.End - record.Start) / len(ref)
//	record inside ref                     -> len(record) / len(ref)
func OverlapFraction(record, ref Period) (float64, error) {
	refLength := ref.Length()
	if refLength == 0 {
		return 0, ErrDegeneratePeriod
	}

	var overlap int
	if record.Start.Before(ref.Start) {
		if record.End.After(ref.End) {
			overlap = refLength
		} else {
			overlap = DaysBetween(ref.Start, record.End)
		}
	} else {
		if record.End.After(ref.End) {
			overlap = DaysBetween(record.Start, ref.End)
		} else {
			overlap = DaysBetween(record.Start, record.End)
		}
	}
	return float64(overlap) / float64(refLength), nil
}
