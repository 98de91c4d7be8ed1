/*
store.go - Read-only gateway to salary data

PURPOSE:
  Defines the interface between the report logic and the database. The report
  never writes; it needs three range queries and one lookup.

INTERSECTION PREDICATE:
  SalariesIntersecting returns the records matching

    (from < q.Start AND to > q.Start) OR (from > q.Start AND from < q.End)

  A record that starts exactly on q.Start is not returned. Implementations
  must apply this predicate verbatim so that SQL and in-memory stores agree.

IMPLEMENTATIONS:
  - store/sqldb: SQLite / PostgreSQL / MySQL via database/sql
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - payroll/aggregator.go: consumes SalariesIntersecting
  - payroll/partitioner.go: consumes the earliest/latest queries
*/
package generic

import "context"

// =============================================================================
// GATEWAY - Interface for salary data access
// =============================================================================

// Gateway exposes the salary store to the report.
type Gateway interface {
	// EarliestSalaryStartDate returns the minimum from_date over all salaries.
	EarliestSalaryStartDate(ctx context.Context) (TimePoint, error)

	// LatestSalaryEndDate returns the maximum to_date over all salaries,
	// ignoring SentinelEndDate.
	LatestSalaryEndDate(ctx context.Context) (TimePoint, error)

	// SalariesIntersecting returns salaries matching the intersection predicate.
	SalariesIntersecting(ctx context.Context, q Period) ([]SalaryRecord, error)

	// DepartmentName resolves a code. Unknown codes return found=false, nil error.
	DepartmentName(ctx context.Context, code DepartmentCode) (name string, found bool, err error)
}

// Intersects applies the gateway intersection predicate to a validity period.
func Intersects(validity, q Period) bool {
	return (validity.Start.Before(q.Start) && validity.End.After(q.Start)) ||
		(validity.Start.After(q.Start) && validity.Start.Before(q.End))
}
