/*
Package generic provides the date arithmetic and data contracts of the
quarterly salary cost report.

PURPOSE:
  Everything in here is storage-agnostic and side-effect free. The payroll
  package orchestrates it against a Gateway; store packages implement the
  Gateway.

KEY CONCEPTS:
  - TimePoint:    a calendar date (time.go)
  - Period:       a closed date interval (period.go)
  - Quarters:     contiguous calendar-quarter partitioning (quarter.go)
  - Overlap:      pro-ration fraction of one period over another (overlap.go)
  - SalaryRecord: one salary row joined with its department (this file)
  - Gateway:      read-only store contract (store.go)

SEE ALSO:
  - payroll/: aggregation and report driver
  - store/sqldb: SQL Gateway
  - generic/store: in-memory Gateway
*/
package generic

// =============================================================================
// IDENTIFIERS
// =============================================================================

// DepartmentCode identifies a department, e.g. "d001".
type DepartmentCode string

// QuartersPerSalary is how many quarters a stored salary amount pays for.
const QuartersPerSalary = 4

// SentinelEndDate marks a salary that is still in effect. It is never a real
// end date and is excluded from the latest-record query.
var SentinelEndDate = NewTimePoint(9999, 1, 1)

// =============================================================================
// SALARY RECORD
// =============================================================================

// SalaryRecord is a salary row as seen by the report: amount, department and
// the period the amount was in effect.
type SalaryRecord struct {
	Amount     int64
	Department DepartmentCode
	Validity   Period
}

// PerQuarter is the salary attributable to one full quarter. Amounts are
// integers in the store, so this is integer division.
func (r SalaryRecord) PerQuarter() int64 {
	return r.Amount / QuartersPerSalary
}
