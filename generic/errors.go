/*
errors.go - Centralized error types for the report engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these with context and test for them with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Input errors   - malformed dates, inverted periods
  2. Math errors    - zero-length reference period in overlap computation
  3. Store errors   - any failure reaching or querying the backing store

LOOKUP MISSES:
  An unknown department code is NOT an error. Gateway.DepartmentName reports
  it with found=false and the report renders an unknown name.

SEE ALSO:
  - period.go: ParsePeriod returns ParseError / ErrInvalidPeriod
  - overlap.go: OverlapFraction returns ErrDegeneratePeriod
  - store/sqldb: wraps driver failures in StoreError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrParse is returned when a date string is not in YYYY-MM-DD form.
	ErrParse = errors.New("malformed date")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrDegeneratePeriod is returned when a zero-length period is used as
	// the reference of an overlap fraction.
	ErrDegeneratePeriod = errors.New("degenerate period: zero length")

	// ErrStoreConnection is returned for any failure reaching or querying the store.
	ErrStoreConnection = errors.New("store connection failed")

	// ErrNoSalaryData is returned when the store holds no usable salary rows.
	ErrNoSalaryData = errors.New("no salary data")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParseError provides details about a rejected date string.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed date %q: expected YYYY-MM-DD", e.Value)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// StoreError records which gateway operation failed.
type StoreError struct {
	Op  string // e.g. "earliest_salary_start", "salaries_intersecting"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreConnection, e.Err}
}

// NewStoreError wraps err for op. A nil err stays nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsParseError returns true if the error came from rejecting a date string.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsStoreError returns true if the error came from the backing store.
func IsStoreError(err error) bool {
	return errors.Is(err, ErrStoreConnection)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDegeneratePeriod)
}
