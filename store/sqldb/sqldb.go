/*
Package sqldb provides a database/sql implementation of generic.Gateway.

PURPOSE:
  Reads salary data from an employees-style relational schema. The same
  queries run on SQLite (local/demo/tests), PostgreSQL and MySQL; only the
  placeholder syntax and date parameter encoding differ per driver.

KEY TABLES:
  salaries:    emp_no, salary, from_date, to_date (to_date 9999-01-01 = active)
  dept_emp:    emp_no, dept_no, from_date, to_date
  departments: dept_no, dept_name

QUERIES:
  EarliestSalaryStartDate: first from_date
  LatestSalaryEndDate:     last to_date that is not the sentinel
  SalariesIntersecting:    salaries joined to dept_emp, filtered by the
                           generic.Gateway intersection predicate
  DepartmentName:          dept_name by dept_no

ERRORS:
  Every driver failure is wrapped in generic.StoreError. An empty salaries
  table yields generic.ErrNoSalaryData. An unknown department is found=false.

CONCURRENCY:
  database/sql pools connections, so the Store is safe for concurrent use.
  SQLite is pinned to a single connection: ":memory:" databases are
  per-connection and writers must not interleave.

USAGE:
  store, err := sqldb.Open(ctx, sqldb.DriverPostgres, "postgres://...")
  if err != nil {
      return err
  }
  defer store.Close()

  report, err := payroll.NewDriver(store).GenerateReport(ctx)

SEE ALSO:
  - generic/store.go: Gateway contract
  - schema.go: SQLite schema
  - seed.go: demo dataset
*/
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/logger"
)

// Store implements generic.Gateway over database/sql.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open connects to an existing database and verifies the connection.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	if err := driver.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, generic.NewStoreError("open", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, generic.NewStoreError("connect", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// New opens (or creates) a SQLite database and migrates its schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver reports which database driver backs the store.
func (s *Store) Driver() Driver {
	return s.driver
}

// Ping checks the connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return generic.NewStoreError("ping", s.db.PingContext(ctx))
}

// =============================================================================
// GATEWAY (generic.Gateway interface)
// =============================================================================

// EarliestSalaryStartDate returns the first salary from_date.
func (s *Store) EarliestSalaryStartDate(ctx context.Context) (generic.TimePoint, error) {
	query := `SELECT from_date FROM salaries ORDER BY from_date ASC LIMIT 1`
	return s.queryDate(ctx, "earliest_salary_start", query)
}

// LatestSalaryEndDate returns the last salary to_date, skipping the "active" sentinel.
func (s *Store) LatestSalaryEndDate(ctx context.Context) (generic.TimePoint, error) {
	query := `SELECT to_date FROM salaries WHERE to_date <> ? ORDER BY to_date DESC LIMIT 1`
	return s.queryDate(ctx, "latest_salary_end", query, s.dateArg(generic.SentinelEndDate))
}

func (s *Store) queryDate(ctx context.Context, op, query string, args ...any) (generic.TimePoint, error) {
	defer s.trace(op, time.Now())

	var d dateValue
	err := s.db.QueryRowContext(ctx, s.driver.Rebind(query), args...).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.TimePoint{}, generic.ErrNoSalaryData
	}
	if err != nil {
		return generic.TimePoint{}, generic.NewStoreError(op, err)
	}
	return d.TimePoint, nil
}

// SalariesIntersecting returns every salary (with its department) matching
// the gateway intersection predicate for q.
func (s *Store) SalariesIntersecting(ctx context.Context, q generic.Period) ([]generic.SalaryRecord, error) {
	const op = "salaries_intersecting"
	defer s.trace(op, time.Now())

	query := `
		SELECT s.salary, de.dept_no, s.from_date, s.to_date
		FROM salaries s
		JOIN dept_emp de ON s.emp_no = de.emp_no
		WHERE (s.from_date < ? AND s.to_date > ?)
		   OR (s.from_date > ? AND s.from_date < ?)
		ORDER BY s.from_date ASC, s.emp_no ASC, de.dept_no ASC
	`
	start, end := s.dateArg(q.Start), s.dateArg(q.End)

	rows, err := s.db.QueryContext(ctx, s.driver.Rebind(query), start, start, start, end)
	if err != nil {
		return nil, generic.NewStoreError(op, err)
	}
	defer rows.Close()

	var records []generic.SalaryRecord
	for rows.Next() {
		var (
			rec      generic.SalaryRecord
			dept     string
			from, to dateValue
		)
		if err := rows.Scan(&rec.Amount, &dept, &from, &to); err != nil {
			return nil, generic.NewStoreError(op, fmt.Errorf("failed to scan salary: %w", err))
		}
		validity, err := generic.NewPeriod(from.Time, to.Time)
		if err != nil {
			return nil, fmt.Errorf("salary row for %s: %w", dept, err)
		}
		rec.Department = generic.DepartmentCode(dept)
		rec.Validity = validity
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, generic.NewStoreError(op, err)
	}
	return records, nil
}

// DepartmentName resolves a department code. Unknown codes are not an error.
func (s *Store) DepartmentName(ctx context.Context, code generic.DepartmentCode) (string, bool, error) {
	const op = "department_name"
	defer s.trace(op, time.Now())

	var name string
	err := s.db.QueryRowContext(ctx,
		s.driver.Rebind("SELECT dept_name FROM departments WHERE dept_no = ?"),
		string(code),
	).Scan(&name)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, generic.NewStoreError(op, err)
	}
	return name, true, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// dateArg encodes a date parameter. SQLite stores dates as YYYY-MM-DD text
// and compares them lexically, so it gets the canonical string.
func (s *Store) dateArg(tp generic.TimePoint) any {
	if s.driver == DriverSQLite {
		return tp.String()
	}
	return tp.Time
}

func (s *Store) trace(op string, started time.Time) {
	logger.Named("sqldb").Debug().
		Str("op", op).
		Str("driver", string(s.driver)).
		Dur("elapsed", time.Since(started)).
		Msg("query")
}

// dateValue scans DATE columns from any supported driver: time.Time (pgx,
// mysql with parseTime, sqlite3 on DATE columns) or YYYY-MM-DD text.
type dateValue struct {
	generic.TimePoint
}

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.TimePoint = generic.FromTime(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		return errors.New("unexpected NULL date")
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
}

func (d *dateValue) parse(s string) error {
	if len(s) > len(generic.DateLayout) {
		s = s[:len(generic.DateLayout)]
	}
	tp, err := generic.ParseTimePoint(s)
	if err != nil {
		return err
	}
	d.TimePoint = tp
	return nil
}
