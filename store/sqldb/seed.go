package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/payroll-report/generic"
)

// =============================================================================
// RECORDS
// =============================================================================

// Department is a row of the departments table.
type Department struct {
	Code generic.DepartmentCode
	Name string
}

// Employee is a row of the employees table.
type Employee struct {
	No        int64
	FirstName string
	LastName  string
	Gender    string
	BirthDate generic.TimePoint
	HireDate  generic.TimePoint
}

// Membership places an employee in a department.
type Membership struct {
	EmpNo      int64
	Department generic.DepartmentCode
	Validity   generic.Period
}

// Salary is a row of the salaries table.
type Salary struct {
	EmpNo    int64
	Amount   int64
	Validity generic.Period
}

// Dataset is a complete set of rows to load into an empty schema.
type Dataset struct {
	Departments []Department
	Employees   []Employee
	Memberships []Membership
	Salaries    []Salary
}

// =============================================================================
// WRITES (SQLite only)
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	if err := s.requireSQLite("reset"); err != nil {
		return err
	}
	return s.inTx(ctx, "reset", func(tx *sql.Tx) error {
		return clearTables(ctx, tx)
	})
}

// Load inserts ds in a single transaction.
func (s *Store) Load(ctx context.Context, ds Dataset) error {
	if err := s.requireSQLite("load"); err != nil {
		return err
	}
	return s.inTx(ctx, "load", func(tx *sql.Tx) error {
		return insertDataset(ctx, tx, ds)
	})
}

// Replace clears the database and loads ds in one transaction, so readers
// see either the old rows or the new ones.
func (s *Store) Replace(ctx context.Context, ds Dataset) error {
	if err := s.requireSQLite("replace"); err != nil {
		return err
	}
	return s.inTx(ctx, "replace", func(tx *sql.Tx) error {
		if err := clearTables(ctx, tx); err != nil {
			return err
		}
		return insertDataset(ctx, tx, ds)
	})
}

func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return generic.NewStoreError(op, err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return generic.NewStoreError(op, err)
	}
	return nil
}

func clearTables(ctx context.Context, db execer) error {
	// children first
	tables := []string{"salaries", "dept_emp", "employees", "departments"}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return generic.NewStoreError("reset", fmt.Errorf("failed to clear %s: %w", table, err))
		}
	}
	return nil
}

func insertDataset(ctx context.Context, db execer, ds Dataset) error {
	for _, d := range ds.Departments {
		if err := saveDepartment(ctx, db, d); err != nil {
			return err
		}
	}
	for _, e := range ds.Employees {
		if err := saveEmployee(ctx, db, e); err != nil {
			return err
		}
	}
	for _, m := range ds.Memberships {
		if err := saveMembership(ctx, db, m); err != nil {
			return err
		}
	}
	for _, sal := range ds.Salaries {
		if err := saveSalary(ctx, db, sal); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveDepartment(ctx context.Context, db execer, d Department) error {
	query := `
		INSERT INTO departments (dept_no, dept_name)
		VALUES (?, ?)
		ON CONFLICT(dept_no) DO UPDATE SET dept_name = excluded.dept_name
	`
	if _, err := db.ExecContext(ctx, query, string(d.Code), d.Name); err != nil {
		return fmt.Errorf("failed to save department %s: %w", d.Code, err)
	}
	return nil
}

func saveEmployee(ctx context.Context, db execer, e Employee) error {
	query := `
		INSERT INTO employees (emp_no, birth_date, first_name, last_name, gender, hire_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(emp_no) DO UPDATE SET
			birth_date = excluded.birth_date,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			gender = excluded.gender,
			hire_date = excluded.hire_date
	`
	_, err := db.ExecContext(ctx, query,
		e.No, nullDate(e.BirthDate), e.FirstName, e.LastName, nullString(e.Gender), e.HireDate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %d: %w", e.No, err)
	}
	return nil
}

func saveMembership(ctx context.Context, db execer, m Membership) error {
	query := `
		INSERT INTO dept_emp (emp_no, dept_no, from_date, to_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(emp_no, dept_no) DO UPDATE SET
			from_date = excluded.from_date,
			to_date = excluded.to_date
	`
	_, err := db.ExecContext(ctx, query, m.EmpNo, string(m.Department), m.Validity.StartString(), m.Validity.EndString())
	if err != nil {
		return fmt.Errorf("failed to save membership %d/%s: %w", m.EmpNo, m.Department, err)
	}
	return nil
}

func saveSalary(ctx context.Context, db execer, sal Salary) error {
	query := `
		INSERT INTO salaries (emp_no, salary, from_date, to_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(emp_no, from_date) DO UPDATE SET
			salary = excluded.salary,
			to_date = excluded.to_date
	`
	_, err := db.ExecContext(ctx, query, sal.EmpNo, sal.Amount, sal.Validity.StartString(), sal.Validity.EndString())
	if err != nil {
		return fmt.Errorf("failed to save salary %d@%s: %w", sal.EmpNo, sal.Validity.StartString(), err)
	}
	return nil
}

func (s *Store) requireSQLite(op string) error {
	if s.driver != DriverSQLite {
		return fmt.Errorf("%s: writes are only supported on %s databases, not %s", op, DriverSQLite, s.driver)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(tp generic.TimePoint) sql.NullString {
	if tp.IsZero() {
		return sql.NullString{}
	}
	return nullString(tp.String())
}

// =============================================================================
// DEMO DATA
// =============================================================================

// DemoDataset is a small employees database spanning 1985 to 1991: six
// employees across four departments, one department move, one employee
// without a department, and current salaries ending at the 9999-01-01 sentinel.
func DemoDataset() Dataset {
	d := generic.MustParseTimePoint
	p := generic.MustParsePeriod
	active := func(from string) generic.Period {
		return generic.Period{Start: d(from), End: generic.SentinelEndDate}
	}

	return Dataset{
		Departments: []Department{
			{Code: "d001", Name: "Marketing"},
			{Code: "d002", Name: "Finance"},
			{Code: "d003", Name: "Human Resources"},
			{Code: "d005", Name: "Development"},
		},
		Employees: []Employee{
			{No: 10001, FirstName: "Georgi", LastName: "Facello", Gender: "M", BirthDate: d("1953-09-02"), HireDate: d("1985-06-26")},
			{No: 10002, FirstName: "Bezalel", LastName: "Simmel", Gender: "F", BirthDate: d("1964-06-02"), HireDate: d("1985-11-21")},
			{No: 10003, FirstName: "Parto", LastName: "Bamford", Gender: "M", BirthDate: d("1959-12-03"), HireDate: d("1986-08-28")},
			{No: 10004, FirstName: "Chirstian", LastName: "Koblick", Gender: "M", BirthDate: d("1954-05-01"), HireDate: d("1986-12-01")},
			{No: 10005, FirstName: "Kyoichi", LastName: "Maliniak", Gender: "M", BirthDate: d("1955-01-21"), HireDate: d("1989-09-12")},
			{No: 10006, FirstName: "Anneke", LastName: "Preusig", Gender: "F", BirthDate: d("1953-04-20"), HireDate: d("1989-06-02")},
		},
		Memberships: []Membership{
			{EmpNo: 10001, Department: "d005", Validity: active("1985-06-26")},
			{EmpNo: 10002, Department: "d001", Validity: active("1985-11-21")},
			{EmpNo: 10003, Department: "d003", Validity: active("1986-08-28")},
			// moved from Finance to Development; both rows join every salary
			{EmpNo: 10004, Department: "d002", Validity: p("1986-12-01", "1988-06-30")},
			{EmpNo: 10004, Department: "d005", Validity: active("1988-06-30")},
			{EmpNo: 10005, Department: "d003", Validity: active("1989-09-12")},
			// 10006 has no department and contributes nothing
		},
		Salaries: []Salary{
			{EmpNo: 10001, Amount: 60117, Validity: p("1986-06-26", "1987-06-26")},
			{EmpNo: 10001, Amount: 62102, Validity: p("1987-06-26", "1988-06-25")},
			{EmpNo: 10001, Amount: 66074, Validity: p("1988-06-25", "1989-06-25")},
			{EmpNo: 10001, Amount: 66596, Validity: p("1989-06-25", "1990-06-25")},
			{EmpNo: 10001, Amount: 66961, Validity: active("1990-06-25")},
			{EmpNo: 10002, Amount: 65828, Validity: p("1985-11-21", "1986-11-21")},
			{EmpNo: 10002, Amount: 65909, Validity: p("1986-11-21", "1987-11-21")},
			{EmpNo: 10002, Amount: 67534, Validity: active("1987-11-21")},
			{EmpNo: 10003, Amount: 40006, Validity: p("1986-08-28", "1987-08-28")},
			{EmpNo: 10003, Amount: 43616, Validity: p("1987-08-28", "1988-08-27")},
			{EmpNo: 10003, Amount: 43466, Validity: p("1988-08-27", "1991-03-15")},
			{EmpNo: 10004, Amount: 40054, Validity: p("1986-12-01", "1987-12-01")},
			{EmpNo: 10004, Amount: 42283, Validity: p("1987-12-01", "1988-11-30")},
			{EmpNo: 10004, Amount: 42542, Validity: active("1988-11-30")},
			{EmpNo: 10005, Amount: 78228, Validity: p("1989-09-12", "1990-09-12")},
			{EmpNo: 10005, Amount: 82621, Validity: active("1990-09-12")},
			{EmpNo: 10006, Amount: 40000, Validity: p("1989-06-02", "1990-06-02")},
		},
	}
}
