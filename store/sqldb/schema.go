package sqldb

import (
	"context"
	"fmt"
)

// migrate creates the employees schema. SQLite only; other databases are
// expected to be provisioned already.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS departments (
		dept_no TEXT PRIMARY KEY,
		dept_name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS employees (
		emp_no INTEGER PRIMARY KEY,
		birth_date DATE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		gender TEXT,
		hire_date DATE NOT NULL
	);

	-- Department membership; an employee may move between departments.
	-- dept_no may name a department that has no departments row.
	CREATE TABLE IF NOT EXISTS dept_emp (
		emp_no INTEGER NOT NULL REFERENCES employees(emp_no) ON DELETE CASCADE,
		dept_no TEXT NOT NULL,
		from_date DATE NOT NULL,
		to_date DATE NOT NULL,
		PRIMARY KEY (emp_no, dept_no)
	);

	-- Salary history; to_date 9999-01-01 marks the current salary
	CREATE TABLE IF NOT EXISTS salaries (
		emp_no INTEGER NOT NULL REFERENCES employees(emp_no) ON DELETE CASCADE,
		salary INTEGER NOT NULL,
		from_date DATE NOT NULL,
		to_date DATE NOT NULL,
		PRIMARY KEY (emp_no, from_date)
	);

	CREATE INDEX IF NOT EXISTS idx_salaries_from_date ON salaries(from_date);
	CREATE INDEX IF NOT EXISTS idx_salaries_to_date ON salaries(to_date);
	CREATE INDEX IF NOT EXISTS idx_dept_emp_emp_no ON dept_emp(emp_no);
	`

	if s.driver != DriverSQLite {
		return fmt.Errorf("schema migration is only supported on %s, not %s", DriverSQLite, s.driver)
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
