/*
Package factory provides JSON to Go employees-dataset conversion.

PURPOSE:
  Converts JSON dataset definitions into sqldb.Dataset values that can be
  loaded into a SQLite database. Lets a dataset be written by hand, kept in
  version control, and seeded with `payroll-report seed --from file.json`.

JSON SCHEMA:
  {
    "departments": [
      {"code": "d001", "name": "Marketing"}
    ],
    "employees": [
      {
        "emp_no": 10001,
        "first_name": "Georgi",
        "last_name": "Facello",
        "gender": "M",
        "birth_date": "1953-09-02",
        "hire_date": "1985-06-26",
        "departments": [
          {"code": "d001", "from": "1985-06-26"}
        ],
        "salaries": [
          {"amount": 60117, "from": "1986-06-26", "to": "1987-06-26"},
          {"amount": 62102, "from": "1987-06-26"}
        ]
      }
    ]
  }

KEY FEATURES:
  - Validates JSON structure (required fields, positive amounts)
  - A missing "to" means current: the 9999-01-01 sentinel
  - Rejects periods that end before they start
  - ToJSON round-trips a Dataset (used to export the demo data)

USAGE:
  f := NewDatasetFactory()
  ds, err := f.ParseDataset(jsonString)
  err = store.Replace(ctx, ds)

SEE ALSO:
  - store/sqldb/seed.go: Dataset, DemoDataset
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/store/sqldb"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// DatasetJSON is the JSON representation of a dataset.
type DatasetJSON struct {
	Departments []DepartmentJSON `json:"departments" validate:"dive"`
	Employees   []EmployeeJSON   `json:"employees" validate:"dive"`
}

// DepartmentJSON is one department.
type DepartmentJSON struct {
	Code string `json:"code" validate:"required,max=4"`
	Name string `json:"name" validate:"required"`
}

// EmployeeJSON is one employee with their department history and salaries.
type EmployeeJSON struct {
	No          int64            `json:"emp_no" validate:"required,gt=0"`
	FirstName   string           `json:"first_name" validate:"required"`
	LastName    string           `json:"last_name" validate:"required"`
	Gender      string           `json:"gender,omitempty" validate:"omitempty,oneof=M F"`
	BirthDate   string           `json:"birth_date,omitempty"`
	HireDate    string           `json:"hire_date" validate:"required"`
	Departments []MembershipJSON `json:"departments" validate:"dive"`
	Salaries    []SalaryJSON     `json:"salaries" validate:"dive"`
}

// MembershipJSON places the enclosing employee in a department.
type MembershipJSON struct {
	Code string `json:"code" validate:"required"`
	From string `json:"from" validate:"required"`
	To   string `json:"to,omitempty"`
}

// SalaryJSON is one salary of the enclosing employee.
type SalaryJSON struct {
	Amount int64  `json:"amount" validate:"gt=0"`
	From   string `json:"from" validate:"required"`
	To     string `json:"to,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// DatasetFactory converts between DatasetJSON and sqldb.Dataset.
type DatasetFactory struct {
	validate *validator.Validate
}

// NewDatasetFactory creates a new dataset factory.
func NewDatasetFactory() *DatasetFactory {
	return &DatasetFactory{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ParseDataset parses a JSON string into a Dataset.
func (f *DatasetFactory) ParseDataset(jsonStr string) (sqldb.Dataset, error) {
	var dj DatasetJSON
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dj); err != nil {
		return sqldb.Dataset{}, fmt.Errorf("invalid dataset JSON: %w", err)
	}
	return f.FromJSON(dj)
}

// FromJSON validates dj and converts it into a Dataset.
func (f *DatasetFactory) FromJSON(dj DatasetJSON) (sqldb.Dataset, error) {
	if err := f.validate.Struct(dj); err != nil {
		return sqldb.Dataset{}, fmt.Errorf("invalid dataset: %w", err)
	}

	var ds sqldb.Dataset
	for _, d := range dj.Departments {
		ds.Departments = append(ds.Departments, sqldb.Department{Code: generic.DepartmentCode(d.Code), Name: d.Name})
	}

	for _, ej := range dj.Employees {
		emp, err := parseEmployee(ej)
		if err != nil {
			return sqldb.Dataset{}, err
		}
		ds.Employees = append(ds.Employees, emp)

		for _, mj := range ej.Departments {
			validity, err := parseValidity(mj.From, mj.To)
			if err != nil {
				return sqldb.Dataset{}, fmt.Errorf("employee %d department %s: %w", ej.No, mj.Code, err)
			}
			ds.Memberships = append(ds.Memberships, sqldb.Membership{
				EmpNo:      ej.No,
				Department: generic.DepartmentCode(mj.Code),
				Validity:   validity,
			})
		}

		for _, sj := range ej.Salaries {
			validity, err := parseValidity(sj.From, sj.To)
			if err != nil {
				return sqldb.Dataset{}, fmt.Errorf("employee %d salary from %s: %w", ej.No, sj.From, err)
			}
			ds.Salaries = append(ds.Salaries, sqldb.Salary{EmpNo: ej.No, Amount: sj.Amount, Validity: validity})
		}
	}
	return ds, nil
}

// ToJSON converts a Dataset back to its JSON representation. Memberships and
// salaries are nested under their employee; rows for unknown employees are dropped.
func (f *DatasetFactory) ToJSON(ds sqldb.Dataset) DatasetJSON {
	dj := DatasetJSON{
		Departments: make([]DepartmentJSON, 0, len(ds.Departments)),
		Employees:   make([]EmployeeJSON, 0, len(ds.Employees)),
	}
	for _, d := range ds.Departments {
		dj.Departments = append(dj.Departments, DepartmentJSON{Code: string(d.Code), Name: d.Name})
	}

	index := make(map[int64]int, len(ds.Employees))
	for _, e := range ds.Employees {
		ej := EmployeeJSON{
			No:        e.No,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Gender:    e.Gender,
			HireDate:  e.HireDate.String(),
		}
		if !e.BirthDate.IsZero() {
			ej.BirthDate = e.BirthDate.String()
		}
		index[e.No] = len(dj.Employees)
		dj.Employees = append(dj.Employees, ej)
	}

	for _, m := range ds.Memberships {
		if i, ok := index[m.EmpNo]; ok {
			from, to := formatValidity(m.Validity)
			dj.Employees[i].Departments = append(dj.Employees[i].Departments,
				MembershipJSON{Code: string(m.Department), From: from, To: to})
		}
	}
	for _, s := range ds.Salaries {
		if i, ok := index[s.EmpNo]; ok {
			from, to := formatValidity(s.Validity)
			dj.Employees[i].Salaries = append(dj.Employees[i].Salaries,
				SalaryJSON{Amount: s.Amount, From: from, To: to})
		}
	}
	return dj
}

// =============================================================================
// PARSERS
// =============================================================================

func parseEmployee(ej EmployeeJSON) (sqldb.Employee, error) {
	hired, err := generic.ParseTimePoint(ej.HireDate)
	if err != nil {
		return sqldb.Employee{}, fmt.Errorf("employee %d hire_date: %w", ej.No, err)
	}
	emp := sqldb.Employee{
		No:        ej.No,
		FirstName: ej.FirstName,
		LastName:  ej.LastName,
		Gender:    ej.Gender,
		HireDate:  hired,
	}
	if ej.BirthDate != "" {
		if emp.BirthDate, err = generic.ParseTimePoint(ej.BirthDate); err != nil {
			return sqldb.Employee{}, fmt.Errorf("employee %d birth_date: %w", ej.No, err)
		}
	}
	return emp, nil
}

// parseValidity treats an empty end as the "current" sentinel.
func parseValidity(from, to string) (generic.Period, error) {
	if to == "" {
		to = generic.SentinelEndDate.String()
	}
	return generic.ParsePeriod(from, to)
}

func formatValidity(p generic.Period) (string, string) {
	if p.End.Equal(generic.SentinelEndDate) {
		return p.StartString(), ""
	}
	return p.StartString(), p.EndString()
}
