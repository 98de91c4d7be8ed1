/*
scenarios.go - Demo datasets for testing and demonstrations

PURPOSE:

	Provides pre-built employees datasets that replace the database contents
	so the report can be explored without a production database.

AVAILABLE SCENARIOS:

	demo:               Six employees, four departments, 1985-1991
	single-quarter:     Two salaries inside Q1 1990
	unknown-department: Salaries for a department with no name row
	empty:              No salary data (report endpoints return 404)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Insert the scenario's dataset in one transaction
 3. Drop the cached report so the next request regenerates it

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "demo"}

ADDING NEW SCENARIOS:
 1. Add an entry to 'scenarios' with its DTO and dataset builder

NOTE:

	Scenarios reset the database and require SQLite. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: report endpoints
  - store/sqldb/seed.go: Dataset and DemoDataset
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/logger"
	"github.com/warp/payroll-report/store/sqldb"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	dataset func() sqldb.Dataset
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "demo",
			Name:        "Demo Company",
			Description: "Six employees in four departments from 1985 to 1991, including a department move",
		},
		dataset: sqldb.DemoDataset,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "single-quarter",
			Name:        "Single Quarter",
			Description: "Two salaries starting inside Q1 1990, one ending before the quarter does",
		},
		dataset: singleQuarterDataset,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "unknown-department",
			Name:        "Unknown Department",
			Description: "Salaries booked to a department code missing from the departments table",
		},
		dataset: unknownDepartmentDataset,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "empty",
			Name:        "Empty",
			Description: "Departments but no salaries",
		},
		dataset: func() sqldb.Dataset {
			return sqldb.Dataset{Departments: []sqldb.Department{{Code: "d001", Name: "Marketing"}}}
		},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, s.ScenarioDTO)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s.ScenarioDTO)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the database contents with a predefined dataset.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	err := h.rewrite(s.ID, func() error {
		return h.Store.Replace(r.Context(), s.dataset())
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	logger.Named("api").Info().Str("scenario", s.ID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": s.ID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	err := h.rewrite("", func() error {
		return h.Store.Reset(r.Context())
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// DATASETS
// =============================================================================

func employee(no int64, first, last, hired string) sqldb.Employee {
	return sqldb.Employee{No: no, FirstName: first, LastName: last, HireDate: generic.MustParseTimePoint(hired)}
}

func singleQuarterDataset() sqldb.Dataset {
	p := generic.MustParsePeriod
	return sqldb.Dataset{
		Departments: []sqldb.Department{
			{Code: "d001", Name: "Marketing"},
			{Code: "d002", Name: "Finance"},
		},
		Employees: []sqldb.Employee{
			employee(1, "Ada", "Byron", "1990-01-02"),
			employee(2, "Alan", "Turing", "1990-02-01"),
		},
		Memberships: []sqldb.Membership{
			{EmpNo: 1, Department: "d001", Validity: p("1990-01-02", "1990-03-31")},
			{EmpNo: 2, Department: "d002", Validity: p("1990-02-01", "1990-03-31")},
		},
		Salaries: []sqldb.Salary{
			{EmpNo: 1, Amount: 100000, Validity: p("1990-01-02", "1990-02-01")},
			{EmpNo: 2, Amount: 100000, Validity: p("1990-02-01", "1990-03-31")},
		},
	}
}

func unknownDepartmentDataset() sqldb.Dataset {
	p := generic.MustParsePeriod
	return sqldb.Dataset{
		Departments: []sqldb.Department{{Code: "d001", Name: "Marketing"}},
		Employees: []sqldb.Employee{
			employee(1, "Grace", "Hopper", "1989-11-01"),
			employee(2, "Edsger", "Dijkstra", "1989-11-01"),
		},
		Memberships: []sqldb.Membership{
			{EmpNo: 1, Department: "d001", Validity: p("1989-11-01", "1991-01-01")},
			{EmpNo: 2, Department: "d404", Validity: p("1989-11-01", "1991-01-01")},
		},
		Salaries: []sqldb.Salary{
			{EmpNo: 1, Amount: 60000, Validity: p("1989-11-01", "1990-06-01")},
			{EmpNo: 2, Amount: 72000, Validity: p("1989-11-01", "1990-06-01")},
		},
	}
}
