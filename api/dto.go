/*
dto.go - Data Transfer Objects for the HTTP API

PURPOSE:
  Defines the JSON shapes of API requests and responses. Report bodies reuse
  payroll's DTOs (payroll.ReportDTO and friends) so the CLI --format json
  output and GET /api/report are identical.

CONVENTIONS:
  - Dates are YYYY-MM-DD strings
  - Costs are decimals rounded to cents, with the unrounded float alongside
  - snake_case JSON keys

SEE ALSO:
  - payroll/render.go: report DTOs
  - handlers.go: where these are produced
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-report/payroll"
)

// QuarterListDTO lists the quarters for which salary data exists.
type QuarterListDTO struct {
	Quarters []payroll.PeriodDTO `json:"quarters"`
}

// QuarterReportDTO is every department's cost for a single quarter.
type QuarterReportDTO struct {
	Quarter     payroll.PeriodDTO           `json:"quarter"`
	Departments []payroll.DepartmentCostDTO `json:"departments"`
	Total       decimal.Decimal             `json:"total"`
}

// DepartmentDetailDTO is one department's row of the cached report.
type DepartmentDetailDTO struct {
	RunID string `json:"run_id"`
	payroll.DepartmentDTO
}

// ScenarioDTO represents a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// HealthDTO is the /healthz body.
type HealthDTO struct {
	Status string `json:"status"`
	Driver string `json:"driver"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
