/*
handlers.go - HTTP API handlers for the salary cost report

PURPOSE:
  Exposes the quarterly department cost report over REST. Handles HTTP
  request/response and JSON serialization, and delegates to payroll.

ENDPOINTS:
  Report:
    GET    /api/report                 Latest report (?refresh=true regenerates,
                                       ?format=text returns the plain-text form)
    GET    /api/quarters               Quarters with salary data
    GET    /api/quarters/{date}        Costs for the quarter containing date
    GET    /api/departments/{code}     One department from the latest report

  Scenarios:
    GET    /api/scenarios              List demo datasets
    GET    /api/scenarios/current      Currently loaded dataset
    POST   /api/scenarios/load         Replace the database with a dataset
    POST   /api/scenarios/reset        Clear the database

  Operations:
    GET    /healthz                    Database connectivity
    GET    /metrics                    Prometheus metrics

ARCHITECTURE:
  Handler holds:
  - Store: the SQL database (scenarios write to it, SQLite only)
  - Gateway: Store behind the metrics decorator; every report reads this
  - the latest report, refreshed by ReportRefresher or on demand

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed dates, unknown scenario
  - 404: No salary data, unknown department
  - 503: Database unreachable or query failed
  - 500: Anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo datasets
  - scheduler.go: Background report refresh
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/logger"
	"github.com/warp/payroll-report/metrics"
	"github.com/warp/payroll-report/payroll"
	"github.com/warp/payroll-report/store/sqldb"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqldb.Store
	Gateway generic.Gateway
	Metrics *metrics.Metrics

	// Parallelism is passed to every payroll.Driver the handler runs.
	Parallelism int

	// genMu serializes report runs and dataset rewrites; mu guards the fields below.
	genMu           sync.Mutex
	mu              sync.RWMutex
	latest          *payroll.Report
	currentScenario string
}

// NewHandler creates a handler reading store through m's instrumented gateway.
func NewHandler(store *sqldb.Store, m *metrics.Metrics) *Handler {
	return &Handler{
		Store:   store,
		Gateway: m.Instrument(store),
		Metrics: m,
	}
}

// Refresh generates a new report and makes it the latest.
func (h *Handler) Refresh(ctx context.Context) (*payroll.Report, error) {
	h.genMu.Lock()
	defer h.genMu.Unlock()

	driver := payroll.NewDriver(h.Gateway)
	driver.Parallelism = h.Parallelism

	started := time.Now()
	report, err := driver.GenerateReport(ctx)
	h.Metrics.ObserveReport(report, time.Since(started), err)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.latest = report
	h.mu.Unlock()
	return report, nil
}

// Latest returns the cached report, generating one if none exists yet.
func (h *Handler) Latest(ctx context.Context) (*payroll.Report, error) {
	h.mu.RLock()
	report := h.latest
	h.mu.RUnlock()
	if report != nil {
		return report, nil
	}
	return h.Refresh(ctx)
}

// rewrite runs write while no report is being generated, then drops the
// cached report and records scenario as the loaded dataset.
func (h *Handler) rewrite(scenario string, write func() error) error {
	h.genMu.Lock()
	defer h.genMu.Unlock()

	if err := write(); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = scenario
	h.latest = nil
	h.mu.Unlock()
	return nil
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport returns the latest report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	var (
		report *payroll.Report
		err    error
	)
	if r.URL.Query().Get("refresh") == "true" {
		report, err = h.Refresh(r.Context())
	} else {
		report, err = h.Latest(r.Context())
	}
	if err != nil {
		writeDomainError(w, "Failed to generate report", err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := payroll.RenderText(w, report); err != nil {
			logger.Named("api").Error().Err(err).Msg("failed to write text report")
		}
		return
	}
	writeJSON(w, http.StatusOK, report.ToDTO())
}

// ListQuarters returns every quarter between the earliest and latest salary dates.
func (h *Handler) ListQuarters(w http.ResponseWriter, r *http.Request) {
	quarters, err := payroll.NewPartitioner(h.Gateway).GenerateQuarters(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to compute quarters", err)
		return
	}

	dto := QuarterListDTO{Quarters: make([]payroll.PeriodDTO, 0, len(quarters))}
	for _, q := range quarters {
		dto.Quarters = append(dto.Quarters, payroll.NewPeriodDTO(q))
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetQuarter aggregates the calendar quarter containing the {date} path parameter.
func (h *Handler) GetQuarter(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseTimePoint(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	quarter := generic.QuarterContaining(date)
	costs, err := payroll.NewAggregator(h.Gateway).AggregateQuarter(r.Context(), quarter)
	if err != nil {
		writeDomainError(w, "Failed to aggregate quarter", err)
		return
	}

	dto := QuarterReportDTO{
		Quarter:     payroll.NewPeriodDTO(quarter),
		Departments: payroll.NewQuarterCostsDTO(costs),
		Total:       decimal.Zero,
	}
	for _, d := range dto.Departments {
		dto.Total = dto.Total.Add(d.Cost)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetDepartment returns one department from the latest report.
func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	code := generic.DepartmentCode(chi.URLParam(r, "code"))

	report, err := h.Latest(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to generate report", err)
		return
	}

	dto := report.ToDTO()
	for _, d := range dto.Departments {
		if d.Code == string(code) {
			writeJSON(w, http.StatusOK, DepartmentDetailDTO{RunID: dto.RunID, DepartmentDTO: d})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Department has no salary cost in the report", nil)
}

// Health pings the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dto := HealthDTO{Status: "ok", Driver: string(h.Store.Driver())}
	if err := h.Store.Ping(r.Context()); err != nil {
		dto.Status = "unavailable"
		dto.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, dto)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Named("api").Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps report errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, generic.ErrNoSalaryData):
		status, code = http.StatusNotFound, "no_salary_data"
	case generic.IsClientError(err):
		status, code = http.StatusBadRequest, "invalid_input"
	case generic.IsStoreError(err):
		status, code = http.StatusServiceUnavailable, "store_unavailable"
	}
	if status >= 500 {
		logger.Named("api").Error().Err(err).Int("status", status).Msg(message)
	}
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: err.Error()})
}
