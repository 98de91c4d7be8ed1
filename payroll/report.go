/*
Package payroll produces the quarterly department salary cost report.

PURPOSE:
  Orchestrates the generic date logic against a Gateway:

    Partitioner  -> quarters for which salary data exists
    Aggregator   -> per-quarter department costs
    Driver       -> all quarters, reshaped by department, names resolved

REPORT SHAPE:
  Aggregation runs quarter by quarter ({quarter: {dept: cost}}); the report is
  reshaped to {dept: {quarter: cost}} with quarters ascending.

CONCURRENCY:
  Quarters are independent and read-only, so with Parallelism > 1 they are
  aggregated concurrently (bounded). Output order never depends on fetch order.
  The first failing quarter aborts the run.

SEE ALSO:
  - render.go: text and JSON output
  - generic/quarter.go: quarter partitioning
*/
package payroll

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/logger"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// Report is the result of one report run.
type Report struct {
	RunID       uuid.UUID
	GeneratedAt time.Time
	Quarters    []generic.Period
	Departments []DepartmentReport // ordered by Code
}

// DepartmentReport holds one department's cost per quarter.
type DepartmentReport struct {
	Code  generic.DepartmentCode
	Name  string
	Known bool          // false when the store has no name for Code
	Costs []QuarterCost // ordered by QuarterStart
}

// QuarterCost is a department's cost in the quarter starting at QuarterStart.
type QuarterCost struct {
	QuarterStart generic.TimePoint
	Cost         float64
}

// UnknownDepartmentName is printed for a code the store has no name for.
const UnknownDepartmentName = "None"

// DisplayName is the department name, or UnknownDepartmentName.
func (d DepartmentReport) DisplayName() string {
	if !d.Known {
		return UnknownDepartmentName
	}
	return d.Name
}

// =============================================================================
// DRIVER
// =============================================================================

// Driver runs the report against a Gateway.
type Driver struct {
	Gateway     generic.Gateway
	Partitioner *Partitioner
	Aggregator  *Aggregator

	// Progress receives one "Generating data for ..." line per quarter. Nil discards.
	Progress io.Writer

	// Parallelism bounds concurrent quarter aggregation. <= 1 runs sequentially.
	Parallelism int
}

// NewDriver wires a partitioner and aggregator over gw.
func NewDriver(gw generic.Gateway) *Driver {
	return &Driver{
		Gateway:     gw,
		Partitioner: NewPartitioner(gw),
		Aggregator:  NewAggregator(gw),
	}
}

// GenerateReport computes department costs for every quarter with salary data.
func (d *Driver) GenerateReport(ctx context.Context) (*Report, error) {
	started := time.Now()
	log := logger.Named("report")

	quarters, err := d.Partitioner.GenerateQuarters(ctx)
	if err != nil {
		return nil, err
	}

	byQuarter, err := d.aggregateAll(ctx, quarters)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:       uuid.New(),
		GeneratedAt: started.UTC(),
		Quarters:    quarters,
	}
	for code, costs := range ByDepartment(byQuarter) {
		dept, err := d.department(ctx, code, costs)
		if err != nil {
			return nil, err
		}
		report.Departments = append(report.Departments, dept)
	}
	sort.Slice(report.Departments, func(i, j int) bool {
		return report.Departments[i].Code < report.Departments[j].Code
	})

	log.Info().
		Str("run_id", report.RunID.String()).
		Int("quarters", len(quarters)).
		Int("departments", len(report.Departments)).
		Dur("elapsed", time.Since(started)).
		Msg("report generated")
	return report, nil
}

// aggregateAll returns {quarter start: {dept: cost}} for the given quarters.
func (d *Driver) aggregateAll(ctx context.Context, quarters []generic.Period) (map[generic.TimePoint]QuarterCosts, error) {
	results := make([]QuarterCosts, len(quarters))
	if d.Parallelism <= 1 {
		for i, q := range quarters {
			d.progress(q)
			costs, err := d.Aggregator.AggregateQuarter(ctx, q)
			if err != nil {
				return nil, err
			}
			results[i] = costs
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.Parallelism)
		for i, q := range quarters {
			i, q := i, q
			d.progress(q)
			g.Go(func() error {
				costs, err := d.Aggregator.AggregateQuarter(gctx, q)
				if err != nil {
					return err
				}
				results[i] = costs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	byQuarter := make(map[generic.TimePoint]QuarterCosts, len(quarters))
	for i, q := range quarters {
		byQuarter[q.Start] = results[i]
	}
	return byQuarter, nil
}

func (d *Driver) progress(q generic.Period) {
	if d.Progress != nil {
		fmt.Fprintf(d.Progress, "Generating data for %s to %s...\n", q.StartString(), q.EndString())
	}
}

func (d *Driver) department(ctx context.Context, code generic.DepartmentCode, costs map[generic.TimePoint]float64) (DepartmentReport, error) {
	name, found, err := d.Gateway.DepartmentName(ctx, code)
	if err != nil {
		return DepartmentReport{}, fmt.Errorf("failed to look up department %s: %w", code, err)
	}
	if !found {
		logger.Named("report").Warn().Str("department", string(code)).Msg("department name not found")
	}

	dept := DepartmentReport{Code: code, Name: name, Known: found}
	for start, cost := range costs {
		dept.Costs = append(dept.Costs, QuarterCost{QuarterStart: start, Cost: cost})
	}
	sort.Slice(dept.Costs, func(i, j int) bool {
		return dept.Costs[i].QuarterStart.Before(dept.Costs[j].QuarterStart)
	})
	return dept, nil
}

// ByDepartment reshapes {quarter: {dept: cost}} into {dept: {quarter: cost}}.
func ByDepartment(byQuarter map[generic.TimePoint]QuarterCosts) map[generic.DepartmentCode]map[generic.TimePoint]float64 {
	out := make(map[generic.DepartmentCode]map[generic.TimePoint]float64)
	for start, costs := range byQuarter {
		for dept, cost := range costs {
			if out[dept] == nil {
				out[dept] = make(map[generic.TimePoint]float64)
			}
			out[dept][start] = cost
		}
	}
	return out
}
