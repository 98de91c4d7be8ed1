/*
aggregator.go - Per-quarter department salary cost

PURPOSE:
  For one quarter, sums each department's pro-rated salary cost.

PRO-RATION:
  A stored salary amount pays for four quarters. A record contributes

    (Amount / 4) * OverlapFraction(record.Validity, quarter)

  to its department. Amount / 4 is integer division, as the amounts are
  whole currency units.

EXAMPLE:
  quarter 1990-01-01..1990-03-31 (89 days)
  salary 100000, valid 1990-01-01..1990-01-31 (30 days overlap)
  contribution = 25000 * 30/89 = 8426.966292134832

SEE ALSO:
  - generic/overlap.go: OverlapFraction
  - generic/store.go: which records SalariesIntersecting returns
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/logger"
)

// QuarterCosts maps a department to its salary cost for one quarter.
// Departments without salary records in the quarter are absent.
type QuarterCosts map[generic.DepartmentCode]float64

// Add accumulates v onto dept, starting from zero on first use.
func (c QuarterCosts) Add(dept generic.DepartmentCode, v float64) {
	c[dept] += v
}

// Aggregator computes QuarterCosts from the store.
type Aggregator struct {
	Gateway generic.Gateway
}

// NewAggregator creates an aggregator reading from gw.
func NewAggregator(gw generic.Gateway) *Aggregator {
	return &Aggregator{Gateway: gw}
}

// AggregateQuarter fetches the salaries intersecting quarter and apportions them.
func (a *Aggregator) AggregateQuarter(ctx context.Context, quarter generic.Period) (QuarterCosts, error) {
	records, err := a.Gateway.SalariesIntersecting(ctx, quarter)
	if err != nil {
		return nil, fmt.Errorf("failed to load salaries for %s: %w", quarter, err)
	}

	costs, err := Apportion(quarter, records)
	if err != nil {
		return nil, err
	}

	logger.Named("aggregator").Debug().
		Str("quarter", quarter.StartString()).
		Int("records", len(records)).
		Int("departments", len(costs)).
		Msg("quarter aggregated")
	return costs, nil
}

// Apportion sums the pro-rated contribution of each record to quarter.
// Records are expected to intersect quarter.
func Apportion(quarter generic.Period, records []generic.SalaryRecord) (QuarterCosts, error) {
	costs := make(QuarterCosts)
	for _, rec := range records {
		fraction, err := generic.OverlapFraction(rec.Validity, quarter)
		if err != nil {
			return nil, fmt.Errorf("failed to apportion %s salary %s over %s: %w",
				rec.Department, rec.Validity, quarter, err)
		}
		// explicit conversion keeps the product from being fused into the sum
		costs.Add(rec.Department, float64(float64(rec.PerQuarter())*fraction))
	}
	return costs, nil
}
