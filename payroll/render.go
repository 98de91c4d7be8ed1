package payroll

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-report/generic"
)

// =============================================================================
// TEXT OUTPUT
// =============================================================================

// RenderText writes the report as
//
//	Department: <name>
//		<quarter start>: <cost>
//
// with costs at full float precision.
func RenderText(w io.Writer, r *Report) error {
	for _, dept := range r.Departments {
		if _, err := fmt.Fprintf(w, "Department: %s\n", dept.DisplayName()); err != nil {
			return err
		}
		for _, qc := range dept.Costs {
			if _, err := fmt.Fprintf(w, "\t%s: %s\n", qc.QuarterStart, FormatCost(qc.Cost)); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatCost renders a cost with the shortest representation that round-trips.
func FormatCost(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

// ReportDTO is the JSON form of a Report. Costs are carried both as raw floats
// and as decimals rounded to cents.
type ReportDTO struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Quarters    []PeriodDTO     `json:"quarters"`
	Departments []DepartmentDTO `json:"departments"`
}

type PeriodDTO struct {
	Start generic.TimePoint `json:"start"`
	End   generic.TimePoint `json:"end"`
}

type DepartmentDTO struct {
	Code     string           `json:"code"`
	Name     *string          `json:"name"` // null when unknown
	Total    decimal.Decimal  `json:"total"`
	Quarters []QuarterCostDTO `json:"quarters"`
}

type QuarterCostDTO struct {
	QuarterStart generic.TimePoint `json:"quarter_start"`
	Cost         decimal.Decimal   `json:"cost"`
	RawCost      float64           `json:"raw_cost"`
}

// NewPeriodDTO converts a Period for JSON output.
func NewPeriodDTO(p generic.Period) PeriodDTO {
	return PeriodDTO{Start: p.Start, End: p.End}
}

// DepartmentCostDTO is one department's cost within a single quarter.
type DepartmentCostDTO struct {
	Code    string          `json:"code"`
	Cost    decimal.Decimal `json:"cost"`
	RawCost float64         `json:"raw_cost"`
}

// NewQuarterCostsDTO converts one quarter's costs, ordered by department code.
func NewQuarterCostsDTO(costs QuarterCosts) []DepartmentCostDTO {
	out := make([]DepartmentCostDTO, 0, len(costs))
	for code, cost := range costs {
		out = append(out, DepartmentCostDTO{
			Code:    string(code),
			Cost:    cents(cost),
			RawCost: cost,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ToDTO converts a Report for JSON output.
func (r *Report) ToDTO() ReportDTO {
	dto := ReportDTO{
		RunID:       r.RunID.String(),
		GeneratedAt: r.GeneratedAt,
		Quarters:    make([]PeriodDTO, 0, len(r.Quarters)),
		Departments: make([]DepartmentDTO, 0, len(r.Departments)),
	}
	for _, q := range r.Quarters {
		dto.Quarters = append(dto.Quarters, NewPeriodDTO(q))
	}

	for _, dept := range r.Departments {
		d := DepartmentDTO{
			Code:     string(dept.Code),
			Total:    decimal.Zero,
			Quarters: make([]QuarterCostDTO, 0, len(dept.Costs)),
		}
		if dept.Known {
			name := dept.Name
			d.Name = &name
		}
		for _, qc := range dept.Costs {
			c := cents(qc.Cost)
			d.Total = d.Total.Add(c)
			d.Quarters = append(d.Quarters, QuarterCostDTO{
				QuarterStart: qc.QuarterStart,
				Cost:         c,
				RawCost:      qc.Cost,
			})
		}
		dto.Departments = append(dto.Departments, d)
	}
	return dto
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.ToDTO())
}

func cents(c float64) decimal.Decimal {
	return decimal.NewFromFloat(c).Round(2)
}
