package payroll

import (
	"context"
	"fmt"

	"github.com/warp/payroll-report/generic"
)

// =============================================================================
// PARTITIONER - Quarters for which salary data exists
// =============================================================================

// Partitioner turns the store's salary date range into calendar quarters.
type Partitioner struct {
	Gateway generic.Gateway
}

// NewPartitioner creates a partitioner reading from gw.
func NewPartitioner(gw generic.Gateway) *Partitioner {
	return &Partitioner{Gateway: gw}
}

// GenerateQuarters reads the earliest salary start and the latest non-sentinel
// salary end from the store and returns every quarter between them, in order.
// It does exactly two store reads and caches nothing.
func (p *Partitioner) GenerateQuarters(ctx context.Context) ([]generic.Period, error) {
	oldest, err := p.Gateway.EarliestSalaryStartDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read earliest salary date: %w", err)
	}
	newest, err := p.Gateway.LatestSalaryEndDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest salary date: %w", err)
	}
	return generic.Quarters(oldest, newest), nil
}
