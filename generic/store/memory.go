// Package store provides Gateway implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-report/generic"
)

// =============================================================================
// MEMORY GATEWAY - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	salaries    []generic.SalaryRecord
	departments map[generic.DepartmentCode]string

	// Err, when set, is returned from every query wrapped as a StoreError.
	Err error
}

func NewMemory() *Memory {
	return &Memory{
		departments: make(map[generic.DepartmentCode]string),
	}
}

// AddDepartment registers a department name.
func (m *Memory) AddDepartment(code generic.DepartmentCode, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments[code] = name
}

// AddSalary appends salary records, keeping them ordered by validity start.
func (m *Memory) AddSalary(recs ...generic.SalaryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.salaries = append(m.salaries, recs...)
	sort.SliceStable(m.salaries, func(i, j int) bool {
		return m.salaries[i].Validity.Start.Before(m.salaries[j].Validity.Start)
	})
}

func (m *Memory) EarliestSalaryStartDate(_ context.Context) (generic.TimePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return generic.TimePoint{}, generic.NewStoreError("earliest_salary_start", m.Err)
	}
	if len(m.salaries) == 0 {
		return generic.TimePoint{}, generic.ErrNoSalaryData
	}
	return m.salaries[0].Validity.Start, nil
}

func (m *Memory) LatestSalaryEndDate(_ context.Context) (generic.TimePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return generic.TimePoint{}, generic.NewStoreError("latest_salary_end", m.Err)
	}
	var latest generic.TimePoint
	for _, s := range m.salaries {
		if s.Validity.End.Equal(generic.SentinelEndDate) {
			continue
		}
		if latest.IsZero() || s.Validity.End.After(latest) {
			latest = s.Validity.End
		}
	}
	if latest.IsZero() {
		return generic.TimePoint{}, generic.ErrNoSalaryData
	}
	return latest, nil
}

func (m *Memory) SalariesIntersecting(_ context.Context, q generic.Period) ([]generic.SalaryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, generic.NewStoreError("salaries_intersecting", m.Err)
	}
	var result []generic.SalaryRecord
	for _, s := range m.salaries {
		if generic.Intersects(s.Validity, q) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *Memory) DepartmentName(_ context.Context, code generic.DepartmentCode) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return "", false, generic.NewStoreError("department_name", m.Err)
	}
	name, ok := m.departments[code]
	return name, ok, nil
}
