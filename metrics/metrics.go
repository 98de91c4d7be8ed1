// Package metrics exposes Prometheus instrumentation for report runs and the
// salary gateway.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/payroll"
)

const namespace = "payroll"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry prometheus.Gatherer

	GatewayQueries  *prometheus.CounterVec
	GatewayLatency  *prometheus.HistogramVec
	SalaryRecords   prometheus.Counter
	Reports         *prometheus.CounterVec
	ReportDuration  prometheus.Histogram
	ReportQuarters  prometheus.Gauge
	LastReportTime  prometheus.Gauge
	DepartmentCosts *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry, alongside the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWith(reg, reg)
}

// NewWith registers the collectors on reg and serves them from g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: g,

		GatewayQueries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "queries_total",
			Help:      "Salary gateway queries by operation and result.",
		}, []string{"op", "result"}),

		GatewayLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "query_duration_seconds",
			Help:      "Salary gateway query latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),

		SalaryRecords: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "salary_records_total",
			Help:      "Salary records returned by intersection queries.",
		}),

		Reports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "runs_total",
			Help:      "Report runs by result.",
		}, []string{"result"}),

		ReportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "duration_seconds",
			Help:      "Wall time of a full report run.",
			Buckets:   prometheus.DefBuckets,
		}),

		ReportQuarters: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "quarters",
			Help:      "Quarters covered by the last successful report.",
		}),

		LastReportTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful report.",
		}),

		DepartmentCosts: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "department_cost",
			Help:      "Salary cost of each department in the most recent quarter of the last report.",
		}, []string{"department"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReport records the outcome of one report run.
func (m *Metrics) ObserveReport(r *payroll.Report, elapsed time.Duration, err error) {
	m.ReportDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.Reports.WithLabelValues("error").Inc()
		return
	}
	m.Reports.WithLabelValues("ok").Inc()
	m.ReportQuarters.Set(float64(len(r.Quarters)))
	m.LastReportTime.Set(float64(r.GeneratedAt.Unix()))

	m.DepartmentCosts.Reset()
	if len(r.Quarters) == 0 {
		return
	}
	latest := r.Quarters[len(r.Quarters)-1].Start
	for _, dept := range r.Departments {
		for _, qc := range dept.Costs {
			if qc.QuarterStart.Equal(latest) {
				m.DepartmentCosts.WithLabelValues(string(dept.Code)).Set(qc.Cost)
			}
		}
	}
}

// =============================================================================
// INSTRUMENTED GATEWAY
// =============================================================================

// Gateway decorates a generic.Gateway with query metrics.
type Gateway struct {
	next generic.Gateway
	m    *Metrics
}

// Instrument wraps gw so that every call is counted and timed.
func (m *Metrics) Instrument(gw generic.Gateway) *Gateway {
	return &Gateway{next: gw, m: m}
}

func (g *Gateway) observe(op string, started time.Time, err error) {
	g.m.GatewayLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	g.m.GatewayQueries.WithLabelValues(op, result).Inc()
}

func (g *Gateway) EarliestSalaryStartDate(ctx context.Context) (tp generic.TimePoint, err error) {
	defer func(t time.Time) { g.observe("earliest_salary_start", t, err) }(time.Now())
	return g.next.EarliestSalaryStartDate(ctx)
}

func (g *Gateway) LatestSalaryEndDate(ctx context.Context) (tp generic.TimePoint, err error) {
	defer func(t time.Time) { g.observe("latest_salary_end", t, err) }(time.Now())
	return g.next.LatestSalaryEndDate(ctx)
}

func (g *Gateway) SalariesIntersecting(ctx context.Context, q generic.Period) (recs []generic.SalaryRecord, err error) {
	defer func(t time.Time) { g.observe("salaries_intersecting", t, err) }(time.Now())
	recs, err = g.next.SalariesIntersecting(ctx, q)
	g.m.SalaryRecords.Add(float64(len(recs)))
	return recs, err
}

func (g *Gateway) DepartmentName(ctx context.Context, code generic.DepartmentCode) (name string, found bool, err error) {
	defer func(t time.Time) { g.observe("department_name", t, err) }(time.Now())
	return g.next.DepartmentName(ctx, code)
}
