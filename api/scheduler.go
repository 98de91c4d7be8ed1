/*
scheduler.go - Background report refresh

PURPOSE:
  Regenerates the report on a fixed interval so GET /api/report serves a
  recent result without running every quarter's query per request.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Generates once immediately on start
  - Failures are logged and counted; the previous report stays cached

CONFIGURATION:
  - Interval: How often to regenerate (config server.refresh_interval)
  - Enabled: Whether the refresher runs (interval > 0)

USAGE:
  refresher := NewReportRefresher(handler, 5*time.Minute)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - handlers.go: Handler.Refresh, GET /api/report?refresh=true
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warp/payroll-report/generic"
	"github.com/warp/payroll-report/logger"
)

// ReportRefresher periodically regenerates the handler's cached report.
type ReportRefresher struct {
	Handler  *Handler
	Interval time.Duration
	Enabled  bool

	// Timeout bounds a single report run.
	Timeout time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReportRefresher creates a refresher; an interval <= 0 disables it.
func NewReportRefresher(handler *Handler, interval time.Duration) *ReportRefresher {
	return &ReportRefresher{
		Handler:  handler,
		Interval: interval,
		Enabled:  interval > 0,
		Timeout:  2 * time.Minute,
	}
}

// Start begins the refresher.
func (rr *ReportRefresher) Start() {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	log := logger.Named("refresher")
	if !rr.Enabled {
		log.Info().Msg("disabled, not starting")
		return
	}
	if rr.ticker != nil {
		return
	}

	rr.ticker = time.NewTicker(rr.Interval)
	rr.stop = make(chan struct{})
	rr.wg.Add(1)

	go rr.run()

	log.Info().Dur("interval", rr.Interval).Msg("started")
}

// Stop stops the refresher and waits for an in-flight run.
func (rr *ReportRefresher) Stop() {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.ticker != nil {
		rr.ticker.Stop()
		close(rr.stop)
		rr.wg.Wait()
		rr.ticker = nil
		logger.Named("refresher").Info().Msg("stopped")
	}
}

func (rr *ReportRefresher) run() {
	defer rr.wg.Done()

	// Run immediately on start
	rr.RunNow()

	for {
		select {
		case <-rr.ticker.C:
			rr.RunNow()
		case <-rr.stop:
			return
		}
	}
}

// RunNow regenerates the report synchronously.
func (rr *ReportRefresher) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), rr.Timeout)
	defer cancel()

	log := logger.Named("refresher")
	report, err := rr.Handler.Refresh(ctx)
	switch {
	case errors.Is(err, generic.ErrNoSalaryData):
		log.Info().Msg("no salary data yet")
	case err != nil:
		log.Error().Err(err).Msg("report refresh failed")
	default:
		log.Debug().
			Str("run_id", report.RunID.String()).
			Int("departments", len(report.Departments)).
			Msg("report refreshed")
	}
}
