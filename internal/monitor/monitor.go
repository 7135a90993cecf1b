package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/storage"
)

// ConfigSource hands out configuration snapshots.
type ConfigSource interface {
	Snapshot() *config.Config
}

// RunRecorder stores finished scan runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *model.ScanRun) error
}

// CompanyResult is the outcome of one company within a cycle.
type CompanyResult struct {
	Company string
	Outcome model.ScanOutcome
	Leaks   int
	Err     error
}

// Monitor drives company scans and owns the scan history ledger.
type Monitor struct {
	configs  ConfigSource
	history  *storage.HistoryStore
	scanner  Scanner
	runs     RunRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	interval time.Duration

	mu     sync.Mutex
	active map[string]struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithMetrics records scan outcomes in mt.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = mt
	}
}

// WithRunRecorder stores every finished run in r.
func WithRunRecorder(r RunRecorder) Option {
	return func(m *Monitor) {
		m.runs = r
	}
}

// WithClock sets the clock used for the suppression rule and history.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithInterval overrides the configured monitoring interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// New creates a Monitor.
func New(configs ConfigSource, history *storage.HistoryStore, scanner Scanner, opts ...Option) *Monitor {
	m := &Monitor{
		configs: configs,
		history: history,
		scanner: scanner,
		now:     time.Now,
		active:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// RunCycle scans every monitored company once, in configured order.
// It returns early with ctx's error when ctx is done between two companies.
func (m *Monitor) RunCycle(ctx context.Context) ([]CompanyResult, error) {
	cfg := m.configs.Snapshot()
	companies := cfg.CompaniesToMonitor
	if len(companies) == 0 {
		m.logger.Warn("no companies configured for monitoring")
		return nil, nil
	}

	start := m.now()
	history := m.history.Load()
	window := cfg.SuppressionWindow()

	m.logger.Info("monitoring cycle started", "companies", len(companies))

	results := make([]CompanyResult, 0, len(companies))
	for i, company := range companies {
		select {
		case <-ctx.Done():
			m.logger.Info("monitoring cycle stopped", "remaining", len(companies)-i)
			return results, ctx.Err()
		default:
		}

		if history.ShouldSkip(company, start, window) {
			entry, _ := history.Entry(company)
			m.logger.Info("skipping company, leak reported recently",
				"company", company,
				"last_leak_found", entry.LastLeakFound.Time,
			)
			m.metrics.ObserveScan(string(model.OutcomeSkipped), 0)
			results = append(results, CompanyResult{Company: company, Outcome: model.OutcomeSkipped})
			continue
		}

		// A started scan completes even if ctx is cancelled meanwhile.
		run, err := m.scan(context.WithoutCancel(ctx), cfg, company)
		result := CompanyResult{Company: company, Err: err}
		switch {
		case run != nil:
			result.Outcome = run.Outcome
			result.Leaks = len(run.Leaks)
		case errors.Is(err, ErrScanInProgress):
			result.Outcome = model.OutcomeSkipped
		default:
			result.Outcome = model.OutcomeFailed
		}
		results = append(results, result)

		if i < len(companies)-1 {
			if err := sleep(ctx, cfg.CompanyDelay()); err != nil {
				m.logger.Info("monitoring cycle stopped", "remaining", len(companies)-i-1)
				return results, err
			}
		}
	}

	m.logger.Info("monitoring cycle finished", "companies", len(companies))
	return results, nil
}

// ScanCompany runs one ad-hoc scan. The suppression window does not apply,
// but the result is recorded in the history like any scheduled scan.
func (m *Monitor) ScanCompany(ctx context.Context, company string) (*model.ScanRun, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}
	return m.scan(ctx, m.configs.Snapshot(), company)
}

// Run executes a cycle immediately and then once per interval until ctx is
// done. A tick does not wait for the previous cycle. When cycles overlap,
// a company still being scanned by the earlier cycle is skipped by the later
// one (ErrScanInProgress). Run returns after in-flight cycles have finished
// their current company.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.currentInterval()
	if interval <= 0 {
		return ErrInvalidInterval
	}

	m.logger.Info("monitoring started", "interval", interval.String())

	var wg sync.WaitGroup
	startCycle := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("monitoring cycle failed", "error", err)
			}
		}()
	}

	startCycle()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitoring stopping, waiting for running scans")
			wg.Wait()
			m.logger.Info("monitoring stopped")
			return nil
		case <-ticker.C:
			if next := m.currentInterval(); next > 0 && next != interval {
				m.logger.Info("monitoring interval changed", "from", interval.String(), "to", next.String())
				interval = next
				ticker.Reset(interval)
			}
			startCycle()
		}
	}
}

func (m *Monitor) currentInterval() time.Duration {
	if m.interval > 0 {
		return m.interval
	}
	return m.configs.Snapshot().Interval()
}

// scan runs the pipeline for company under the single-flight guard and
// records the result in the history ledger and the run log.
func (m *Monitor) scan(ctx context.Context, cfg *config.Config, company string) (*model.ScanRun, error) {
	if !m.acquire(company) {
		m.logger.Warn("scan already running, skipping", "company", company)
		return nil, fmt.Errorf("%w: %s", ErrScanInProgress, company)
	}
	defer m.release(company)

	m.logger.Info("scanning company", "company", company)

	started := m.now()
	run, scanErr := m.scanner.Scan(ctx, cfg, company)
	if run == nil {
		run = model.NewScanRun(company, started)
		run.FinishedAt = m.now()
	}
	run.Outcome = outcomeOf(run, scanErr)

	entry, err := m.history.Record(company, m.now(), run.LeakFound())
	if err != nil {
		m.logger.Error("failed to update scan history", "company", company, "error", err)
	}

	if m.runs != nil {
		if err := m.runs.RecordRun(context.WithoutCancel(ctx), run); err != nil {
			m.logger.Error("failed to record scan run", "company", company, "error", err)
		}
	}

	m.metrics.ObserveScan(string(run.Outcome), run.Duration())

	attrs := []any{
		"company", company,
		"outcome", string(run.Outcome),
		"candidates", len(run.Candidates),
		"fetched", run.Fetched,
		"leaks", len(run.Leaks),
		"duration", run.Duration().String(),
		"scan_count", entry.ScanCount,
	}
	switch run.Outcome {
	case model.OutcomeFailed:
		m.logger.Error("company scan failed", append(attrs, "error", scanErr)...)
	case model.OutcomeLeakFound:
		m.logger.Warn("company scan found potential leaks", attrs...)
	default:
		m.logger.Info("company scan finished", attrs...)
	}

	return run, scanErr
}

// outcomeOf classifies a finished run. Collected leaks win over errors:
// a failed alert or archive write does not undo the detection.
func outcomeOf(run *model.ScanRun, err error) model.ScanOutcome {
	switch {
	case run.LeakFound():
		return model.OutcomeLeakFound
	case err != nil:
		return model.OutcomeFailed
	default:
		return model.OutcomeClean
	}
}

func (m *Monitor) acquire(company string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.active[company]; busy {
		return false
	}
	m.active[company] = struct{}{}
	return true
}

func (m *Monitor) release(company string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, company)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
