package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/storage"
)

type staticConfig struct {
	cfg *config.Config
}

func (s staticConfig) Snapshot() *config.Config { return s.cfg.Clone() }

// fakeScanner returns a run with the configured number of leaks per company.
type fakeScanner struct {
	mu      sync.Mutex
	leaks   map[string]int
	errs    map[string]error
	scanned []string
	ctxErrs []error

	// block, when set, is waited on before returning.
	block   chan struct{}
	started chan string
}

func (f *fakeScanner) Scan(ctx context.Context, _ *config.Config, company string) (*model.ScanRun, error) {
	if f.started != nil {
		f.started <- company
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanned = append(f.scanned, company)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())

	run := model.NewScanRun(company, time.Now())
	run.Candidates = []string{"http://a.example", "http://b.example"}
	run.Fetched = 2
	for range f.leaks[company] {
		run.Leaks = append(run.Leaks, &model.LeakRecord{URL: "http://a.example"})
	}
	run.FinishedAt = run.StartedAt.Add(time.Millisecond)
	return run, f.errs[company]
}

func (f *fakeScanner) Scanned() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scanned...)
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []*model.ScanRun
}

func (f *fakeRecorder) RecordRun(_ context.Context, run *model.ScanRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func testConfig(companies ...string) *config.Config {
	cfg := config.Default()
	cfg.CompaniesToMonitor = companies
	cfg.CompanyDelaySeconds = 0
	return cfg
}

func newTestMonitor(t *testing.T, cfg *config.Config, scanner Scanner, opts ...Option) (*Monitor, *storage.HistoryStore) {
	t.Helper()
	history := storage.NewHistoryStore(filepath.Join(t.TempDir(), "scan_history.json"))
	return New(staticConfig{cfg}, history, scanner, opts...), history
}

func TestRunCycleEmptyCompanyList(t *testing.T) {
	t.Parallel()

	scanner := &fakeScanner{}
	m, history := newTestMonitor(t, testConfig(), scanner)

	results, err := m.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if len(results) != 0 || len(scanner.Scanned()) != 0 {
		t.Errorf("expected no scans, got %v", scanner.Scanned())
	}
	if _, err := os.Stat(history.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("history should not be written, stat error = %v", err)
	}
}

func TestRunCycleSuppressionWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scanner := &fakeScanner{leaks: map[string]int{"Globex": 2}}
	mt := metrics.New()
	m, history := newTestMonitor(t, testConfig("Acme", "Globex", "Initech"), scanner,
		WithClock(func() time.Time { return now }),
		WithMetrics(mt),
	)

	seed := model.NewScanHistory()
	seed.Record("Acme", now.Add(-time.Hour), true)      // inside the window
	seed.Record("Initech", now.Add(-7*time.Hour), true) // outside the window
	if err := history.Save(seed); err != nil {
		t.Fatal(err)
	}

	results, err := m.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	want := []model.ScanOutcome{model.OutcomeSkipped, model.OutcomeLeakFound, model.OutcomeClean}
	for i, r := range results {
		if r.Outcome != want[i] {
			t.Errorf("%s outcome = %s, want %s", r.Company, r.Outcome, want[i])
		}
	}
	if got := scanner.Scanned(); len(got) != 2 || got[0] != "Globex" || got[1] != "Initech" {
		t.Errorf("scanned = %v, want [Globex Initech]", got)
	}

	h := history.Load()
	acme, _ := h.Entry("Acme")
	if acme.ScanCount != 1 || !acme.LastScan.Equal(now.Add(-time.Hour)) {
		t.Errorf("skipped entry was modified: %+v", acme)
	}
	globex, _ := h.Entry("Globex")
	if globex.ScanCount != 1 || globex.TotalLeaksFound != 1 || !globex.LastLeakFound.Equal(now) {
		t.Errorf("Globex entry = %+v", globex)
	}
	initech, _ := h.Entry("Initech")
	if initech.ScanCount != 2 || initech.TotalLeaksFound != 1 || !initech.LastScan.Equal(now) {
		t.Errorf("Initech entry = %+v", initech)
	}

	if got := testutil.ToFloat64(mt.ScansTotal.WithLabelValues(string(model.OutcomeSkipped))); got != 1 {
		t.Errorf("skipped scans = %v, want 1", got)
	}
}

func TestRunCycleRecordsFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("webhook unreachable")
	scanner := &fakeScanner{
		leaks: map[string]int{"Acme": 1},
		errs:  map[string]error{"Acme": boom, "Globex": errors.New("no identities")},
	}
	recorder := &fakeRecorder{}
	m, history := newTestMonitor(t, testConfig("Acme", "Globex"), scanner, WithRunRecorder(recorder))

	results, err := m.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if results[0].Outcome != model.OutcomeLeakFound || !errors.Is(results[0].Err, boom) {
		t.Errorf("Acme result = %+v, want leak found despite sink error", results[0])
	}
	if results[1].Outcome != model.OutcomeFailed {
		t.Errorf("Globex outcome = %s, want failed", results[1].Outcome)
	}

	h := history.Load()
	for _, company := range []string{"Acme", "Globex"} {
		if e, _ := h.Entry(company); e.ScanCount != 1 {
			t.Errorf("%s scan_count = %d, want 1", company, e.ScanCount)
		}
	}
	if e, _ := h.Entry("Acme"); e.LastLeakFound == nil {
		t.Error("Acme leak not recorded")
	}

	if len(recorder.runs) != 2 || recorder.runs[0].Outcome != model.OutcomeLeakFound {
		t.Errorf("recorded runs = %d", len(recorder.runs))
	}
}

func TestRunCycleStopsBetweenCompanies(t *testing.T) {
	t.Parallel()

	t.Run("cancelled before start", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{}
		m, _ := newTestMonitor(t, testConfig("Acme", "Globex"), scanner)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := m.RunCycle(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("RunCycle() error = %v, want context.Canceled", err)
		}
		if len(scanner.Scanned()) != 0 {
			t.Error("no company should be scanned")
		}
	})

	t.Run("in-flight scan completes", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{block: make(chan struct{}), started: make(chan string, 2)}
		m, history := newTestMonitor(t, testConfig("Acme", "Globex"), scanner)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			_, err := m.RunCycle(ctx)
			done <- err
		}()

		<-scanner.started
		cancel()
		close(scanner.block)

		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("RunCycle() error = %v, want context.Canceled", err)
		}
		if got := scanner.Scanned(); len(got) != 1 || got[0] != "Acme" {
			t.Errorf("scanned = %v, want [Acme]", got)
		}
		if scanner.ctxErrs[0] != nil {
			t.Error("in-flight scan observed the cancellation")
		}
		if e, _ := history.Load().Entry("Acme"); e.ScanCount != 1 {
			t.Error("in-flight scan result was not recorded")
		}
	})
}

func TestScanCompany(t *testing.T) {
	t.Parallel()

	t.Run("bypasses the suppression window", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{leaks: map[string]int{"Acme": 1}}
		m, history := newTestMonitor(t, testConfig("Acme"), scanner)
		if _, err := history.Record("Acme", time.Now(), true); err != nil {
			t.Fatal(err)
		}

		run, err := m.ScanCompany(context.Background(), "Acme")
		if err != nil {
			t.Fatalf("ScanCompany() error = %v", err)
		}
		if run.Outcome != model.OutcomeLeakFound {
			t.Errorf("outcome = %s", run.Outcome)
		}
		if e, _ := history.Load().Entry("Acme"); e.ScanCount != 2 || e.TotalLeaksFound != 2 {
			t.Errorf("entry = %+v, want second scan recorded", e)
		}
	})

	t.Run("empty company", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestMonitor(t, testConfig(), &fakeScanner{})
		if _, err := m.ScanCompany(context.Background(), "  "); !errors.Is(err, ErrEmptyCompany) {
			t.Errorf("error = %v, want ErrEmptyCompany", err)
		}
	})

	t.Run("single flight per company", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{block: make(chan struct{}), started: make(chan string, 2)}
		m, history := newTestMonitor(t, testConfig("Acme"), scanner)

		done := make(chan error, 1)
		go func() {
			_, err := m.ScanCompany(context.Background(), "Acme")
			done <- err
		}()
		<-scanner.started

		if _, err := m.ScanCompany(context.Background(), "Acme"); !errors.Is(err, ErrScanInProgress) {
			t.Errorf("concurrent scan error = %v, want ErrScanInProgress", err)
		}

		results, err := m.RunCycle(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if results[0].Outcome != model.OutcomeSkipped || !errors.Is(results[0].Err, ErrScanInProgress) {
			t.Errorf("cycle result = %+v, want skipped while ad-hoc scan runs", results[0])
		}

		close(scanner.block)
		if err := <-done; err != nil {
			t.Fatalf("ScanCompany() error = %v", err)
		}
		if e, _ := history.Load().Entry("Acme"); e.ScanCount != 1 {
			t.Errorf("scan_count = %d, want 1", e.ScanCount)
		}
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("repeats cycles until cancelled", func(t *testing.T) {
		t.Parallel()

		var cycles atomic.Int32
		scanner := &countingScanner{n: &cycles}
		m, _ := newTestMonitor(t, testConfig("Acme"), scanner, WithInterval(10*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()

		deadline := time.After(5 * time.Second)
		for cycles.Load() < 3 {
			select {
			case <-deadline:
				t.Fatalf("only %d cycles ran", cycles.Load())
			case <-time.After(5 * time.Millisecond):
			}
		}
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig("Acme")
		cfg.MonitoringIntervalMinutes = 0
		m, _ := newTestMonitor(t, cfg, &fakeScanner{})
		if err := m.Run(context.Background()); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("Run() error = %v, want ErrInvalidInterval", err)
		}
	})
}

type countingScanner struct {
	n *atomic.Int32
}

func (c *countingScanner) Scan(_ context.Context, _ *config.Config, company string) (*model.ScanRun, error) {
	c.n.Add(1)
	run := model.NewScanRun(company, time.Now())
	run.FinishedAt = time.Now()
	return run, nil
}
