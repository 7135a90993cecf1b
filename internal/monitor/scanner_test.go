package monitor

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/leakwatch/internal/classify"
	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/notify"
	"github.com/nao1215/leakwatch/internal/pipeline"
	"github.com/nao1215/leakwatch/internal/storage"
)

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, string, string) model.EntityBundle {
	return model.EntityBundle{model.CategoryEmail: {"dba@acme.com"}}
}

// darkWeb serves 20 pages, 6 of which mention Acme with a leak indicator,
// and a search backend linking to some of them.
func darkWeb(t *testing.T) (*httptest.Server, []string) {
	t.Helper()

	mux := http.NewServeMux()
	var pages []string
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	for i := range 20 {
		path := fmt.Sprintf("/page/%d", i)
		body := "nothing to see here\nacme quarterly newsletter"
		if i%3 == 0 && i < 18 {
			body = fmt.Sprintf("forum post %d\nACME database dump with credentials\nunrelated line", i)
		}
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		pages = append(pages, srv.URL+path)
	}
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<a href="%s">dup</a>
			<a href="%s#frag">dup with fragment</a>
			<a href="https://www.google.com/q">excluded</a>
		</body></html>`, pages[0], pages[1])
	})
	return srv, pages
}

func TestPipelineScannerAcme(t *testing.T) {
	t.Parallel()

	srv, pages := darkWeb(t)

	var (
		mu       sync.Mutex
		payloads []notify.Payload
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p notify.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("invalid webhook payload: %v", err)
		}
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(hook.Close)

	dir := t.TempDir()
	vault, err := storage.OpenVault(filepath.Join(dir, "secret.key"))
	if err != nil {
		t.Fatal(err)
	}
	saver := storage.NewLeakStore(vault, filepath.Join(dir, "data"), filepath.Join(dir, "reports"))

	cfg := config.Default()
	cfg.SearchEngines = []string{srv.URL + "/search?q="}
	cfg.SearchTerms = []string{"breach"}
	cfg.DarkWebSites = pages
	cfg.QueryDelaySeconds = 0
	cfg.MaxConcurrentRequests = 5
	cfg.WebhookNotifications = true
	cfg.WebhookURL = hook.URL

	scanner := NewPipelineScanner(srv.Client(), saver, WithExtractor(stubExtractor{}))
	run, err := scanner.Scan(context.Background(), cfg, "Acme")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(run.Candidates) != 20 {
		t.Errorf("candidates = %d, want 20", len(run.Candidates))
	}
	if run.Fetched != 20 {
		t.Errorf("fetched = %d, want 20", run.Fetched)
	}
	if len(run.Leaks) != 6 {
		t.Fatalf("leaks = %d, want 6", len(run.Leaks))
	}
	for _, leak := range run.Leaks {
		if len(leak.RelevantSnippets) == 0 || len(leak.RelevantSnippets) > model.MaxSnippets {
			t.Errorf("%s has %d snippets", leak.URL, len(leak.RelevantSnippets))
		}
		for _, s := range leak.RelevantSnippets {
			if folded := classify.Normalize(s); !strings.Contains(folded, "acme") || !strings.Contains(folded, "dump") {
				t.Errorf("snippet %q lacks company or indicator", s)
			}
		}
	}
	if run.Leaks[0].ExtractedInfo.IsEmpty() {
		t.Error("representative record has no extracted information")
	}

	wantSteps := []string{
		pipeline.StepEnumerate, pipeline.StepFetch, pipeline.StepExtract,
		pipeline.StepNotify, pipeline.StepPersist,
	}
	if strings.Join(run.PerformedSteps, ",") != strings.Join(wantSteps, ",") {
		t.Errorf("steps = %v", run.PerformedSteps)
	}

	mu.Lock()
	if len(payloads) != 1 || payloads[0].Company != "Acme" || payloads[0].LeakCount != 6 {
		t.Errorf("webhook payloads = %+v", payloads)
	}
	mu.Unlock()

	archives, _ := filepath.Glob(filepath.Join(dir, "data", "Acme", "leak_*.json"))
	if len(archives) != 1 {
		t.Fatalf("archives = %v, want exactly one", archives)
	}
	stored, err := storage.ReadArchive(vault, archives[0])
	if err != nil || len(stored) != 6 {
		t.Errorf("archive holds %d records, err = %v", len(stored), err)
	}

	reports, _ := filepath.Glob(filepath.Join(dir, "reports", "Acme_*_report.csv"))
	if len(reports) != 1 {
		t.Fatalf("csv reports = %v, want exactly one", reports)
	}
	f, err := os.Open(reports[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 7 {
		t.Errorf("csv rows = %d, want header + 6", len(rows))
	}
}

func TestPipelineScannerUnreachableWebhook(t *testing.T) {
	t.Parallel()

	srv, pages := darkWeb(t)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	dir := t.TempDir()
	vault, err := storage.OpenVault(filepath.Join(dir, "secret.key"))
	if err != nil {
		t.Fatal(err)
	}
	saver := storage.NewLeakStore(vault, filepath.Join(dir, "data"), filepath.Join(dir, "reports"))

	cfg := config.Default()
	cfg.SearchEngines = nil
	cfg.DarkWebSites = pages[:4]
	cfg.CompaniesToMonitor = []string{"Acme"}
	cfg.CompanyDelaySeconds = 0
	cfg.EmailNotifications = false
	cfg.WebhookNotifications = true
	cfg.WebhookURL = closedURL

	scanner := NewPipelineScanner(srv.Client(), saver, WithExtractor(stubExtractor{}))
	history := storage.NewHistoryStore(filepath.Join(dir, "scan_history.json"))
	m := New(staticConfig{cfg}, history, scanner)

	run, err := m.ScanCompany(context.Background(), "Acme")
	if err == nil {
		t.Error("expected the webhook failure to be reported")
	}
	if run == nil || run.Outcome != model.OutcomeLeakFound || len(run.Leaks) != 2 {
		t.Fatalf("run = %+v, want 2 leaks found", run)
	}

	archives, _ := filepath.Glob(filepath.Join(dir, "data", "Acme", "leak_*.json"))
	if len(archives) != 1 {
		t.Errorf("leaks were not persisted: %v", archives)
	}
	if e, _ := history.Load().Entry("Acme"); e.LastLeakFound == nil {
		t.Error("leak not recorded in history")
	}
}

func TestPipelineScannerInvalidIdentity(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.UserAgents = nil

	scanner := NewPipelineScanner(http.DefaultClient, nil, WithExtractor(stubExtractor{}))
	if _, err := scanner.Scan(context.Background(), cfg, "Acme"); err == nil {
		t.Error("expected an error without client identities")
	}
}

func TestSourcesOf(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	src := SourcesOf(cfg)
	if len(src.StaticSites) != len(cfg.DarkWebSites) || len(src.SearchTerms) != len(cfg.SearchTerms) {
		t.Errorf("SourcesOf() = %+v", src)
	}
}

// countingTransport counts the requests sent to each host.
type countingTransport struct {
	mu    sync.Mutex
	hosts map[string]int
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.hosts == nil {
		c.hosts = make(map[string]int)
	}
	c.hosts[req.URL.Host]++
	c.mu.Unlock()
	return http.DefaultTransport.RoundTrip(req)
}

func (c *countingTransport) count(host string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hosts[host]
}

func TestPipelineScannerAlertRoute(t *testing.T) {
	t.Parallel()

	srv, pages := darkWeb(t)

	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(hook.Close)
	hookHost := strings.TrimPrefix(hook.URL, "http://")

	newConfig := func() *config.Config {
		cfg := config.Default()
		cfg.SearchEngines = nil
		cfg.DarkWebSites = pages[:1]
		cfg.WebhookNotifications = true
		cfg.WebhookURL = hook.URL
		return cfg
	}

	t.Run("webhook uses the fetch client by default", func(t *testing.T) {
		t.Parallel()

		route := &countingTransport{}
		scanner := NewPipelineScanner(&http.Client{Transport: route}, &recordingSaver{},
			WithExtractor(stubExtractor{}))
		if _, err := scanner.Scan(context.Background(), newConfig(), "Acme"); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if route.count(hookHost) != 1 {
			t.Errorf("webhook requests through the fetch client = %d, want 1", route.count(hookHost))
		}
		if route.count(strings.TrimPrefix(srv.URL, "http://")) == 0 {
			t.Error("page fetch did not use the fetch client")
		}
	})

	t.Run("webhook and email use the injected route", func(t *testing.T) {
		t.Parallel()

		route := &countingTransport{}
		var (
			mu     sync.Mutex
			dialed []string
		)
		dial := func(_ context.Context, _, address string) (net.Conn, error) {
			mu.Lock()
			dialed = append(dialed, address)
			mu.Unlock()
			return nil, errors.New("smtp relay unreachable")
		}

		cfg := newConfig()
		cfg.EmailNotifications = true
		cfg.SenderEmail = "alerts@example.com"
		cfg.ReceiverEmail = "soc@example.com"
		cfg.EmailPassword = "pw"
		cfg.SMTPServer = "smtp.example.com"
		cfg.SMTPPort = 587

		scanner := NewPipelineScanner(srv.Client(), &recordingSaver{},
			WithExtractor(stubExtractor{}),
			WithWebhookClient(&http.Client{Transport: route}),
			WithEmailDialer(dial),
		)
		if _, err := scanner.Scan(context.Background(), cfg, "Acme"); err == nil {
			t.Error("expected the email failure to be reported")
		}
		if route.count(hookHost) != 1 {
			t.Errorf("webhook requests through the injected client = %d, want 1", route.count(hookHost))
		}
		mu.Lock()
		defer mu.Unlock()
		if len(dialed) != 1 || dialed[0] != "smtp.example.com:587" {
			t.Errorf("smtp dials = %v, want [smtp.example.com:587]", dialed)
		}
	})
}

// recordingSaver counts saved leak sets.
type recordingSaver struct {
	mu    sync.Mutex
	saved int
}

func (r *recordingSaver) SaveLeakData(string, []*model.LeakRecord, time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved++
	return nil
}

func TestScanCompanyInterruptedAfterLeak(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/leak", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ACME database dump with credentials")
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		cancel()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	vault, err := storage.OpenVault(filepath.Join(dir, "secret.key"))
	if err != nil {
		t.Fatal(err)
	}
	saver := storage.NewLeakStore(vault, filepath.Join(dir, "data"), filepath.Join(dir, "reports"))

	cfg := config.Default()
	cfg.SearchEngines = nil
	cfg.DarkWebSites = []string{srv.URL + "/leak", srv.URL + "/slow"}
	cfg.MaxConcurrentRequests = 2
	cfg.EmailNotifications = false
	cfg.WebhookNotifications = false

	scanner := NewPipelineScanner(srv.Client(), saver, WithExtractor(stubExtractor{}))
	history := storage.NewHistoryStore(filepath.Join(dir, "scan_history.json"))
	m := New(staticConfig{cfg}, history, scanner)

	run, err := m.ScanCompany(ctx, "Acme")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if run == nil || run.Outcome != model.OutcomeLeakFound || len(run.Leaks) != 1 {
		t.Fatalf("run = %+v, want one leak found", run)
	}
	if !slices.Contains(run.PerformedSteps, pipeline.StepPersist) {
		t.Errorf("steps = %v, want persist to run", run.PerformedSteps)
	}

	archives, _ := filepath.Glob(filepath.Join(dir, "data", "Acme", "leak_*.json"))
	if len(archives) != 1 {
		t.Errorf("archives = %v, want the detected leak archived", archives)
	}
	if e, _ := history.Load().Entry("Acme"); e.LastLeakFound == nil {
		t.Error("leak not recorded in history")
	}
}
