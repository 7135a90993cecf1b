package monitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/leakwatch/internal/classify"
	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/extract"
	"github.com/nao1215/leakwatch/internal/fetch"
	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/notify"
	"github.com/nao1215/leakwatch/internal/pipeline"
	"github.com/nao1215/leakwatch/internal/source"
)

// Scanner runs the detection pipeline for one company.
// The returned run is non-nil whenever the pipeline started.
type Scanner interface {
	Scan(ctx context.Context, cfg *config.Config, company string) (*model.ScanRun, error)
}

// PipelineScanner builds a fresh pipeline from each configuration snapshot.
// Long-lived parts (the transport, the recognizer, storage) are shared
// between scans; fetch and notification settings come from the snapshot.
type PipelineScanner struct {
	client      *http.Client
	saver       pipeline.LeakSaver
	classifier  pipeline.LeakClassifier
	extractor   pipeline.EntityExtractor
	index       pipeline.LeakIndex
	emailDialer notify.DialFunc
	webhook     *http.Client
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// ScannerOption configures a PipelineScanner.
type ScannerOption func(*PipelineScanner)

// WithClassifier replaces the default indicator classifier.
func WithClassifier(c pipeline.LeakClassifier) ScannerOption {
	return func(s *PipelineScanner) {
		s.classifier = c
	}
}

// WithExtractor replaces the default entity extractor.
func WithExtractor(e pipeline.EntityExtractor) ScannerOption {
	return func(s *PipelineScanner) {
		s.extractor = e
	}
}

// WithIndex enables fingerprint annotation.
func WithIndex(index pipeline.LeakIndex) ScannerOption {
	return func(s *PipelineScanner) {
		s.index = index
	}
}

// WithEmailDialer sets how the email sink reaches the SMTP server.
func WithEmailDialer(dial notify.DialFunc) ScannerOption {
	return func(s *PipelineScanner) {
		s.emailDialer = dial
	}
}

// WithWebhookClient sets the HTTP client used for webhook delivery.
// Without it webhooks go through the fetch client.
func WithWebhookClient(c *http.Client) ScannerOption {
	return func(s *PipelineScanner) {
		s.webhook = c
	}
}

// WithScannerLogger sets the logger.
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *PipelineScanner) {
		s.logger = logger
	}
}

// WithScannerMetrics records pipeline activity in m.
func WithScannerMetrics(m *metrics.Metrics) ScannerOption {
	return func(s *PipelineScanner) {
		s.metrics = m
	}
}

// WithScannerClock sets the clock used for run and discovery times.
func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *PipelineScanner) {
		s.now = now
	}
}

// NewPipelineScanner creates a scanner fetching through client and
// archiving with saver.
func NewPipelineScanner(client *http.Client, saver pipeline.LeakSaver, opts ...ScannerOption) *PipelineScanner {
	s := &PipelineScanner{
		client: client,
		saver:  saver,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.webhook == nil {
		s.webhook = client
	}
	if s.classifier == nil {
		s.classifier = classify.New()
	}
	if s.extractor == nil {
		s.extractor = extract.New(extract.WithLogger(s.logger))
	}
	return s
}

// SourcesOf returns the candidate sources configured in cfg.
func SourcesOf(cfg *config.Config) source.Sources {
	return source.Sources{
		SearchEngines:   cfg.SearchEngines,
		SearchTerms:     cfg.SearchTerms,
		StaticSites:     cfg.DarkWebSites,
		ExcludedDomains: cfg.ExcludedDomains,
	}
}

// Scan implements Scanner. Step failures after a leak was found (alerting,
// archiving) are returned but leave run.Leaks intact. Cancellation stops
// detection; leaks already collected are still delivered.
func (s *PipelineScanner) Scan(ctx context.Context, cfg *config.Config, company string) (*model.ScanRun, error) {
	identity, err := fetch.NewIdentityStrategy(cfg.IdentityStrategy, cfg.UserAgents)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewFetcher(s.client,
		fetch.WithIdentity(identity),
		fetch.WithMaxBodySize(cfg.MaxBodyBytes),
		fetch.WithTimeout(cfg.Timeout()),
		fetch.WithLogger(s.logger),
		fetch.WithMetrics(s.metrics),
	)
	enumerator := source.NewEnumerator(fetcher,
		source.WithQueryDelay(cfg.QueryDelay()),
		source.WithLogger(s.logger),
		source.WithMetrics(s.metrics),
	)
	pool := pipeline.NewPool(
		pipeline.WithConcurrency(cfg.MaxConcurrentRequests),
		pipeline.WithPoolLogger(s.logger),
	)

	detect := pipeline.New(
		pipeline.WithLogger(s.logger),
		pipeline.WithContinueOnError(true),
	)
	detect.AddSteps(
		pipeline.NewEnumerateStep(enumerator, SourcesOf(cfg)),
		pipeline.NewFetchStep(pool, fetcher, s.classifier,
			pipeline.WithFetchClock(s.now),
			pipeline.WithFetchLogger(s.logger),
		),
		pipeline.NewExtractStep(s.extractor, extract.SnippetText),
	)

	deliver := pipeline.New(
		pipeline.WithLogger(s.logger),
		pipeline.WithContinueOnError(true),
	)
	if s.index != nil {
		deliver.AddStep(pipeline.NewIndexStep(s.index))
	}
	deliver.AddSteps(
		pipeline.NewNotifyStep(s.dispatcher(cfg), s.now),
		pipeline.NewPersistStep(s.saver, s.now),
	)

	run := model.NewScanRun(company, s.now())
	err = detect.Execute(ctx, run)

	// Detected leaks are alerted and archived even if ctx was cancelled.
	deliverCtx := ctx
	if run.LeakFound() {
		deliverCtx = context.WithoutCancel(ctx)
	}
	if deliverCtx.Err() == nil {
		err = errors.Join(err, deliver.Execute(deliverCtx, run))
	}

	run.FinishedAt = s.now()
	s.metrics.AddLeaks(company, len(run.Leaks))
	return run, err
}

// dispatcher returns the notifier for the sinks enabled in cfg.
func (s *PipelineScanner) dispatcher(cfg *config.Config) *notify.Dispatcher {
	opts := []notify.DispatcherOption{
		notify.WithLogger(s.logger),
		notify.WithMetrics(s.metrics),
	}

	if cfg.EmailNotifications {
		emailOpts := []notify.EmailOption{notify.WithEmailTimeout(cfg.Timeout())}
		if s.emailDialer != nil {
			emailOpts = append(emailOpts, notify.WithDialer(s.emailDialer))
		}
		opts = append(opts, notify.WithSink(notify.NewEmailSink(notify.EmailSettings{
			Sender:   cfg.SenderEmail,
			Receiver: cfg.ReceiverEmail,
			Password: cfg.EmailPassword,
			Server:   cfg.SMTPServer,
			Port:     cfg.SMTPPort,
		}, emailOpts...)))
	}

	if cfg.WebhookNotifications && cfg.WebhookURL != "" {
		webhookOpts := []notify.WebhookOption{notify.WithWebhookTimeout(cfg.Timeout())}
		if s.webhook != nil {
			webhookOpts = append(webhookOpts, notify.WithHTTPClient(s.webhook))
		}
		opts = append(opts, notify.WithSink(notify.NewWebhookSink(cfg.WebhookURL, webhookOpts...)))
	}

	return notify.NewDispatcher(opts...)
}
