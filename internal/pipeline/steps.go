package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/source"
)

// Step names.
const (
	StepEnumerate = "enumerate"
	StepFetch     = "fetch"
	StepExtract   = "extract"
	StepIndex     = "index"
	StepNotify    = "notify"
	StepPersist   = "persist"
)

// CandidateSource builds the candidate URL set of a company.
type CandidateSource interface {
	Enumerate(ctx context.Context, company string, src source.Sources) []string
}

// PageFetcher downloads one page, reporting false when it is unavailable.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, bool)
}

// LeakClassifier turns page text into a leak record.
type LeakClassifier interface {
	Classify(url, text, company string, now time.Time) (*model.LeakRecord, bool)
}

// EntityExtractor builds the entity bundle from snippet text.
type EntityExtractor interface {
	Extract(ctx context.Context, text, company string) model.EntityBundle
}

// LeakIndex records fingerprints and annotates records seen before.
type LeakIndex interface {
	ObserveLeaks(ctx context.Context, company string, leaks []*model.LeakRecord) error
}

// Notifier alerts the operator about a company's leaks.
type Notifier interface {
	Notify(ctx context.Context, company string, detectedAt time.Time, leaks []*model.LeakRecord) error
}

// LeakSaver archives a company's leaks.
type LeakSaver interface {
	SaveLeakData(company string, leaks []*model.LeakRecord, at time.Time) error
}

// EnumerateStep fills run.Candidates.
type EnumerateStep struct {
	source  CandidateSource
	sources source.Sources
}

// NewEnumerateStep creates an EnumerateStep over the given sources.
func NewEnumerateStep(cs CandidateSource, sources source.Sources) *EnumerateStep {
	return &EnumerateStep{source: cs, sources: sources}
}

// Name implements Step.
func (s *EnumerateStep) Name() string { return StepEnumerate }

// Do implements Step.
func (s *EnumerateStep) Do(ctx context.Context, run *model.ScanRun) error {
	run.Candidates = s.source.Enumerate(ctx, run.Company, s.sources)
	return nil
}

// FetchStep fetches every candidate through the pool and classifies it.
type FetchStep struct {
	pool       *Pool
	fetcher    PageFetcher
	classifier LeakClassifier
	now        func() time.Time
	logger     *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchClock sets the clock used for discovery times.
func WithFetchClock(now func() time.Time) FetchStepOption {
	return func(s *FetchStep) {
		s.now = now
	}
}

// WithFetchLogger sets the logger.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(pool *Pool, fetcher PageFetcher, classifier LeakClassifier, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		pool:       pool,
		fetcher:    fetcher,
		classifier: classifier,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name implements Step.
func (s *FetchStep) Name() string { return StepFetch }

// Do implements Step. Unavailable pages are skipped silently.
func (s *FetchStep) Do(ctx context.Context, run *model.ScanRun) error {
	var fetched atomic.Int64
	leaks, err := s.pool.Run(ctx, run.Candidates, func(ctx context.Context, url string) (*model.LeakRecord, bool) {
		text, ok := s.fetcher.Fetch(ctx, url)
		if !ok {
			return nil, false
		}
		fetched.Add(1)
		return s.classifier.Classify(url, text, run.Company, s.now())
	})

	run.Fetched = int(fetched.Load())
	run.Leaks = append(run.Leaks, leaks...)

	if len(run.Leaks) > 0 {
		s.logger.Warn("potential leak detected",
			"company", run.Company,
			"leaks", len(run.Leaks),
			"candidates", len(run.Candidates),
		)
	} else {
		s.logger.Info("no leaks found",
			"company", run.Company,
			"candidates", len(run.Candidates),
			"fetched", run.Fetched,
		)
	}
	return err
}

// ExtractStep attaches the entity bundle to the first leak record.
type ExtractStep struct {
	extractor EntityExtractor
	snippets  func([]*model.LeakRecord) string
}

// NewExtractStep creates an ExtractStep. snippets selects the text handed
// to the extractor.
func NewExtractStep(e EntityExtractor, snippets func([]*model.LeakRecord) string) *ExtractStep {
	return &ExtractStep{extractor: e, snippets: snippets}
}

// Name implements Step.
func (s *ExtractStep) Name() string { return StepExtract }

// Do implements Step.
func (s *ExtractStep) Do(ctx context.Context, run *model.ScanRun) error {
	if !run.LeakFound() {
		return nil
	}
	run.Leaks[0].ExtractedInfo = s.extractor.Extract(ctx, s.snippets(run.Leaks), run.Company)
	return nil
}

// IndexStep records fingerprints and marks repeat sightings.
type IndexStep struct {
	index LeakIndex
}

// NewIndexStep creates an IndexStep.
func NewIndexStep(index LeakIndex) *IndexStep {
	return &IndexStep{index: index}
}

// Name implements Step.
func (s *IndexStep) Name() string { return StepIndex }

// Do implements Step.
func (s *IndexStep) Do(ctx context.Context, run *model.ScanRun) error {
	if !run.LeakFound() {
		return nil
	}
	return s.index.ObserveLeaks(ctx, run.Company, run.Leaks)
}

// NotifyStep hands the leaks to the notification sinks.
type NotifyStep struct {
	notifier Notifier
	now      func() time.Time
}

// NewNotifyStep creates a NotifyStep.
func NewNotifyStep(n Notifier, now func() time.Time) *NotifyStep {
	if now == nil {
		now = time.Now
	}
	return &NotifyStep{notifier: n, now: now}
}

// Name implements Step.
func (s *NotifyStep) Name() string { return StepNotify }

// Do implements Step.
func (s *NotifyStep) Do(ctx context.Context, run *model.ScanRun) error {
	if !run.LeakFound() {
		return nil
	}
	return s.notifier.Notify(ctx, run.Company, s.now(), run.Leaks)
}

// PersistStep archives the leaks.
type PersistStep struct {
	saver LeakSaver
	now   func() time.Time
}

// NewPersistStep creates a PersistStep.
func NewPersistStep(saver LeakSaver, now func() time.Time) *PersistStep {
	if now == nil {
		now = time.Now
	}
	return &PersistStep{saver: saver, now: now}
}

// Name implements Step.
func (s *PersistStep) Name() string { return StepPersist }

// Do implements Step.
func (s *PersistStep) Do(_ context.Context, run *model.ScanRun) error {
	if !run.LeakFound() {
		return nil
	}
	return s.saver.SaveLeakData(run.Company, run.Leaks, s.now())
}
