package source

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/leakwatch/internal/metrics"
)

// Sources is the part of the configuration the enumerator reads.
type Sources struct {
	SearchEngines   []string
	SearchTerms     []string
	StaticSites     []string
	ExcludedDomains []string
}

// Getter performs one GET and returns the body. *fetch.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string) (string, error)
}

// Enumerator queries search backends and collects candidate URLs.
type Enumerator struct {
	getter  Getter
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithQueryDelay spaces successive backend queries by d.
// Zero disables pacing.
func WithQueryDelay(d time.Duration) Option {
	return func(e *Enumerator) {
		if d <= 0 {
			e.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		e.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enumerator) {
		e.logger = logger
	}
}

// WithMetrics records query results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enumerator) {
		e.metrics = m
	}
}

// NewEnumerator creates an Enumerator that queries backends through getter.
func NewEnumerator(getter Getter, opts ...Option) *Enumerator {
	e := &Enumerator{
		getter:  getter,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Enumerate returns the sorted, deduplicated candidate URL set for company.
// The static sites are always part of the result. Enumeration stops
// querying when ctx is done but still returns what it has.
func (e *Enumerator) Enumerate(ctx context.Context, company string, src Sources) []string {
	seen := make(map[string]struct{})
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		seen[u] = struct{}{}
	}

	for _, site := range src.StaticSites {
		add(site)
	}

queries:
	for _, engine := range src.SearchEngines {
		for _, term := range src.SearchTerms {
			if err := e.limiter.Wait(ctx); err != nil {
				e.logger.Warn("search enumeration interrupted", "company", company, "error", err)
				break queries
			}
			for _, link := range e.search(ctx, engine, term, company, src.ExcludedDomains) {
				add(link)
			}
		}
	}

	candidates := make([]string, 0, len(seen))
	for u := range seen {
		candidates = append(candidates, u)
	}
	slices.Sort(candidates)

	e.logger.Info("candidate urls enumerated", "company", company, "count", len(candidates))
	return candidates
}

// search runs one backend query. Failures are logged and yield no links.
func (e *Enumerator) search(ctx context.Context, engine, term, company string, excluded []string) []string {
	queryURL := BuildQueryURL(engine, term+" "+company)
	logger := e.logger.With("engine", engine, "term", term, "company", company)

	body, err := e.getter.Get(ctx, queryURL)
	if err != nil {
		e.metrics.IncQuery(metrics.ResultFailed)
		logger.Warn("search backend query failed", "error", err)
		return nil
	}

	links, err := ExtractLinks(strings.NewReader(body), excluded)
	if err != nil {
		e.metrics.IncQuery(metrics.ResultFailed)
		logger.Warn("search results unparsable", "error", err)
		return nil
	}

	e.metrics.IncQuery(metrics.ResultOK)
	logger.Debug("search backend answered", "links", len(links))
	return links
}
