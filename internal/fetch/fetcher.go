package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/leakwatch/internal/metrics"
)

const (
	defaultMaxBodySize = 5 * 1024 * 1024
	defaultTimeout     = 25 * time.Second
	defaultIdentity    = "Mozilla/5.0 (Windows NT 10.0; rv:115.0) Gecko/20100101 Firefox/115.0"
)

// Fetcher downloads one candidate page per call.
type Fetcher struct {
	client      *http.Client
	identity    IdentityStrategy
	maxBodySize int64
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithIdentity sets the client identity strategy.
func WithIdentity(s IdentityStrategy) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.identity = s
		}
	}
}

// WithMaxBodySize caps how many bytes of a body are read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets the logger used for unavailable pages.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithMetrics records fetch results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher creates a Fetcher on client. The client carries the route
// (Tor or direct); the Fetcher never builds its own.
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		identity:    Fixed(defaultIdentity),
		maxBodySize: defaultMaxBodySize,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch returns the page body, or false when the page is unavailable.
// Failures are logged at debug level and never returned.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, bool) {
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		f.metrics.IncFetch(metrics.ResultUnavailable)
		f.logger.Debug("page unavailable", "url", rawURL, "error", err)
		return "", false
	}
	f.metrics.IncFetch(metrics.ResultOK)
	return body, true
}

// Get performs the request and returns the body of a 2xx response.
// Any other outcome is an *Error.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.identity.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck
		return "", &Error{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil && !errors.Is(err, io.EOF) {
		return "", &Error{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	return string(body), nil
}
