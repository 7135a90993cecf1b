package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/leakwatch/internal/model"
)

// DefaultConcurrency is the fetch limit used when none is configured.
const DefaultConcurrency = 5

// WorkFunc processes one URL and optionally yields a leak record.
type WorkFunc func(ctx context.Context, url string) (*model.LeakRecord, bool)

// Pool runs a WorkFunc over many URLs with bounded concurrency.
// Excess URLs queue until a slot frees up.
type Pool struct {
	concurrency int
	logger      *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithConcurrency sets the maximum number of in-flight URLs.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPoolLogger sets the pool logger.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates a Pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Concurrency returns the in-flight limit.
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// Run applies fn to every URL and returns the yielded records in completion
// order. URLs not yet started when ctx is done are skipped; started ones
// finish. The error is ctx.Err() in that case.
func (p *Pool) Run(ctx context.Context, urls []string, fn WorkFunc) ([]*model.LeakRecord, error) {
	p.logger.Debug("starting fetch pool",
		"urls", len(urls),
		"concurrency", p.concurrency,
	)
	start := time.Now()

	var (
		mu      sync.Mutex
		results = make([]*model.LeakRecord, 0)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, u := range urls {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			record, ok := fn(gctx, u)
			if !ok || record == nil {
				return nil
			}

			mu.Lock()
			results = append(results, record)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	p.logger.Debug("fetch pool complete",
		"urls", len(urls),
		"matches", len(results),
		"elapsed", time.Since(start),
	)
	return results, err
}
