package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
)

// HistorySource returns the scan history ledger.
type HistorySource interface {
	Load() model.ScanHistory
}

// RunLister lists recorded scan runs.
type RunLister interface {
	ListRuns(ctx context.Context, company string, limit int) ([]database.RunRecord, error)
}

// Server holds the dependencies of the status API.
type Server struct {
	addr      string
	router    http.Handler
	history   HistorySource
	runs      RunLister
	metrics   *metrics.Metrics
	transport string
	logger    *slog.Logger
	started   time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithHistory serves the scan history ledger.
func WithHistory(h HistorySource) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithRuns serves recorded scan runs.
func WithRuns(r RunLister) Option {
	return func(s *Server) {
		s.runs = r
	}
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTransport reports the fetch route in the health response.
func WithTransport(description string) Option {
	return func(s *Server) {
		s.transport = description
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server listening on addr.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down status server: %w", err)
	}
	return nil
}
