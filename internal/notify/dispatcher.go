package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
)

// Dispatcher sends every alert to all of its sinks.
type Dispatcher struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSink adds a sink. Nil sinks are ignored.
func WithSink(s Sink) DispatcherOption {
	return func(d *Dispatcher) {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics records delivery results.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a Dispatcher. Without sinks it does nothing.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Notify delivers the leaks through every sink. Each sink runs regardless
// of the others; their errors are logged and returned joined.
func (d *Dispatcher) Notify(ctx context.Context, company string, detectedAt time.Time, leaks []*model.LeakRecord) error {
	alert := Alert{Company: company, DetectedAt: detectedAt, Leaks: leaks}

	var errs []error
	for _, sink := range d.sinks {
		err := d.send(ctx, sink, alert)
		d.metrics.IncNotification(sink.Name(), err)
		if err != nil {
			d.logger.Error("notification failed", "sink", sink.Name(), "company", company, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		d.logger.Info("notification sent", "sink", sink.Name(), "company", company, "leaks", len(leaks))
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) send(ctx context.Context, sink Sink, alert Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Send(ctx, alert)
}
