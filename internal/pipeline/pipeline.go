package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/leakwatch/internal/model"
)

// Step is one stage of a company scan. Steps mutate the run in place.
type Step interface {
	// Do performs the step.
	Do(ctx context.Context, run *model.ScanRun) error

	// Name identifies the step in logs and in run.PerformedSteps.
	Name() string
}

// Pipeline executes steps in sequence.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running later steps after a step fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs every step against run. Cancellation is observed between
// steps only; a running step finishes with whatever ctx it was given.
func (p *Pipeline) Execute(ctx context.Context, run *model.ScanRun) error {
	var errs []error
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"company", run.Company,
				"reason", ctx.Err(),
			)
			return errors.Join(append(errs, ctx.Err())...)
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"company", run.Company,
			"run_id", run.ID,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"company", run.Company,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", step.Name(), err))
			if !p.continueOnError {
				return errors.Join(errs...)
			}
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}
	return errors.Join(errs...)
}
