package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/goop/internal/model"
)

// Step is one phase of a crawl run. Steps are executed in sequence, each
// receiving the report accumulated by the steps before it.
type Step interface {
	// Do executes the step against the shared report. Per-URL problems
	// belong in the report's results; an error from Do means the phase
	// itself could not run to completion.
	Do(ctx context.Context, report *model.CrawlReport) error

	// Name identifies the step in logs and error messages.
	Name() string
}

// Pipeline runs an ordered list of steps against one crawl report.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError keeps later steps running after one fails.
	// When false, the pipeline stops at the first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps the pipeline running after a step fails.
// Failed steps are logged and their errors joined into the final return
// value. The default is to stop at the first error, because a crawl that
// never ran leaves nothing for the steps after it to work on.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence against the report.
// Cancellation is checked between steps; steps handle their own timeouts
// internally. Errors are returned wrapped with the failing step's name.
// With continueOnError unset the first failure stops the pipeline;
// otherwise every step runs and the collected failures are joined.
func (p *Pipeline) Execute(ctx context.Context, report *model.CrawlReport) error {
	var errs []error
	for _, step := range p.steps {
		// Check for cancellation before starting each step
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"seed", report.SeedURL,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"seed", report.SeedURL,
				"error", err,
			)

			wrapped := fmt.Errorf("%s step: %w", step.Name(), err)
			if !p.continueOnError {
				return wrapped
			}
			errs = append(errs, wrapped)
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"seed", report.SeedURL,
		)
	}

	return errors.Join(errs...)
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
