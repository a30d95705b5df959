// Package cascade runs a prompt through an ordered list of model
// attempts. Attempts are sequential and never retried individually: a
// failure, timeout or shape rejection moves on to the next attempt, and
// the first response that passes the shape check wins.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/logging"
	"github.com/abhisek/pathforge/internal/metrics"
)

// DefaultTimeout bounds an attempt that sets no timeout of its own.
const DefaultTimeout = 30 * time.Second

// Attempt is one entry of a policy: a model plus its call settings.
type Attempt struct {
	Name        string
	Provider    llm.Provider
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Policy is the ordered list of attempts and the default shape check.
type Policy struct {
	Attempts []Attempt
	Check    ShapeCheck
}

// Names returns the attempt names in order.
func (p Policy) Names() []string {
	names := make([]string, len(p.Attempts))
	for i, a := range p.Attempts {
		names[i] = a.Name
	}
	return names
}

// Prompt is a single-turn generation request.
type Prompt struct {
	System string
	User   string

	// JSON asks backends with a JSON mode to use it.
	JSON bool

	// Check overrides the policy's shape check when non-zero.
	Check ShapeCheck
}

// Result is the winning response.
type Result struct {
	Text    string
	Model   string
	Attempt int // 1-based index into the policy
}

// Cascade executes a Policy.
type Cascade struct {
	policy  Policy
	log     *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a Cascade.
type Option func(*Cascade)

// WithLogger sets the logger used for absorbed failures.
func WithLogger(log *zap.Logger) Option {
	return func(c *Cascade) { c.log = logging.OrNop(log) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cascade) { c.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Cascade) { c.tracer = t }
}

// New creates a Cascade for policy.
func New(policy Policy, opts ...Option) *Cascade {
	c := &Cascade{
		policy: policy,
		log:    zap.NewNop(),
		tracer: otel.Tracer("github.com/abhisek/pathforge/internal/cascade"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the policy this cascade runs.
func (c *Cascade) Policy() Policy { return c.policy }

// Logger returns the cascade's logger.
func (c *Cascade) Logger() *zap.Logger { return c.log }

// Metrics returns the cascade's metrics sink, possibly nil.
func (c *Cascade) Metrics() *metrics.Metrics { return c.metrics }

// Generate runs p through the policy. It returns *AllModelsFailedError
// when every attempt failed, or the context error as soon as ctx ends.
func (c *Cascade) Generate(ctx context.Context, p Prompt) (Result, error) {
	check := p.Check
	if check.IsZero() {
		check = c.policy.Check
	}

	ctx, span := c.tracer.Start(ctx, "cascade.Generate", trace.WithAttributes(
		attribute.String("purpose", llm.PurposeFrom(ctx)),
		attribute.Int("attempts", len(c.policy.Attempts)),
	))
	defer span.End()

	var failures []error
	for i, a := range c.policy.Attempts {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return Result{}, err
		}

		text, err := c.attempt(ctx, a, p, check)
		if err == nil {
			span.SetAttributes(attribute.String("model", a.Name), attribute.Int("attempt", i+1))
			return Result{Text: text, Model: a.Name, Attempt: i + 1}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, "cancelled")
			return Result{}, ctxErr
		}

		failures = append(failures, err)
		c.log.Warn("model attempt failed",
			zap.String("model", a.Name),
			zap.Int("attempt", i+1),
			zap.String("purpose", llm.PurposeFrom(ctx)),
			zap.String("failure", llm.Classify(err)),
			zap.Error(err))
	}

	err := &AllModelsFailedError{Attempts: failures}
	span.RecordError(err)
	span.SetStatus(codes.Error, "all models failed")
	return Result{}, err
}

func (c *Cascade) attempt(ctx context.Context, a Attempt, p Prompt, check ShapeCheck) (string, error) {
	ctx, span := c.tracer.Start(ctx, "cascade.attempt", trace.WithAttributes(
		attribute.String("model", a.Name),
	))
	defer span.End()

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.Provider.Generate(callCtx, llm.Request{
		System:      p.System,
		Messages:    llm.UserMessage(p.User),
		JSON:        p.JSON,
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
	})
	elapsed := time.Since(start)

	if err != nil {
		outcome := llm.Classify(err)
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
			err = fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		c.metrics.ObserveAttempt(a.Name, outcome, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return "", &ModelCallError{Model: a.Name, Err: err}
	}

	text := resp.Text()
	if err := check.Validate(text); err != nil {
		c.metrics.ObserveAttempt(a.Name, metrics.OutcomeRejected, elapsed)
		span.SetStatus(codes.Error, metrics.OutcomeRejected)
		c.log.Debug("response rejected",
			zap.String("model", a.Name),
			zap.String("sample", logging.Sample(text)))
		return "", &ModelCallError{Model: a.Name, Err: err}
	}

	c.metrics.ObserveAttempt(a.Name, metrics.OutcomeSuccess, elapsed)
	span.SetAttributes(attribute.Int("response_bytes", len(text)))
	return text, nil
}
