package progression

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/logging"
	"github.com/abhisek/pathforge/internal/metrics"
)

// Engine evaluates submissions against a plan. Scoring is deterministic;
// an optional Enricher may refine the result but is never required.
type Engine struct {
	enricher Enricher
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnricher enables the secondary judgment step.
func WithEnricher(e Enricher) Option {
	return func(en *Engine) { en.enricher = e }
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(en *Engine) { en.log = logging.OrNop(log) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(en *Engine) { en.metrics = m }
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores sub for the module and, on success, completes it and
// unlocks its successor in plan. The plan is only mutated when Evaluate
// returns a nil error. Re-evaluating a completed module returns a fresh
// result without changing the plan.
func (e *Engine) Evaluate(ctx context.Context, plan *curriculum.Plan, moduleID string, sub Submission) (Result, error) {
	if len(sub.Answers) == 0 {
		return Result{}, ErrNoAnswers
	}
	m, ok := plan.Module(moduleID)
	if !ok {
		return Result{}, ErrModuleNotFound
	}
	if StateOf(*m) == Locked {
		return Result{}, ErrModuleLocked
	}

	res, err := Assess(sub.Answers)
	if err != nil {
		return Result{}, err
	}

	if e.enricher != nil {
		enr, err := e.enricher.Enrich(ctx, EnrichInput{Module: *m, Submission: sub, Result: res})
		switch {
		case ctx.Err() != nil:
			return Result{}, ctx.Err()
		case err != nil:
			e.log.Warn("evaluation enrichment failed, using deterministic result",
				zap.String("module", moduleID), zap.Error(err))
		default:
			res = Apply(res, enr)
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	unlocked, err := Complete(plan, moduleID)
	if err != nil {
		return Result{}, err
	}
	res.Unlocked = unlocked

	e.metrics.ObserveEvaluation(string(res.NextModuleDifficulty))
	e.log.Info("module evaluated",
		zap.String("plan", plan.ID),
		zap.String("module", moduleID),
		zap.Int("score", res.PerformanceScore),
		zap.Int("level", res.UnderstandingLevel),
		zap.String("next", string(res.NextModuleDifficulty)),
		zap.Bool("enriched", res.Enriched))
	return res, nil
}
