// Package coach is the entry point callers use: it authenticates,
// applies per-operation quotas, orchestrates plan, content and
// evaluation generation, and persists the results.
package coach

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/auth"
	"github.com/abhisek/pathforge/internal/config"
	"github.com/abhisek/pathforge/internal/content"
	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/logging"
	"github.com/abhisek/pathforge/internal/metrics"
	"github.com/abhisek/pathforge/internal/progression"
	"github.com/abhisek/pathforge/internal/ratelimit"
	"github.com/abhisek/pathforge/internal/store"
)

// Rate-limited operations.
const (
	OpPlan     = "plan"
	OpContent  = "content"
	OpEvaluate = "evaluate"
	OpFeedback = "feedback"
)

// Deps are the collaborators of a Coach. Planner, Content, Engine and
// Store are required.
type Deps struct {
	Verifier auth.Verifier
	Limiter  *ratelimit.Limiter
	Limits   config.RateLimitConfig
	Planner  *curriculum.Planner
	Content  *content.Service
	Engine   *progression.Engine
	Store    *store.Store
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Coach is the core facade.
type Coach struct {
	verifier auth.Verifier
	limiter  *ratelimit.Limiter
	limits   map[string]config.Limit

	planner *curriculum.Planner
	content *content.Service
	engine  *progression.Engine

	db       *store.Store
	plans    store.PlanRepo
	progress store.ProgressRepo
	feedback store.FeedbackRepo

	locks   keyedMutex
	log     *zap.Logger
	metrics *metrics.Metrics
	newID   func() string
	now     func() time.Time
}

// New creates a Coach.
func New(d Deps) (*Coach, error) {
	switch {
	case d.Planner == nil:
		return nil, errors.New("coach: planner is required")
	case d.Content == nil:
		return nil, errors.New("coach: content service is required")
	case d.Engine == nil:
		return nil, errors.New("coach: progression engine is required")
	case d.Store == nil:
		return nil, errors.New("coach: store is required")
	}
	return &Coach{
		verifier: d.Verifier,
		limiter:  d.Limiter,
		limits: map[string]config.Limit{
			OpPlan:     d.Limits.Plan,
			OpContent:  d.Limits.Content,
			OpEvaluate: d.Limits.Evaluate,
			OpFeedback: d.Limits.Feedback,
		},
		planner:  d.Planner,
		content:  d.Content,
		engine:   d.Engine,
		db:       d.Store,
		plans:    d.Store.PlanRepo(),
		progress: d.Store.ProgressRepo(),
		feedback: d.Store.FeedbackRepo(),
		log:      logging.OrNop(d.Logger),
		metrics:  d.Metrics,
		newID:    uuid.NewString,
		now:      time.Now,
	}, nil
}

// Authenticate resolves a bearer credential to an identity.
func (c *Coach) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	if c.verifier == nil {
		return auth.Identity{}, errors.Join(ErrUnauthorized, errors.New("no verifier configured"))
	}
	id, err := c.verifier.Verify(ctx, token)
	if err != nil {
		c.log.Info("credential rejected", zap.Error(err))
		return auth.Identity{}, errors.Join(ErrUnauthorized, err)
	}
	return id, nil
}

// CheckRate records a call for identity and reports whether it is
// within maxAttempts for the window. Without a limiter every call passes.
func (c *Coach) CheckRate(ctx context.Context, identity string, maxAttempts int, window time.Duration) bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow(ctx, identity, maxAttempts, window)
}

// guard applies the configured quota for op to userID. Operations
// without a positive Max are unlimited.
func (c *Coach) guard(ctx context.Context, op, userID string) error {
	l := c.limits[op]
	if c.limiter == nil || l.Max <= 0 {
		return nil
	}
	identity := op + ":" + userID
	if c.CheckRate(ctx, identity, l.Max, l.Window) {
		return nil
	}
	c.metrics.ObserveRateLimited()
	retry := c.limiter.RemainingTime(ctx, identity)
	c.log.Info("rate limited",
		zap.String("operation", op), zap.String("user", userID), zap.Duration("retry_after", retry))
	return &RateLimitedError{Operation: op, RetryAfter: retry}
}
