package curriculum

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/cascade"
	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/logging"
	"github.com/abhisek/pathforge/internal/recovery"
)

// Planner generates learning plans through a model cascade. It never
// fails because of model behaviour: exhaustion or unrecoverable output
// yields a synthetic plan.
type Planner struct {
	cascade *cascade.Cascade
	log     *zap.Logger
}

// NewPlanner creates a Planner using c for generation.
func NewPlanner(c *cascade.Cascade) *Planner {
	return &Planner{cascade: c, log: c.Logger()}
}

// GeneratePlan builds a plan for profile. It returns an error only for
// an invalid profile or when ctx ends.
func (p *Planner) GeneratePlan(ctx context.Context, profile Profile) (*Plan, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	ctx = llm.WithPurpose(ctx, llm.PurposePlan)

	out, err := cascade.Resolve(ctx, p.cascade,
		cascade.Prompt{
			System: planSystemPrompt,
			User:   buildPlanUserMessage(profile),
			JSON:   true,
			Check:  planCheck,
		},
		p.parser(ctx, recovery.Strict, profile.Goal),
		func(error) Plan { return SyntheticPlan(profile) },
	)
	if err != nil {
		return nil, err
	}
	return p.finish(out, profile), nil
}

// RegeneratePlan builds a replacement plan steered by feedback and the
// titles of modules already completed. Output is recovered with the lax
// engine.
func (p *Planner) RegeneratePlan(ctx context.Context, profile Profile, feedbacks []Feedback, completed []string) (*Plan, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeRegenerate)

	out, err := cascade.Resolve(ctx, p.cascade,
		cascade.Prompt{
			System: planSystemPrompt,
			User:   buildRegenerateUserMessage(profile, feedbacks, completed),
			JSON:   true,
			Check:  planCheck,
		},
		p.parser(ctx, recovery.Lax, profile.Goal),
		func(error) Plan { return RegenerationFallback(profile) },
	)
	if err != nil {
		return nil, err
	}
	return p.finish(out, profile), nil
}

func (p *Planner) finish(out cascade.Outcome[Plan], profile Profile) *Plan {
	plan := out.Value
	plan.ApplyProfile(profile)
	plan.Model = out.Model
	plan.Synthetic = out.Fallback
	if out.Fallback {
		plan.Model = ""
	}
	return &plan
}

// parser recovers, validates and normalizes model text into a plan.
func (p *Planner) parser(ctx context.Context, engine *recovery.Engine, goal string) func(string) (Plan, error) {
	purpose := llm.PurposeFrom(ctx)
	return func(text string) (Plan, error) {
		res, err := engine.Run(text)
		if err != nil {
			var re *recovery.RecoveryError
			if errors.As(err, &re) {
				p.log.Debug("plan recovery failed",
					zap.String("stage", re.Stage),
					zap.String("sample", logging.Sample(re.Text)))
			}
			return Plan{}, err
		}
		p.cascade.Metrics().ObserveRecovery(purpose, res.Stage)
		if res.Stage != recovery.StageDirect {
			p.log.Info("plan recovered",
				zap.String("purpose", purpose),
				zap.String("stage", res.Stage))
		}

		if err := llm.ValidateValue(PlanSchema, res.Value); err != nil {
			return Plan{}, fmt.Errorf("plan candidate: %w", err)
		}
		return Normalize(res.Value, goal)
	}
}
