package coach

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/store"
)

// GeneratePlan builds a new plan for the user and makes it the user's
// only active plan. Model failures never surface: the synthetic plan is
// stored instead. Only an invalid profile, a quota breach, a cancelled
// context or a store failure return an error.
func (c *Coach) GeneratePlan(ctx context.Context, userID string, profile curriculum.Profile) (*curriculum.Plan, error) {
	if err := profile.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := c.guard(ctx, OpPlan, userID); err != nil {
		return nil, err
	}

	plan, err := c.planner.GeneratePlan(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := c.activate(ctx, userID, plan); err != nil {
		return nil, err
	}
	c.log.Info("plan generated",
		zap.String("user", userID), zap.String("plan", plan.ID),
		zap.Int("modules", len(plan.Modules)), zap.Bool("synthetic", plan.Synthetic))
	return plan, nil
}

// RegeneratePlan replaces planID with a fresh plan informed by the
// learner's recent feedback and completed modules.
func (c *Coach) RegeneratePlan(ctx context.Context, userID, planID string) (*curriculum.Plan, error) {
	if err := c.guard(ctx, OpPlan, userID); err != nil {
		return nil, err
	}
	old, err := c.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	records, err := c.feedback.ListByPlan(ctx, userID, planID, curriculum.MaxFeedbackItems)
	if err != nil {
		return nil, fmt.Errorf("loading feedback: %w", err)
	}
	feedbacks := make([]curriculum.Feedback, 0, len(records))
	for _, r := range records {
		feedbacks = append(feedbacks, curriculum.Feedback{ModuleID: r.ModuleID, Text: r.Text})
	}

	profile := curriculum.Profile{
		Goal:        old.Goal,
		DailyTime:   old.Pace,
		Duration:    old.Duration,
		Style:       old.Style,
		TargetLevel: old.TargetLevel,
	}
	plan, err := c.planner.RegeneratePlan(ctx, profile, feedbacks, old.CompletedTitles())
	if err != nil {
		return nil, err
	}
	if err := c.activate(ctx, userID, plan); err != nil {
		return nil, err
	}
	c.log.Info("plan regenerated",
		zap.String("user", userID), zap.String("from", planID), zap.String("plan", plan.ID),
		zap.Int("feedback", len(feedbacks)), zap.Bool("synthetic", plan.Synthetic))
	return plan, nil
}

// activate assigns identity to plan, supersedes the user's active plans
// and stores it.
func (c *Coach) activate(ctx context.Context, userID string, plan *curriculum.Plan) error {
	plan.ID = c.newID()
	plan.UserID = userID
	plan.Active = true
	plan.CreatedAt = c.now().UTC()

	body, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	// The new plan and the superseding of older ones commit together.
	return c.db.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.Plans.DeactivateAll(ctx, userID)
		if err != nil {
			return fmt.Errorf("superseding plans: %w", err)
		}
		err = tx.Plans.Create(ctx, &store.PlanRecord{
			ID:        plan.ID,
			UserID:    userID,
			Title:     plan.Title,
			Goal:      plan.Goal,
			Active:    true,
			Synthetic: plan.Synthetic,
			Body:      body,
			CreatedAt: plan.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("storing plan: %w", err)
		}
		if n > 0 {
			c.log.Debug("superseded active plans", zap.String("user", userID), zap.Int64("count", n))
		}
		return nil
	})
}

// GetPlan returns the user's plan.
func (c *Coach) GetPlan(ctx context.Context, userID, planID string) (*curriculum.Plan, error) {
	rec, err := c.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != userID {
		return nil, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	return decodePlan(rec)
}

// ListPlans returns the user's plans, newest first.
func (c *Coach) ListPlans(ctx context.Context, userID string, activeOnly bool) ([]*curriculum.Plan, error) {
	recs, err := c.plans.ListByUser(ctx, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]*curriculum.Plan, 0, len(recs))
	for i := range recs {
		p, err := decodePlan(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// DeactivatePlan marks the user's plan inactive.
func (c *Coach) DeactivatePlan(ctx context.Context, userID, planID string) error {
	plan, err := c.GetPlan(ctx, userID, planID)
	if err != nil {
		return err
	}
	if !plan.Active {
		return nil
	}
	if _, err := c.plans.SetActive(ctx, plan.ID, false); err != nil {
		return fmt.Errorf("deactivating plan: %w", err)
	}
	return nil
}

func savePlan(ctx context.Context, plans store.PlanRepo, plan *curriculum.Plan) error {
	body, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	err = plans.Update(ctx, &store.PlanRecord{
		ID:     plan.ID,
		Title:  plan.Title,
		Active: plan.Active,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("storing plan: %w", err)
	}
	return nil
}

// decodePlan rebuilds a plan from its record. Columns win over the body
// for fields that can change outside the body.
func decodePlan(rec *store.PlanRecord) (*curriculum.Plan, error) {
	var p curriculum.Plan
	if err := json.Unmarshal(rec.Body, &p); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", rec.ID, err)
	}
	p.ID = rec.ID
	p.UserID = rec.UserID
	p.Active = rec.Active
	if p.CreatedAt.IsZero() {
		p.CreatedAt = rec.CreatedAt
	}
	return &p, nil
}
