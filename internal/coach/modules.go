package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/content"
	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/progression"
	"github.com/abhisek/pathforge/internal/store"
)

// progressBody is the JSON body of a progress record.
type progressBody struct {
	Result progression.Result          `json:"result"`
	Task   *progression.TaskSubmission `json:"task,omitempty"`
}

// GenerateModuleContent returns every content section of the module. The
// evaluation of the preceding module, when stored, steers the level.
// Section generation degrades per section and never fails on model
// errors.
func (c *Coach) GenerateModuleContent(ctx context.Context, userID, planID, moduleID string) ([]content.Section, error) {
	if err := c.guard(ctx, OpContent, userID); err != nil {
		return nil, err
	}
	plan, err := c.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	m, ok := plan.Module(moduleID)
	if !ok {
		return nil, fmt.Errorf("module %s: %w", moduleID, ErrNotFound)
	}

	prior, err := c.priorResult(ctx, userID, plan, moduleID)
	if err != nil {
		c.log.Warn("loading prior performance failed", zap.String("module", moduleID), zap.Error(err))
	}
	return c.content.Generate(ctx, content.Request{
		PlanID: plan.ID,
		Module: *m,
		Style:  plan.Style,
		Level:  plan.TargetLevel,
		Prior:  prior,
	})
}

// priorResult loads the stored evaluation of the module whose successor
// is moduleID.
func (c *Coach) priorResult(ctx context.Context, userID string, plan *curriculum.Plan, moduleID string) (*progression.Result, error) {
	var prev string
	for _, m := range plan.Modules {
		if m.Next == moduleID {
			prev = m.ID
			break
		}
	}
	if prev == "" {
		return nil, nil
	}
	rec, err := c.progress.Get(ctx, userID, plan.ID, prev)
	if err != nil || rec == nil {
		return nil, err
	}
	var body progressBody
	if err := json.Unmarshal(rec.Body, &body); err != nil {
		return nil, fmt.Errorf("decoding progress: %w", err)
	}
	return &body.Result, nil
}

// EvaluateProgress scores a submission, completes the module and unlocks
// its successor. Evaluations of the same plan are serialized.
func (c *Coach) EvaluateProgress(ctx context.Context, userID, planID, moduleID string, sub progression.Submission) (progression.Result, error) {
	if len(sub.Answers) == 0 {
		return progression.Result{}, invalid(progression.ErrNoAnswers)
	}
	if err := c.guard(ctx, OpEvaluate, userID); err != nil {
		return progression.Result{}, err
	}

	unlock := c.locks.Lock(planID)
	defer unlock()

	plan, err := c.GetPlan(ctx, userID, planID)
	if err != nil {
		return progression.Result{}, err
	}
	res, err := c.engine.Evaluate(ctx, plan, moduleID, sub)
	switch {
	case errors.Is(err, progression.ErrModuleNotFound):
		return progression.Result{}, fmt.Errorf("module %s: %w", moduleID, ErrNotFound)
	case errors.Is(err, progression.ErrModuleLocked), errors.Is(err, progression.ErrNoAnswers):
		return progression.Result{}, invalid(err)
	case err != nil:
		return progression.Result{}, err
	}

	body, err := json.Marshal(progressBody{Result: res, Task: sub.Task})
	if err != nil {
		return progression.Result{}, fmt.Errorf("encoding progress: %w", err)
	}
	// The progress row and the unlocked plan commit together.
	err = c.db.WithTx(ctx, func(tx store.Tx) error {
		err := tx.Progress.Upsert(ctx, &store.ProgressRecord{
			UserID:    userID,
			PlanID:    planID,
			ModuleID:  moduleID,
			Score:     res.PerformanceScore,
			Level:     res.UnderstandingLevel,
			Completed: true,
			Body:      body,
		})
		if err != nil {
			return fmt.Errorf("storing progress: %w", err)
		}
		return savePlan(ctx, tx.Plans, plan)
	})
	if err != nil {
		return progression.Result{}, err
	}

	if sub.Feedback != "" {
		if _, err := c.appendFeedback(ctx, userID, planID, moduleID, sub.Feedback, 0); err != nil {
			c.log.Warn("storing submission feedback failed", zap.String("module", moduleID), zap.Error(err))
		}
	}
	return res, nil
}

// Progress returns the user's stored evaluations for a plan.
func (c *Coach) Progress(ctx context.Context, userID, planID string) ([]store.ProgressRecord, error) {
	if _, err := c.GetPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return c.progress.ListByPlan(ctx, userID, planID)
}
