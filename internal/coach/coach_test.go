package coach

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathforge/internal/auth"
	"github.com/abhisek/pathforge/internal/cascade"
	"github.com/abhisek/pathforge/internal/config"
	"github.com/abhisek/pathforge/internal/content"
	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/metrics"
	"github.com/abhisek/pathforge/internal/progression"
	"github.com/abhisek/pathforge/internal/ratelimit"
	"github.com/abhisek/pathforge/internal/store"
)

const testSecret = "coach-test-secret"

var testProfile = curriculum.Profile{
	Goal:        "Learn Go",
	DailyTime:   "1hour",
	Duration:    "2weeks",
	Style:       "practical",
	TargetLevel: "intermediate",
}

const modelPlan = `{"title":"Go Fundamentals","modules":[
 {"title":"Setup","description":"Install Go","objectives":["install"],"type":"lesson"},
 {"title":"Syntax","description":"Basics","objectives":["vars"],"type":"lesson"},
 {"title":"Final","description":"Exam","objectives":["all"],"type":"exam"}
]}`

type harness struct {
	coach    *Coach
	model    *llm.MockProvider
	metrics  *metrics.Metrics
	verifier *auth.JWTVerifier
	store    *store.Store
}

func newHarness(t *testing.T, limits config.RateLimitConfig) *harness {
	t.Helper()
	db, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	model := llm.NewMockProvider().WithModelID("primary")
	m := metrics.New(nil)
	c := cascade.New(cascade.Policy{Attempts: []cascade.Attempt{
		{Name: "primary", Provider: model, Timeout: time.Second},
	}}, cascade.WithMetrics(m))

	v, err := auth.NewJWTVerifier(testSecret, "pathforge")
	require.NoError(t, err)

	co, err := New(Deps{
		Verifier: v,
		Limiter:  ratelimit.New(ratelimit.NewMemoryStore()),
		Limits:   limits,
		Planner:  curriculum.NewPlanner(c),
		Content:  content.NewService(c, content.NewStoreCache(db.ContentRepo())),
		Engine:   progression.NewEngine(progression.WithMetrics(m)),
		Store:    db,
		Metrics:  m,
	})
	require.NoError(t, err)
	return &harness{coach: co, model: model, metrics: m, verifier: v, store: db}
}

func answers(correct ...bool) progression.Submission {
	var sub progression.Submission
	for i, ok := range correct {
		a := progression.Answer{
			Question:      "q",
			CorrectAnswer: "yes",
			UserAnswer:    "no",
			Concept:       "concept" + string(rune('A'+i)),
			Difficulty:    progression.Medium,
		}
		if ok {
			a.UserAnswer = "yes"
		}
		sub.Answers = append(sub.Answers, a)
	}
	return sub
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()

	token, err := h.verifier.Issue("user-1", "u@example.com", time.Hour)
	require.NoError(t, err)

	id, err := h.coach.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)

	_, err = h.coach.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestGeneratePlan_StoresAndSupersedes(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	h.model.AddResponse(llm.TextResponse(modelPlan))
	h.model.AddResponse(llm.TextResponse(modelPlan))

	first, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.True(t, first.Active)
	assert.False(t, first.Synthetic)
	assert.Equal(t, "primary", first.Model)
	require.Len(t, first.Modules, 3)

	second, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := h.coach.ListPlans(ctx, "user-1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	all, err := h.coach.ListPlans(ctx, "user-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stored, err := h.coach.GetPlan(ctx, "user-1", first.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, "Learn Go", stored.Goal)
}

func TestGeneratePlan_ModelFailureStoresSyntheticPlan(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})

	plan, err := h.coach.GeneratePlan(context.Background(), "user-1", testProfile)
	require.NoError(t, err)
	assert.True(t, plan.Synthetic)
	assert.Len(t, plan.Modules, curriculum.ModuleCountFor("2weeks"))

	got, err := h.coach.GetPlan(context.Background(), "user-1", plan.ID)
	require.NoError(t, err)
	assert.True(t, got.Synthetic)
}

func TestGeneratePlan_InvalidProfile(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})

	_, err := h.coach.GeneratePlan(context.Background(), "user-1", curriculum.Profile{Goal: "Go"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, curriculum.ErrInvalidProfile)
	assert.Zero(t, h.model.CallCount())

	plans, err := h.coach.ListPlans(context.Background(), "user-1", false)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestGeneratePlan_RateLimited(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{
		Plan: config.Limit{Max: 1, Window: time.Minute},
	})
	ctx := context.Background()

	_, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	_, err = h.coach.GeneratePlan(ctx, "user-1", testProfile)
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, OpPlan, rl.Operation)
	assert.Greater(t, rl.RetryAfter, time.Duration(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RateLimited))

	// Quotas are per user.
	_, err = h.coach.GeneratePlan(ctx, "user-2", testProfile)
	assert.NoError(t, err)
}

func TestGeneratePlan_Cancelled(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	assert.ErrorIs(t, err, context.Canceled)

	plans, err := h.coach.ListPlans(context.Background(), "user-1", false)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestCheckRate(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.True(t, h.coach.CheckRate(ctx, "ip-1", 5, time.Second))
	}
	assert.False(t, h.coach.CheckRate(ctx, "ip-1", 5, time.Second))
}

func TestGetPlan_OtherUser(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	plan, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	_, err = h.coach.GetPlan(ctx, "user-2", plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.coach.GetPlan(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluateProgress_UnlocksAndPersists(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	plan, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	sub := answers(true, true, false, true)
	sub.Task = &progression.TaskSubmission{Response: "done"}
	sub.Feedback = "This was helpful and clear"

	res, err := h.coach.EvaluateProgress(ctx, "user-1", plan.ID, "1", sub)
	require.NoError(t, err)
	assert.Equal(t, 75, res.PerformanceScore)
	assert.Equal(t, "2", res.Unlocked)

	stored, err := h.coach.GetPlan(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	assert.True(t, stored.Modules[0].Completed)
	assert.True(t, stored.Modules[1].Unlocked)
	for _, m := range stored.Modules[2:] {
		assert.False(t, m.Unlocked, "module %s", m.ID)
	}

	progress, err := h.coach.Progress(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, 75, progress[0].Score)
	assert.True(t, progress[0].Completed)
	assert.Contains(t, string(progress[0].Body), `"response":"done"`)

	fb, err := h.store.FeedbackRepo().ListByPlan(ctx, "user-1", plan.ID, 0)
	require.NoError(t, err)
	require.Len(t, fb, 1)
	assert.Equal(t, 1, fb[0].Sentiment)
	assert.Equal(t, "1", fb[0].ModuleID)
}

func TestEvaluateProgress_Errors(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	plan, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	_, err = h.coach.EvaluateProgress(ctx, "user-1", plan.ID, "1", progression.Submission{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, progression.ErrNoAnswers)

	_, err = h.coach.EvaluateProgress(ctx, "user-1", plan.ID, "3", answers(true))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, progression.ErrModuleLocked)

	_, err = h.coach.EvaluateProgress(ctx, "user-1", plan.ID, "99", answers(true))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.coach.EvaluateProgress(ctx, "user-2", plan.ID, "1", answers(true))
	assert.ErrorIs(t, err, ErrNotFound)

	progress, err := h.coach.Progress(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	assert.Empty(t, progress)
}

func TestEvaluateProgress_ConcurrentSubmissions(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	plan, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.coach.EvaluateProgress(ctx, "user-1", plan.ID, "1", answers(true))
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Zero(t, h.coach.locks.len())

	stored, err := h.coach.GetPlan(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	assert.True(t, stored.Modules[1].Unlocked)
	assert.False(t, stored.Modules[2].Unlocked)
}

func TestGenerateModuleContent_UsesPriorPerformance(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	plan, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	res, err := h.coach.EvaluateProgress(ctx, "user-1", plan.ID, "1", answers(false, false, false))
	require.NoError(t, err)
	require.Equal(t, progression.Easier, res.NextModuleDifficulty)

	sections, err := h.coach.GenerateModuleContent(ctx, "user-1", plan.ID, "2")
	require.NoError(t, err)
	require.Len(t, sections, len(content.Kinds))
	for _, s := range sections {
		assert.True(t, s.Fallback(), "section %s", s.Kind)
		assert.Equal(t, content.LevelBeginner, s.Metadata[content.MetaDifficulty])
	}

	first, err := h.coach.GenerateModuleContent(ctx, "user-1", plan.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, "intermediate", first[0].Metadata[content.MetaDifficulty])

	_, err = h.coach.GenerateModuleContent(ctx, "user-1", plan.ID, "42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveFeedbackAndRegenerate(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	h.model.AddResponse(llm.TextResponse(modelPlan))
	plan, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	_, err = h.coach.EvaluateProgress(ctx, "user-1", plan.ID, "1", answers(true))
	require.NoError(t, err)

	rec, err := h.coach.SaveFeedback(ctx, "user-1", plan.ID, "2", "Syntax was confusing and too long", 2)
	require.NoError(t, err)
	assert.Equal(t, -1, rec.Sentiment)
	assert.NotEmpty(t, rec.ID)

	_, err = h.coach.SaveFeedback(ctx, "user-1", plan.ID, "", "  ", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.coach.SaveFeedback(ctx, "user-1", plan.ID, "", "ok", 9)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.coach.SaveFeedback(ctx, "user-1", plan.ID, "77", "ok", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	h.model.AddResponse(llm.TextResponse(modelPlan))
	next, err := h.coach.RegeneratePlan(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	assert.NotEqual(t, plan.ID, next.ID)
	assert.True(t, next.Active)
	assert.Equal(t, "Learn Go", next.Goal)

	calls := h.model.Requests()
	require.NotEmpty(t, calls)
	prompt := calls[len(calls)-1].Messages[0].Content
	assert.Contains(t, prompt, "Module 2: Syntax was confusing")
	assert.Contains(t, prompt, "Setup")

	old, err := h.coach.GetPlan(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)
}

func TestEvaluateProgress_FailedPlanWriteRollsBackProgress(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	plan, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	_, err = h.store.DB().ExecContext(ctx,
		`CREATE TRIGGER plans_frozen BEFORE UPDATE ON plans BEGIN SELECT RAISE(ABORT, 'plans frozen'); END`)
	require.NoError(t, err)

	_, err = h.coach.EvaluateProgress(ctx, "user-1", plan.ID, "1", answers(true, true))
	require.Error(t, err)

	progress, err := h.coach.Progress(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	assert.Empty(t, progress, "progress must not outlive a failed plan update")

	stored, err := h.coach.GetPlan(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	assert.False(t, stored.Modules[0].Completed)
	assert.False(t, stored.Modules[1].Unlocked)
}

func TestGeneratePlan_FailedInsertKeepsActivePlan(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	first, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	_, err = h.store.DB().ExecContext(ctx,
		`CREATE TRIGGER plans_full BEFORE INSERT ON plans BEGIN SELECT RAISE(ABORT, 'plans full'); END`)
	require.NoError(t, err)

	_, err = h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.Error(t, err)

	active, err := h.coach.ListPlans(ctx, "user-1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)
}

func TestDeactivatePlan(t *testing.T) {
	h := newHarness(t, config.RateLimitConfig{})
	ctx := context.Background()
	plan, err := h.coach.GeneratePlan(ctx, "user-1", testProfile)
	require.NoError(t, err)

	require.NoError(t, h.coach.DeactivatePlan(ctx, "user-1", plan.ID))
	require.NoError(t, h.coach.DeactivatePlan(ctx, "user-1", plan.ID))

	active, err := h.coach.ListPlans(ctx, "user-1", true)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, h.coach.DeactivatePlan(ctx, "user-2", plan.ID), ErrNotFound)

	stored, err := h.coach.GetPlan(ctx, "user-1", plan.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Len(t, stored.Modules, len(plan.Modules))
}

func TestSentiment(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Great module, very helpful", 1},
		{"Too hard and confusing", -1},
		{"It was fine", 0},
		{"Good examples but confusing ending", 0},
		{"the module was unclear", -1},
		{"Unclear intro, but the rest was clear", 0},
		{"I didn’t understand the last part", -1},
		{"I enjoyed it.", 1},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sentiment(tt.text), tt.text)
	}
}

func TestRateLimitedError(t *testing.T) {
	err := error(&RateLimitedError{Operation: OpContent, RetryAfter: 1500 * time.Millisecond})
	assert.True(t, strings.Contains(err.Error(), "content"))
	var rl *RateLimitedError
	assert.True(t, errors.As(err, &rl))
}

func TestKeyedMutex(t *testing.T) {
	var k keyedMutex
	var mu sync.Mutex
	var inside, peak int
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := k.Lock("plan")
			defer release()
			mu.Lock()
			inside++
			peak = max(peak, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, peak)
	assert.Zero(t, k.len())
}
