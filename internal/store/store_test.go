package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createPlan(t *testing.T, s *Store, id, user string) *PlanRecord {
	t.Helper()
	p := &PlanRecord{
		ID:     id,
		UserID: user,
		Title:  "Go Learning Plan",
		Goal:   "Go",
		Active: true,
		Body:   json.RawMessage(`{"modules":[]}`),
	}
	if err := s.PlanRepo().Create(context.Background(), p); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return p
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"plans", "module_contents", "progress", "feedback", "llm_events", "counters"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestPlanRepo_CreateGetUpdate(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlanRepo()
	ctx := context.Background()

	got, err := repo.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = %v, %v; want nil, nil", got, err)
	}

	p := createPlan(t, s, "p1", "u1")

	got, err = repo.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != p.Title || !got.Active || string(got.Body) != `{"modules":[]}` {
		t.Fatalf("unexpected plan: %+v", got)
	}

	got.Body = json.RawMessage(`{"modules":[{"id":"1"}]}`)
	got.Title = "Renamed"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := repo.Get(ctx, "p1")
	if again.Title != "Renamed" || string(again.Body) != `{"modules":[{"id":"1"}]}` {
		t.Fatalf("update not persisted: %+v", again)
	}

	if err := repo.Update(ctx, &PlanRecord{ID: "nope"}); err == nil {
		t.Fatal("expected error updating missing plan")
	}
}

func TestPlanRepo_ActiveFlags(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlanRepo()
	ctx := context.Background()

	createPlan(t, s, "p1", "u1")
	createPlan(t, s, "p2", "u1")
	createPlan(t, s, "p3", "u2")

	n, err := repo.DeactivateAll(ctx, "u1")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if n != 2 {
		t.Fatalf("deactivated %d plans, want 2", n)
	}

	ok, err := repo.SetActive(ctx, "p2", true)
	if err != nil || !ok {
		t.Fatalf("SetActive = %v, %v", ok, err)
	}
	ok, _ = repo.SetActive(ctx, "missing", true)
	if ok {
		t.Fatal("expected SetActive on missing plan to report false")
	}

	active, err := repo.ListByUser(ctx, "u1", true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].ID != "p2" {
		t.Fatalf("active plans = %+v, want only p2", active)
	}

	all, _ := repo.ListByUser(ctx, "u1", false)
	if len(all) != 2 {
		t.Fatalf("all plans = %d, want 2", len(all))
	}
}

func TestContentRepo_PutOverwrites(t *testing.T) {
	s := openTestStore(t)
	repo := s.ContentRepo()
	ctx := context.Background()
	createPlan(t, s, "p1", "u1")

	for _, body := range []string{`{"content":"v1"}`, `{"content":"v2"}`} {
		err := repo.Put(ctx, &ContentRecord{PlanID: "p1", ModuleID: "1", Kind: "introduction", Body: json.RawMessage(body)})
		if err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if err := repo.Put(ctx, &ContentRecord{PlanID: "p1", ModuleID: "1", Kind: "summary_evaluation", Body: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.List(ctx, "p1", "1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sections = %d, want 2", len(got))
	}
	for _, c := range got {
		if c.Kind == "introduction" && string(c.Body) != `{"content":"v2"}` {
			t.Fatalf("introduction body = %s, want v2", c.Body)
		}
	}

	other, _ := repo.List(ctx, "p1", "2")
	if len(other) != 0 {
		t.Fatalf("expected no content for module 2, got %d", len(other))
	}
}

func TestProgressRepo_Upsert(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()
	createPlan(t, s, "p1", "u1")

	rec := &ProgressRecord{UserID: "u1", PlanID: "p1", ModuleID: "1", Score: 40, Level: 3, Body: json.RawMessage(`{}`)}
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rec.Score, rec.Level, rec.Completed = 75, 4, true
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.Get(ctx, "u1", "p1", "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 75 || got.Level != 4 || !got.Completed {
		t.Fatalf("unexpected progress: %+v", got)
	}

	list, _ := repo.ListByPlan(ctx, "u1", "p1")
	if len(list) != 1 {
		t.Fatalf("progress rows = %d, want 1", len(list))
	}

	missing, err := repo.Get(ctx, "u1", "p1", "9")
	if err != nil || missing != nil {
		t.Fatalf("Get(missing) = %v, %v", missing, err)
	}
}

func TestFeedbackRepo_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.FeedbackRepo()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		err := repo.Append(ctx, &FeedbackRecord{
			ID:        fmt.Sprintf("f%d", i),
			UserID:    "u1",
			PlanID:    "p1",
			Text:      fmt.Sprintf("note %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := repo.ListByPlan(ctx, "u1", "p1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "f3" || got[2].ID != "f1" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestEventRepo_AppendQueryAndStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "gemini-1.5-flash", Model: "gemini-1.5-flash", Purpose: "plan", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "gemini-1.5-flash", Model: "gemini-1.5-flash", Purpose: "content", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Provider: "gpt-4o-mini", Model: "gpt-4o-mini", Purpose: "plan", LatencyMs: 400, ErrorMessage: "boom", RequestBody: "[user]\nhi"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].Model != "gpt-4o-mini" || all[0].Sequence != 3 {
		t.Fatalf("unexpected events: %+v", all)
	}

	plans, _ := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "plan", Limit: 1})
	if len(plans) != 1 || plans[0].Success {
		t.Fatalf("expected latest plan event (failed), got %+v", plans)
	}

	e, err := repo.GetLLMEvent(ctx, all[0].ID)
	if err != nil || e == nil {
		t.Fatalf("get: %v, %v", e, err)
	}
	if e.ErrorMessage != "boom" || e.RequestBody != "[user]\nhi" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if missing, _ := repo.GetLLMEvent(ctx, 999); missing != nil {
		t.Fatal("expected nil for missing event")
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 || byPurpose[0].Purpose != "plan" || byPurpose[0].Calls != 2 || byPurpose[0].AvgLatencyMs != 300 {
		t.Fatalf("unexpected purpose usage: %+v", byPurpose)
	}

	byModel, _ := repo.LLMUsageByModel(ctx)
	if len(byModel) != 2 || byModel[0].Model != "gemini-1.5-flash" || byModel[0].InputTokens != 110 {
		t.Fatalf("unexpected model usage: %+v", byModel)
	}
}

func TestCountersAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := counters{db: s.DB()}

	for i := 1; i <= 3; i++ {
		v, err := c.next(ctx, llmEventCounter)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if v != int64(i) {
			t.Errorf("llm_events[%d] = %d, want %d", i, v, i)
		}
	}
	v, err := c.next(ctx, "other")
	if err != nil || v != 1 {
		t.Fatalf("other = %d, %v; want 1", v, err)
	}
}

func TestEventSequenceSurvivesDeletion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	data := LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "plan", Failure: "rate_limit", ErrorMessage: "slow down"}
	for i := 0; i < 2; i++ {
		if err := repo.AppendLLMRequest(ctx, data); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := s.DB().ExecContext(ctx, `DELETE FROM llm_events`); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, data); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 || events[0].Sequence != 3 || events[0].Failure != "rate_limit" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestWithTx_CommitsAndRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createPlan(t, s, "p1", "u1")

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.Plans.DeactivateAll(ctx, "u1"); err != nil {
			return err
		}
		if err := tx.Progress.Upsert(ctx, &ProgressRecord{UserID: "u1", PlanID: "p1", ModuleID: "1", Completed: true, Body: json.RawMessage(`{}`)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}
	p, _ := s.PlanRepo().Get(ctx, "p1")
	if p == nil || !p.Active {
		t.Fatalf("rolled back plan = %+v, want still active", p)
	}
	if rec, _ := s.ProgressRepo().Get(ctx, "u1", "p1", "1"); rec != nil {
		t.Fatalf("rolled back progress = %+v, want none", rec)
	}

	err = s.WithTx(ctx, func(tx Tx) error {
		_, err := tx.Plans.SetActive(ctx, "p1", false)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if p, _ := s.PlanRepo().Get(ctx, "p1"); p.Active {
		t.Fatal("committed deactivation not visible")
	}
}

func TestWithTx_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, func(Tx) error { called = true; return nil })
	if err == nil || called {
		t.Fatalf("WithTx on cancelled ctx: err=%v called=%v", err, called)
	}
}
