package store

import (
	"context"
	"encoding/json"
	"time"
)

// Records carry domain payloads as JSON bodies so this package stays
// free of domain imports. Get methods return (nil, nil) when absent.

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match
	Failed  bool      // unsuccessful calls only
}

// PlanRecord is a stored learning plan.
type PlanRecord struct {
	ID        string
	UserID    string
	Title     string
	Goal      string
	Active    bool
	Synthetic bool
	Body      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanRepo stores learning plans.
type PlanRepo interface {
	// Create inserts a new plan.
	Create(ctx context.Context, p *PlanRecord) error

	// Update replaces title, body and active flag of an existing plan.
	Update(ctx context.Context, p *PlanRecord) error

	Get(ctx context.Context, id string) (*PlanRecord, error)

	// ListByUser returns the user's plans, newest first.
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]PlanRecord, error)

	// SetActive flips only the active flag, leaving the body untouched.
	// It reports whether the plan exists.
	SetActive(ctx context.Context, id string, active bool) (bool, error)

	// DeactivateAll marks every active plan of the user inactive and
	// returns how many changed.
	DeactivateAll(ctx context.Context, userID string) (int64, error)
}

// ContentRecord is one generated section of a module.
type ContentRecord struct {
	PlanID    string
	ModuleID  string
	Kind      string
	Body      json.RawMessage
	CreatedAt time.Time
}

// ContentRepo caches generated module content per (plan, module, kind).
type ContentRepo interface {
	Put(ctx context.Context, c *ContentRecord) error
	List(ctx context.Context, planID, moduleID string) ([]ContentRecord, error)
}

// ProgressRecord is one evaluation outcome per (user, plan, module).
type ProgressRecord struct {
	UserID    string
	PlanID    string
	ModuleID  string
	Score     int
	Level     int
	Completed bool
	Body      json.RawMessage
	UpdatedAt time.Time
}

// ProgressRepo stores evaluation outcomes.
type ProgressRepo interface {
	// Upsert inserts or replaces the record for (user, plan, module).
	Upsert(ctx context.Context, p *ProgressRecord) error
	Get(ctx context.Context, userID, planID, moduleID string) (*ProgressRecord, error)
	ListByPlan(ctx context.Context, userID, planID string) ([]ProgressRecord, error)
}

// FeedbackRecord is learner feedback on a plan or module.
type FeedbackRecord struct {
	ID        string
	UserID    string
	PlanID    string
	ModuleID  string
	Text      string
	Rating    int
	Sentiment int
	CreatedAt time.Time
}

// FeedbackRepo stores learner feedback.
type FeedbackRepo interface {
	Append(ctx context.Context, f *FeedbackRecord) error

	// ListByPlan returns feedback newest first; limit 0 means all.
	ListByPlan(ctx context.Context, userID, planID string, limit int) ([]FeedbackRecord, error)
}

// LLMRequestEventData captures the data for a single model call.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	Failure      string // failure class of an unsuccessful call
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a recorded model call.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates calls per purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int
}

// ModelUsage aggregates calls per model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries model calls.
type EventRepo interface {
	// AppendLLMRequest records a model call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
