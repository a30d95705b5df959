package llm

import "context"

// Purposes label each model call in logs and llm_events.
const (
	PurposePlan       = "plan"
	PurposeRegenerate = "plan-regenerate"
	PurposeContent    = "content"
	PurposeEvaluate   = "evaluate"

	purposeUnset = "unlabelled"
)

type purposeKey struct{}

func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unlabelled".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return purposeUnset
}
