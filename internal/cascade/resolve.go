package cascade

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/logging"
)

// Fallback reasons recorded in metrics.
const (
	ReasonAllModelsFailed = "all_models_failed"
	ReasonUnrecoverable   = "unrecoverable"
)

// Outcome is the value produced by Resolve.
type Outcome[T any] struct {
	Value T

	// Model is the attempt that produced the text, empty on fallback
	// after exhaustion.
	Model string

	// Fallback is set when Value came from the fallback supplier.
	Fallback bool

	// Reason is the absorbed failure that triggered the fallback.
	Reason error
}

// Resolve runs p through c and turns the winning text into a T with
// parse. When every model fails or parse rejects the text, the failure
// is logged and fallback supplies the value instead. The only error
// returned is the context error when ctx ends first.
func Resolve[T any](ctx context.Context, c *Cascade, p Prompt, parse func(text string) (T, error), fallback func(reason error) T) (Outcome[T], error) {
	purpose := llm.PurposeFrom(ctx)

	res, err := c.Generate(ctx, p)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome[T]{}, ctxErr
		}
		c.log.Warn("cascade exhausted, using fallback",
			zap.String("purpose", purpose),
			zap.Strings("models", c.policy.Names()),
			zap.Error(err))
		c.metrics.ObserveFallback(purpose, ReasonAllModelsFailed)
		return Outcome[T]{Value: fallback(err), Fallback: true, Reason: err}, nil
	}

	v, err := parse(res.Text)
	if err != nil {
		c.log.Warn("model output unrecoverable, using fallback",
			zap.String("purpose", purpose),
			zap.String("model", res.Model),
			zap.String("sample", logging.Sample(res.Text)),
			zap.Error(err))
		c.metrics.ObserveFallback(purpose, ReasonUnrecoverable)
		return Outcome[T]{Value: fallback(err), Model: res.Model, Fallback: true, Reason: err}, nil
	}
	return Outcome[T]{Value: v, Model: res.Model}, nil
}
