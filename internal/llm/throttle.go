package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ThrottleProvider is a decorator that paces outbound requests with a
// token bucket. It never retries: a failed call is reported as is.
type ThrottleProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithThrottle wraps a Provider with request pacing. A non-positive rate
// returns p unchanged.
func WithThrottle(p Provider, cfg ThrottleConfig) Provider {
	if cfg.RequestsPerMinute <= 0 {
		return p
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	perSecond := rate.Limit(cfg.RequestsPerMinute / 60)
	return &ThrottleProvider{inner: p, limiter: rate.NewLimiter(perSecond, burst)}
}

func (t *ThrottleProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The wait would outlive the caller's deadline.
		return nil, &ErrRateLimit{RetryAfter: t.delay(), Err: err}
	}
	return t.inner.Generate(ctx, req)
}

func (t *ThrottleProvider) ModelID() string {
	return t.inner.ModelID()
}

func (t *ThrottleProvider) delay() time.Duration {
	r := t.limiter.Reserve()
	defer r.Cancel()
	return r.Delay()
}
