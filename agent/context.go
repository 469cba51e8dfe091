package agent

import (
	"context"
	"time"
)

type callTimeoutKey struct{}

// WithCallTimeout overrides the configured timeout for a single call carried
// on the context. The workflow uses it to extend a deadline after the user
// chooses to retry a timed-out agent.
func WithCallTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, callTimeoutKey{}, d)
}

// callTimeout returns the per-call timeout override, if any.
func callTimeout(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Value(callTimeoutKey{}).(time.Duration)
	return d, ok && d > 0
}
