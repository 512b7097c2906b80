// Package requestcontext carries request-scoped values: the request id and a
// single "now" captured when the request arrived. Every timestamp written
// while serving one request (donation dates, response times, audit events)
// should come from Now so they agree with each other.
package requestcontext

import (
	"context"
	"time"
)

type timeKey struct{}
type requestIDKey struct{}

// WithTime stores t as the request-scoped time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey{}, t)
}

// Now returns the request-scoped time, falling back to the wall clock when
// the middleware did not run (background work, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithRequestID stores the correlation id for the request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id, or "" when absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
