// Package requestid correlates log lines and responses for one API request.
// Ids arriving from upstream callers are kept when usable so a stage run can
// be traced across the frontend, this service, and its logs.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// With returns a context carrying the given request id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the request id carried by ctx, or "" when none was set.
func From(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Ensure returns a context guaranteed to carry a request id. A usable
// inbound id (a valid UUID, e.g. from an X-Request-ID header) is adopted;
// anything else is replaced with a fresh one.
func Ensure(ctx context.Context, inbound string) (context.Context, string) {
	if _, err := uuid.Parse(inbound); err != nil {
		inbound = uuid.New().String()
	}
	return With(ctx, inbound), inbound
}
