// Package common holds values carried in the request context.
package common

import (
	"context"
)

type ctxWritesAllowedKeyType string

const ctxWritesAllowedKey ctxWritesAllowedKeyType = "TrackApiWritesAllowed"

// SetWritesAllowedInContext marks whether mutating operations may run for the request.
func SetWritesAllowedInContext(ctx context.Context, allowed bool) context.Context {
	return context.WithValue(ctx, ctxWritesAllowedKey, allowed)
}

// WritesAllowedFromContext returns false unless writes were explicitly allowed.
func WritesAllowedFromContext(ctx context.Context) bool {
	if allowed, ok := ctx.Value(ctxWritesAllowedKey).(bool); ok {
		return allowed
	}
	return false
}
