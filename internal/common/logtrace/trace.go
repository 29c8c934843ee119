package logtrace

import (
	"context"
	"os"
	"strconv"
)

// EnvTrace turns on route tracing at server start.
const EnvTrace = "TRACKCATALOG_TRACE"

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id RequestLogger assigned, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func IsTraceEnabled() bool {
	on, _ := strconv.ParseBool(os.Getenv(EnvTrace))
	return on
}
