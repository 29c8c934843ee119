package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/httpx"
	"github.com/tansive/trackcatalog/internal/common/logtrace"
)

// RequestIDHeader carries the id of a request back to the caller.
const RequestIDHeader = "X-Track-Request-ID"

// RequestLogger gives every request an id and a logger carrying it, and logs
// the request once it is served.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := logtrace.WithRequestID(r.Context(), requestID)
		ctx = log.With().Str("request_id", requestID).Logger().WithContext(ctx)
		w.Header().Set(RequestIDHeader, requestID)

		start := time.Now()
		rw := httpx.NewResponseWriter(w)
		next.ServeHTTP(rw, r.WithContext(ctx))

		ev := log.Ctx(ctx).Info()
		if rw.Status() >= http.StatusInternalServerError {
			ev = log.Ctx(ctx).Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_ip", r.RemoteAddr).
			Int("status", rw.Status()).
			Int("size", rw.Size()).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}
