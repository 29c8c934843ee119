package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/httpx"
	"github.com/tansive/trackcatalog/internal/common/logtrace"
)

// PanicHandler turns a panic in a handler into a 500 that carries the
// request id, so the stack logged here can be found again.
func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")
			msg := "Unable to process request. Please try again later."
			if id := logtrace.RequestIDFromContext(r.Context()); id != "" {
				msg += " Request id: " + id
			}
			httpx.ErrApplicationError(msg).Send(w)
		}()
		next.ServeHTTP(w, r)
	})
}
