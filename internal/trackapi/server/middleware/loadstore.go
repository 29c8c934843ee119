package middleware

import (
	"net/http"

	"github.com/tansive/trackcatalog/internal/trackapi/common"
	"github.com/tansive/trackcatalog/internal/trackapi/db"
)

// LoadStore puts the track store into the request context.
func LoadStore(store db.TrackStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := db.WithStore(r.Context(), store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AllowWrites records whether the deployment accepts mutating requests.
func AllowWrites(allowed bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := common.SetWritesAllowedInContext(r.Context(), allowed)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
