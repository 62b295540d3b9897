package middleware

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds every store operation downstream of the handler
// by deriving a deadline on the request context. Timed-out operations fail
// with a retryable error; the webhook providers' redelivery plus handler
// idempotency make blind retries safe.
func TimeoutMiddleware(d time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
