// Package requesttime pins one "now" per request so every check inside an
// operation (today's day, event in the future, voucher expiry) agrees.
package requesttime

import (
	"net/http"
	"time"

	"moniftar/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
