package request

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// chiRoutePattern returns the matched route template so metrics do not get one
// label per voucher code.
func chiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
