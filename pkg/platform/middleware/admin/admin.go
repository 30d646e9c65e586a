// Package admin guards routes reserved to administrators.
package admin

import (
	"log/slog"
	"net/http"

	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/requestcontext"
)

// RequireAdmin must run after auth.RequireAuth. It rejects principals that are
// not admins or that have not completed their first login.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, ok := requestcontext.PrincipalFrom(ctx)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !p.CanAdminister() {
				logger.WarnContext(ctx, "admin role required",
					"volunteer_id", p.VolunteerID.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
