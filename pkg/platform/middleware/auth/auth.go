package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/requestcontext"
)

// JWTValidator validates a bearer token and returns its claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker reports whether a token ID has been revoked (logout).
type TokenRevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTClaims is the transport-neutral view of an access token.
type JWTClaims struct {
	VolunteerID       string
	IsAdmin           bool
	FirstLoginPending bool
	HomeLocation      string
	JTI               string
	ExpiresAt         time.Time
}

func toPrincipal(c *JWTClaims) (requestcontext.Principal, error) {
	volunteerID, err := id.ParseVolunteerID(c.VolunteerID)
	if err != nil {
		return requestcontext.Principal{}, err
	}
	p := requestcontext.Principal{
		VolunteerID:       volunteerID,
		IsAdmin:           c.IsAdmin,
		FirstLoginPending: c.FirstLoginPending,
		TokenID:           c.JTI,
		ExpiresAt:         c.ExpiresAt,
	}
	if c.HomeLocation != "" {
		loc, err := id.ParseLocationID(c.HomeLocation)
		if err != nil {
			return requestcontext.Principal{}, err
		}
		p.HomeLocation = &loc
	}
	return p, nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, msg))
}

// RequireAuth validates the bearer token, rejects revoked tokens and stores the
// principal in the request context.
func RequireAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				unauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			if revocationChecker != nil {
				if claims.JTI == "" {
					logger.WarnContext(ctx, "unauthorized access - missing token jti",
						"request_id", requestID,
					)
					unauthorized(w, "Invalid or expired token")
					return
				}
				revoked, err := revocationChecker.IsRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.JTI,
						"request_id", requestID,
					)
					unauthorized(w, "Token has been revoked")
					return
				}
			}

			principal, err := toPrincipal(claims)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed claims",
					"error", err,
					"request_id", requestID,
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

func guard(logger *slog.Logger, reason string, allow func(requestcontext.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, ok := requestcontext.PrincipalFrom(ctx)
			if !ok {
				unauthorized(w, "authentication required")
				return
			}
			if !allow(p) {
				logger.WarnContext(ctx, "forbidden",
					"reason", reason,
					"volunteer_id", p.VolunteerID.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, reason))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOperator admits any volunteer whose first login is complete.
func RequireOperator(logger *slog.Logger) func(http.Handler) http.Handler {
	return guard(logger, "first login must be completed", requestcontext.Principal.CanOperate)
}

// RequireRegularVolunteer admits operators that are not admins. Beneficiary
// registration is done by field volunteers attached to a location.
func RequireRegularVolunteer(logger *slog.Logger) func(http.Handler) http.Handler {
	return guard(logger, "only field volunteers may register beneficiaries", func(p requestcontext.Principal) bool {
		return p.CanOperate() && !p.IsAdmin
	})
}

// RequireFirstLogin admits only principals that still have to complete their
// first login.
func RequireFirstLogin(logger *slog.Logger) func(http.Handler) http.Handler {
	return guard(logger, "first login already completed", func(p requestcontext.Principal) bool {
		return p.FirstLoginPending
	})
}
