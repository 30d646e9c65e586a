// Package middleware applies sliding window limits to HTTP routes, keyed by
// client IP before authentication and by volunteer after it.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"moniftar/internal/ratelimit/models"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/requestcontext"
)

// BucketStore is satisfied by the in-memory and Redis bucket stores.
type BucketStore interface {
	Allow(ctx context.Context, key string, policy models.Policy) (*models.RateLimitResult, error)
}

// Metrics counts rejected requests by class. A nil *Metrics records nothing.
type Metrics struct {
	Rejected *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Rejected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "moniftar_rate_limited_total",
			Help: "Requests rejected by a rate limit, by class",
		}, []string{"class"}),
	}
}

func (m *Metrics) incRejected(class string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(class).Inc()
}

type Middleware struct {
	store   BucketStore
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Middleware)

func WithMetrics(m *Metrics) Option {
	return func(mw *Middleware) { mw.metrics = m }
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ByIP limits requests per client IP. Apply after the client metadata middleware.
func (m *Middleware) ByIP(class string, policy models.Policy) func(http.Handler) http.Handler {
	return m.limit(class, policy, func(r *http.Request) string {
		return requestcontext.ClientIP(r.Context())
	})
}

// ByVolunteer limits requests per authenticated volunteer and falls back to
// the client IP when no principal is present.
func (m *Middleware) ByVolunteer(class string, policy models.Policy) func(http.Handler) http.Handler {
	return m.limit(class, policy, func(r *http.Request) string {
		if p, ok := requestcontext.PrincipalFrom(r.Context()); ok {
			return p.VolunteerID.String()
		}
		return requestcontext.ClientIP(r.Context())
	})
}

// limit fails open: a store error is logged and the request goes through.
func (m *Middleware) limit(class string, policy models.Policy, subject func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			result, err := m.store.Allow(ctx, models.Key(class, subject(r)), policy)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"class", class,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.metrics.incRejected(class)
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"retry_after", result.RetryAfter,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
