// Package httptransport assembles the chi router: global middleware, probes,
// metrics, public routes and the authenticated API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"moniftar/internal/platform/metrics"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/platform/middleware/auth"
	"moniftar/pkg/platform/middleware/metadata"
	"moniftar/pkg/platform/middleware/request"
	"moniftar/pkg/platform/middleware/requesttime"
)

// Registrar mounts routes that require an authenticated volunteer.
type Registrar interface {
	Register(r chi.Router)
}

// PublicRegistrar is implemented by handlers that also expose unauthenticated routes.
type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config carries everything the router needs besides the handlers.
type Config struct {
	Logger         *slog.Logger
	Registry       *prometheus.Registry
	Tokens         auth.JWTValidator
	Revocations    auth.TokenRevocationChecker
	RequestTimeout time.Duration
	Checks         map[string]HealthCheck

	// PublicMiddleware wraps the unauthenticated routes, APIMiddleware the
	// authenticated ones after RequireAuth.
	PublicMiddleware []func(http.Handler) http.Handler
	APIMiddleware    []func(http.Handler) http.Handler
}

const readinessTimeout = 2 * time.Second

// NewRouter wires the middleware chain and mounts every handler. Public
// routes are mounted before the auth group so they never see RequireAuth.
func NewRouter(cfg Config, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	var observer request.LatencyObserver
	if cfg.Registry != nil {
		observer = metrics.NewHTTP(cfg.Registry)
	}

	r.Use(request.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(cfg.Logger, observer))
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(cfg.Logger, cfg.Checks))
	if cfg.Registry != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Registry))
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.PublicMiddleware...)
		for _, h := range handlers {
			if p, ok := h.(PublicRegistrar); ok {
				p.RegisterPublic(r)
			}
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Tokens, cfg.Revocations, cfg.Logger))
		r.Use(cfg.APIMiddleware...)
		for _, h := range handlers {
			h.Register(r)
		}
	})

	return r
}

// readiness runs every check concurrently and answers 503 naming the failed ones.
func readiness(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		errs := make([]error, len(checks))
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}

		var g errgroup.Group
		for i, name := range names {
			check := checks[name]
			g.Go(func() error {
				errs[i] = check(ctx)
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		for i, name := range names {
			if errs[i] != nil {
				status = http.StatusServiceUnavailable
				results[name] = "unavailable"
				logger.WarnContext(ctx, "readiness check failed", "check", name, "error", errs[i])
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, results)
	}
}
