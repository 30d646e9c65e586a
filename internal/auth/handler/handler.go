package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"moniftar/internal/auth/service"
	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/platform/middleware/admin"
	"moniftar/pkg/platform/middleware/auth"
	"moniftar/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the authentication and volunteer operations exposed over HTTP.
type Service interface {
	Login(ctx context.Context, phone, password string) (*service.Session, error)
	CompleteFirstLogin(ctx context.Context, p requestcontext.Principal, in service.FirstLogin) (*service.Session, error)
	Logout(ctx context.Context, p requestcontext.Principal) error
	Me(ctx context.Context, volID id.VolunteerID) (*domain.Volunteer, error)
	CreateVolunteer(ctx context.Context, phone string) (*domain.Volunteer, error)
	MakeAdmin(ctx context.Context, code string) (*domain.Volunteer, error)
	Volunteers(ctx context.Context) ([]*domain.Volunteer, error)
}

// Handler serves login, session and volunteer management endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the routes reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts the authenticated routes. r must already authenticate the caller.
func (h *Handler) Register(r chi.Router) {
	r.With(auth.RequireFirstLogin(h.logger)).Post("/auth/first-login", h.HandleFirstLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdmin(h.logger))
		r.Post("/volunteers", h.HandleCreateVolunteer)
		r.Get("/volunteers", h.HandleListVolunteers)
		r.Post("/volunteers/{code}/admin", h.HandleMakeAdmin)
	})
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	out, err := h.service.Login(ctx, req.Phone, req.Password)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "login rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTokenResponse(out))
}

// HandleFirstLogin handles POST /auth/first-login.
func (h *Handler) HandleFirstLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[FirstLoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	out, err := h.service.CompleteFirstLogin(ctx, p, service.FirstLogin{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		HomeLocation: req.homeLocation,
		Password:     req.Password,
	})
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to complete first login", err,
			"volunteer_id", p.VolunteerID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTokenResponse(out))
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.service.Logout(ctx, p); err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to logout", err, "volunteer_id", p.VolunteerID.String())
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /auth/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	v, err := h.service.Me(ctx, p.VolunteerID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to load current volunteer", err, "volunteer_id", p.VolunteerID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVolunteerResponse(v))
}

// HandleCreateVolunteer handles POST /volunteers.
func (h *Handler) HandleCreateVolunteer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateVolunteerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	v, err := h.service.CreateVolunteer(ctx, req.Phone)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to create volunteer", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateVolunteerResponse{
		Message:   "Volunteer created successfully.",
		Phone:     v.Phone,
		Volunteer: toVolunteerResponse(v),
	})
}

// HandleListVolunteers handles GET /volunteers.
func (h *Handler) HandleListVolunteers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := h.service.Volunteers(ctx)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to list volunteers", err)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]VolunteerResponse, 0, len(all))
	for _, v := range all {
		resp = append(resp, toVolunteerResponse(v))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleMakeAdmin handles POST /volunteers/{code}/admin.
func (h *Handler) HandleMakeAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")
	v, err := h.service.MakeAdmin(ctx, code)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to promote volunteer", err, "volunteer_code", code)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MakeAdminResponse{
		Message:   "Volunteer " + v.Code + " is now an admin.",
		Volunteer: toVolunteerResponse(v),
	})
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (requestcontext.Principal, bool) {
	ctx := r.Context()
	p, ok := requestcontext.PrincipalFrom(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "principal missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return requestcontext.Principal{}, false
	}
	return p, true
}
