package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"moniftar/internal/distribution/service"
	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/platform/middleware/admin"
	"moniftar/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the distribution operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, locID id.LocationID, at time.Time, stock int, description string) (*service.Scheduled, error)
	Delete(ctx context.Context, evID id.EventID) (*service.Deleted, error)
	Decrement(ctx context.Context, evID id.EventID, qty int) (*domain.DistributionEvent, error)
	Today(ctx context.Context) ([]service.EventView, error)
	Upcoming(ctx context.Context) ([]service.EventView, error)
}

// Handler serves the admin distribution endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the distribution routes. All of them require an admin.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdmin(h.logger))
		r.Post("/distributions", h.HandleCreate)
		r.Get("/distributions/today", h.HandleToday)
		r.Get("/distributions/upcoming", h.HandleUpcoming)
		r.Delete("/distributions/{id}", h.HandleDelete)
		r.Post("/distributions/{id}/decrement", h.HandleDecrement)
	})
}

// HandleCreate handles POST /distributions.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	out, err := h.service.Create(ctx, req.locationID, *req.ScheduledAt, *req.Stock, req.Description)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to create distribution", err, "location_id", req.LocationID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{
		Distribution:   toEventResponse(out.Event, out.Location.Name),
		VouchersIssued: out.Issued,
	})
}

// HandleDelete handles DELETE /distributions/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.service.Delete(ctx, evID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to delete distribution", err, "event_id", evID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DeleteResponse{
		Detail: "Distribution deleted successfully",
		Deleted: DeletedDistribution{
			ID:       out.Event.ID.String(),
			Date:     out.Event.ScheduledAt,
			Location: out.Location.Name,
			Stock:    out.Event.Stock,
		},
		VouchersRevoked: out.VouchersRevoked,
	})
}

// HandleDecrement handles POST /distributions/{id}/decrement.
func (h *Handler) HandleDecrement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	evID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecrementRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ev, err := h.service.Decrement(ctx, evID, req.quantity())
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to decrement stock", err, "event_id", evID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventResponse(ev, ""))
}

// HandleToday handles GET /distributions/today.
func (h *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.service.Today(ctx)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to list today's distributions", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TodayResponse{Distributions: toEventResponses(views)})
}

// HandleUpcoming handles GET /distributions/upcoming.
func (h *Handler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.service.Upcoming(ctx)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to list upcoming distributions", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, UpcomingResponse{Distributions: toEventResponses(views)})
}
