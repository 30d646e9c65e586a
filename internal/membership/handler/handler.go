package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"moniftar/internal/domain"
	"moniftar/internal/membership/service"
	id "moniftar/pkg/domain"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/platform/middleware/admin"
	"moniftar/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the membership operations exposed over HTTP.
type Service interface {
	Members(ctx context.Context, listID id.ListID, placement domain.Placement) (*service.ListMembers, error)
	Resize(ctx context.Context, listID id.ListID, newMax int) (*domain.DistributionList, error)
	Add(ctx context.Context, listID id.ListID, code string) (domain.Placement, error)
	Remove(ctx context.Context, listID id.ListID, code string) (*service.RemoveOutcome, error)
	Export(ctx context.Context, listID id.ListID) ([]byte, string, error)
	Summary(ctx context.Context, locID id.LocationID) (*service.LocationSummary, error)
}

// Handler serves distribution-list endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the list routes. r must already authenticate the caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/locations/{id}/lists", h.HandleSummary)

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdmin(h.logger))
		r.Get("/lists/{id}/beneficiaries", h.HandleMembers)
		r.Put("/lists/{id}/capacity", h.HandleResize)
		r.Post("/lists/{id}/members", h.HandleAdd)
		r.Delete("/lists/{id}/members/{code}", h.HandleRemove)
		r.Get("/lists/{id}/export.xlsx", h.HandleExport)
	})
}

// HandleMembers handles GET /lists/{id}/beneficiaries?list_type=main|waiting.
func (h *Handler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	placement, err := parseListType(r.URL.Query().Get("list_type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.service.Members(ctx, listID, placement)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to list distribution list members", err, "list_id", listID.String())
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "listed distribution list members",
		"request_id", requestID,
		"list_id", listID.String(),
		"count", len(out.Members),
	)
	httputil.WriteJSON(w, http.StatusOK, toMembersResponse(out))
}

// HandleResize handles PUT /lists/{id}/capacity.
func (h *Handler) HandleResize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	list, err := h.service.Resize(ctx, listID, *req.MaxMainListSize)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to resize distribution list", err, "list_id", listID.String())
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "distribution list resized",
		"request_id", requestID,
		"list_id", listID.String(),
		"max_main_list_size", list.MaxMainListSize,
	)
	httputil.WriteJSON(w, http.StatusOK, toListResponse(list))
}

// HandleAdd handles POST /lists/{id}/members.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddMemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	placement, err := h.service.Add(ctx, listID, req.BeneficiaryCode)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to add beneficiary to distribution list", err, "list_id", listID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, AddMemberResponse{
		BeneficiaryCode: req.BeneficiaryCode,
		ListType:        string(placement),
	})
}

// HandleRemove handles DELETE /lists/{id}/members/{code}. A beneficiary in
// neither sub-list answers 404 with the not-in-any-list description.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	out, err := h.service.Remove(ctx, listID, code)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to remove beneficiary from distribution list", err,
			"list_id", listID.String(),
			"beneficiary_code", code,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRemoveResponse(out))
}

// HandleExport handles GET /lists/{id}/export.xlsx.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	data, filename, err := h.service.Export(ctx, listID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to export distribution list", err, "list_id", listID.String())
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleSummary handles GET /locations/{id}/lists.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	locID, err := id.ParseLocationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.service.Summary(ctx, locID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to load location lists", err, "location_id", locID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSummaryResponse(out))
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) listID(w http.ResponseWriter, r *http.Request) (id.ListID, bool) {
	listID, err := id.ParseListID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ListID{}, false
	}
	return listID, true
}
