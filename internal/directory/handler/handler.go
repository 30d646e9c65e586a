package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"moniftar/internal/directory/service"
	"moniftar/internal/domain"
	membership "moniftar/internal/membership/service"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/platform/middleware/admin"
	"moniftar/pkg/platform/middleware/auth"
	"moniftar/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the directory operations exposed over HTTP.
type Service interface {
	CreateLocation(ctx context.Context, name string, capacity *int) (*service.LocationDetail, error)
	RenameLocation(ctx context.Context, locID id.LocationID, name string) (*domain.Location, error)
	Locations(ctx context.Context) ([]*domain.Location, error)
	SearchLocations(ctx context.Context, fragment string) ([]*domain.Location, error)
	RegisterBeneficiary(ctx context.Context, op domain.Operator, firstName, lastName, phone string) (*service.Registration, error)
	DeleteBeneficiary(ctx context.Context, code string) (*membership.RemoveOutcome, error)
	Beneficiaries(ctx context.Context) ([]*domain.Beneficiary, error)
	FindBeneficiary(ctx context.Context, code string) (*domain.Beneficiary, error)
}

// Handler serves location and beneficiary endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the directory routes. r must already authenticate the caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/locations", h.HandleListLocations)
	r.Get("/locations/search", h.HandleSearchLocations)
	r.With(auth.RequireRegularVolunteer(h.logger)).Post("/beneficiaries", h.HandleRegisterBeneficiary)

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdmin(h.logger))
		r.Post("/locations", h.HandleCreateLocation)
		r.Patch("/locations/{id}", h.HandleRenameLocation)
		r.Get("/beneficiaries", h.HandleListBeneficiaries)
		r.Get("/beneficiaries/search", h.HandleSearchBeneficiary)
		r.Delete("/beneficiaries/{code}", h.HandleDeleteBeneficiary)
	})
}

// HandleCreateLocation handles POST /locations.
func (h *Handler) HandleCreateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateLocationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	out, err := h.service.CreateLocation(ctx, req.Name, req.MaxMainListSize)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to create location", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateLocationResponse{
		Message:            "Location and associated distribution list created successfully.",
		Location:           toLocationResponse(out.Location),
		DistributionListID: out.List.ID.String(),
		MaxMainListSize:    out.List.MaxMainListSize,
	})
}

// HandleRenameLocation handles PATCH /locations/{id}.
func (h *Handler) HandleRenameLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	locID, err := id.ParseLocationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RenameLocationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	loc, err := h.service.RenameLocation(ctx, locID, req.Name)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to rename location", err, "location_id", locID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLocationResponse(loc))
}

// HandleListLocations handles GET /locations.
func (h *Handler) HandleListLocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locs, err := h.service.Locations(ctx)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to list locations", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLocationResponses(locs))
}

// HandleSearchLocations handles GET /locations/search?name=.
func (h *Handler) HandleSearchLocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locs, err := h.service.SearchLocations(ctx, r.URL.Query().Get("name"))
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to search locations", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLocationResponses(locs))
}

// HandleRegisterBeneficiary handles POST /beneficiaries. The beneficiary joins
// the list of the calling volunteer's location.
func (h *Handler) HandleRegisterBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	p, ok := requestcontext.PrincipalFrom(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "principal missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterBeneficiaryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	op := domain.Operator{VolunteerID: p.VolunteerID, HomeLocation: p.HomeLocation}
	out, err := h.service.RegisterBeneficiary(ctx, op, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to register beneficiary", err,
			"volunteer_id", p.VolunteerID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, RegisterBeneficiaryResponse{
		Message:         "Beneficiary added successfully.",
		BeneficiaryCode: out.Beneficiary.Code,
		ListType:        string(out.Placement),
	})
}

// HandleListBeneficiaries handles GET /beneficiaries.
func (h *Handler) HandleListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := h.service.Beneficiaries(ctx)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to list beneficiaries", err)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]BeneficiaryResponse, 0, len(all))
	for _, b := range all {
		resp = append(resp, toBeneficiaryResponse(b))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleSearchBeneficiary handles GET /beneficiaries/search?code=.
func (h *Handler) HandleSearchBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := h.service.FindBeneficiary(ctx, r.URL.Query().Get("code"))
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to find beneficiary", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBeneficiaryResponse(b))
}

// HandleDeleteBeneficiary handles DELETE /beneficiaries/{code}.
func (h *Handler) HandleDeleteBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")

	out, err := h.service.DeleteBeneficiary(ctx, code)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to delete beneficiary", err, "beneficiary_code", code)
		httputil.WriteError(w, err)
		return
	}
	resp := DeleteBeneficiaryResponse{
		Message:         "Beneficiary deleted successfully.",
		BeneficiaryCode: out.Beneficiary.Code,
		RemovedFrom:     string(out.From),
	}
	if out.Promoted != nil {
		resp.PromotedCode = out.Promoted.Code
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
