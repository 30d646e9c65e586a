package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"moniftar/internal/domain"
	"moniftar/internal/voucher/service"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/httputil"
	"moniftar/pkg/platform/middleware/admin"
	"moniftar/pkg/platform/middleware/auth"
	"moniftar/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the voucher operations exposed over HTTP.
type Service interface {
	Issue(ctx context.Context, beneficiaryCode string) (*service.Issued, error)
	Redeem(ctx context.Context, code string, op domain.Operator) (*service.Redemption, error)
	QRCode(ctx context.Context, code string) ([]byte, error)
}

// Handler serves voucher scanning, issuing and QR images.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated voucher routes.
func (h *Handler) Register(r chi.Router) {
	r.With(auth.RequireOperator(h.logger)).Post("/vouchers/scan", h.HandleScan)
	r.With(admin.RequireAdmin(h.logger)).Post("/vouchers", h.HandleIssue)
}

// RegisterPublic mounts the QR image route. The code itself is the secret,
// so the image is served without a token for messaging providers to fetch.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/vouchers/{code}/qr.png", h.HandleQRCode)
}

// HandleScan handles POST /vouchers/scan.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
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
	req, ok := httputil.DecodeAndPrepare[ScanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	op := domain.Operator{VolunteerID: p.VolunteerID, HomeLocation: p.HomeLocation}
	out, err := h.service.Redeem(ctx, req.Value(), op)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "voucher scan rejected", err,
			"volunteer_id", p.VolunteerID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ScanResponse{
		Message:        "QR code validated successfully.",
		Beneficiary:    toBeneficiaryResponse(out.Beneficiary),
		DistributionID: out.EventID.String(),
		RemainingStock: out.RemainingStock,
	})
}

// HandleIssue handles POST /vouchers.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	out, err := h.service.Issue(ctx, req.BeneficiaryCode)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to issue voucher", err, "beneficiary_code", req.BeneficiaryCode)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, IssueResponse{
		Code:            out.Voucher.Code,
		BeneficiaryCode: out.Beneficiary.Code,
		ValidOn:         out.Voucher.IssuedOn.String(),
		Created:         out.Created,
	})
}

// HandleQRCode handles GET /vouchers/{code}/qr.png.
func (h *Handler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	png, err := h.service.QRCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "failed to render voucher QR code", err)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
