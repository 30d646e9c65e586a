// Package service issues and redeems the daily single-use vouchers behind the
// beneficiaries' QR codes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"moniftar/internal/audit"
	"moniftar/internal/domain"
	"moniftar/internal/notify"
	"moniftar/internal/outbox"
	"moniftar/internal/platform/tracing"
	"moniftar/internal/storage"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/sentinel"
	"moniftar/pkg/requestcontext"
)

// qrSize is the side of the rendered PNG in pixels.
const qrSize = 256

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event) error
}

type Service struct {
	runner        storage.Runner
	sender        notify.Sender
	logger        *slog.Logger
	audit         AuditPublisher
	metrics       *Metrics
	loc           *time.Location
	publicBaseURL string
	tracer        trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocation sets the time zone calendar days are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPublicBaseURL makes issue notifications carry a link to the QR image.
func WithPublicBaseURL(base string) Option {
	return func(s *Service) { s.publicBaseURL = strings.TrimRight(base, "/") }
}

func New(runner storage.Runner, sender notify.Sender, opts ...Option) *Service {
	s := &Service{
		runner: runner,
		sender: sender,
		logger: slog.Default(),
		loc:    time.UTC,
		tracer: tracing.Tracer("voucher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issued is the result of Issue. Created is false when the beneficiary
// already held today's voucher.
type Issued struct {
	Voucher     *domain.Voucher
	Beneficiary *domain.Beneficiary
	Created     bool
}

// Redemption is the result of a successful Redeem.
type Redemption struct {
	Voucher        *domain.Voucher
	Beneficiary    *domain.Beneficiary
	EventID        id.EventID
	RemainingStock int
}

// Today is the current calendar day in the service time zone.
func (s *Service) Today(ctx context.Context) domain.Day {
	return domain.DayOf(requestcontext.Now(ctx), s.loc)
}

// Issue gives the beneficiary today's voucher.
func (s *Service) Issue(ctx context.Context, beneficiaryCode string) (out *Issued, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "voucher.Issue")
	defer tracing.End(span, &err)

	code := strings.ToUpper(strings.TrimSpace(beneficiaryCode))
	if !domain.IsBeneficiaryCode(code) {
		return nil, dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	}

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		b, err := st.Beneficiaries.FindByCode(ctx, code)
		if err != nil {
			return dErrors.FromStore(err, "beneficiary not found", "failed to load beneficiary")
		}
		v, created, err := s.IssueTx(ctx, st, &ob, b)
		if err != nil {
			return err
		}
		out = &Issued{Voucher: v, Beneficiary: b, Created: created}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	return out, nil
}

// IssueTx creates today's voucher for b within the caller's transaction and
// queues its notification. An existing voucher for today is returned as is
// and nothing is queued.
func (s *Service) IssueTx(ctx context.Context, st storage.Stores, ob *outbox.Outbox, b *domain.Beneficiary) (*domain.Voucher, bool, error) {
	now := requestcontext.Now(ctx)
	today := domain.DayOf(now, s.loc)

	existing, err := st.Vouchers.FindForDay(ctx, b.ID, today)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load voucher")
	}

	v, err := domain.NewVoucher(id.NewVoucherID(), b.ID, today, today, now)
	if err != nil {
		return nil, false, err
	}
	if err := st.Vouchers.Create(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, false, dErrors.New(dErrors.CodeConflict, "a voucher was already issued for today")
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create voucher")
	}

	ob.Notify(notify.VoucherIssued(b.Phone, v.Code, today.String(), s.mediaURL(v.Code)))
	ob.Record(audit.Event{
		Action:     audit.ActionVoucherIssued,
		Subject:    b.Code,
		LocationID: locationString(b.HomeLocation),
		Detail:     today.String(),
	})
	s.metrics.incIssued()
	return v, true, nil
}

// Redeem validates the scanned code for the operator's location and consumes
// one unit of the next event's stock. Checks run in a fixed order: unknown
// code, already redeemed, expired, location mismatch, no event, no stock.
func (s *Service) Redeem(ctx context.Context, code string, op domain.Operator) (out *Redemption, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "voucher.Redeem",
		attribute.String("volunteer_id", op.VolunteerID.String()))
	defer tracing.End(span, &err)

	now := requestcontext.Now(ctx)
	today := domain.DayOf(now, s.loc)

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		normalized, err := domain.NormalizeVoucherCode(code)
		if err != nil {
			return err
		}
		v, err := st.Vouchers.FindByCode(ctx, normalized)
		if err != nil {
			return dErrors.FromStore(err, "voucher code not found", "failed to load voucher")
		}
		if err := v.CanRedeem(today); err != nil {
			return err
		}
		b, err := st.Beneficiaries.FindByID(ctx, v.BeneficiaryID)
		if err != nil {
			return dErrors.FromStore(err, "voucher code not found", "failed to load beneficiary")
		}
		if !op.At(b.HomeLocation) {
			return dErrors.New(dErrors.CodeLocationMismatch, "distribution points must match between volunteer and beneficiary")
		}
		ev, err := s.redeemableEvent(ctx, st, *b.HomeLocation, today.Start(s.loc))
		if err != nil {
			return err
		}

		if err := st.Vouchers.MarkRedeemed(ctx, v.ID, now); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeAlreadyRedeemed, "voucher has already been redeemed")
			}
			return dErrors.FromStore(err, "voucher code not found", "failed to redeem voucher")
		}
		remaining, err := st.Events.DecrementStock(ctx, ev.ID, 1)
		if err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.New(dErrors.CodeStockExhausted, "not enough stock available")
			}
			return dErrors.FromStore(err, "distribution not found", "failed to decrement stock")
		}
		v.ApplyRedemption(now)

		ob.Notify(notify.VoucherRedeemed(b.Phone, v.Code))
		ob.Record(audit.Event{
			Action:     audit.ActionVoucherRedeemed,
			ActorID:    op.VolunteerID.String(),
			Subject:    b.Code,
			LocationID: b.HomeLocation.String(),
			Detail:     ev.ID.String(),
		})
		out = &Redemption{Voucher: v, Beneficiary: b, EventID: ev.ID, RemainingStock: remaining}
		return nil
	})
	if err != nil {
		s.reject(ctx, code, op, err)
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	s.metrics.incRedemption("redeemed")
	s.logger.InfoContext(ctx, "voucher redeemed",
		"beneficiary_code", out.Beneficiary.Code,
		"event_id", out.EventID.String(),
		"remaining_stock", out.RemainingStock,
	)
	return out, nil
}

// redeemableEvent picks the earliest event from the start of today that still
// has stock. Events that ran out only decide between StockExhausted and
// NoEventScheduled.
func (s *Service) redeemableEvent(ctx context.Context, st storage.Stores, locID id.LocationID, from time.Time) (*domain.DistributionEvent, error) {
	ev, err := st.Events.NextStockedForLocation(ctx, locID, from)
	if err == nil {
		return ev, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load distribution")
	}
	if _, err := st.Events.NextForLocation(ctx, locID, from); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoEventScheduled, "no distribution is scheduled at this location")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load distribution")
	}
	return nil, dErrors.New(dErrors.CodeStockExhausted, "not enough stock available")
}

// reject records a refused scan. Internal failures are counted but not
// audited: they say nothing about the voucher.
func (s *Service) reject(ctx context.Context, code string, op domain.Operator, err error) {
	reason := dErrors.CodeOf(err)
	s.metrics.incRedemption(string(reason))
	if reason == dErrors.CodeInternal || reason == dErrors.CodeTimeout || s.audit == nil {
		return
	}
	e := audit.Event{
		Action:     audit.ActionVoucherRejected,
		ActorID:    op.VolunteerID.String(),
		Subject:    code,
		LocationID: locationString(op.HomeLocation),
		Detail:     string(reason),
	}
	if emitErr := s.audit.Emit(ctx, e); emitErr != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", e.Action, "error", emitErr)
	}
}

// QRCode renders an existing voucher code as a PNG.
func (s *Service) QRCode(ctx context.Context, code string) ([]byte, error) {
	normalized, err := domain.NormalizeVoucherCode(code)
	if err != nil {
		return nil, err
	}
	err = s.runner.View(ctx, func(st storage.Stores) error {
		_, err := st.Vouchers.FindByCode(ctx, normalized)
		return dErrors.FromStore(err, "voucher code not found", "failed to load voucher")
	})
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(normalized, qrcode.Medium, qrSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render QR code")
	}
	return png, nil
}

func (s *Service) mediaURL(code string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/vouchers/" + code + "/qr.png"
}

func locationString(loc *id.LocationID) string {
	if loc == nil {
		return ""
	}
	return loc.String()
}
