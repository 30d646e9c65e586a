// Package service schedules distribution events, issues their vouchers and
// tracks their stock.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

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
	"moniftar/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event) error
}

// VoucherIssuer creates today's voucher for a beneficiary inside an open
// transaction. Implemented by the voucher service.
type VoucherIssuer interface {
	IssueTx(ctx context.Context, st storage.Stores, ob *outbox.Outbox, b *domain.Beneficiary) (*domain.Voucher, bool, error)
}

type Service struct {
	runner  storage.Runner
	issuer  VoucherIssuer
	sender  notify.Sender
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *Metrics
	loc     *time.Location
	tracer  trace.Tracer
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

// WithLocation sets the time zone that bounds "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(runner storage.Runner, issuer VoucherIssuer, sender notify.Sender, opts ...Option) *Service {
	s := &Service{
		runner: runner,
		issuer: issuer,
		sender: sender,
		logger: slog.Default(),
		loc:    time.UTC,
		tracer: tracing.Tracer("distribution"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scheduled is an event created by Create, with the number of vouchers
// created for the main list.
type Scheduled struct {
	Event    *domain.DistributionEvent
	Location *domain.Location
	Issued   int
}

// Deleted describes a removed event.
type Deleted struct {
	Event           *domain.DistributionEvent
	Location        *domain.Location
	VouchersRevoked int
}

// EventView is an event with its location name, for listings.
type EventView struct {
	Event        *domain.DistributionEvent
	LocationName string
}

// Create schedules an event at the location and issues today's voucher to
// every main-list member in the same transaction.
func (s *Service) Create(ctx context.Context, locID id.LocationID, at time.Time, stock int, description string) (out *Scheduled, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "distribution.Create",
		attribute.String("location_id", locID.String()),
		attribute.Int("stock", stock))
	defer tracing.End(span, &err)

	now := requestcontext.Now(ctx)
	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		loc, err := st.Locations.FindByID(ctx, locID)
		if err != nil {
			return dErrors.FromStore(err, "location not found", "failed to load location")
		}
		list, err := st.Lists.FindByLocation(ctx, locID)
		if err != nil {
			return dErrors.FromStore(err, "no distribution list found for the specified location", "failed to load list")
		}
		ev, err := domain.NewDistributionEvent(id.NewEventID(), list, at, stock, description, now)
		if err != nil {
			return err
		}
		if err := st.Events.Create(ctx, ev); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create distribution")
		}

		issued, err := s.issueForMain(ctx, st, &ob, list)
		if err != nil {
			return err
		}
		ob.Record(audit.Event{
			Action:     audit.ActionEventCreated,
			Subject:    ev.ID.String(),
			LocationID: locID.String(),
			Detail:     ev.ScheduledAt.UTC().Format(time.RFC3339),
		})
		out = &Scheduled{Event: ev, Location: loc, Issued: issued}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	s.metrics.incCreated()
	s.logger.InfoContext(ctx, "distribution scheduled",
		"event_id", out.Event.ID.String(),
		"location_id", locID.String(),
		"vouchers_issued", out.Issued,
	)
	return out, nil
}

func (s *Service) issueForMain(ctx context.Context, st storage.Stores, ob *outbox.Outbox, list *domain.DistributionList) (int, error) {
	members := list.Members(domain.PlacementMain)
	if len(members) == 0 {
		return 0, nil
	}
	benIDs := make([]id.BeneficiaryID, 0, len(members))
	for _, m := range members {
		benIDs = append(benIDs, m.BeneficiaryID)
	}
	byID, err := st.Beneficiaries.FindByIDs(ctx, benIDs)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiaries")
	}
	issued := 0
	for _, benID := range benIDs {
		b, ok := byID[benID]
		if !ok {
			return 0, dErrors.New(dErrors.CodeInvariantViolation, "list member has no beneficiary record")
		}
		_, created, err := s.issuer.IssueTx(ctx, st, ob, b)
		if err != nil {
			return 0, err
		}
		if created {
			issued++
		}
	}
	return issued, nil
}

// Delete removes a future event and the unredeemed vouchers of its main list.
func (s *Service) Delete(ctx context.Context, evID id.EventID) (out *Deleted, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "distribution.Delete",
		attribute.String("event_id", evID.String()))
	defer tracing.End(span, &err)

	now := requestcontext.Now(ctx)
	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		ev, err := st.Events.FindByID(ctx, evID)
		if err != nil {
			return dErrors.FromStore(err, "distribution not found", "failed to load distribution")
		}
		if err := ev.CanDelete(now); err != nil {
			return err
		}
		loc, err := st.Locations.FindByID(ctx, ev.LocationID)
		if err != nil {
			return dErrors.FromStore(err, "location not found", "failed to load location")
		}
		list, err := st.Lists.FindByID(ctx, ev.ListID)
		if err != nil {
			return dErrors.FromStore(err, "distribution list not found", "failed to load list")
		}

		members := list.Members(domain.PlacementMain)
		benIDs := make([]id.BeneficiaryID, 0, len(members))
		for _, m := range members {
			benIDs = append(benIDs, m.BeneficiaryID)
		}
		revoked := 0
		if len(benIDs) > 0 {
			revoked, err = st.Vouchers.DeleteUnredeemed(ctx, benIDs)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete vouchers")
			}
		}
		if err := st.Events.Delete(ctx, evID); err != nil {
			return dErrors.FromStore(err, "distribution not found", "failed to delete distribution")
		}
		ob.Record(audit.Event{
			Action:     audit.ActionEventDeleted,
			Subject:    evID.String(),
			LocationID: ev.LocationID.String(),
		})
		out = &Deleted{Event: ev, Location: loc, VouchersRevoked: revoked}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	return out, nil
}

// Decrement takes qty units out of the event's stock.
func (s *Service) Decrement(ctx context.Context, evID id.EventID, qty int) (out *domain.DistributionEvent, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "distribution.Decrement",
		attribute.String("event_id", evID.String()),
		attribute.Int("qty", qty))
	defer tracing.End(span, &err)

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		ev, err := st.Events.FindByID(ctx, evID)
		if err != nil {
			return dErrors.FromStore(err, "distribution not found", "failed to load distribution")
		}
		if err := ev.CanDecrement(qty); err != nil {
			return err
		}
		remaining, err := st.Events.DecrementStock(ctx, evID, qty)
		if err != nil {
			return dErrors.FromStore(err, "distribution not found", "failed to decrement stock")
		}
		ev.Stock = remaining
		ob.Record(audit.Event{
			Action:     audit.ActionStockDecremented,
			Subject:    evID.String(),
			LocationID: ev.LocationID.String(),
			Detail:     strconv.Itoa(qty),
		})
		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	s.metrics.addDecremented(qty)
	return out, nil
}

// Today lists events scheduled during the current calendar day.
func (s *Service) Today(ctx context.Context) ([]EventView, error) {
	day := domain.DayOf(requestcontext.Now(ctx), s.loc)
	return s.between(ctx, day.Start(s.loc), day.End(s.loc), nil)
}

// Upcoming lists events scheduled strictly after now.
func (s *Service) Upcoming(ctx context.Context) ([]EventView, error) {
	now := requestcontext.Now(ctx)
	return s.between(ctx, now, time.Time{}, func(ev *domain.DistributionEvent) bool {
		return ev.ScheduledAt.After(now)
	})
}

func (s *Service) between(ctx context.Context, from, to time.Time, keep func(*domain.DistributionEvent) bool) ([]EventView, error) {
	var out []EventView
	err := s.runner.View(ctx, func(st storage.Stores) error {
		events, err := st.Events.ListBetween(ctx, from, to)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list distributions")
		}
		locs, err := st.Locations.List(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list locations")
		}
		names := make(map[id.LocationID]string, len(locs))
		for _, l := range locs {
			names[l.ID] = l.Name
		}
		out = make([]EventView, 0, len(events))
		for _, ev := range events {
			if keep != nil && !keep(ev) {
				continue
			}
			out = append(out, EventView{Event: ev, LocationName: names[ev.LocationID]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
