// Package service runs the distribution-list membership workflow: placement
// in the main or waiting list, removal with FIFO promotion, and resizing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

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
)

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event) error
}

// Service owns membership mutations. EnrollTx and WithdrawTx let other
// services reuse the same rules inside their own transaction.
type Service struct {
	runner  storage.Runner
	sender  notify.Sender
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *Metrics
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

func New(runner storage.Runner, sender notify.Sender, opts ...Option) *Service {
	s := &Service{
		runner: runner,
		sender: sender,
		logger: slog.Default(),
		tracer: tracing.Tracer("membership"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RemoveOutcome reports what Remove did. Promoted is nil when nobody moved up.
type RemoveOutcome struct {
	Beneficiary *domain.Beneficiary
	From        domain.Placement
	Promoted    *domain.Beneficiary
}

// Add places the beneficiary identified by code in the list.
func (s *Service) Add(ctx context.Context, listID id.ListID, code string) (placement domain.Placement, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "membership.Add", attribute.String("list_id", listID.String()))
	defer tracing.End(span, &err)

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		list, err := st.Lists.FindByID(ctx, listID)
		if err != nil {
			return dErrors.FromStore(err, "distribution list not found", "failed to load distribution list")
		}
		b, err := s.beneficiaryByCode(ctx, st, code)
		if err != nil {
			return err
		}
		placement, err = s.EnrollTx(ctx, st, &ob, list, b)
		return err
	})
	if err != nil {
		return "", err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	s.metrics.incAdded(placement)
	return placement, nil
}

// EnrollTx adds b to list within the caller's transaction and queues the
// placement notice on ob.
func (s *Service) EnrollTx(ctx context.Context, st storage.Stores, ob *outbox.Outbox, list *domain.DistributionList, b *domain.Beneficiary) (domain.Placement, error) {
	other, err := st.Lists.FindByMember(ctx, b.ID)
	switch {
	case err == nil && other.ID != list.ID:
		return "", dErrors.New(dErrors.CodeConflict, "beneficiary already belongs to another distribution list")
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiary membership")
	}
	placement, err := list.Add(b.Member())
	if err != nil {
		return "", err
	}
	if err := st.Lists.Save(ctx, list); err != nil {
		return "", dErrors.FromStore(err, "distribution list not found", "failed to save distribution list")
	}

	text := notify.TextAddedToWaiting
	if placement == domain.PlacementMain {
		text = notify.TextAddedToMain
	}
	ob.Notify(notify.Message{To: b.Phone, Body: text})
	ob.Record(audit.Event{
		Action:     audit.ActionMemberAdded,
		Subject:    b.Code,
		LocationID: list.LocationID.String(),
		Detail:     string(placement),
	})
	s.logger.InfoContext(ctx, "beneficiary added to distribution list",
		"list_id", list.ID.String(),
		"beneficiary_code", b.Code,
		"placement", placement,
	)
	return placement, nil
}

// Remove takes the beneficiary out of the list. A beneficiary in neither
// sub-list is told so and the call reports CodeNotFound.
func (s *Service) Remove(ctx context.Context, listID id.ListID, code string) (out *RemoveOutcome, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "membership.Remove", attribute.String("list_id", listID.String()))
	defer tracing.End(span, &err)

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		list, err := st.Lists.FindByID(ctx, listID)
		if err != nil {
			return dErrors.FromStore(err, "distribution list not found", "failed to load distribution list")
		}
		b, err := s.beneficiaryByCode(ctx, st, code)
		if err != nil {
			return err
		}
		out, err = s.WithdrawTx(ctx, st, &ob, list, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	s.metrics.incRemoved(out.From, out.Promoted != nil)
	if out.From == domain.PlacementNone {
		return out, dErrors.New(dErrors.CodeNotFound, "beneficiary was not found in either list")
	}
	return out, nil
}

// WithdrawTx removes b from list within the caller's transaction, promoting
// the next waiting member when a main-list seat frees up. Not being a member
// is not an error here; the outcome says so.
func (s *Service) WithdrawTx(ctx context.Context, st storage.Stores, ob *outbox.Outbox, list *domain.DistributionList, b *domain.Beneficiary) (*RemoveOutcome, error) {
	res, err := list.Remove(b.ID)
	if err != nil {
		return nil, err
	}
	out := &RemoveOutcome{Beneficiary: b, From: res.From}

	switch res.From {
	case domain.PlacementNone:
		ob.Notify(notify.Message{To: b.Phone, Body: notify.TextNotInAnyList})
		s.logger.WarnContext(ctx, "beneficiary not found in distribution list",
			"list_id", list.ID.String(),
			"beneficiary_code", b.Code,
		)
		return out, nil
	case domain.PlacementMain:
		ob.Notify(notify.Message{To: b.Phone, Body: notify.TextRemovedFromMain})
	case domain.PlacementWaiting:
		ob.Notify(notify.Message{To: b.Phone, Body: notify.TextRemovedFromWait})
	}

	if err := st.Lists.Save(ctx, list); err != nil {
		return nil, dErrors.FromStore(err, "distribution list not found", "failed to save distribution list")
	}
	ob.Record(audit.Event{
		Action:     audit.ActionMemberRemoved,
		Subject:    b.Code,
		LocationID: list.LocationID.String(),
		Detail:     string(res.From),
	})

	if res.Promoted != nil {
		promoted, err := st.Beneficiaries.FindByID(ctx, res.Promoted.BeneficiaryID)
		if err != nil {
			return nil, dErrors.FromStore(err, "promoted beneficiary not found", "failed to load promoted beneficiary")
		}
		out.Promoted = promoted
		ob.Notify(notify.Message{To: promoted.Phone, Body: notify.TextPromotedToMain})
		ob.Record(audit.Event{
			Action:     audit.ActionMemberPromoted,
			Subject:    promoted.Code,
			LocationID: list.LocationID.String(),
		})
	}
	s.logger.InfoContext(ctx, "beneficiary removed from distribution list",
		"list_id", list.ID.String(),
		"beneficiary_code", b.Code,
		"from", res.From,
		"promoted", out.Promoted != nil,
	)
	return out, nil
}

// Resize changes the main-list capacity. Existing waiting members stay where
// they are; they move up only when someone leaves the main list.
func (s *Service) Resize(ctx context.Context, listID id.ListID, newMax int) (list *domain.DistributionList, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "membership.Resize",
		attribute.String("list_id", listID.String()), attribute.Int("max_main_list_size", newMax))
	defer tracing.End(span, &err)

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		list, err = st.Lists.FindByID(ctx, listID)
		if err != nil {
			return dErrors.FromStore(err, "distribution list not found", "failed to load distribution list")
		}
		previous := list.MaxMainListSize
		if err := list.Resize(newMax); err != nil {
			return err
		}
		if err := st.Lists.Save(ctx, list); err != nil {
			return dErrors.FromStore(err, "distribution list not found", "failed to save distribution list")
		}
		ob.Record(audit.Event{
			Action:     audit.ActionListResized,
			Subject:    list.ID.String(),
			LocationID: list.LocationID.String(),
			Detail:     formatResize(previous, newMax),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	return list, nil
}

func (s *Service) beneficiaryByCode(ctx context.Context, st storage.Stores, code string) (*domain.Beneficiary, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !domain.IsBeneficiaryCode(code) {
		return nil, dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	}
	b, err := st.Beneficiaries.FindByCode(ctx, code)
	if err != nil {
		return nil, dErrors.FromStore(err, "beneficiary not found", "failed to load beneficiary")
	}
	return b, nil
}
