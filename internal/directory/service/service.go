// Package service manages locations and beneficiaries. A location is always
// created together with its distribution list; a beneficiary registered by a
// field volunteer joins the list of that volunteer's location.
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
	membership "moniftar/internal/membership/service"
	"moniftar/internal/notify"
	"moniftar/internal/outbox"
	"moniftar/internal/platform/tracing"
	"moniftar/internal/storage"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/sentinel"
	"moniftar/pkg/requestcontext"
)

// maxCodeAttempts bounds the search for a free beneficiary code.
const maxCodeAttempts = 20

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event) error
}

// Membership is the part of the membership service that runs inside a
// directory transaction.
type Membership interface {
	EnrollTx(ctx context.Context, st storage.Stores, ob *outbox.Outbox, list *domain.DistributionList, b *domain.Beneficiary) (domain.Placement, error)
	WithdrawTx(ctx context.Context, st storage.Stores, ob *outbox.Outbox, list *domain.DistributionList, b *domain.Beneficiary) (*membership.RemoveOutcome, error)
}

type Service struct {
	runner          storage.Runner
	membership      Membership
	sender          notify.Sender
	logger          *slog.Logger
	audit           AuditPublisher
	defaultCapacity int
	newCode         func() (string, error)
	tracer          trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithDefaultCapacity sets the main-list size of locations created without one.
func WithDefaultCapacity(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.defaultCapacity = n
		}
	}
}

// WithCodeGenerator overrides the beneficiary code source (tests).
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.newCode = gen
		}
	}
}

func New(runner storage.Runner, m Membership, sender notify.Sender, opts ...Option) *Service {
	s := &Service{
		runner:          runner,
		membership:      m,
		sender:          sender,
		logger:          slog.Default(),
		defaultCapacity: domain.DefaultMaxMainListSize,
		newCode:         domain.NewBeneficiaryCode,
		tracer:          tracing.Tracer("directory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LocationDetail is a location with the list created alongside it.
type LocationDetail struct {
	Location *domain.Location
	List     *domain.DistributionList
}

// Registration is the result of RegisterBeneficiary.
type Registration struct {
	Beneficiary *domain.Beneficiary
	Placement   domain.Placement
}

// CreateLocation creates a location and its distribution list in one
// transaction. A nil capacity uses the configured default.
func (s *Service) CreateLocation(ctx context.Context, name string, capacity *int) (out *LocationDetail, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "directory.CreateLocation")
	defer tracing.End(span, &err)

	now := requestcontext.Now(ctx)
	loc, err := domain.NewLocation(id.NewLocationID(), name, now)
	if err != nil {
		return nil, err
	}
	maxMain := s.defaultCapacity
	if capacity != nil {
		maxMain = *capacity
	}
	list, err := domain.NewDistributionList(id.NewListID(), loc.ID, maxMain)
	if err != nil {
		return nil, err
	}

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		if err := st.Locations.Create(ctx, loc); err != nil {
			return dErrors.FromStore(err, "location not found", "failed to create location")
		}
		if err := st.Lists.Create(ctx, list); err != nil {
			return dErrors.FromStore(err, "distribution list not found", "failed to create distribution list")
		}
		ob.Record(audit.Event{
			Action:     audit.ActionLocationCreated,
			Subject:    loc.Name,
			LocationID: loc.ID.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	s.logger.InfoContext(ctx, "location created",
		"location_id", loc.ID.String(),
		"list_id", list.ID.String(),
		"max_main_list_size", maxMain,
	)
	return &LocationDetail{Location: loc, List: list}, nil
}

func (s *Service) RenameLocation(ctx context.Context, locID id.LocationID, name string) (*domain.Location, error) {
	var loc *domain.Location
	var ob outbox.Outbox
	err := s.runner.RunInTx(ctx, func(st storage.Stores) error {
		var err error
		loc, err = st.Locations.FindByID(ctx, locID)
		if err != nil {
			return dErrors.FromStore(err, "location not found", "failed to load location")
		}
		previous := loc.Name
		if err := loc.Rename(name); err != nil {
			return err
		}
		if err := st.Locations.Update(ctx, loc); err != nil {
			return dErrors.FromStore(err, "location not found", "failed to rename location")
		}
		ob.Record(audit.Event{
			Action:     audit.ActionLocationRenamed,
			Subject:    loc.Name,
			LocationID: loc.ID.String(),
			Detail:     previous,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	return loc, nil
}

func (s *Service) Locations(ctx context.Context) ([]*domain.Location, error) {
	var out []*domain.Location
	err := s.runner.View(ctx, func(st storage.Stores) error {
		var err error
		out, err = st.Locations.List(ctx)
		return dErrors.FromStore(err, "location not found", "failed to list locations")
	})
	return out, err
}

// SearchLocations matches a case-insensitive name fragment.
func (s *Service) SearchLocations(ctx context.Context, fragment string) ([]*domain.Location, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a name query parameter is required")
	}
	var out []*domain.Location
	err := s.runner.View(ctx, func(st storage.Stores) error {
		var err error
		out, err = st.Locations.SearchByName(ctx, fragment)
		return dErrors.FromStore(err, "location not found", "failed to search locations")
	})
	return out, err
}

// RegisterBeneficiary creates a beneficiary at the operator's location and
// adds it to that location's list in the same transaction.
func (s *Service) RegisterBeneficiary(ctx context.Context, op domain.Operator, firstName, lastName, phone string) (out *Registration, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "directory.RegisterBeneficiary")
	defer tracing.End(span, &err)

	if op.HomeLocation == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "volunteer has no distribution point")
	}
	now := requestcontext.Now(ctx)

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		list, err := st.Lists.FindByLocation(ctx, *op.HomeLocation)
		if err != nil {
			return dErrors.FromStore(err, "distribution point has no distribution list", "failed to load distribution list")
		}
		code, err := s.freeCode(ctx, st)
		if err != nil {
			return err
		}
		b, err := domain.NewBeneficiary(id.NewBeneficiaryID(), code, firstName, lastName, phone, op.HomeLocation, now)
		if err != nil {
			return err
		}
		if err := st.Beneficiaries.Create(ctx, b); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "phone number is already registered")
			}
			return dErrors.FromStore(err, "beneficiary not found", "failed to create beneficiary")
		}
		ob.Record(audit.Event{
			Action:     audit.ActionBeneficiaryRegistered,
			Subject:    b.Code,
			LocationID: list.LocationID.String(),
		})
		placement, err := s.membership.EnrollTx(ctx, st, &ob, list, b)
		if err != nil {
			return err
		}
		out = &Registration{Beneficiary: b, Placement: placement}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	s.logger.InfoContext(ctx, "beneficiary registered",
		"beneficiary_code", out.Beneficiary.Code,
		"location_id", op.HomeLocation.String(),
		"placement", out.Placement,
	)
	return out, nil
}

// freeCode draws codes until one is unused. Checking before the insert keeps
// a postgres transaction usable; the unique index still guards races.
func (s *Service) freeCode(ctx context.Context, st storage.Stores) (string, error) {
	for range maxCodeAttempts {
		code, err := s.newCode()
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate beneficiary code")
		}
		_, err = st.Beneficiaries.FindByCode(ctx, code)
		if errors.Is(err, sentinel.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check beneficiary code")
		}
	}
	return "", dErrors.New(dErrors.CodeConflict, "no free beneficiary code available")
}

// DeleteBeneficiary takes the beneficiary out of its list, promoting the next
// waiting member when needed, then deletes it with its vouchers.
func (s *Service) DeleteBeneficiary(ctx context.Context, code string) (out *membership.RemoveOutcome, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "directory.DeleteBeneficiary", attribute.String("beneficiary_code", code))
	defer tracing.End(span, &err)

	code = strings.ToUpper(strings.TrimSpace(code))
	if !domain.IsBeneficiaryCode(code) {
		return nil, dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	}

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		b, err := st.Beneficiaries.FindByCode(ctx, code)
		if err != nil {
			return dErrors.FromStore(err, "beneficiary not found", "failed to load beneficiary")
		}
		out = &membership.RemoveOutcome{Beneficiary: b, From: domain.PlacementNone}

		list, err := st.Lists.FindByMember(ctx, b.ID)
		switch {
		case err == nil:
			out, err = s.membership.WithdrawTx(ctx, st, &ob, list, b)
			if err != nil {
				return err
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load distribution list")
		}

		if err := st.Beneficiaries.Delete(ctx, b.ID); err != nil {
			return dErrors.FromStore(err, "beneficiary not found", "failed to delete beneficiary")
		}
		ob.Record(audit.Event{
			Action:     audit.ActionBeneficiaryDeleted,
			Subject:    b.Code,
			LocationID: locationString(b.HomeLocation),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	s.logger.InfoContext(ctx, "beneficiary deleted",
		"beneficiary_code", code,
		"from", out.From,
		"promoted", out.Promoted != nil,
	)
	return out, nil
}

func (s *Service) Beneficiaries(ctx context.Context) ([]*domain.Beneficiary, error) {
	var out []*domain.Beneficiary
	err := s.runner.View(ctx, func(st storage.Stores) error {
		var err error
		out, err = st.Beneficiaries.List(ctx)
		return dErrors.FromStore(err, "beneficiary not found", "failed to list beneficiaries")
	})
	return out, err
}

// FindBeneficiary looks a beneficiary up by its E-code.
func (s *Service) FindBeneficiary(ctx context.Context, code string) (*domain.Beneficiary, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a code query parameter is required")
	}
	notFound := "beneficiary " + code + " not found"
	if !domain.IsBeneficiaryCode(code) {
		return nil, dErrors.New(dErrors.CodeNotFound, notFound)
	}
	var out *domain.Beneficiary
	err := s.runner.View(ctx, func(st storage.Stores) error {
		var err error
		out, err = st.Beneficiaries.FindByCode(ctx, code)
		return dErrors.FromStore(err, notFound, "failed to load beneficiary")
	})
	return out, err
}

func locationString(loc *id.LocationID) string {
	if loc == nil {
		return ""
	}
	return loc.String()
}
