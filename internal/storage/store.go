// Package storage defines the persistence ports of the service. The memory and
// postgres subpackages implement them.
//
// All repositories are reachable only through a Runner so every mutation runs
// inside one transaction. Inside RunInTx the postgres implementation locks the
// list, event and voucher rows it reads (SELECT ... FOR UPDATE); the memory
// implementation holds a single write lock and restores a snapshot when the
// callback fails.
package storage

import (
	"context"
	"time"

	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
)

// DefaultTxTimeout bounds a transaction whose context has no deadline.
const DefaultTxTimeout = 5 * time.Second

// Runner executes units of work. fn's error aborts the transaction and is
// returned unchanged.
type Runner interface {
	RunInTx(ctx context.Context, fn func(s Stores) error) error
	View(ctx context.Context, fn func(s Stores) error) error
}

// Stores groups the repositories bound to one transaction.
type Stores struct {
	Locations     LocationStore
	Beneficiaries BeneficiaryStore
	Volunteers    VolunteerStore
	Lists         ListStore
	Events        EventStore
	Vouchers      VoucherStore
}

type LocationStore interface {
	Create(ctx context.Context, l *domain.Location) error
	FindByID(ctx context.Context, locID id.LocationID) (*domain.Location, error)
	Update(ctx context.Context, l *domain.Location) error
	List(ctx context.Context) ([]*domain.Location, error)
	SearchByName(ctx context.Context, fragment string) ([]*domain.Location, error)
}

type BeneficiaryStore interface {
	// Create returns sentinel.ErrConflict when the code or phone is taken.
	Create(ctx context.Context, b *domain.Beneficiary) error
	FindByID(ctx context.Context, benID id.BeneficiaryID) (*domain.Beneficiary, error)
	FindByCode(ctx context.Context, code string) (*domain.Beneficiary, error)
	FindByIDs(ctx context.Context, benIDs []id.BeneficiaryID) (map[id.BeneficiaryID]*domain.Beneficiary, error)
	List(ctx context.Context) ([]*domain.Beneficiary, error)
	Delete(ctx context.Context, benID id.BeneficiaryID) error
}

type VolunteerStore interface {
	// Create returns sentinel.ErrConflict when the code or phone is taken.
	Create(ctx context.Context, v *domain.Volunteer) error
	Update(ctx context.Context, v *domain.Volunteer) error
	FindByID(ctx context.Context, volID id.VolunteerID) (*domain.Volunteer, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Volunteer, error)
	FindByCode(ctx context.Context, code string) (*domain.Volunteer, error)
	List(ctx context.Context) ([]*domain.Volunteer, error)
	ListByLocation(ctx context.Context, locID id.LocationID) ([]*domain.Volunteer, error)
}

type ListStore interface {
	Create(ctx context.Context, l *domain.DistributionList) error
	FindByID(ctx context.Context, listID id.ListID) (*domain.DistributionList, error)
	FindByLocation(ctx context.Context, locID id.LocationID) (*domain.DistributionList, error)
	// FindByMember returns the list holding the beneficiary in either sub-list.
	FindByMember(ctx context.Context, benID id.BeneficiaryID) (*domain.DistributionList, error)
	// Save validates the list and replaces its capacity and membership.
	Save(ctx context.Context, l *domain.DistributionList) error
}

type EventStore interface {
	Create(ctx context.Context, e *domain.DistributionEvent) error
	FindByID(ctx context.Context, evID id.EventID) (*domain.DistributionEvent, error)
	// NextForLocation returns the earliest event at locID scheduled at or after from.
	NextForLocation(ctx context.Context, locID id.LocationID, from time.Time) (*domain.DistributionEvent, error)
	// NextStockedForLocation is NextForLocation restricted to events with stock left.
	NextStockedForLocation(ctx context.Context, locID id.LocationID, from time.Time) (*domain.DistributionEvent, error)
	// DecrementStock subtracts qty only while stock >= qty and returns
	// sentinel.ErrInvalidState when the guard rejects it.
	DecrementStock(ctx context.Context, evID id.EventID, qty int) (remaining int, err error)
	Delete(ctx context.Context, evID id.EventID) error
	// ListBetween returns events with from <= scheduled_at < to, ordered by
	// schedule. A zero to means no upper bound.
	ListBetween(ctx context.Context, from, to time.Time) ([]*domain.DistributionEvent, error)
}

type VoucherStore interface {
	// Create returns sentinel.ErrConflict when the beneficiary already holds a
	// voucher for that day.
	Create(ctx context.Context, v *domain.Voucher) error
	FindByCode(ctx context.Context, code string) (*domain.Voucher, error)
	FindForDay(ctx context.Context, benID id.BeneficiaryID, day domain.Day) (*domain.Voucher, error)
	// MarkRedeemed sets redeemed_at only if it is still unset and returns
	// sentinel.ErrAlreadyUsed otherwise.
	MarkRedeemed(ctx context.Context, vID id.VoucherID, at time.Time) error
	// DeleteUnredeemed removes vouchers of the given beneficiaries that were not
	// redeemed. Redeemed vouchers are history and stay.
	DeleteUnredeemed(ctx context.Context, benIDs []id.BeneficiaryID) (int, error)
}
