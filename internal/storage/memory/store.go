// Package memory is the in-process storage backend used when no database is
// configured and by service tests.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"moniftar/internal/domain"
	"moniftar/internal/storage"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

var errReadOnly = errors.New("write attempted in a read-only view")

type state struct {
	locations     map[id.LocationID]domain.Location
	beneficiaries map[id.BeneficiaryID]domain.Beneficiary
	volunteers    map[id.VolunteerID]domain.Volunteer
	lists         map[id.ListID]*domain.DistributionList
	events        map[id.EventID]domain.DistributionEvent
	vouchers      map[id.VoucherID]domain.Voucher
}

func newState() *state {
	return &state{
		locations:     make(map[id.LocationID]domain.Location),
		beneficiaries: make(map[id.BeneficiaryID]domain.Beneficiary),
		volunteers:    make(map[id.VolunteerID]domain.Volunteer),
		lists:         make(map[id.ListID]*domain.DistributionList),
		events:        make(map[id.EventID]domain.DistributionEvent),
		vouchers:      make(map[id.VoucherID]domain.Voucher),
	}
}

func (s *state) clone() *state {
	c := &state{
		locations:     maps.Clone(s.locations),
		beneficiaries: maps.Clone(s.beneficiaries),
		volunteers:    maps.Clone(s.volunteers),
		lists:         make(map[id.ListID]*domain.DistributionList, len(s.lists)),
		events:        maps.Clone(s.events),
		vouchers:      maps.Clone(s.vouchers),
	}
	for k, l := range s.lists {
		c.lists[k] = l.Clone()
	}
	return c
}

// Store serializes every transaction behind one lock. A failed RunInTx
// callback leaves no trace: the state is restored from a snapshot.
type Store struct {
	mu sync.RWMutex
	st *state
}

var _ storage.Runner = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) RunInTx(ctx context.Context, fn func(storage.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(bind(s.st, false)); err != nil {
		s.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.st = snapshot
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(storage.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(bind(s.st, true))
}

func bind(st *state, readOnly bool) storage.Stores {
	return storage.Stores{
		Locations:     &locations{st: st, ro: readOnly},
		Beneficiaries: &beneficiaries{st: st, ro: readOnly},
		Volunteers:    &volunteers{st: st, ro: readOnly},
		Lists:         &lists{st: st, ro: readOnly},
		Events:        &events{st: st, ro: readOnly},
		Vouchers:      &vouchers{st: st, ro: readOnly},
	}
}
