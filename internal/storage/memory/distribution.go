package memory

import (
	"bytes"
	"context"
	"slices"
	"time"

	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
	"moniftar/pkg/platform/sentinel"
)

type lists struct {
	st *state
	ro bool
}

func (r *lists) Create(_ context.Context, l *domain.DistributionList) error {
	if r.ro {
		return errReadOnly
	}
	if err := l.Validate(); err != nil {
		return err
	}
	for _, existing := range r.st.lists {
		if existing.ID == l.ID || existing.LocationID == l.LocationID {
			return sentinel.ErrConflict
		}
	}
	r.st.lists[l.ID] = l.Clone()
	return nil
}

func (r *lists) FindByID(_ context.Context, listID id.ListID) (*domain.DistributionList, error) {
	l, ok := r.st.lists[listID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *lists) FindByLocation(_ context.Context, locID id.LocationID) (*domain.DistributionList, error) {
	for _, l := range r.st.lists {
		if l.LocationID == locID {
			return l.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (r *lists) FindByMember(_ context.Context, benID id.BeneficiaryID) (*domain.DistributionList, error) {
	for _, l := range r.st.lists {
		if l.PlacementOf(benID) != domain.PlacementNone {
			return l.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (r *lists) Save(_ context.Context, l *domain.DistributionList) error {
	if r.ro {
		return errReadOnly
	}
	if err := l.Validate(); err != nil {
		return err
	}
	if _, ok := r.st.lists[l.ID]; !ok {
		return sentinel.ErrNotFound
	}
	// a beneficiary belongs to one list at most, like the postgres unique key
	for _, other := range r.st.lists {
		if other.ID == l.ID {
			continue
		}
		for _, m := range append(slices.Clone(l.Main), l.Waiting...) {
			if other.PlacementOf(m.BeneficiaryID) != domain.PlacementNone {
				return sentinel.ErrConflict
			}
		}
	}
	r.st.lists[l.ID] = l.Clone()
	return nil
}

type events struct {
	st *state
	ro bool
}

func (r *events) Create(_ context.Context, e *domain.DistributionEvent) error {
	if r.ro {
		return errReadOnly
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if _, ok := r.st.events[e.ID]; ok {
		return sentinel.ErrConflict
	}
	r.st.events[e.ID] = *e
	return nil
}

func (r *events) FindByID(_ context.Context, evID id.EventID) (*domain.DistributionEvent, error) {
	e, ok := r.st.events[evID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (r *events) NextForLocation(_ context.Context, locID id.LocationID, from time.Time) (*domain.DistributionEvent, error) {
	return r.next(locID, from, 0)
}

func (r *events) NextStockedForLocation(_ context.Context, locID id.LocationID, from time.Time) (*domain.DistributionEvent, error) {
	return r.next(locID, from, 1)
}

// next orders by schedule then ID, matching the postgres query.
func (r *events) next(locID id.LocationID, from time.Time, minStock int) (*domain.DistributionEvent, error) {
	var best *domain.DistributionEvent
	for _, e := range r.st.events {
		if e.LocationID != locID || e.ScheduledAt.Before(from) || e.Stock < minStock {
			continue
		}
		if best == nil || e.ScheduledAt.Before(best.ScheduledAt) ||
			(e.ScheduledAt.Equal(best.ScheduledAt) && bytes.Compare(e.ID[:], best.ID[:]) < 0) {
			best = &e
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	return best, nil
}

func (r *events) DecrementStock(_ context.Context, evID id.EventID, qty int) (int, error) {
	if r.ro {
		return 0, errReadOnly
	}
	e, ok := r.st.events[evID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if qty <= 0 || e.Stock < qty {
		return e.Stock, sentinel.ErrInvalidState
	}
	e.Stock -= qty
	r.st.events[evID] = e
	return e.Stock, nil
}

func (r *events) Delete(_ context.Context, evID id.EventID) error {
	if r.ro {
		return errReadOnly
	}
	if _, ok := r.st.events[evID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(r.st.events, evID)
	return nil
}

func (r *events) ListBetween(_ context.Context, from, to time.Time) ([]*domain.DistributionEvent, error) {
	out := make([]*domain.DistributionEvent, 0)
	for _, e := range r.st.events {
		if e.ScheduledAt.Before(from) || (!to.IsZero() && !e.ScheduledAt.Before(to)) {
			continue
		}
		out = append(out, &e)
	}
	slices.SortFunc(out, func(a, b *domain.DistributionEvent) int { return a.ScheduledAt.Compare(b.ScheduledAt) })
	return out, nil
}

type vouchers struct {
	st *state
	ro bool
}

func (r *vouchers) Create(_ context.Context, v *domain.Voucher) error {
	if r.ro {
		return errReadOnly
	}
	for _, existing := range r.st.vouchers {
		if existing.ID == v.ID || existing.Code == v.Code {
			return sentinel.ErrConflict
		}
		if existing.BeneficiaryID == v.BeneficiaryID && existing.IssuedOn == v.IssuedOn {
			return sentinel.ErrConflict
		}
	}
	r.st.vouchers[v.ID] = *v
	return nil
}

func (r *vouchers) FindByCode(_ context.Context, code string) (*domain.Voucher, error) {
	for _, v := range r.st.vouchers {
		if v.Code == code {
			return &v, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (r *vouchers) FindForDay(_ context.Context, benID id.BeneficiaryID, day domain.Day) (*domain.Voucher, error) {
	for _, v := range r.st.vouchers {
		if v.BeneficiaryID == benID && v.IssuedOn == day {
			return &v, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (r *vouchers) MarkRedeemed(_ context.Context, vID id.VoucherID, at time.Time) error {
	if r.ro {
		return errReadOnly
	}
	v, ok := r.st.vouchers[vID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if v.RedeemedAt != nil {
		return sentinel.ErrAlreadyUsed
	}
	v.RedeemedAt = &at
	r.st.vouchers[vID] = v
	return nil
}

func (r *vouchers) DeleteUnredeemed(_ context.Context, benIDs []id.BeneficiaryID) (int, error) {
	if r.ro {
		return 0, errReadOnly
	}
	n := 0
	for k, v := range r.st.vouchers {
		if v.RedeemedAt == nil && slices.Contains(benIDs, v.BeneficiaryID) {
			delete(r.st.vouchers, k)
			n++
		}
	}
	return n, nil
}
