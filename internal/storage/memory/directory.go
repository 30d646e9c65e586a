package memory

import (
	"cmp"
	"context"
	"slices"

	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
	"moniftar/pkg/platform/sentinel"
)

type locations struct {
	st *state
	ro bool
}

func (r *locations) Create(_ context.Context, l *domain.Location) error {
	if r.ro {
		return errReadOnly
	}
	if _, ok := r.st.locations[l.ID]; ok {
		return sentinel.ErrConflict
	}
	r.st.locations[l.ID] = *l
	return nil
}

func (r *locations) FindByID(_ context.Context, locID id.LocationID) (*domain.Location, error) {
	l, ok := r.st.locations[locID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &l, nil
}

func (r *locations) Update(_ context.Context, l *domain.Location) error {
	if r.ro {
		return errReadOnly
	}
	if _, ok := r.st.locations[l.ID]; !ok {
		return sentinel.ErrNotFound
	}
	r.st.locations[l.ID] = *l
	return nil
}

func (r *locations) List(_ context.Context) ([]*domain.Location, error) {
	return r.filter(func(*domain.Location) bool { return true }), nil
}

func (r *locations) SearchByName(_ context.Context, fragment string) ([]*domain.Location, error) {
	return r.filter(func(l *domain.Location) bool { return l.MatchesName(fragment) }), nil
}

func (r *locations) filter(keep func(*domain.Location) bool) []*domain.Location {
	out := make([]*domain.Location, 0, len(r.st.locations))
	for _, l := range r.st.locations {
		if keep(&l) {
			out = append(out, &l)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Location) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

type beneficiaries struct {
	st *state
	ro bool
}

func (r *beneficiaries) Create(_ context.Context, b *domain.Beneficiary) error {
	if r.ro {
		return errReadOnly
	}
	for _, existing := range r.st.beneficiaries {
		if existing.ID == b.ID || existing.Code == b.Code || existing.Phone == b.Phone {
			return sentinel.ErrConflict
		}
	}
	r.st.beneficiaries[b.ID] = *b
	return nil
}

func (r *beneficiaries) FindByID(_ context.Context, benID id.BeneficiaryID) (*domain.Beneficiary, error) {
	b, ok := r.st.beneficiaries[benID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

func (r *beneficiaries) FindByCode(_ context.Context, code string) (*domain.Beneficiary, error) {
	for _, b := range r.st.beneficiaries {
		if b.Code == code {
			return &b, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (r *beneficiaries) FindByIDs(_ context.Context, benIDs []id.BeneficiaryID) (map[id.BeneficiaryID]*domain.Beneficiary, error) {
	out := make(map[id.BeneficiaryID]*domain.Beneficiary, len(benIDs))
	for _, benID := range benIDs {
		if b, ok := r.st.beneficiaries[benID]; ok {
			out[benID] = &b
		}
	}
	return out, nil
}

func (r *beneficiaries) List(_ context.Context) ([]*domain.Beneficiary, error) {
	out := make([]*domain.Beneficiary, 0, len(r.st.beneficiaries))
	for _, b := range r.st.beneficiaries {
		out = append(out, &b)
	}
	slices.SortFunc(out, func(a, b *domain.Beneficiary) int { return a.RegisteredAt.Compare(b.RegisteredAt) })
	return out, nil
}

// Delete mirrors the postgres cascades: memberships and vouchers go with the
// beneficiary.
func (r *beneficiaries) Delete(_ context.Context, benID id.BeneficiaryID) error {
	if r.ro {
		return errReadOnly
	}
	if _, ok := r.st.beneficiaries[benID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(r.st.beneficiaries, benID)
	for _, l := range r.st.lists {
		l.Main = slices.DeleteFunc(l.Main, func(m domain.Member) bool { return m.BeneficiaryID == benID })
		l.Waiting = slices.DeleteFunc(l.Waiting, func(m domain.Member) bool { return m.BeneficiaryID == benID })
	}
	for k, v := range r.st.vouchers {
		if v.BeneficiaryID == benID {
			delete(r.st.vouchers, k)
		}
	}
	return nil
}

type volunteers struct {
	st *state
	ro bool
}

func (r *volunteers) Create(_ context.Context, v *domain.Volunteer) error {
	if r.ro {
		return errReadOnly
	}
	for _, existing := range r.st.volunteers {
		if existing.ID == v.ID || existing.Code == v.Code || existing.Phone == v.Phone {
			return sentinel.ErrConflict
		}
	}
	r.st.volunteers[v.ID] = *v
	return nil
}

func (r *volunteers) Update(_ context.Context, v *domain.Volunteer) error {
	if r.ro {
		return errReadOnly
	}
	if _, ok := r.st.volunteers[v.ID]; !ok {
		return sentinel.ErrNotFound
	}
	r.st.volunteers[v.ID] = *v
	return nil
}

func (r *volunteers) FindByID(_ context.Context, volID id.VolunteerID) (*domain.Volunteer, error) {
	v, ok := r.st.volunteers[volID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

func (r *volunteers) FindByPhone(_ context.Context, phone string) (*domain.Volunteer, error) {
	return r.find(func(v *domain.Volunteer) bool { return v.Phone == phone })
}

func (r *volunteers) FindByCode(_ context.Context, code string) (*domain.Volunteer, error) {
	return r.find(func(v *domain.Volunteer) bool { return v.Code == code })
}

func (r *volunteers) find(match func(*domain.Volunteer) bool) (*domain.Volunteer, error) {
	for _, v := range r.st.volunteers {
		if match(&v) {
			return &v, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (r *volunteers) List(_ context.Context) ([]*domain.Volunteer, error) {
	return r.filter(func(*domain.Volunteer) bool { return true }), nil
}

func (r *volunteers) ListByLocation(_ context.Context, locID id.LocationID) ([]*domain.Volunteer, error) {
	return r.filter(func(v *domain.Volunteer) bool {
		return v.HomeLocation != nil && *v.HomeLocation == locID
	}), nil
}

func (r *volunteers) filter(keep func(*domain.Volunteer) bool) []*domain.Volunteer {
	out := make([]*domain.Volunteer, 0)
	for _, v := range r.st.volunteers {
		if keep(&v) {
			out = append(out, &v)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Volunteer) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}
