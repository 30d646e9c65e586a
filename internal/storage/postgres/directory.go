package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
)

type locations struct {
	q querier
}

const locationColumns = `id, name, created_at`

func (r *locations) Create(ctx context.Context, l *domain.Location) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO locations (id, name, created_at) VALUES ($1, $2, $3)`,
		uid(l.ID), l.Name, l.CreatedAt)
	if err != nil {
		return writeErr(err, "create location")
	}
	return nil
}

func (r *locations) FindByID(ctx context.Context, locID id.LocationID) (*domain.Location, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, uid(locID))
	l, err := scanLocation(row)
	if err != nil {
		return nil, readErr(err, "find location")
	}
	return l, nil
}

func (r *locations) Update(ctx context.Context, l *domain.Location) error {
	res, err := r.q.ExecContext(ctx, `UPDATE locations SET name = $2 WHERE id = $1`, uid(l.ID), l.Name)
	if err != nil {
		return writeErr(err, "update location")
	}
	return affectedOrNotFound(res, "update location")
}

func (r *locations) List(ctx context.Context) ([]*domain.Location, error) {
	return r.query(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY name`)
}

func (r *locations) SearchByName(ctx context.Context, fragment string) ([]*domain.Location, error) {
	return r.query(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE name ILIKE '%' || $1 || '%' ORDER BY name`,
		fragment)
}

func (r *locations) query(ctx context.Context, q string, args ...any) ([]*domain.Location, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Location, 0)
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLocation(row rowScanner) (*domain.Location, error) {
	var l domain.Location
	if err := row.Scan((*uuid.UUID)(&l.ID), &l.Name, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

type beneficiaries struct {
	q querier
}

const beneficiaryColumns = `id, code, first_name, last_name, phone, home_location, registered_at`

func (r *beneficiaries) Create(ctx context.Context, b *domain.Beneficiary) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO beneficiaries (`+beneficiaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uid(b.ID), b.Code, b.FirstName, b.LastName, b.Phone, nullLocation(b.HomeLocation), b.RegisteredAt)
	if err != nil {
		return writeErr(err, "create beneficiary")
	}
	return nil
}

func (r *beneficiaries) FindByID(ctx context.Context, benID id.BeneficiaryID) (*domain.Beneficiary, error) {
	return r.findOne(ctx, `SELECT `+beneficiaryColumns+` FROM beneficiaries WHERE id = $1`, uid(benID))
}

func (r *beneficiaries) FindByCode(ctx context.Context, code string) (*domain.Beneficiary, error) {
	return r.findOne(ctx, `SELECT `+beneficiaryColumns+` FROM beneficiaries WHERE code = $1`, code)
}

func (r *beneficiaries) findOne(ctx context.Context, q string, arg any) (*domain.Beneficiary, error) {
	b, err := scanBeneficiary(r.q.QueryRowContext(ctx, q, arg))
	if err != nil {
		return nil, readErr(err, "find beneficiary")
	}
	return b, nil
}

func (r *beneficiaries) FindByIDs(ctx context.Context, benIDs []id.BeneficiaryID) (map[id.BeneficiaryID]*domain.Beneficiary, error) {
	out := make(map[id.BeneficiaryID]*domain.Beneficiary, len(benIDs))
	if len(benIDs) == 0 {
		return out, nil
	}
	found, err := r.query(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries WHERE id = ANY($1::uuid[])`,
		pq.Array(uuidStrings(benIDs)))
	if err != nil {
		return nil, err
	}
	for _, b := range found {
		out[b.ID] = b
	}
	return out, nil
}

func (r *beneficiaries) List(ctx context.Context) ([]*domain.Beneficiary, error) {
	return r.query(ctx, `SELECT `+beneficiaryColumns+` FROM beneficiaries ORDER BY registered_at, id`)
}

func (r *beneficiaries) Delete(ctx context.Context, benID id.BeneficiaryID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM beneficiaries WHERE id = $1`, uid(benID))
	if err != nil {
		return fmt.Errorf("delete beneficiary: %w", err)
	}
	return affectedOrNotFound(res, "delete beneficiary")
}

func (r *beneficiaries) query(ctx context.Context, q string, args ...any) ([]*domain.Beneficiary, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Beneficiary, 0)
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBeneficiary(row rowScanner) (*domain.Beneficiary, error) {
	var (
		b    domain.Beneficiary
		home uuid.NullUUID
	)
	if err := row.Scan((*uuid.UUID)(&b.ID), &b.Code, &b.FirstName, &b.LastName, &b.Phone, &home, &b.RegisteredAt); err != nil {
		return nil, err
	}
	b.HomeLocation = locationPtr(home)
	return &b, nil
}

type volunteers struct {
	q querier
}

const volunteerColumns = `id, code, phone, password_hash, first_name, last_name, home_location,
	is_admin, first_login_pending, created_at`

func (r *volunteers) Create(ctx context.Context, v *domain.Volunteer) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO volunteers (`+volunteerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uid(v.ID), v.Code, v.Phone, v.PasswordHash, v.FirstName, v.LastName,
		nullLocation(v.HomeLocation), v.IsAdmin, v.FirstLoginPending, v.CreatedAt)
	if err != nil {
		return writeErr(err, "create volunteer")
	}
	return nil
}

func (r *volunteers) Update(ctx context.Context, v *domain.Volunteer) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE volunteers SET
			code = $2,
			password_hash = $3,
			first_name = $4,
			last_name = $5,
			home_location = $6,
			is_admin = $7,
			first_login_pending = $8
		WHERE id = $1`,
		uid(v.ID), v.Code, v.PasswordHash, v.FirstName, v.LastName,
		nullLocation(v.HomeLocation), v.IsAdmin, v.FirstLoginPending)
	if err != nil {
		return writeErr(err, "update volunteer")
	}
	return affectedOrNotFound(res, "update volunteer")
}

func (r *volunteers) FindByID(ctx context.Context, volID id.VolunteerID) (*domain.Volunteer, error) {
	return r.findOne(ctx, `SELECT `+volunteerColumns+` FROM volunteers WHERE id = $1`, uid(volID))
}

func (r *volunteers) FindByPhone(ctx context.Context, phone string) (*domain.Volunteer, error) {
	return r.findOne(ctx, `SELECT `+volunteerColumns+` FROM volunteers WHERE phone = $1`, phone)
}

func (r *volunteers) FindByCode(ctx context.Context, code string) (*domain.Volunteer, error) {
	return r.findOne(ctx, `SELECT `+volunteerColumns+` FROM volunteers WHERE code = $1`, code)
}

func (r *volunteers) findOne(ctx context.Context, q string, arg any) (*domain.Volunteer, error) {
	v, err := scanVolunteer(r.q.QueryRowContext(ctx, q, arg))
	if err != nil {
		return nil, readErr(err, "find volunteer")
	}
	return v, nil
}

func (r *volunteers) List(ctx context.Context) ([]*domain.Volunteer, error) {
	return r.query(ctx, `SELECT `+volunteerColumns+` FROM volunteers ORDER BY created_at, id`)
}

func (r *volunteers) ListByLocation(ctx context.Context, locID id.LocationID) ([]*domain.Volunteer, error) {
	return r.query(ctx,
		`SELECT `+volunteerColumns+` FROM volunteers WHERE home_location = $1 ORDER BY created_at, id`,
		uid(locID))
}

func (r *volunteers) query(ctx context.Context, q string, args ...any) ([]*domain.Volunteer, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Volunteer, 0)
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVolunteer(row rowScanner) (*domain.Volunteer, error) {
	var (
		v    domain.Volunteer
		home uuid.NullUUID
	)
	err := row.Scan((*uuid.UUID)(&v.ID), &v.Code, &v.Phone, &v.PasswordHash, &v.FirstName, &v.LastName,
		&home, &v.IsAdmin, &v.FirstLoginPending, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.HomeLocation = locationPtr(home)
	return &v, nil
}
