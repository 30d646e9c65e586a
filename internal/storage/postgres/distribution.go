package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
	"moniftar/pkg/platform/sentinel"
)

type lists struct {
	q    querier
	lock bool
}

func (r *lists) Create(ctx context.Context, l *domain.DistributionList) error {
	if err := l.Validate(); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO distribution_lists (id, location_id, max_main_list_size) VALUES ($1, $2, $3)`,
		uid(l.ID), uid(l.LocationID), l.MaxMainListSize)
	if err != nil {
		return writeErr(err, "create distribution list")
	}
	return r.replaceMembers(ctx, l)
}

func (r *lists) FindByID(ctx context.Context, listID id.ListID) (*domain.DistributionList, error) {
	return r.load(ctx, `
		SELECT id, location_id, max_main_list_size
		FROM distribution_lists
		WHERE id = $1`+forUpdate(r.lock), uid(listID))
}

func (r *lists) FindByLocation(ctx context.Context, locID id.LocationID) (*domain.DistributionList, error) {
	return r.load(ctx, `
		SELECT id, location_id, max_main_list_size
		FROM distribution_lists
		WHERE location_id = $1`+forUpdate(r.lock), uid(locID))
}

func (r *lists) FindByMember(ctx context.Context, benID id.BeneficiaryID) (*domain.DistributionList, error) {
	lockClause := ""
	if r.lock {
		lockClause = " FOR UPDATE OF l"
	}
	return r.load(ctx, `
		SELECT l.id, l.location_id, l.max_main_list_size
		FROM distribution_lists l
		JOIN list_members m ON m.list_id = l.id
		WHERE m.beneficiary_id = $1`+lockClause, uid(benID))
}

// load reads the list row and then its members. Membership writers lock the
// list row first, so the member read sees a consistent set.
func (r *lists) load(ctx context.Context, q string, arg any) (*domain.DistributionList, error) {
	var l domain.DistributionList
	err := r.q.QueryRowContext(ctx, q, arg).Scan(
		(*uuid.UUID)(&l.ID), (*uuid.UUID)(&l.LocationID), &l.MaxMainListSize)
	if err != nil {
		return nil, readErr(err, "find distribution list")
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT m.beneficiary_id, m.placement, b.registered_at
		FROM list_members m
		JOIN beneficiaries b ON b.id = m.beneficiary_id
		WHERE m.list_id = $1
		ORDER BY m.placement, m.position`, uid(l.ID))
	if err != nil {
		return nil, fmt.Errorf("load list members: %w", err)
	}
	defer rows.Close()

	l.Main = make([]domain.Member, 0)
	l.Waiting = make([]domain.Member, 0)
	for rows.Next() {
		var (
			m         domain.Member
			placement string
		)
		if err := rows.Scan((*uuid.UUID)(&m.BeneficiaryID), &placement, &m.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan list member: %w", err)
		}
		switch domain.Placement(placement) {
		case domain.PlacementMain:
			l.Main = append(l.Main, m)
		case domain.PlacementWaiting:
			l.Waiting = append(l.Waiting, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load list members: %w", err)
	}
	return &l, nil
}

func (r *lists) Save(ctx context.Context, l *domain.DistributionList) error {
	if err := l.Validate(); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE distribution_lists SET max_main_list_size = $2 WHERE id = $1`,
		uid(l.ID), l.MaxMainListSize)
	if err != nil {
		return writeErr(err, "save distribution list")
	}
	if err := affectedOrNotFound(res, "save distribution list"); err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM list_members WHERE list_id = $1`, uid(l.ID)); err != nil {
		return fmt.Errorf("clear list members: %w", err)
	}
	return r.replaceMembers(ctx, l)
}

// replaceMembers inserts both sub-lists in one statement; positions keep
// the arrival order within each sub-list.
func (r *lists) replaceMembers(ctx context.Context, l *domain.DistributionList) error {
	total := len(l.Main) + len(l.Waiting)
	if total == 0 {
		return nil
	}
	benIDs := make([]string, 0, total)
	placements := make([]string, 0, total)
	positions := make([]int64, 0, total)
	for i, m := range l.Main {
		benIDs = append(benIDs, uuid.UUID(m.BeneficiaryID).String())
		placements = append(placements, string(domain.PlacementMain))
		positions = append(positions, int64(i))
	}
	for i, m := range l.Waiting {
		benIDs = append(benIDs, uuid.UUID(m.BeneficiaryID).String())
		placements = append(placements, string(domain.PlacementWaiting))
		positions = append(positions, int64(i))
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO list_members (list_id, beneficiary_id, placement, position)
		SELECT $1, u.beneficiary_id, u.placement, u.position
		FROM unnest($2::uuid[], $3::text[], $4::int[]) AS u(beneficiary_id, placement, position)`,
		uid(l.ID), pq.Array(benIDs), pq.Array(placements), pq.Array(positions))
	if err != nil {
		return writeErr(err, "insert list members")
	}
	return nil
}

type events struct {
	q    querier
	lock bool
}

const eventColumns = `id, list_id, location_id, scheduled_at, stock, description, created_at`

func (r *events) Create(ctx context.Context, e *domain.DistributionEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO distribution_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uid(e.ID), uid(e.ListID), uid(e.LocationID), e.ScheduledAt, e.Stock, e.Description, e.CreatedAt)
	if err != nil {
		return writeErr(err, "create distribution event")
	}
	return nil
}

func (r *events) FindByID(ctx context.Context, evID id.EventID) (*domain.DistributionEvent, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM distribution_events WHERE id = $1`+forUpdate(r.lock), uid(evID))
	e, err := scanEvent(row)
	if err != nil {
		return nil, readErr(err, "find distribution event")
	}
	return e, nil
}

func (r *events) NextForLocation(ctx context.Context, locID id.LocationID, from time.Time) (*domain.DistributionEvent, error) {
	return r.next(ctx, locID, from, "")
}

func (r *events) NextStockedForLocation(ctx context.Context, locID id.LocationID, from time.Time) (*domain.DistributionEvent, error) {
	return r.next(ctx, locID, from, " AND stock > 0")
}

func (r *events) next(ctx context.Context, locID id.LocationID, from time.Time, filter string) (*domain.DistributionEvent, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM distribution_events
		WHERE location_id = $1 AND scheduled_at >= $2`+filter+`
		ORDER BY scheduled_at, id
		LIMIT 1`+forUpdate(r.lock), uid(locID), from)
	e, err := scanEvent(row)
	if err != nil {
		return nil, readErr(err, "find next distribution event")
	}
	return e, nil
}

// DecrementStock is a compare-and-swap: the WHERE clause refuses to go below zero.
func (r *events) DecrementStock(ctx context.Context, evID id.EventID, qty int) (int, error) {
	var remaining int
	err := r.q.QueryRowContext(ctx, `
		UPDATE distribution_events
		SET stock = stock - $2
		WHERE id = $1 AND $2 > 0 AND stock >= $2
		RETURNING stock`, uid(evID), qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	var current int
	err = r.q.QueryRowContext(ctx, `SELECT stock FROM distribution_events WHERE id = $1`, uid(evID)).Scan(&current)
	if err != nil {
		return 0, readErr(err, "decrement stock")
	}
	return current, sentinel.ErrInvalidState
}

func (r *events) Delete(ctx context.Context, evID id.EventID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM distribution_events WHERE id = $1`, uid(evID))
	if err != nil {
		return fmt.Errorf("delete distribution event: %w", err)
	}
	return affectedOrNotFound(res, "delete distribution event")
}

func (r *events) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.DistributionEvent, error) {
	var upper sql.NullTime
	if !to.IsZero() {
		upper = sql.NullTime{Time: to, Valid: true}
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM distribution_events
		WHERE scheduled_at >= $1 AND ($2::timestamptz IS NULL OR scheduled_at < $2)
		ORDER BY scheduled_at, id`, from, upper)
	if err != nil {
		return nil, fmt.Errorf("list distribution events: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.DistributionEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan distribution event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (*domain.DistributionEvent, error) {
	var e domain.DistributionEvent
	err := row.Scan((*uuid.UUID)(&e.ID), (*uuid.UUID)(&e.ListID), (*uuid.UUID)(&e.LocationID),
		&e.ScheduledAt, &e.Stock, &e.Description, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type vouchers struct {
	q    querier
	lock bool
}

const voucherColumns = `id, code::text, beneficiary_id, issued_on::text, redeemed_at, created_at`

func (r *vouchers) Create(ctx context.Context, v *domain.Voucher) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO vouchers (id, code, beneficiary_id, issued_on, redeemed_at, created_at)
		VALUES ($1, $2::uuid, $3, $4::date, $5, $6)`,
		uid(v.ID), v.Code, uid(v.BeneficiaryID), v.IssuedOn.String(), v.RedeemedAt, v.CreatedAt)
	if err != nil {
		return writeErr(err, "create voucher")
	}
	return nil
}

func (r *vouchers) FindByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	if _, err := uuid.Parse(code); err != nil {
		// the column is uuid typed; anything else cannot match
		return nil, sentinel.ErrNotFound
	}
	row := r.q.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE code = $1::uuid`+forUpdate(r.lock), code)
	v, err := scanVoucher(row)
	if err != nil {
		return nil, readErr(err, "find voucher")
	}
	return v, nil
}

func (r *vouchers) FindForDay(ctx context.Context, benID id.BeneficiaryID, day domain.Day) (*domain.Voucher, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+voucherColumns+`
		FROM vouchers
		WHERE beneficiary_id = $1 AND issued_on = $2::date`+forUpdate(r.lock),
		uid(benID), day.String())
	v, err := scanVoucher(row)
	if err != nil {
		return nil, readErr(err, "find voucher for day")
	}
	return v, nil
}

// MarkRedeemed only succeeds while redeemed_at is NULL.
func (r *vouchers) MarkRedeemed(ctx context.Context, vID id.VoucherID, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE vouchers SET redeemed_at = $2 WHERE id = $1 AND redeemed_at IS NULL`, uid(vID), at)
	if err != nil {
		return fmt.Errorf("mark voucher redeemed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark voucher redeemed: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM vouchers WHERE id = $1)`, uid(vID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("mark voucher redeemed: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrAlreadyUsed
}

func (r *vouchers) DeleteUnredeemed(ctx context.Context, benIDs []id.BeneficiaryID) (int, error) {
	if len(benIDs) == 0 {
		return 0, nil
	}
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM vouchers
		WHERE redeemed_at IS NULL AND beneficiary_id = ANY($1::uuid[])`,
		pq.Array(uuidStrings(benIDs)))
	if err != nil {
		return 0, fmt.Errorf("delete unredeemed vouchers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete unredeemed vouchers: %w", err)
	}
	return int(n), nil
}

func scanVoucher(row rowScanner) (*domain.Voucher, error) {
	var (
		v          domain.Voucher
		issuedOn   string
		redeemedAt sql.NullTime
	)
	err := row.Scan((*uuid.UUID)(&v.ID), &v.Code, (*uuid.UUID)(&v.BeneficiaryID), &issuedOn, &redeemedAt, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.IssuedOn = domain.Day(issuedOn)
	if redeemedAt.Valid {
		t := redeemedAt.Time
		v.RedeemedAt = &t
	}
	return &v, nil
}
