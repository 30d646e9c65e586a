// Package postgres is the database/sql storage backend. Every repository is
// bound to one *sql.Tx; inside RunInTx the list, event and voucher reads take
// row locks.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"moniftar/internal/storage"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Store runs units of work against a Postgres pool.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

var _ storage.Runner = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db, timeout: storage.DefaultTxTimeout}
}

func (s *Store) RunInTx(ctx context.Context, fn func(storage.Stores) error) error {
	return s.run(ctx, nil, true, fn)
}

func (s *Store) View(ctx context.Context, fn func(storage.Stores) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, false, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, lock bool, fn func(storage.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(bind(tx, lock)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func bind(q querier, lock bool) storage.Stores {
	return storage.Stores{
		Locations:     &locations{q: q},
		Beneficiaries: &beneficiaries{q: q},
		Volunteers:    &volunteers{q: q},
		Lists:         &lists{q: q, lock: lock},
		Events:        &events{q: q, lock: lock},
		Vouchers:      &vouchers{q: q, lock: lock},
	}
}

func forUpdate(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// writeErr maps constraint violations to sentinels and wraps everything else.
func writeErr(err error, op string) error {
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func readErr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affectedOrNotFound turns a zero-row UPDATE or DELETE into ErrNotFound.
func affectedOrNotFound(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func uid[T ~[16]byte](v T) uuid.UUID { return uuid.UUID(v) }

func nullLocation(loc *id.LocationID) uuid.NullUUID {
	if loc == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*loc), Valid: true}
}

func locationPtr(n uuid.NullUUID) *id.LocationID {
	if !n.Valid {
		return nil
	}
	loc := id.LocationID(n.UUID)
	return &loc
}

func uuidStrings[T ~[16]byte](ids []T) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = uuid.UUID(v).String()
	}
	return out
}
