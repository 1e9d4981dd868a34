// Package postgres implements repository.Store on top of pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/repository"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the part of *pgxpool.Pool the store needs.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

var _ Pool = (*pgxpool.Pool)(nil)

type Store struct {
	pool Pool
	db   DBTX
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func New(pool Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.StorageError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StorageError("commit", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return domain.StorageError("ping", err)
	}
	return nil
}

// mapErr turns pgx errors into domain errors: no rows becomes notFound,
// anything unexpected is wrapped as a storage failure.
func mapErr(op string, err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}
	return domain.StorageError(op, err)
}

func isUniqueViolation(err error, constraint string) bool {
	return hasCode(err, uniqueViolation, constraint)
}

func isForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolation, "")
}

func hasCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == code && (constraint == "" || pgErr.ConstraintName == constraint)
}

func expectOne(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	if tag.RowsAffected() > 1 {
		return domain.StorageError("update", fmt.Errorf("%d rows affected", tag.RowsAffected()))
	}
	return nil
}
