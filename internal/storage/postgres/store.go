// Package postgres implements the order, catalog and account ports on top of pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/MikeMC777/bookstore/internal/order"
)

// querier is what both the pool and an open transaction provide.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxOptions used for every order transaction. Read committed is enough: the
// only contended value, the stock counter, is changed by guarded updates
// that take the row lock.
var TxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

type Store struct {
	db      DB
	timeout time.Duration
	log     zerolog.Logger
}

func NewStore(db DB, timeout time.Duration, log zerolog.Logger) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout, log: log.With().Str("component", "postgres").Logger()}
}

// Open connects a pool to dsn and checks it with a ping.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func (s *Store) Run(ctx context.Context, work func(ctx context.Context, uow order.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, TxOptions)
	if err != nil {
		return &order.PersistenceError{Op: "begin", Err: err}
	}

	done := false
	defer func() {
		if done {
			return
		}
		// panic inside work
		s.rollback(ctx, tx)
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if werr := work(ctx, &unit{tx: tx}); werr != nil {
		done = true
		s.rollback(ctx, tx)
		return werr
	}
	done = true
	if err := tx.Commit(ctx); err != nil {
		return &order.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

func (s *Store) rollback(ctx context.Context, tx pgx.Tx) {
	// the caller's ctx may already be cancelled; the rollback must still go out
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.log.Error().Err(err).Msg("rollback failed")
	}
}

type unit struct{ tx pgx.Tx }

func (u *unit) Ledger() order.Ledger      { return &Ledger{q: u.tx} }
func (u *unit) Orders() order.Repository { return &OrderRepo{q: u.tx} }
