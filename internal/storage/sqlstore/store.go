// Package sqlstore implements the order, catalog and account ports with
// database/sql, for the embedded SQLite backend and for MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/MikeMC777/bookstore/internal/order"
)

type Dialect string

const (
	SQLite Dialect = "sqlite"
	MySQL  Dialect = "mysql"
)

func (d Dialect) txOptions() *sql.TxOptions {
	if d == MySQL {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	// sqlite transactions are serializable; it rejects other levels
	return nil
}

func (d Dialect) forUpdate() string {
	if d == MySQL {
		return " FOR UPDATE"
	}
	return ""
}

// querier is implemented by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
	log     zerolog.Logger
}

func NewStore(db *sql.DB, dialect Dialect, timeout time.Duration, log zerolog.Logger) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, dialect: dialect, timeout: timeout, log: log.With().Str("component", string(dialect)).Logger()}
}

// Open opens dsn with the driver of dialect. For SQLite dsn is a file path;
// WAL, a busy timeout and foreign keys are switched on and the pool is
// limited to one connection so writers queue instead of failing.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case SQLite:
		db, err := sql.Open("sqlite", "file:"+dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		db.SetConnMaxIdleTime(2 * time.Minute)
		return db, nil
	case MySQL:
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(20)
		db.SetConnMaxLifetime(5 * time.Minute)
		return db, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", dialect)
}

func (s *Store) Run(ctx context.Context, work func(ctx context.Context, uow order.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, s.dialect.txOptions())
	if err != nil {
		return &order.PersistenceError{Op: "begin", Err: err}
	}

	done := false
	defer func() {
		if !done {
			s.rollback(tx)
		}
	}()

	if werr := work(ctx, &unit{tx: tx, dialect: s.dialect}); werr != nil {
		done = true
		s.rollback(tx)
		return werr
	}
	done = true
	if err := tx.Commit(); err != nil {
		return &order.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

func (s *Store) rollback(tx *sql.Tx) {
	// database/sql already rolled back if the context was cancelled
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.log.Error().Err(err).Msg("rollback failed")
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

type unit struct {
	tx      *sql.Tx
	dialect Dialect
}

func (u *unit) Ledger() order.Ledger      { return &Ledger{q: u.tx} }
func (u *unit) Orders() order.Repository { return &OrderRepo{q: u.tx, dialect: u.dialect} }
