// Package storage selects and prepares the configured backend.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/catalog"
	"github.com/MikeMC777/bookstore/internal/config"
	"github.com/MikeMC777/bookstore/internal/order"
	"github.com/MikeMC777/bookstore/internal/storage/postgres"
	"github.com/MikeMC777/bookstore/internal/storage/sqlstore"
)

// Backend is what every storage implementation provides.
type Backend interface {
	order.Store
	catalog.Repository
	account.Repository
	account.Writer
	Migrate(ctx context.Context) error
	Seed(ctx context.Context, password string) error
	Ping(ctx context.Context) error
}

var (
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*sqlstore.Store)(nil)
)

// SeedPassword is shared by the demo accounts.
const SeedPassword = "bookstore"

// Open connects to cfg.StoreDriver, migrates the schema and seeds demo data
// when cfg.SeedOnStart is set. The returned func releases the connections.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (Backend, func(), error) {
	var (
		b     Backend
		release func()
	)
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		b, release = postgres.NewStore(pool, cfg.DBTimeout, log), pool.Close
	case "sqlite", "mysql":
		dialect := sqlstore.Dialect(cfg.StoreDriver)
		db, err := sqlstore.Open(dialect, cfg.SQLDSN)
		if err != nil {
			return nil, nil, err
		}
		b, release = sqlstore.NewStore(db, dialect, cfg.DBTimeout, log), func() { _ = db.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if err := b.Migrate(ctx); err != nil {
		release()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	if cfg.SeedOnStart {
		if err := b.Seed(ctx, SeedPassword); err != nil {
			release()
			return nil, nil, fmt.Errorf("seed: %w", err)
		}
		log.Info().Str("store", cfg.StoreDriver).Msg("seeded demo books and accounts")
	}
	return b, release, nil
}
