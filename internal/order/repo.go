package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// TxRunner opens a transaction scope. Run commits when work returns nil and
// rolls back otherwise; exactly one of the two happens per call. Nothing
// written through the UnitOfWork is visible to others before commit.
type TxRunner interface {
	Run(ctx context.Context, work func(ctx context.Context, uow UnitOfWork) error) error
}

// UnitOfWork exposes the capabilities bound to one open transaction.
type UnitOfWork interface {
	Ledger() Ledger
	Orders() Repository
}

// Ledger is the inventory side of a transaction.
type Ledger interface {
	// CurrentPrice returns catalog.ErrNotFound for an unknown book.
	CurrentPrice(ctx context.Context, bookID int64) (decimal.Decimal, error)
	// TryDecrement subtracts amount only if at least amount is on hand, in a
	// single conditional update. It reports whether the row was changed.
	TryDecrement(ctx context.Context, bookID int64, amount int) (bool, error)
	Available(ctx context.Context, bookID int64) (int, error)
	Restock(ctx context.Context, bookID int64, amount int) error
}

// Repository writes orders inside a transaction.
type Repository interface {
	Insert(ctx context.Context, o *Order) (Inserted, error)
	// InsertItems writes all items in one statement and returns them with
	// their generated ids, in the order given.
	InsertItems(ctx context.Context, orderID int64, items []Item) ([]Item, error)
	Items(ctx context.Context, orderID int64) ([]Item, error)
	// LockStatus reads the status and holds the row until the transaction ends.
	LockStatus(ctx context.Context, orderID int64) (Status, error)
	SetStatus(ctx context.Context, orderID int64, status Status) error
}

// Reader serves confirmation and history pages; no transaction needed.
type Reader interface {
	FindWithItems(ctx context.Context, orderID int64) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]Order, error)
	// ListByStatus lists all customers' orders; an empty status matches any.
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Order, error)
}

type Store interface {
	TxRunner
	Reader
}

// Publisher delivers domain events; implementations may be best effort.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}
