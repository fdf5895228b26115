package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/bookstore/internal/catalog"
)

type Ledger struct{ q querier }

func (l *Ledger) CurrentPrice(ctx context.Context, bookID int64) (decimal.Decimal, error) {
	var price string
	err := l.q.QueryRowContext(ctx, `SELECT price FROM books WHERE id = ?`, bookID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, catalog.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(price)
}

// TryDecrement is a single guarded update; the row changes only if enough
// stock is on hand when the engine applies it.
func (l *Ledger) TryDecrement(ctx context.Context, bookID int64, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("decrement amount must be positive, got %d", amount)
	}
	res, err := l.q.ExecContext(ctx, `
		UPDATE books
		SET quantity = quantity - ?
		WHERE id = ? AND quantity >= ?`,
		amount, bookID, amount,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *Ledger) Available(ctx context.Context, bookID int64) (int, error) {
	var qty int
	err := l.q.QueryRowContext(ctx, `SELECT quantity FROM books WHERE id = ?`, bookID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, catalog.ErrNotFound
	}
	return qty, err
}

func (l *Ledger) Restock(ctx context.Context, bookID int64, amount int) error {
	if amount <= 0 {
		return catalog.ErrInvalidAmount
	}
	res, err := l.q.ExecContext(ctx, `UPDATE books SET quantity = quantity + ? WHERE id = ?`, amount, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
