package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/bookstore/internal/catalog"
)

// Ledger mutates books.quantity. It never reads a quantity and writes it
// back: both the decrement and the restock are single conditional updates.
type Ledger struct{ q querier }

func (l *Ledger) CurrentPrice(ctx context.Context, bookID int64) (decimal.Decimal, error) {
	var price string
	err := l.q.QueryRow(ctx, `SELECT price::text FROM books WHERE id = $1`, bookID).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, catalog.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(price)
}

func (l *Ledger) TryDecrement(ctx context.Context, bookID int64, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("decrement amount must be positive, got %d", amount)
	}
	tag, err := l.q.Exec(ctx, `
		UPDATE books
		SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2
	`, bookID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (l *Ledger) Available(ctx context.Context, bookID int64) (int, error) {
	var qty int
	err := l.q.QueryRow(ctx, `SELECT quantity FROM books WHERE id = $1`, bookID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, catalog.ErrNotFound
	}
	return qty, err
}

func (l *Ledger) Restock(ctx context.Context, bookID int64, amount int) error {
	if amount <= 0 {
		return catalog.ErrInvalidAmount
	}
	tag, err := l.q.Exec(ctx, `
		UPDATE books
		SET quantity = quantity + $2
		WHERE id = $1
	`, bookID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
