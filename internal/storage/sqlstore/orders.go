package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/bookstore/internal/order"
)

type OrderRepo struct {
	q       querier
	dialect Dialect
}

func (r *OrderRepo) Insert(ctx context.Context, o *order.Order) (order.Inserted, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (customer_id, created_unix, total_amount, status, shipping_address, payment_method, notes)
		VALUES (?,?,?,?,?,?,?)`,
		o.CustomerID, now.UnixMilli(), o.TotalAmount.StringFixed(2), string(o.Status),
		o.ShippingAddress, o.PaymentMethod, o.Notes,
	)
	if err != nil {
		return order.Inserted{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return order.Inserted{}, err
	}
	return order.Inserted{ID: id, CreatedAt: now}, nil
}

// InsertItems writes the items with one prepared statement inside the
// caller's transaction; a failing row aborts the whole transaction.
func (r *OrderRepo) InsertItems(ctx context.Context, orderID int64, items []order.Item) ([]order.Item, error) {
	if len(items) == 0 {
		return nil, errors.New("no items to insert")
	}
	stmt, err := r.q.PrepareContext(ctx, `
		INSERT INTO order_items (order_id, book_id, quantity, price, subtotal)
		VALUES (?,?,?,?,?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	out := make([]order.Item, 0, len(items))
	for _, it := range items {
		res, err := stmt.ExecContext(ctx, orderID, it.BookID, it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2))
		if err != nil {
			return nil, fmt.Errorf("item for book %d: %w", it.BookID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		it.ID, it.OrderID = id, orderID
		out = append(out, it)
	}
	return out, nil
}

func (r *OrderRepo) Items(ctx context.Context, orderID int64) ([]order.Item, error) {
	return listItems(ctx, r.q, orderID)
}

func (r *OrderRepo) LockStatus(ctx context.Context, orderID int64) (order.Status, error) {
	var st string
	err := r.q.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`+r.dialect.forUpdate(), orderID).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return "", order.ErrNotFound
	}
	return order.Status(st), err
}

func (r *OrderRepo) SetStatus(ctx context.Context, orderID int64, status order.Status) error {
	res, err := r.q.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

const orderCols = `id, customer_id, created_unix, total_amount, status, shipping_address, payment_method, notes`

func (s *Store) FindWithItems(ctx context.Context, id int64) (*order.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = listItems(ctx, s.db, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]order.Order, error) {
	return s.listOrders(ctx, `WHERE customer_id = ?`, []any{customerID}, limit, offset)
}

func (s *Store) ListByStatus(ctx context.Context, status order.Status, limit, offset int) ([]order.Order, error) {
	if status == "" {
		return s.listOrders(ctx, ``, nil, limit, offset)
	}
	return s.listOrders(ctx, `WHERE status = ?`, []any{string(status)}, limit, offset)
}

func (s *Store) listOrders(ctx context.Context, where string, args []any, limit, offset int) ([]order.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderCols+`
		FROM orders `+where+`
		ORDER BY created_unix DESC, id DESC
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = listItems(ctx, s.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*order.Order, error) {
	var (
		o            order.Order
		created      int64
		total, state string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &created, &total, &state,
		&o.ShippingAddress, &o.PaymentMethod, &o.Notes); err != nil {
		return nil, err
	}
	o.CreatedAt = time.UnixMilli(created).UTC()
	o.Status = order.Status(state)
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %d total: %w", o.ID, err)
	}
	return &o, nil
}

func listItems(ctx context.Context, q querier, orderID int64) ([]order.Item, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, book_id, quantity, price, subtotal
		FROM order_items WHERE order_id = ?
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var (
			it            order.Item
			price, subtot string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Quantity, &price, &subtot); err != nil {
			return nil, err
		}
		var err error
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if it.Subtotal, err = decimal.NewFromString(subtot); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
