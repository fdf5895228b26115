package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/bookstore/internal/order"
)

// OrderRepo writes orders through an open transaction.
type OrderRepo struct{ q querier }

func (r *OrderRepo) Insert(ctx context.Context, o *order.Order) (order.Inserted, error) {
	var ins order.Inserted
	err := r.q.QueryRow(ctx, `
		INSERT INTO orders (customer_id, total_amount, status, shipping_address, payment_method, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, o.CustomerID, o.TotalAmount.StringFixed(2), string(o.Status), o.ShippingAddress, o.PaymentMethod, o.Notes,
	).Scan(&ins.ID, &ins.CreatedAt)
	return ins, err
}

// InsertItems writes every item with one multi-row INSERT, so a constraint
// failure on any row rejects them all.
func (r *OrderRepo) InsertItems(ctx context.Context, orderID int64, items []order.Item) ([]order.Item, error) {
	if len(items) == 0 {
		return nil, errors.New("no items to insert")
	}
	var (
		sb   strings.Builder
		args = make([]any, 0, len(items)*5)
	)
	sb.WriteString(`INSERT INTO order_items (order_id, book_id, quantity, price, subtotal) VALUES `)
	for i, it := range items {
		if i > 0 {
			sb.WriteString(",")
		}
		n := i * 5
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, orderID, it.BookID, it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2))
	}
	sb.WriteString(` RETURNING id, order_id, book_id, quantity, price::text, subtotal::text`)

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	saved, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(saved) != len(items) {
		return nil, fmt.Errorf("inserted %d items, expected %d", len(saved), len(items))
	}

	// RETURNING order is not guaranteed; book ids are unique within an order
	byBook := make(map[int64]order.Item, len(saved))
	for _, it := range saved {
		byBook[it.BookID] = it
	}
	out := make([]order.Item, 0, len(items))
	for _, it := range items {
		s, ok := byBook[it.BookID]
		if !ok {
			return nil, fmt.Errorf("item for book %d missing after insert", it.BookID)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *OrderRepo) Items(ctx context.Context, orderID int64) ([]order.Item, error) {
	return listItems(ctx, r.q, orderID)
}

func (r *OrderRepo) LockStatus(ctx context.Context, orderID int64) (order.Status, error) {
	var st string
	err := r.q.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", order.ErrNotFound
	}
	return order.Status(st), err
}

func (r *OrderRepo) SetStatus(ctx context.Context, orderID int64, status order.Status) error {
	tag, err := r.q.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (s *Store) FindWithItems(ctx context.Context, id int64) (*order.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	o, err := scanOrder(s.db.QueryRow(ctx, `
		SELECT id, customer_id, created_at, total_amount::text, status, shipping_address, payment_method, notes
		FROM orders WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
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
	return s.listOrders(ctx, `WHERE customer_id = $1`, customerID, limit, offset)
}

func (s *Store) ListByStatus(ctx context.Context, status order.Status, limit, offset int) ([]order.Order, error) {
	return s.listOrders(ctx, `WHERE ($1 = '' OR status = $1)`, string(status), limit, offset)
}

// listOrders runs one page of orders filtered by where, whose only
// placeholder is $1, then loads the items of each.
func (s *Store) listOrders(ctx context.Context, where string, arg any, limit, offset int) ([]order.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, customer_id, created_at, total_amount::text, status, shipping_address, payment_method, notes
		FROM orders `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, arg, limit, offset)
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

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o            order.Order
		total, state string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.CreatedAt, &total, &state,
		&o.ShippingAddress, &o.PaymentMethod, &o.Notes); err != nil {
		return nil, err
	}
	o.Status = order.Status(state)
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %d total: %w", o.ID, err)
	}
	return &o, nil
}

func listItems(ctx context.Context, q querier, orderID int64) ([]order.Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, book_id, quantity, price::text, subtotal::text
		FROM order_items WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func scanItems(rows pgx.Rows) ([]order.Item, error) {
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
