package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/catalog"
)

const bookCols = `id, title, author, isbn, price, quantity, category, created_unix`

func scanBook(row scanner) (*catalog.Book, error) {
	var (
		b       catalog.Book
		price   string
		created int64
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &price, &b.Quantity, &b.Category, &created); err != nil {
		return nil, err
	}
	var err error
	if b.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("book %d price: %w", b.ID, err)
	}
	b.CreatedAt = time.UnixMilli(created).UTC()
	return &b, nil
}

func (s *Store) GetBook(ctx context.Context, id int64) (*catalog.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b, err := scanBook(s.db.QueryRowContext(ctx, `SELECT `+bookCols+` FROM books WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	return b, err
}

func (s *Store) ListBooks(ctx context.Context, f catalog.Filter) ([]catalog.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.AvailableOnly {
		conds = append(conds, "quantity > 0")
	}
	q := `SELECT ` + bookCols + ` FROM books`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY title, id LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM books WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateBook inserts b and sets its id.
func (s *Store) CreateBook(ctx context.Context, b *catalog.Book) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO books (title, author, isbn, price, quantity, category, created_unix)
		VALUES (?,?,?,?,?,?,?)`,
		b.Title, b.Author, b.ISBN, b.Price.StringFixed(2), b.Quantity, b.Category, now.UnixMilli(),
	)
	if isUniqueViolation(err) {
		return catalog.ErrDuplicateISBN
	}
	if err != nil {
		return err
	}
	b.CreatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	b.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateBook(ctx context.Context, b *catalog.Book) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET title = ?, author = ?, isbn = ?, price = ?, category = ?
		WHERE id = ?`,
		b.Title, b.Author, b.ISBN, b.Price.StringFixed(2), b.Category, b.ID,
	)
	if isUniqueViolation(err) {
		return catalog.ErrDuplicateISBN
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// mysql counts rows left unchanged as unaffected
		_, err = s.GetBook(ctx, b.ID)
		return err
	}
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return catalog.ErrInUse
	}
	if err != nil {
		return err
	}
	return requireRow(res, catalog.ErrNotFound)
}

// requireRow returns missing when res changed no row.
func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func (s *Store) Restock(ctx context.Context, id int64, amount int) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return (&Ledger{q: s.db}).Restock(ctx, id, amount)
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		a         account.Account
		created   int64
		lastLogin sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, username, password_hash, role, is_active, created_unix, last_login_unix
		FROM accounts WHERE username = ?`, username,
	).Scan(&a.ID, &a.CustomerID, &a.Username, &a.PasswordHash, &a.Role, &a.Active, &created, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	if lastLogin.Valid {
		t := time.UnixMilli(lastLogin.Int64).UTC()
		a.LastLogin = &t
	}
	return &a, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `UPDATE accounts SET last_login_unix = ? WHERE id = ?`, time.Now().UnixMilli(), id)
	return err
}
