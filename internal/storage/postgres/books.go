package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/catalog"
)

const bookCols = `id, title, author, isbn, price::text, quantity, category, created_at`

func scanBook(row pgx.Row) (*catalog.Book, error) {
	var (
		b     catalog.Book
		price string
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &price, &b.Quantity, &b.Category, &b.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("book %d price: %w", b.ID, err)
	}
	return &b, nil
}

func (s *Store) GetBook(ctx context.Context, id int64) (*catalog.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b, err := scanBook(s.db.QueryRow(ctx, `SELECT `+bookCols+` FROM books WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	return b, err
}

func (s *Store) ListBooks(ctx context.Context, f catalog.Filter) ([]catalog.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT `+bookCols+` FROM books
		WHERE ($1 = '' OR category = $1) AND (NOT $2::boolean OR quantity > 0)
		ORDER BY title, id
		LIMIT $3 OFFSET $4
	`, f.Category, f.AvailableOnly, f.Limit, f.Offset)
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

	rows, err := s.db.Query(ctx, `SELECT DISTINCT category FROM books WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) CreateBook(ctx context.Context, b *catalog.Book) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.QueryRow(ctx, `
		INSERT INTO books (title, author, isbn, price, quantity, category)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, b.Title, b.Author, b.ISBN, b.Price.StringFixed(2), b.Quantity, b.Category).Scan(&b.ID, &b.CreatedAt)
	if pgCode(err) == codeUniqueViolation {
		return catalog.ErrDuplicateISBN
	}
	return err
}

func (s *Store) UpdateBook(ctx context.Context, b *catalog.Book) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE books SET title = $2, author = $3, isbn = $4, price = $5, category = $6
		WHERE id = $1
	`, b.ID, b.Title, b.Author, b.ISBN, b.Price.StringFixed(2), b.Category)
	if pgCode(err) == codeUniqueViolation {
		return catalog.ErrDuplicateISBN
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if pgCode(err) == codeForeignKeyViolation {
		return catalog.ErrInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Restock runs outside any order transaction; the update is atomic on its own.
func (s *Store) Restock(ctx context.Context, id int64, amount int) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return (&Ledger{q: s.db}).Restock(ctx, id, amount)
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var a account.Account
	err := s.db.QueryRow(ctx, `
		SELECT id, customer_id, username, password_hash, role, is_active, created_at, last_login
		FROM accounts WHERE username = $1
	`, username).Scan(&a.ID, &a.CustomerID, &a.Username, &a.PasswordHash, &a.Role, &a.Active, &a.CreatedAt, &a.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.Exec(ctx, `UPDATE accounts SET last_login = NOW() WHERE id = $1`, id)
	return err
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var one int
	return s.db.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

// CreateAccount inserts a, which must already carry a bcrypt hash.
func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.QueryRow(ctx, `
		INSERT INTO accounts (customer_id, username, password_hash, role, is_active)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, a.CustomerID, a.Username, a.PasswordHash, a.Role, a.Active).Scan(&a.ID, &a.CreatedAt)
	if pgCode(err) == codeUniqueViolation {
		return account.ErrAlreadyExists
	}
	return err
}
