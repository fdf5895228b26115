package postgres

import (
	"context"
	_ "embed"

	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/catalog"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Seed loads the demo catalogue plus an admin and a customer account sharing
// password. Existing rows are left alone.
func (s *Store) Seed(ctx context.Context, password string) error {
	hash, err := account.HashPassword(password)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, TxOptions)
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	for _, b := range catalog.SeedBooks() {
		if _, err := tx.Exec(ctx, `
			INSERT INTO books (title, author, isbn, price, quantity, category)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (isbn) DO NOTHING`,
			b.Title, b.Author, b.ISBN, b.Price.StringFixed(2), b.Quantity, b.Category); err != nil {
			return err
		}
	}
	for _, a := range []account.Account{
		{CustomerID: 0, Username: "admin", Role: account.RoleAdmin},
		{CustomerID: 1, Username: "customer", Role: account.RoleCustomer},
	} {
		if _, err := tx.Exec(ctx, `
			INSERT INTO accounts (customer_id, username, password_hash, role)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (username) DO NOTHING`,
			a.CustomerID, a.Username, hash, a.Role); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
