package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/catalog"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS books(
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  title        TEXT NOT NULL,
  author       TEXT NOT NULL DEFAULT '',
  isbn         TEXT NOT NULL UNIQUE,
  price        TEXT NOT NULL,
  quantity     INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  category     TEXT NOT NULL DEFAULT '',
  created_unix INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS accounts(
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  customer_id     INTEGER NOT NULL,
  username        TEXT NOT NULL UNIQUE,
  password_hash   TEXT NOT NULL,
  role            TEXT NOT NULL DEFAULT 'CUSTOMER',
  is_active       INTEGER NOT NULL DEFAULT 1,
  created_unix    INTEGER NOT NULL,
  last_login_unix INTEGER
)`,
	`CREATE TABLE IF NOT EXISTS orders(
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  customer_id      INTEGER NOT NULL,
  created_unix     INTEGER NOT NULL,
  total_amount     TEXT NOT NULL,
  status           TEXT NOT NULL CHECK (status IN ('PENDING','PAID','SHIPPED','CANCELLED')),
  shipping_address TEXT NOT NULL,
  payment_method   TEXT NOT NULL,
  notes            TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS order_items(
  id       INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  book_id  INTEGER NOT NULL REFERENCES books(id),
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price    TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  UNIQUE (order_id, book_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, created_unix)`,
	`CREATE INDEX IF NOT EXISTS idx_items_order ON order_items(order_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS books(
  id           BIGINT AUTO_INCREMENT PRIMARY KEY,
  title        VARCHAR(255) NOT NULL,
  author       VARCHAR(255) NOT NULL DEFAULT '',
  isbn         VARCHAR(32) NOT NULL UNIQUE,
  price        DECIMAL(10,2) NOT NULL,
  quantity     INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  category     VARCHAR(100) NOT NULL DEFAULT '',
  created_unix BIGINT NOT NULL
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS accounts(
  id              BIGINT AUTO_INCREMENT PRIMARY KEY,
  customer_id     BIGINT NOT NULL,
  username        VARCHAR(100) NOT NULL UNIQUE,
  password_hash   VARCHAR(255) NOT NULL,
  role            VARCHAR(20) NOT NULL DEFAULT 'CUSTOMER',
  is_active       TINYINT(1) NOT NULL DEFAULT 1,
  created_unix    BIGINT NOT NULL,
  last_login_unix BIGINT NULL
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS orders(
  id               BIGINT AUTO_INCREMENT PRIMARY KEY,
  customer_id      BIGINT NOT NULL,
  created_unix     BIGINT NOT NULL,
  total_amount     DECIMAL(12,2) NOT NULL,
  status           VARCHAR(20) NOT NULL,
  shipping_address VARCHAR(500) NOT NULL,
  payment_method   VARCHAR(50) NOT NULL,
  notes            TEXT NOT NULL,
  INDEX idx_orders_customer (customer_id, created_unix)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS order_items(
  id       BIGINT AUTO_INCREMENT PRIMARY KEY,
  order_id BIGINT NOT NULL,
  book_id  BIGINT NOT NULL,
  quantity INT NOT NULL CHECK (quantity > 0),
  price    DECIMAL(10,2) NOT NULL,
  subtotal DECIMAL(12,2) NOT NULL,
  UNIQUE KEY uq_item_book (order_id, book_id),
  FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
  FOREIGN KEY (book_id) REFERENCES books(id)
) ENGINE=InnoDB`,
}

func (s *Store) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.dialect == MySQL {
		stmts = mysqlSchema
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) insertIgnore() string {
	if s.dialect == MySQL {
		return "INSERT IGNORE INTO"
	}
	return "INSERT OR IGNORE INTO"
}

// CreateAccount inserts a, which must already carry a bcrypt hash.
func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (customer_id, username, password_hash, role, is_active, created_unix)
		VALUES (?,?,?,?,?,?)`,
		a.CustomerID, a.Username, a.PasswordHash, a.Role, a.Active, time.Now().UnixMilli(),
	)
	if isUniqueViolation(err) {
		return account.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports a delete blocked by a referencing row.
func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1451
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Seed loads a few demo books plus an admin and a customer account sharing
// password. Rows that already exist are left alone.
func (s *Store) Seed(ctx context.Context, password string) error {
	hash, err := account.HashPassword(password)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	books := catalog.SeedBooks()
	for _, b := range books {
		if _, err := tx.ExecContext(ctx, s.insertIgnore()+` books (title, author, isbn, price, quantity, category, created_unix)
			VALUES (?,?,?,?,?,?,?)`,
			b.Title, b.Author, b.ISBN, b.Price.StringFixed(2), b.Quantity, b.Category, now); err != nil {
			return err
		}
	}
	accounts := []account.Account{
		{CustomerID: 0, Username: "admin", Role: account.RoleAdmin},
		{CustomerID: 1, Username: "customer", Role: account.RoleCustomer},
	}
	for _, a := range accounts {
		if _, err := tx.ExecContext(ctx, s.insertIgnore()+` accounts (customer_id, username, password_hash, role, is_active, created_unix)
			VALUES (?,?,?,?,1,?)`,
			a.CustomerID, a.Username, hash, a.Role, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}
