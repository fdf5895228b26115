// Package catalog provides book lookup and restocking for the storefront.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	ISBN      string          `json:"isbn"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Filter narrows a book listing. The zero value lists every book.
type Filter struct {
	Category      string
	AvailableOnly bool
	Limit, Offset int
}

// BookRequest payload of an admin create or update. Quantity is only read on
// create; afterwards stock moves through restock and orders.
// swagger:model BookRequest
type BookRequest struct {
	Title    string          `json:"title" example:"Cien años de soledad"`
	Author   string          `json:"author" example:"Gabriel García Márquez"`
	ISBN     string          `json:"isbn" example:"9780307474728"`
	Price    decimal.Decimal `json:"price" swaggertype:"string" example:"18.50"`
	Quantity int             `json:"quantity" example:"10"`
	Category string          `json:"category" example:"Novela"`
}

// RestockRequest payload of an admin restock.
// swagger:model RestockRequest
type RestockRequest struct {
	Amount int `json:"amount" example:"10"`
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}
