package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customer_id"`
	CreatedAt       time.Time       `json:"created_at"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Notes           string          `json:"notes,omitempty"`
	Items           []Item          `json:"items"`
}

// Item is a line of an order. UnitPrice is the price read when the order was
// submitted, not a reference to the book's current price.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	BookID    int64           `json:"book_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Line is one requested (book, quantity) pair of a submission.
type Line struct {
	BookID   int64
	Quantity int
}

type Submission struct {
	CustomerID      int64
	Lines           []Line
	ShippingAddress string
	PaymentMethod   string
	Notes           string
}

// Inserted carries what the store generates when an order header is written.
type Inserted struct {
	ID        int64
	CreatedAt time.Time
}
