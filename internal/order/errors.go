package order

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a malformed submission. It is always returned
// before any storage is touched, except for an unknown book which is only
// discovered inside the transaction (and rolled back).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type InsufficientStockError struct {
	BookID    int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %d: requested %d, available %d",
		e.BookID, e.Requested, e.Available)
}

// PersistenceError wraps any storage or transport failure. Callers should not
// assume a retry without backoff is safe.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConsistencyViolation means the service computed or read back an order whose
// totals do not add up. It should be unreachable.
type ConsistencyViolation struct {
	OrderID  int64
	Expected decimal.Decimal
	Actual   decimal.Decimal
	Detail   string
}

func (e *ConsistencyViolation) Error() string {
	return fmt.Sprintf("consistency violation on order %d: %s (expected %s, got %s)",
		e.OrderID, e.Detail, e.Expected.String(), e.Actual.String())
}

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		pe *PersistenceError
		ve *ValidationError
		se *InsufficientStockError
		cv *ConsistencyViolation
	)
	switch {
	case errors.As(err, &pe), errors.As(err, &ve), errors.As(err, &se), errors.As(err, &cv):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsClientError reports whether err is something the caller can fix by
// changing the request.
func IsClientError(err error) bool {
	var (
		ve *ValidationError
		se *InsufficientStockError
	)
	return errors.As(err, &ve) || errors.As(err, &se)
}
