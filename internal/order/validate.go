package order

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// canonicalLines checks the shape of a submission and returns a copy of its
// lines sorted by ascending book id. Every submission touches inventory rows
// in that order, so two orders sharing books cannot wait on each other.
func canonicalLines(in Submission) ([]Line, error) {
	if in.CustomerID <= 0 {
		return nil, &ValidationError{Field: "customer_id", Reason: "must be positive"}
	}
	if len(in.Lines) == 0 {
		return nil, &ValidationError{Field: "lines", Reason: "order has no lines"}
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return nil, &ValidationError{Field: "shipping_address", Reason: "required"}
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, &ValidationError{Field: "payment_method", Reason: "required"}
	}

	seen := make(map[int64]int, len(in.Lines))
	for i, ln := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if ln.BookID <= 0 {
			return nil, &ValidationError{Field: field + ".book_id", Reason: "must be positive"}
		}
		if ln.Quantity <= 0 {
			return nil, &ValidationError{Field: field + ".quantity", Reason: "must be positive"}
		}
		// stock columns are 32-bit on every backend
		if ln.Quantity > math.MaxInt32 {
			return nil, &ValidationError{Field: field + ".quantity", Reason: fmt.Sprintf("must not exceed %d", math.MaxInt32)}
		}
		if j, dup := seen[ln.BookID]; dup {
			return nil, &ValidationError{Field: field + ".book_id", Reason: fmt.Sprintf("book %d already requested in lines[%d]", ln.BookID, j)}
		}
		seen[ln.BookID] = i
	}

	lines := append([]Line(nil), in.Lines...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].BookID < lines[j].BookID })
	return lines, nil
}

// checkTotals verifies subtotal == unit price * quantity for every item and
// total == sum of subtotals, exactly.
func checkTotals(o *Order) error {
	sum := decimal.Zero
	for _, it := range o.Items {
		want := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		if !it.Subtotal.Equal(want) {
			return &ConsistencyViolation{
				OrderID:  o.ID,
				Expected: want,
				Actual:   it.Subtotal,
				Detail:   fmt.Sprintf("subtotal of book %d", it.BookID),
			}
		}
		sum = sum.Add(it.Subtotal)
	}
	if !o.TotalAmount.Equal(sum) {
		return &ConsistencyViolation{OrderID: o.ID, Expected: sum, Actual: o.TotalAmount, Detail: "order total"}
	}
	return nil
}
