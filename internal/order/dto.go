package order

// CreateOrderItem is one requested line. Prices are never accepted from the client.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	BookID   int64 `json:"book_id"  example:"42"`
	Quantity int   `json:"quantity" example:"2"`
}

// CreateOrderRequest payload to submit an order for the authenticated customer.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress string            `json:"shipping_address" example:"Cra 7 # 12-34, Bogotá"`
	PaymentMethod   string            `json:"payment_method"   example:"CARD"`
	Notes           string            `json:"notes"            example:"leave at the door"`
}

// UpdateStatusRequest payload of an admin status change.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status Status `json:"status" example:"PAID"`
}

// ToSubmission maps the payload onto a submission for customerID.
func (r CreateOrderRequest) ToSubmission(customerID int64) Submission {
	lines := make([]Line, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, Line{BookID: it.BookID, Quantity: it.Quantity})
	}
	return Submission{
		CustomerID:      customerID,
		Lines:           lines,
		ShippingAddress: r.ShippingAddress,
		PaymentMethod:   r.PaymentMethod,
		Notes:           r.Notes,
	}
}
