package order

const (
	RKOrderCreated   = "order.created"
	RKOrderCancelled = "order.cancelled"
	RKOrderStatus    = "order.status_changed"
)

type CreatedPayload struct {
	OrderID     int64         `json:"order_id"`
	CustomerID  int64         `json:"customer_id"`
	TotalAmount string        `json:"total_amount"`
	Items       []ItemPayload `json:"items"`
}

type ItemPayload struct {
	BookID    int64  `json:"book_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type StatusPayload struct {
	OrderID int64  `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

func createdPayload(o *Order) CreatedPayload {
	items := make([]ItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemPayload{
			BookID:    it.BookID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Subtotal:  it.Subtotal.StringFixed(2),
		})
	}
	return CreatedPayload{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
	}
}
