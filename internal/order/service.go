package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MikeMC777/bookstore/internal/catalog"
)

var tracer = otel.Tracer("github.com/MikeMC777/bookstore/internal/order")

// allowed source statuses per target status
var transitions = map[Status][]Status{
	StatusPaid:      {StatusPending},
	StatusShipped:   {StatusPaid},
	StatusCancelled: {StatusPending, StatusPaid},
}

type Service struct {
	store Store
	pub   Publisher
	log   zerolog.Logger
}

// NewService builds the order service. pub may be nil, in which case no
// events are emitted.
func NewService(store Store, pub Publisher, log zerolog.Logger) *Service {
	return &Service{store: store, pub: pub, log: log.With().Str("component", "order").Logger()}
}

// Submit validates the request, then in one transaction decrements stock for
// every line, prices it from storage and writes the order with its items.
// Either the whole order exists afterwards or nothing of it does.
func (s *Service) Submit(ctx context.Context, in Submission) (*Order, error) {
	ctx, span := tracer.Start(ctx, "order.Submit", trace.WithAttributes(
		attribute.Int64("customer.id", in.CustomerID),
		attribute.Int("order.lines", len(in.Lines)),
	))
	defer span.End()

	lines, err := canonicalLines(in)
	if err != nil {
		s.log.Debug().Err(err).Int64("customer_id", in.CustomerID).Msg("submission rejected")
		span.SetStatus(codes.Error, "validation")
		return nil, err
	}

	var out *Order
	err = s.store.Run(ctx, func(ctx context.Context, uow UnitOfWork) error {
		items := make([]Item, 0, len(lines))
		total := decimal.Zero
		for i, ln := range lines {
			price, err := uow.Ledger().CurrentPrice(ctx, ln.BookID)
			if errors.Is(err, catalog.ErrNotFound) {
				return &ValidationError{Field: fmt.Sprintf("lines[%d].book_id", i), Reason: fmt.Sprintf("book %d does not exist", ln.BookID)}
			}
			if err != nil {
				return persistence("read price", err)
			}

			ok, err := uow.Ledger().TryDecrement(ctx, ln.BookID, ln.Quantity)
			if err != nil {
				return persistence("decrement stock", err)
			}
			if !ok {
				avail, err := uow.Ledger().Available(ctx, ln.BookID)
				if err != nil {
					return persistence("read stock", err)
				}
				return &InsufficientStockError{BookID: ln.BookID, Requested: ln.Quantity, Available: avail}
			}

			sub := price.Mul(decimal.NewFromInt(int64(ln.Quantity)))
			items = append(items, Item{
				BookID:    ln.BookID,
				Quantity:  ln.Quantity,
				UnitPrice: price,
				Subtotal:  sub,
			})
			total = total.Add(sub)
		}

		o := &Order{
			CustomerID:      in.CustomerID,
			TotalAmount:     total,
			Status:          StatusPending,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			Notes:           in.Notes,
		}
		ins, err := uow.Orders().Insert(ctx, o)
		if err != nil {
			return persistence("insert order", err)
		}
		o.ID, o.CreatedAt = ins.ID, ins.CreatedAt

		saved, err := uow.Orders().InsertItems(ctx, o.ID, items)
		if err != nil {
			return persistence("insert items", err)
		}
		o.Items = saved

		if err := checkTotals(o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		s.reportSubmitError(in, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return nil, persistence("submit", err)
	}

	span.SetAttributes(attribute.Int64("order.id", out.ID))
	s.log.Info().
		Int64("order_id", out.ID).
		Int64("customer_id", out.CustomerID).
		Str("total", out.TotalAmount.StringFixed(2)).
		Int("items", len(out.Items)).
		Msg("order submitted")
	s.publish(ctx, RKOrderCreated, createdPayload(out))
	return out, nil
}

func (s *Service) reportSubmitError(in Submission, err error) {
	var (
		se *InsufficientStockError
		cv *ConsistencyViolation
		ve *ValidationError
	)
	switch {
	case errors.As(err, &cv):
		s.log.Error().Err(err).
			Int64("customer_id", in.CustomerID).
			Str("expected", cv.Expected.String()).
			Str("actual", cv.Actual.String()).
			Msg("consistency violation, order rolled back")
	case errors.As(err, &se):
		s.log.Info().
			Int64("customer_id", in.CustomerID).
			Int64("book_id", se.BookID).
			Int("requested", se.Requested).
			Int("available", se.Available).
			Msg("insufficient stock, order rolled back")
	case errors.As(err, &ve):
		s.log.Debug().Err(err).Int64("customer_id", in.CustomerID).Msg("submission rejected")
	default:
		s.log.Error().Err(err).Int64("customer_id", in.CustomerID).Msg("order submission failed")
	}
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := s.store.FindWithItems(ctx, id)
	if err != nil {
		return nil, persistence("find order", err)
	}
	return o, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]Order, error) {
	limit, offset = page(limit, offset)
	out, err := s.store.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	return out, nil
}

// ListAll returns every customer's orders, newest first. An empty status
// means any status.
func (s *Service) ListAll(ctx context.Context, status Status, limit, offset int) ([]Order, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	limit, offset = page(limit, offset)
	out, err := s.store.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	return out, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Transition moves an order to status to. Cancelling puts the ordered
// quantities back in stock within the same transaction.
func (s *Service) Transition(ctx context.Context, orderID int64, to Status) (*Order, error) {
	ctx, span := tracer.Start(ctx, "order.Transition", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.status", string(to)),
	))
	defer span.End()

	if !to.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", to)}
	}
	if _, ok := transitions[to]; !ok {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("cannot move an order to %q", to)}
	}

	var from Status
	err := s.store.Run(ctx, func(ctx context.Context, uow UnitOfWork) error {
		cur, err := uow.Orders().LockStatus(ctx, orderID)
		if err != nil {
			return persistence("lock order", err)
		}
		if !canTransition(cur, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, to)
		}
		if to == StatusCancelled {
			items, err := uow.Orders().Items(ctx, orderID)
			if err != nil {
				return persistence("read items", err)
			}
			sort.Slice(items, func(i, j int) bool { return items[i].BookID < items[j].BookID })
			for _, it := range items {
				if err := uow.Ledger().Restock(ctx, it.BookID, it.Quantity); err != nil {
					return persistence("restock", err)
				}
			}
		}
		from = cur
		return persistence("set status", uow.Orders().SetStatus(ctx, orderID, to))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
		return nil, persistence("transition", err)
	}

	s.log.Info().Int64("order_id", orderID).Str("from", string(from)).Str("to", string(to)).Msg("order status changed")
	rk := RKOrderStatus
	if to == StatusCancelled {
		rk = RKOrderCancelled
	}
	s.publish(ctx, rk, StatusPayload{OrderID: orderID, From: from, To: to})
	return s.Get(ctx, orderID)
}

func canTransition(from, to Status) bool {
	for _, st := range transitions[to] {
		if st == from {
			return true
		}
	}
	return false
}

func (s *Service) publish(ctx context.Context, rk string, v any) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.pub.PublishJSON(ctx, rk, v); err != nil {
		s.log.Warn().Err(err).Str("rk", rk).Msg("publish failed")
	}
}
