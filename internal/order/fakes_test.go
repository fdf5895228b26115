package order_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/bookstore/internal/catalog"
	"github.com/MikeMC777/bookstore/internal/order"
)

type memBook struct {
	price decimal.Decimal
	qty   int
}

// memStore runs every transaction under one mutex and restores a snapshot
// when work fails, which is enough to observe commit/rollback semantics.
type memStore struct {
	mu        sync.Mutex
	books     map[int64]memBook
	orders    map[int64]order.Order
	nextOrder int64
	nextItem  int64

	// hooks
	tamper    func(items []order.Item)
	failItems error

	runs, commits, rollbacks int
	decrements               []int64
	lastLimit, lastOffset    int
}

func newMemStore() *memStore {
	return &memStore{books: map[int64]memBook{}, orders: map[int64]order.Order{}}
}

func (s *memStore) addBook(id int64, price string, qty int) {
	s.books[id] = memBook{price: decimal.RequireFromString(price), qty: qty}
}

func (s *memStore) stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id].qty
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memSnapshot struct {
	books     map[int64]memBook
	orders    map[int64]order.Order
	nextOrder int64
	nextItem  int64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		books:     make(map[int64]memBook, len(s.books)),
		orders:    make(map[int64]order.Order, len(s.orders)),
		nextOrder: s.nextOrder,
		nextItem:  s.nextItem,
	}
	for k, v := range s.books {
		snap.books[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]order.Item(nil), v.Items...)
		snap.orders[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.books, s.orders = snap.books, snap.orders
	s.nextOrder, s.nextItem = snap.nextOrder, snap.nextItem
}

func (s *memStore) Run(ctx context.Context, work func(ctx context.Context, uow order.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	snap := s.snapshot()
	if err := work(ctx, memUnit{s}); err != nil {
		s.restore(snap)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *memStore) FindWithItems(_ context.Context, id int64) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Items = append([]order.Item(nil), o.Items...)
	return &o, nil
}

func (s *memStore) ListByCustomer(_ context.Context, customerID int64, limit, offset int) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit, s.lastOffset = limit, offset
	var out []order.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ListByStatus(_ context.Context, status order.Status, limit, offset int) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit, s.lastOffset = limit, offset
	var out []order.Order
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memUnit struct{ s *memStore }

func (u memUnit) Ledger() order.Ledger      { return memLedger(u) }
func (u memUnit) Orders() order.Repository { return memOrders(u) }

type memLedger struct{ s *memStore }

func (l memLedger) CurrentPrice(_ context.Context, bookID int64) (decimal.Decimal, error) {
	b, ok := l.s.books[bookID]
	if !ok {
		return decimal.Zero, catalog.ErrNotFound
	}
	return b.price, nil
}

func (l memLedger) TryDecrement(_ context.Context, bookID int64, amount int) (bool, error) {
	l.s.decrements = append(l.s.decrements, bookID)
	b, ok := l.s.books[bookID]
	if !ok || b.qty < amount {
		return false, nil
	}
	b.qty -= amount
	l.s.books[bookID] = b
	return true, nil
}

func (l memLedger) Available(_ context.Context, bookID int64) (int, error) {
	b, ok := l.s.books[bookID]
	if !ok {
		return 0, catalog.ErrNotFound
	}
	return b.qty, nil
}

func (l memLedger) Restock(_ context.Context, bookID int64, amount int) error {
	b, ok := l.s.books[bookID]
	if !ok {
		return catalog.ErrNotFound
	}
	b.qty += amount
	l.s.books[bookID] = b
	return nil
}

type memOrders struct{ s *memStore }

func (r memOrders) Insert(_ context.Context, o *order.Order) (order.Inserted, error) {
	r.s.nextOrder++
	cp := *o
	cp.ID = r.s.nextOrder
	cp.CreatedAt = time.Now().UTC()
	cp.Items = nil
	r.s.orders[cp.ID] = cp
	return order.Inserted{ID: cp.ID, CreatedAt: cp.CreatedAt}, nil
}

func (r memOrders) InsertItems(_ context.Context, orderID int64, items []order.Item) ([]order.Item, error) {
	if r.s.failItems != nil {
		return nil, r.s.failItems
	}
	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, errors.New("orphan items")
	}
	out := make([]order.Item, len(items))
	for i, it := range items {
		r.s.nextItem++
		it.ID, it.OrderID = r.s.nextItem, orderID
		out[i] = it
	}
	if r.s.tamper != nil {
		r.s.tamper(out)
	}
	o.Items = append([]order.Item(nil), out...)
	r.s.orders[orderID] = o
	return out, nil
}

func (r memOrders) Items(_ context.Context, orderID int64) ([]order.Item, error) {
	return append([]order.Item(nil), r.s.orders[orderID].Items...), nil
}

func (r memOrders) LockStatus(_ context.Context, orderID int64) (order.Status, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return "", order.ErrNotFound
	}
	return o.Status, nil
}

func (r memOrders) SetStatus(_ context.Context, orderID int64, status order.Status) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	r.s.orders[orderID] = o
	return nil
}

type published struct {
	rk string
	v  any
}

// fakePublisher records every event instead of sending it.
type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, rk string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{rk: rk, v: v})
	return nil
}

func (p *fakePublisher) events() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.sent...)
}
