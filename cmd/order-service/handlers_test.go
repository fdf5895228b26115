package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/catalog"
	"github.com/MikeMC777/bookstore/internal/idempotency"
	"github.com/MikeMC777/bookstore/internal/order"
	"github.com/MikeMC777/bookstore/internal/storage/sqlstore"
)

//
// ---------- STUBS & FAKES ----------
//

// stubOrders implements orderAPI in memory.
type stubOrders struct {
	mu        sync.Mutex
	orders    map[int64]*order.Order
	submitErr error
	submits   int
	lastSub   order.Submission
}

func newStubOrders() *stubOrders {
	return &stubOrders{orders: map[int64]*order.Order{}}
}

func (s *stubOrders) Submit(_ context.Context, in order.Submission) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits++
	s.lastSub = in
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	o := &order.Order{
		ID:          int64(len(s.orders) + 1),
		CustomerID:  in.CustomerID,
		Status:      order.StatusPending,
		TotalAmount: decimal.RequireFromString("20.00"),
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *stubOrders) Get(_ context.Context, id int64) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (s *stubOrders) ListByCustomer(_ context.Context, customerID int64, _, _ int) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []order.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrders) Transition(_ context.Context, id int64, to order.Status) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if o.Status != order.StatusPending {
		return nil, order.ErrInvalidTransition
	}
	o.Status = to
	return o, nil
}

func (s *stubOrders) ListAll(_ context.Context, status order.Status, _, _ int) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []order.Order
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

// stubBooks serves a single book; listing and editing are covered by the
// SQLite flow below.
type stubBooks struct{ book catalog.Book }

func (s *stubBooks) List(context.Context, catalog.Filter) ([]catalog.Book, error) {
	return []catalog.Book{s.book}, nil
}

func (s *stubBooks) Categories(context.Context) ([]string, error) { return nil, nil }

func (s *stubBooks) Create(context.Context, catalog.BookRequest) (*catalog.Book, error) {
	return nil, catalog.ErrInvalidBook
}

func (s *stubBooks) Update(context.Context, int64, catalog.BookRequest) (*catalog.Book, error) {
	return nil, catalog.ErrNotFound
}

func (s *stubBooks) Delete(context.Context, int64) error { return catalog.ErrNotFound }

func (s *stubBooks) Get(_ context.Context, id int64) (*catalog.Book, error) {
	if id != s.book.ID {
		return nil, catalog.ErrNotFound
	}
	b := s.book
	return &b, nil
}

func (s *stubBooks) Restock(ctx context.Context, id int64, amount int) (*catalog.Book, error) {
	if amount <= 0 {
		return nil, catalog.ErrInvalidAmount
	}
	if id != s.book.ID {
		return nil, catalog.ErrNotFound
	}
	s.book.Quantity += amount
	return s.Get(ctx, id)
}

// stubAuth knows "ana" (customer 12), "beto" (customer 13) and "admin".
type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, user, pass string) (*account.Account, error) {
	if pass != "secret" {
		return nil, account.ErrInvalidCredentials
	}
	switch user {
	case "ana":
		return &account.Account{CustomerID: 12, Role: account.RoleCustomer}, nil
	case "beto":
		return &account.Account{CustomerID: 13, Role: account.RoleCustomer}, nil
	case "admin":
		return &account.Account{Role: account.RoleAdmin}, nil
	}
	return nil, account.ErrInvalidCredentials
}

// memIdem implements idemGuard in memory.
type memIdem struct {
	mu   sync.Mutex
	keys map[string]int64 // 0 = pending
}

func (m *memIdem) Begin(_ context.Context, cid int64, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := fmt.Sprintf("%d:%s", cid, key)
	id, ok := m.keys[k]
	if !ok {
		m.keys[k] = 0
		return 0, true, nil
	}
	if id == 0 {
		return 0, false, idempotency.ErrInFlight
	}
	return id, false, nil
}

func (m *memIdem) Complete(_ context.Context, cid int64, key string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[fmt.Sprintf("%d:%s", cid, key)] = id
	return nil
}

func (m *memIdem) Abort(_ context.Context, cid int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, fmt.Sprintf("%d:%s", cid, key))
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testRouter(orders orderAPI, idem idemGuard) *gin.Engine {
	return newRouter(deps{
		orders: orders,
		books:  &stubBooks{book: catalog.Book{ID: 5, Title: "María", Price: decimal.RequireFromString("9.90"), Quantity: 1}},
		auth:   stubAuth{},
		idem:   idem,
		db:     stubPinger{},
		log:    zerolog.Nop(),
	})
}

func request(r http.Handler, method, target, user, body string, hdr ...string) *httptest.ResponseRecorder {
	var rd *bytes.Buffer
	if body != "" {
		rd = bytes.NewBufferString(body)
	} else {
		rd = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, "secret")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const orderBody = `{"items":[{"book_id":5,"quantity":2}],"shipping_address":"Cra 7 # 12-34","payment_method":"CARD"}`

//
// ---------- TESTS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	r := testRouter(orders, nil)

	w := request(r, http.MethodPost, "/orders", "ana", orderBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != "/orders/1" {
		t.Fatalf("location=%q", got)
	}
	// el cliente viene de la autenticación, no del cuerpo
	if orders.lastSub.CustomerID != 12 || len(orders.lastSub.Lines) != 1 || orders.lastSub.Lines[0].Quantity != 2 {
		t.Fatalf("submission=%+v", orders.lastSub)
	}
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	t.Parallel()
	r := testRouter(newStubOrders(), nil)

	if w := request(r, http.MethodPost, "/orders", "", orderBody); w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d (esperaba 401)", w.Code)
	}
	// admin has no customer profile and cannot buy
	if w := request(r, http.MethodPost, "/orders", "admin", orderBody); w.Code != http.StatusForbidden {
		t.Fatalf("status=%d (esperaba 403)", w.Code)
	}
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err    error
		status int
	}{
		{&order.ValidationError{Field: "lines", Reason: "order has no lines"}, http.StatusBadRequest},
		{&order.InsufficientStockError{BookID: 5, Requested: 2, Available: 1}, http.StatusConflict},
		{&order.PersistenceError{Op: "commit", Err: errors.New("conn reset")}, http.StatusServiceUnavailable},
		{&order.ConsistencyViolation{Detail: "order total"}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		orders := newStubOrders()
		orders.submitErr = tc.err
		w := request(testRouter(orders, nil), http.MethodPost, "/orders", "ana", orderBody)
		if w.Code != tc.status {
			t.Fatalf("%T: status=%d (esperaba %d) body=%s", tc.err, w.Code, tc.status, w.Body.String())
		}
	}
}

func TestCreateOrder_InsufficientStockDetails(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	orders.submitErr = &order.InsufficientStockError{BookID: 5, Requested: 2, Available: 1}

	w := request(testRouter(orders, nil), http.MethodPost, "/orders", "ana", orderBody)
	var body struct {
		BookID    int64 `json:"book_id"`
		Requested int   `json:"requested"`
		Available int   `json:"available"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if body.BookID != 5 || body.Requested != 2 || body.Available != 1 {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	w := request(testRouter(orders, nil), http.MethodPost, "/orders", "ana", `{"items":`)
	if w.Code != http.StatusBadRequest || orders.submits != 0 {
		t.Fatalf("status=%d submits=%d", w.Code, orders.submits)
	}
}

func TestCreateOrder_IdempotencyKeyReplays(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	r := testRouter(orders, &memIdem{keys: map[string]int64{}})

	first := request(r, http.MethodPost, "/orders", "ana", orderBody, "Idempotency-Key", "k-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", first.Code, first.Body.String())
	}
	again := request(r, http.MethodPost, "/orders", "ana", orderBody, "Idempotency-Key", "k-1")
	if again.Code != http.StatusOK || again.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("status=%d headers=%v", again.Code, again.Header())
	}
	if orders.submits != 1 {
		t.Fatalf("submits=%d, esperaba 1", orders.submits)
	}

	// other customers own their own key space
	other := request(r, http.MethodPost, "/orders", "beto", orderBody, "Idempotency-Key", "k-1")
	if other.Code != http.StatusCreated || orders.submits != 2 {
		t.Fatalf("status=%d submits=%d", other.Code, orders.submits)
	}
}

func TestCreateOrder_IdempotencyKeyReleasedOnFailure(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	orders.submitErr = &order.InsufficientStockError{BookID: 5, Requested: 2, Available: 0}
	idem := &memIdem{keys: map[string]int64{}}
	r := testRouter(orders, idem)

	if w := request(r, http.MethodPost, "/orders", "ana", orderBody, "Idempotency-Key", "k-2"); w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	orders.submitErr = nil
	if w := request(r, http.MethodPost, "/orders", "ana", orderBody, "Idempotency-Key", "k-2"); w.Code != http.StatusCreated {
		t.Fatalf("status=%d, el reintento debe procesarse", w.Code)
	}
}

func TestCreateOrder_IdempotencyKeyInFlight(t *testing.T) {
	t.Parallel()
	idem := &memIdem{keys: map[string]int64{"12:k-3": 0}}
	orders := newStubOrders()

	w := request(testRouter(orders, idem), http.MethodPost, "/orders", "ana", orderBody, "Idempotency-Key", "k-3")
	if w.Code != http.StatusConflict || orders.submits != 0 {
		t.Fatalf("status=%d submits=%d", w.Code, orders.submits)
	}
}

func TestGetOrder_OwnershipAndNotFound(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	r := testRouter(orders, nil)
	request(r, http.MethodPost, "/orders", "ana", orderBody)

	if w := request(r, http.MethodGet, "/orders/1", "ana", ""); w.Code != http.StatusOK {
		t.Fatalf("owner: status=%d", w.Code)
	}
	if w := request(r, http.MethodGet, "/orders/1", "beto", ""); w.Code != http.StatusNotFound {
		t.Fatalf("other customer: status=%d (esperaba 404)", w.Code)
	}
	if w := request(r, http.MethodGet, "/orders/1", "admin", ""); w.Code != http.StatusOK {
		t.Fatalf("admin: status=%d", w.Code)
	}
	if w := request(r, http.MethodGet, "/orders/99", "ana", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing: status=%d", w.Code)
	}
	if w := request(r, http.MethodGet, "/orders/abc", "ana", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status=%d", w.Code)
	}
}

func TestListOrders_OnlyOwn(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	r := testRouter(orders, nil)
	request(r, http.MethodPost, "/orders", "ana", orderBody)
	request(r, http.MethodPost, "/orders", "beto", orderBody)

	w := request(r, http.MethodGet, "/orders?limit=10&offset=0", "ana", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var wrap struct {
		Items []order.Order `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &wrap); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if len(wrap.Items) != 1 || wrap.Items[0].CustomerID != 12 {
		t.Fatalf("items=%+v", wrap.Items)
	}
}

func TestUpdateOrderStatus_AdminOnly(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	r := testRouter(orders, nil)
	request(r, http.MethodPost, "/orders", "ana", orderBody)

	if w := request(r, http.MethodPut, "/orders/1/status", "ana", `{"status":"PAID"}`); w.Code != http.StatusForbidden {
		t.Fatalf("status=%d (esperaba 403)", w.Code)
	}
	if w := request(r, http.MethodPut, "/orders/1/status", "admin", `{"status":"PAID"}`); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := request(r, http.MethodPut, "/orders/1/status", "admin", `{"status":"CANCELLED"}`); w.Code != http.StatusConflict {
		t.Fatalf("status=%d (esperaba 409)", w.Code)
	}
}

func TestBooks_GetAndRestock(t *testing.T) {
	t.Parallel()
	r := testRouter(newStubOrders(), nil)

	if w := request(r, http.MethodGet, "/books/5", "", ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w := request(r, http.MethodGet, "/books/6", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if w := request(r, http.MethodPut, "/books/5/stock", "ana", `{"amount":3}`); w.Code != http.StatusForbidden {
		t.Fatalf("status=%d", w.Code)
	}
	if w := request(r, http.MethodPut, "/books/5/stock", "admin", `{"amount":0}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	w := request(r, http.MethodPut, "/books/5/stock", "admin", `{"amount":3}`)
	var b catalog.Book
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil || b.Quantity != 4 {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	ok := newRouter(deps{db: stubPinger{}, log: zerolog.Nop()})
	if w := request(ok, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	down := newRouter(deps{db: stubPinger{err: errors.New("down")}, log: zerolog.Nop()})
	if w := request(down, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}

// End to end against the embedded store: seeded accounts, real pricing and
// stock, one successful purchase and one shortfall.
func TestOrderFlow_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.Open(sqlstore.SQLite, filepath.Join(t.TempDir(), "flow.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := sqlstore.NewStore(db, sqlstore.SQLite, 5*time.Second, zerolog.Nop())
	if err := store.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Seed(ctx, "secret"); err != nil {
		t.Fatal(err)
	}
	books := catalog.NewService(store, 16, time.Minute, zerolog.Nop())

	r := newRouter(deps{
		orders: order.NewService(store, nil, zerolog.Nop()),
		books:  books,
		auth:   account.NewService(store, zerolog.Nop()),
		db:     store,
		log:    zerolog.Nop(),
	})

	// libro 5 ("María") tiene 1 unidad en la semilla
	w := request(r, http.MethodPost, "/orders", "customer", `{"items":[{"book_id":5,"quantity":1},{"book_id":1,"quantity":2}],"shipping_address":"Calle 1","payment_method":"CARD"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var o order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatal(err)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("46.90")) {
		t.Fatalf("total=%s, esperaba 46.90", o.TotalAmount)
	}

	w = request(r, http.MethodPost, "/orders", "customer", `{"items":[{"book_id":5,"quantity":1}],"shipping_address":"Calle 1","payment_method":"CARD"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}

	w = request(r, http.MethodPut, fmt.Sprintf("/orders/%d/status", o.ID), "admin", `{"status":"CANCELLED"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: status=%d body=%s", w.Code, w.Body.String())
	}
	b, err := store.GetBook(ctx, 5)
	if err != nil || b.Quantity != 1 {
		t.Fatalf("stock tras cancelar=%v err=%v", b, err)
	}
}

func TestAdminOrders_FilterByStatus(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	r := testRouter(orders, nil)
	request(r, http.MethodPost, "/orders", "ana", orderBody)
	request(r, http.MethodPost, "/orders", "beto", orderBody)
	request(r, http.MethodPut, "/orders/2/status", "admin", `{"status":"PAID"}`)

	if w := request(r, http.MethodGet, "/admin/orders", "ana", ""); w.Code != http.StatusForbidden {
		t.Fatalf("status=%d (esperaba 403)", w.Code)
	}
	w := request(r, http.MethodGet, "/admin/orders?status=PAID", "admin", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var wrap struct {
		Items []order.Order `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &wrap); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if len(wrap.Items) != 1 || wrap.Items[0].CustomerID != 13 {
		t.Fatalf("items=%+v", wrap.Items)
	}
}

func TestBooks_ListRejectsBadAvailableFlag(t *testing.T) {
	t.Parallel()
	r := testRouter(newStubOrders(), nil)
	if w := request(r, http.MethodGet, "/books?available=maybe", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if w := request(r, http.MethodGet, "/books?available=true", "", ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func newSQLiteRouter(t *testing.T) (*gin.Engine, *sqlstore.Store) {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.Open(sqlstore.SQLite, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store := sqlstore.NewStore(db, sqlstore.SQLite, 5*time.Second, zerolog.Nop())
	if err := store.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Seed(ctx, "secret"); err != nil {
		t.Fatal(err)
	}
	r := newRouter(deps{
		orders: order.NewService(store, nil, zerolog.Nop()),
		books:  catalog.NewService(store, 16, time.Minute, zerolog.Nop()),
		auth:   account.NewService(store, zerolog.Nop()),
		db:     store,
		log:    zerolog.Nop(),
	})
	return r, store
}

// Admin catalog management and browsing against the embedded store.
func TestCatalogAdmin_SQLite(t *testing.T) {
	r, _ := newSQLiteRouter(t)

	w := request(r, http.MethodGet, "/books?category=Programming&available=true", "", "")
	var list struct {
		Items []catalog.Book `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Items) != 1 {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = request(r, http.MethodGet, "/books/categories", "", "")
	var cats struct {
		Items []string `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &cats); err != nil || len(cats.Items) != 2 {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	body := `{"title":"Rayuela","author":"Julio Cortázar","isbn":"9788437604572","price":"15.00","quantity":2,"category":"Novela"}`
	if w := request(r, http.MethodPost, "/books", "customer", body); w.Code != http.StatusForbidden {
		t.Fatalf("status=%d (esperaba 403)", w.Code)
	}
	w = request(r, http.MethodPost, "/books", "admin", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var b catalog.Book
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil || b.ID == 0 {
		t.Fatalf("body=%s", w.Body.String())
	}
	if w := request(r, http.MethodPost, "/books", "admin", body); w.Code != http.StatusConflict {
		t.Fatalf("isbn duplicado: status=%d", w.Code)
	}
	if w := request(r, http.MethodPost, "/books", "admin", `{"title":"","isbn":"1","price":"1.00"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("sin título: status=%d", w.Code)
	}

	upd := `{"title":"Rayuela","author":"Julio Cortázar","isbn":"9788437604572","price":"17.25","quantity":500,"category":"Novela"}`
	w = request(r, http.MethodPut, fmt.Sprintf("/books/%d", b.ID), "admin", upd)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil || b.Quantity != 2 || b.Price.StringFixed(2) != "17.25" {
		t.Fatalf("libro tras editar=%+v", b)
	}

	// the new price applies to the next order
	w = request(r, http.MethodPost, "/orders", "customer", fmt.Sprintf(`{"items":[{"book_id":%d,"quantity":1}],"shipping_address":"Calle 1","payment_method":"CARD"}`, b.ID))
	var o order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil || o.TotalAmount.StringFixed(2) != "17.25" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := request(r, http.MethodDelete, fmt.Sprintf("/books/%d", b.ID), "admin", ""); w.Code != http.StatusConflict {
		t.Fatalf("borrar libro con pedidos: status=%d", w.Code)
	}

	// libro 3 no tiene pedidos
	if w := request(r, http.MethodDelete, "/books/3", "admin", ""); w.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := request(r, http.MethodGet, "/books/3", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}

	w = request(r, http.MethodGet, "/admin/orders?status=PENDING", "admin", "")
	var orders struct {
		Items []order.Order `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &orders); err != nil || len(orders.Items) != 1 {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := request(r, http.MethodGet, "/admin/orders?status=LOST", "admin", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSubmit_OversizedQuantityIsClientError(t *testing.T) {
	r, store := newSQLiteRouter(t)
	w := request(r, http.MethodPost, "/orders", "customer", `{"items":[{"book_id":1,"quantity":3000000000}],"shipping_address":"Calle 1","payment_method":"CARD"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (esperaba 400)", w.Code, w.Body.String())
	}
	if b, err := store.GetBook(context.Background(), 1); err != nil || b.Quantity != 10 {
		t.Fatalf("stock=%v err=%v", b, err)
	}
}
