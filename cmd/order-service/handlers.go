package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/catalog"
	"github.com/MikeMC777/bookstore/internal/httpx"
	"github.com/MikeMC777/bookstore/internal/idempotency"
	"github.com/MikeMC777/bookstore/internal/order"
)

type orderAPI interface {
	Submit(ctx context.Context, in order.Submission) (*order.Order, error)
	Get(ctx context.Context, id int64) (*order.Order, error)
	ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]order.Order, error)
	Transition(ctx context.Context, id int64, to order.Status) (*order.Order, error)
	ListAll(ctx context.Context, status order.Status, limit, offset int) ([]order.Order, error)
}

type bookAPI interface {
	Get(ctx context.Context, id int64) (*catalog.Book, error)
	List(ctx context.Context, f catalog.Filter) ([]catalog.Book, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, req catalog.BookRequest) (*catalog.Book, error)
	Update(ctx context.Context, id int64, req catalog.BookRequest) (*catalog.Book, error)
	Delete(ctx context.Context, id int64) error
	Restock(ctx context.Context, id int64, amount int) (*catalog.Book, error)
}

type idemGuard interface {
	Begin(ctx context.Context, customerID int64, key string) (int64, bool, error)
	Complete(ctx context.Context, customerID int64, key string, orderID int64) error
	Abort(ctx context.Context, customerID int64, key string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type deps struct {
	orders    orderAPI
	books     bookAPI
	auth      httpx.Authenticator
	idem      idemGuard // nil disables Idempotency-Key handling
	db        pinger
	log       zerolog.Logger
	rateRPS   float64
	rateBurst int
}

func newRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(d.log), httpx.RateLimit(d.rateRPS, d.rateBurst))

	r.GET("/healthz", healthHandler(d.db))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/books", listBooksHandler(d.books))
	r.GET("/books/categories", listCategoriesHandler(d.books))
	r.GET("/books/:id", getBookHandler(d.books))

	authed := r.Group("/", httpx.BasicAuth(d.auth))
	authed.POST("/orders", createOrderHandler(d.orders, d.idem, d.log))
	authed.GET("/orders", listOrdersHandler(d.orders))
	authed.GET("/orders/:id", getOrderHandler(d.orders))

	admin := authed.Group("/", httpx.RequireRole(account.RoleAdmin))
	admin.PUT("/orders/:id/status", updateOrderStatusHandler(d.orders))
	admin.GET("/admin/orders", listAllOrdersHandler(d.orders))
	admin.POST("/books", createBookHandler(d.books))
	admin.PUT("/books/:id", updateBookHandler(d.books))
	admin.DELETE("/books/:id", deleteBookHandler(d.books))
	admin.PUT("/books/:id/stock", restockBookHandler(d.books))
	return r
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		ve *order.ValidationError
		se *order.InsufficientStockError
		cv *order.ConsistencyViolation
		pe *order.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, gin.H{
			"error":     se.Error(),
			"book_id":   se.BookID,
			"requested": se.Requested,
			"available": se.Available,
		})
	case errors.Is(err, order.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, order.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrInvalidAmount), errors.Is(err, catalog.ErrInvalidBook):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrDuplicateISBN), errors.Is(err, catalog.ErrInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &cv):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order could not be recorded consistently"})
	case errors.As(err, &pe):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, try again later"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// @Summary      Health check
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "ok"
// @Failure      503  {object}  catalog.HTTPError
// @Router       /healthz [get]
func healthHandler(db pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unreachable"})
				return
			}
		}
		c.String(http.StatusOK, "ok")
	}
}

// @Summary      Submit an order
// @Description  Decrements stock for every line and records the order in one transaction. Prices come from the catalog.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        Idempotency-Key  header  string                    false  "Deduplicates retries of the same submission"
// @Param        body             body    order.CreateOrderRequest  true   "Order"
// @Success      201  {object}  order.Order
// @Success      200  {object}  order.Order  "Replay of a completed Idempotency-Key"
// @Failure      400  {object}  catalog.HTTPError
// @Failure      401  {object}  catalog.HTTPError
// @Failure      409  {object}  catalog.HTTPError  "Insufficient stock or request in flight"
// @Failure      503  {object}  catalog.HTTPError
// @Router       /orders [post]
func createOrderHandler(svc orderAPI, idem idemGuard, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		cid := httpx.CustomerID(c)
		if cid <= 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "account has no customer profile"})
			return
		}
		ctx := c.Request.Context()

		key := c.GetHeader("Idempotency-Key")
		if idem == nil {
			key = ""
		}
		if key != "" {
			prev, fresh, err := idem.Begin(ctx, cid, key)
			switch {
			case errors.Is(err, idempotency.ErrInFlight):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			case err != nil:
				log.Warn().Err(err).Msg("idempotency check skipped")
				key = ""
			case !fresh:
				o, err := svc.Get(ctx, prev)
				if err != nil {
					writeError(c, err)
					return
				}
				c.Header("Idempotent-Replayed", "true")
				c.JSON(http.StatusOK, o)
				return
			}
		}

		o, err := svc.Submit(ctx, req.ToSubmission(cid))
		if err != nil {
			if key != "" {
				if aerr := idem.Abort(context.WithoutCancel(ctx), cid, key); aerr != nil {
					log.Warn().Err(aerr).Msg("idempotency key not released")
				}
			}
			writeError(c, err)
			return
		}
		if key != "" {
			if cerr := idem.Complete(context.WithoutCancel(ctx), cid, key, o.ID); cerr != nil {
				log.Warn().Err(cerr).Int64("order_id", o.ID).Msg("idempotency record not saved")
			}
		}
		c.Header("Location", fmt.Sprintf("/orders/%d", o.ID))
		c.JSON(http.StatusCreated, o)
	}
}

// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Security     BasicAuth
// @Param        limit   query  int  false  "Page size (1-100)"  default(20)
// @Param        offset  query  int  false  "Offset"             default(0)
// @Success      200  {object}  map[string][]order.Order
// @Failure      401  {object}  catalog.HTTPError
// @Router       /orders [get]
func listOrdersHandler(svc orderAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		out, err := svc.ListByCustomer(c.Request.Context(), httpx.CustomerID(c), limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		if out == nil {
			out = []order.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

// @Summary      List all orders
// @Description  Every customer's orders, newest first, optionally filtered by status.
// @Tags         orders
// @Produce      json
// @Security     BasicAuth
// @Param        status  query  string  false  "PENDING, PAID, SHIPPED or CANCELLED"
// @Param        limit   query  int     false  "Page size (1-100)"  default(20)
// @Param        offset  query  int     false  "Offset"             default(0)
// @Success      200  {object}  map[string][]order.Order
// @Failure      400  {object}  catalog.HTTPError
// @Failure      403  {object}  catalog.HTTPError
// @Router       /admin/orders [get]
func listAllOrdersHandler(svc orderAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		out, err := svc.ListAll(c.Request.Context(), order.Status(c.Query("status")), limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		if out == nil {
			out = []order.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

// @Summary      Get an order with its items
// @Tags         orders
// @Produce      json
// @Security     BasicAuth
// @Param        id   path  int  true  "Order ID"
// @Success      200  {object}  order.Order
// @Failure      400  {object}  catalog.HTTPError
// @Failure      404  {object}  catalog.HTTPError
// @Router       /orders/{id} [get]
func getOrderHandler(svc orderAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		// other customers' orders look absent
		if httpx.Role(c) != account.RoleAdmin && o.CustomerID != httpx.CustomerID(c) {
			writeError(c, order.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary      Change an order's status
// @Description  PENDING->PAID, PAID->SHIPPED, PENDING|PAID->CANCELLED. Cancelling restocks the items.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id    path  int                        true  "Order ID"
// @Param        body  body  order.UpdateStatusRequest  true  "Target status"
// @Success      200  {object}  order.Order
// @Failure      400  {object}  catalog.HTTPError
// @Failure      403  {object}  catalog.HTTPError
// @Failure      404  {object}  catalog.HTTPError
// @Failure      409  {object}  catalog.HTTPError
// @Router       /orders/{id}/status [put]
func updateOrderStatusHandler(svc orderAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := svc.Transition(c.Request.Context(), id, req.Status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path  int  true  "Book ID"
// @Success      200  {object}  catalog.Book
// @Failure      404  {object}  catalog.HTTPError
// @Router       /books/{id} [get]
func getBookHandler(svc bookAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		b, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary      List books
// @Tags         books
// @Produce      json
// @Param        category   query  string  false  "Exact category"
// @Param        available  query  bool    false  "Only books in stock"
// @Param        limit      query  int     false  "Page size (1-200)"  default(50)
// @Param        offset     query  int     false  "Offset"             default(0)
// @Success      200  {object}  map[string][]catalog.Book
// @Failure      400  {object}  catalog.HTTPError
// @Router       /books [get]
func listBooksHandler(svc bookAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := catalog.Filter{Category: c.Query("category")}
		if v := c.Query("available"); v != "" {
			avail, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "available must be true or false"})
				return
			}
			f.AvailableOnly = avail
		}
		f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
		f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
		out, err := svc.List(c.Request.Context(), f)
		if err != nil {
			writeError(c, err)
			return
		}
		if out == nil {
			out = []catalog.Book{}
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

// @Summary      List book categories
// @Tags         books
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Router       /books/categories [get]
func listCategoriesHandler(svc bookAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.Categories(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		if cats == nil {
			cats = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"items": cats})
	}
}

// @Summary      Add a book to the catalog
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        body  body  catalog.BookRequest  true  "Book"
// @Success      201  {object}  catalog.Book
// @Failure      400  {object}  catalog.HTTPError
// @Failure      409  {object}  catalog.HTTPError  "Duplicate isbn"
// @Router       /books [post]
func createBookHandler(svc bookAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.BookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		b, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Location", fmt.Sprintf("/books/%d", b.ID))
		c.JSON(http.StatusCreated, b)
	}
}

// @Summary      Edit a book
// @Description  Changes title, author, isbn, price and category. Quantity is ignored; use the stock endpoint.
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id    path  int                  true  "Book ID"
// @Param        body  body  catalog.BookRequest  true  "Book"
// @Success      200  {object}  catalog.Book
// @Failure      400  {object}  catalog.HTTPError
// @Failure      404  {object}  catalog.HTTPError
// @Failure      409  {object}  catalog.HTTPError  "Duplicate isbn"
// @Router       /books/{id} [put]
func updateBookHandler(svc bookAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req catalog.BookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		b, err := svc.Update(c.Request.Context(), id, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary      Remove a book
// @Tags         books
// @Security     BasicAuth
// @Param        id  path  int  true  "Book ID"
// @Success      204
// @Failure      404  {object}  catalog.HTTPError
// @Failure      409  {object}  catalog.HTTPError  "Book appears in orders"
// @Router       /books/{id} [delete]
func deleteBookHandler(svc bookAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary      Add stock to a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id    path  int                     true  "Book ID"
// @Param        body  body  catalog.RestockRequest  true  "Amount to add"
// @Success      200  {object}  catalog.Book
// @Failure      400  {object}  catalog.HTTPError
// @Failure      404  {object}  catalog.HTTPError
// @Router       /books/{id}/stock [put]
func restockBookHandler(svc bookAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req catalog.RestockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		b, err := svc.Restock(c.Request.Context(), id, req.Amount)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}
