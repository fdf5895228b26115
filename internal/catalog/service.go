package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound      = errors.New("book not found")
	ErrInvalidAmount = errors.New("restock amount must be between 1 and 2147483647")
	ErrInvalidBook   = errors.New("invalid book")
	ErrDuplicateISBN = errors.New("a book with this isbn already exists")
	ErrInUse         = errors.New("book is referenced by orders")
)

type Repository interface {
	GetBook(ctx context.Context, id int64) (*Book, error)
	// ListBooks orders by title. f.Limit is always positive here.
	ListBooks(ctx context.Context, f Filter) ([]Book, error)
	// Categories returns the distinct non-empty categories, sorted.
	Categories(ctx context.Context) ([]string, error)
	CreateBook(ctx context.Context, b *Book) error
	// UpdateBook rewrites everything but the quantity, which only changes
	// through guarded ledger updates.
	UpdateBook(ctx context.Context, b *Book) error
	DeleteBook(ctx context.Context, id int64) error
	// Restock adds amount to the quantity on hand with a single update.
	Restock(ctx context.Context, id int64, amount int) error
}

// Service serves book lookups for display through a short lived cache.
// Order pricing never goes through here: it reads the price inside the
// submission transaction.
type Service struct {
	repo  Repository
	cache *expirable.LRU[int64, Book]
	log   zerolog.Logger
}

func NewService(repo Repository, size int, ttl time.Duration, log zerolog.Logger) *Service {
	if size <= 0 {
		size = 256
	}
	return &Service{
		repo:  repo,
		cache: expirable.NewLRU[int64, Book](size, nil, ttl),
		log:   log.With().Str("component", "catalog").Logger(),
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Book, error) {
	if b, ok := s.cache.Get(id); ok {
		return &b, nil
	}
	b, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, *b)
	return b, nil
}

// List returns one page of books; limit defaults to 50 and is capped at 200.
func (s *Service) List(ctx context.Context, f Filter) ([]Book, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Category = strings.TrimSpace(f.Category)
	return s.repo.ListBooks(ctx, f)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) Create(ctx context.Context, req BookRequest) (*Book, error) {
	b, err := bookFrom(req)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 0 || req.Quantity > math.MaxInt32 {
		return nil, fmt.Errorf("%w: quantity must be between 0 and %d", ErrInvalidBook, math.MaxInt32)
	}
	b.Quantity = req.Quantity
	if err := s.repo.CreateBook(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info().Int64("book_id", b.ID).Str("isbn", b.ISBN).Msg("book created")
	return b, nil
}

// Update changes a book's description and price. Orders already placed keep
// the price they were charged.
func (s *Service) Update(ctx context.Context, id int64, req BookRequest) (*Book, error) {
	b, err := bookFrom(req)
	if err != nil {
		return nil, err
	}
	b.ID = id
	if err := s.repo.UpdateBook(ctx, b); err != nil {
		return nil, err
	}
	s.cache.Remove(id)
	s.log.Info().Int64("book_id", id).Msg("book updated")
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(id)
	s.log.Info().Int64("book_id", id).Msg("book deleted")
	return nil
}

func (s *Service) Restock(ctx context.Context, id int64, amount int) (*Book, error) {
	if amount <= 0 || amount > math.MaxInt32 {
		return nil, ErrInvalidAmount
	}
	if err := s.repo.Restock(ctx, id, amount); err != nil {
		return nil, err
	}
	s.cache.Remove(id)
	s.log.Info().Int64("book_id", id).Int("amount", amount).Msg("restocked")
	return s.Get(ctx, id)
}

func bookFrom(req BookRequest) (*Book, error) {
	b := &Book{
		Title:    strings.TrimSpace(req.Title),
		Author:   strings.TrimSpace(req.Author),
		ISBN:     strings.TrimSpace(req.ISBN),
		Price:    req.Price,
		Category: strings.TrimSpace(req.Category),
	}
	switch {
	case b.Title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidBook)
	case b.ISBN == "":
		return nil, fmt.Errorf("%w: isbn is required", ErrInvalidBook)
	case b.Price.IsNegative():
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidBook)
	case !b.Price.Equal(b.Price.Round(2)):
		return nil, fmt.Errorf("%w: price has more than two decimals", ErrInvalidBook)
	}
	return b, nil
}
