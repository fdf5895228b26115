// Package idempotency deduplicates order submissions that carry an
// Idempotency-Key header, using Redis as the shared record.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const pending = "pending"

var ErrInFlight = errors.New("a request with this idempotency key is still being processed")

type Guard struct {
	rdb      *redis.Client
	ttl      time.Duration
	claimTTL time.Duration
}

// New builds a guard whose completed records live for ttl. A claim that is
// never completed or aborted, say because the process died mid request,
// lapses after claimTTL.
func New(rdb *redis.Client, ttl, claimTTL time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if claimTTL <= 0 {
		claimTTL = 30 * time.Second
	}
	return &Guard{rdb: rdb, ttl: ttl, claimTTL: claimTTL}
}

func redisKey(customerID int64, key string) string {
	return fmt.Sprintf("idem:%d:%s", customerID, key)
}

// Begin claims key for customerID. fresh is true when the caller owns the
// key and must later Complete or Abort it. When the key was already
// completed, Begin returns the order id it produced. A claim that is still
// pending yields ErrInFlight.
func (g *Guard) Begin(ctx context.Context, customerID int64, key string) (orderID int64, fresh bool, err error) {
	k := redisKey(customerID, key)
	ok, err := g.rdb.SetNX(ctx, k, pending, g.claimTTL).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}

	v, err := g.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return 0, false, ErrInFlight
	}
	if err != nil {
		return 0, false, err
	}
	if v == pending {
		return 0, false, ErrInFlight
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency record %s: %w", k, err)
	}
	return id, false, nil
}

// Complete records the order produced under key.
func (g *Guard) Complete(ctx context.Context, customerID int64, key string, orderID int64) error {
	return g.rdb.Set(ctx, redisKey(customerID, key), strconv.FormatInt(orderID, 10), g.ttl).Err()
}

// Abort releases key so the request can be retried.
func (g *Guard) Abort(ctx context.Context, customerID int64, key string) error {
	return g.rdb.Del(ctx, redisKey(customerID, key)).Err()
}
