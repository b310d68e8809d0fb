// Package ratelimit implements per-client fixed-window request
// counting backed by Redis, shared across all worker processes.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix = "starlight:ratelimit:"
	window    = time.Minute
)

// Result describes the outcome of an admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is the unix time at which the current window expires.
	Reset int64
}

// Limiter counts requests per (client identity, minute bucket).
type Limiter struct {
	rdb   *redis.Client
	limit int
}

// New creates a Limiter allowing limit requests per client per minute.
func New(rdb *redis.Client, limit int) *Limiter {
	return &Limiter{rdb: rdb, limit: limit}
}

// Limit returns the configured per-minute request budget.
func (l *Limiter) Limit() int {
	return l.limit
}

// Admit records one request for clientID and reports whether it is
// within the budget. The counter is incremented atomically and the
// 60-second expiry is attached when the bucket is first created, so
// concurrent requests cannot slip past the limit between a read and a
// write. On any backend error the limiter fails open and admits the
// request; availability wins over strict enforcement.
func (l *Limiter) Admit(ctx context.Context, clientID string) Result {
	bucket := time.Now().Unix() / 60
	key := fmt.Sprintf("%s%s:%d", keyPrefix, clientID, bucket)
	reset := (bucket + 1) * 60

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		log.Error().Err(err).Str("client", clientID).Msg("Rate limiter backend error, failing open")
		return Result{Allowed: true, Limit: l.limit, Remaining: l.limit, Reset: reset}
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			log.Error().Err(err).Str("client", clientID).Msg("Rate limiter expire error")
		}
	}

	if count > int64(l.limit) {
		log.Warn().Str("client", clientID).Int64("requests", count).Int("limit", l.limit).Msg("Rate limit exceeded")
		return Result{Allowed: false, Limit: l.limit, Remaining: 0, Reset: reset}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Limit: l.limit, Remaining: remaining, Reset: reset}
}
