package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims, counts and conditionally records in one round trip.
// Scores are microseconds; an attempt at t is kept while now - t < window.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local member = ARGV[4]
local ttl = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= max then
  return 1
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, ttl)
return 0
`)

// RedisWindow applies the SlidingWindow semantics to a Redis sorted set so that
// several processes share one budget per key.
type RedisWindow struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RedisWindowOptions configures a RedisWindow.
type RedisWindowOptions struct {
	Client redis.UniversalClient
	Prefix string           // key prefix, default "ratelimit:"
	Now    func() time.Time // optional clock for tests
}

// NewRedisWindow creates a Redis-backed sliding window limiter.
func NewRedisWindow(opts RedisWindowOptions) *RedisWindow {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "ratelimit:"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &RedisWindow{client: opts.Client, prefix: prefix, now: now}
}

// IsRateLimited implements ports.RateLimiter.
func (l *RedisWindow) IsRateLimited(
	ctx context.Context,
	key string,
	maxAttempts int,
	window time.Duration,
) (bool, error) {
	now := l.now().UnixMicro()
	ttl := window.Milliseconds()
	if ttl < 1 {
		ttl = 1
	}
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, l.client, []string{l.prefix + key},
		now, window.Microseconds(), maxAttempts, member, ttl,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check %q: %w", key, err)
	}
	return res == 1, nil
}

// Reset implements ports.RateLimiter.
func (l *RedisWindow) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("rate limit reset %q: %w", key, err)
	}
	return nil
}
