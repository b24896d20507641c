package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userBucketPrefix = "rl:user:"
	ipBucketPrefix   = "rl:ip:"
)

// RateLimitResult is the outcome of taking one token from a bucket.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// takeToken refills the bucket for the elapsed milliseconds, then tries to
// take one token. Returns {allowed, retry_after_ms, remaining}.
var takeToken = redis.NewScript(`
local state = redis.call('HMGET', KEYS[1], 't', 'ts')
local per_ms = tonumber(ARGV[1]) / 1000
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now
if now > ts then
  tokens = math.min(burst, tokens + (now - ts) * per_ms)
end
local allowed = 0
local wait = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  wait = math.ceil((1 - tokens) / per_ms)
end
redis.call('HSET', KEYS[1], 't', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {allowed, wait, math.floor(tokens)}
`)

// CheckUserRateLimit takes a token from the user's bucket. A ratePerMinute
// of 0 disables the limit.
func (c *Cache) CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute == 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: time.Now().Add(time.Minute)}, nil
	}
	return c.take(ctx, userBucketPrefix+userID, float64(ratePerMinute)/60, burst)
}

// CheckIPRateLimit takes a token from the bucket of a hashed client IP.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	return c.take(ctx, ipBucketPrefix+hashIP(ip), float64(ratePerSecond), burst)
}

// take returns Redis errors unchanged in meaning so the middleware can fall
// back to its in-process limiter.
func (c *Cache) take(ctx context.Context, key string, perSecond float64, burst int) (*RateLimitResult, error) {
	now := time.Now()
	out, err := takeToken.Run(ctx, c.client, []string{key},
		perSecond, burst, now.UnixMilli(), bucketTTL(perSecond, burst).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit bucket %s: %w", key, err)
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("rate limit bucket %s: unexpected reply %v", key, out)
	}

	wait := time.Duration(out[1]) * time.Millisecond
	return &RateLimitResult{
		Allowed:    out[0] == 1,
		Remaining:  out[2],
		ResetAt:    now.Add(refillInterval(perSecond)),
		RetryAfter: wait,
	}, nil
}

// bucketTTL is how long an idle bucket takes to refill completely, plus a
// second of slack. After that the key carries no information.
func bucketTTL(perSecond float64, burst int) time.Duration {
	if perSecond <= 0 {
		return time.Minute
	}
	full := math.Ceil(float64(burst) / perSecond)
	return time.Duration(full+1) * time.Second
}

func refillInterval(perSecond float64) time.Duration {
	if perSecond <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / perSecond)
}

// hashIP keeps raw client addresses out of Redis.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
