package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// Increments the window counter and arms its expiry on first use.
var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

var errNilRedisClient = errors.New("rate limiter: redis client is nil")

// RedisFixedWindowLimiter shares catalog request windows across API
// instances. Keys are hash-tagged by client so both access classes of one
// client land on the same cluster slot.
type RedisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) *RedisFixedWindowLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *RedisFixedWindowLimiter) key(clientKey string) string {
	if clientKey == "" {
		clientKey = "unknown"
	}
	return fmt.Sprintf("%s:{%s}", l.prefix, clientKey)
}

func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	denied := Decision{RetryAfter: window}
	if l.client == nil {
		return denied, errNilRedisClient
	}
	windowMS := max(window.Milliseconds(), 1000)
	raw, err := redisFixedWindowScript.Run(ctx, l.client, []string{l.key(key)}, windowMS).Result()
	if err != nil {
		return denied, fmt.Errorf("rate limiter script: %w", err)
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return denied, fmt.Errorf("rate limiter script: unexpected reply %T", raw)
	}
	count, err := parseRedisInt64(values[0])
	if err != nil {
		return denied, err
	}
	ttlMS, err := parseRedisInt64(values[1])
	if err != nil {
		return denied, err
	}
	if ttlMS <= 0 {
		ttlMS = windowMS
	}
	return Decision{
		Allowed:    count <= int64(limit),
		Remaining:  int(max(int64(limit)-count, 0)),
		RetryAfter: time.Duration(ttlMS) * time.Millisecond,
	}, nil
}

func parseRedisInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("redis integer overflows int64: %d", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected redis reply type %T", v)
	}
}
