package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments the counter and starts a new window when the key is
// fresh. Returns {count, remaining_ms}.
var hitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore is a Store shared across processes. Window expiry is handled
// by key TTLs, so no sweeping is needed.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore creates a RedisStore. Keys are namespaced with prefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "pathforge:rl:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) Hit(ctx context.Context, identity string, window time.Duration, now time.Time) (Entry, error) {
	res, err := hitScript.Run(ctx, r.rdb, []string{r.prefix + identity}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Entry{}, fmt.Errorf("redis hit %q: %w", identity, err)
	}
	if len(res) != 2 {
		return Entry{}, fmt.Errorf("redis hit %q: unexpected reply %v", identity, res)
	}
	return Entry{
		Count:     int(res[0]),
		ResetTime: now.Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

func (r *RedisStore) Peek(ctx context.Context, identity string) (Entry, bool, error) {
	key := r.prefix + identity
	count, err := r.rdb.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %q: %w", identity, err)
	}
	ttl, err := r.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis pttl %q: %w", identity, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return Entry{Count: count, ResetTime: time.Now().Add(ttl)}, true, nil
}
