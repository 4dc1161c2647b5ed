package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottle shares login jail counters across processes. Each failure
// runs INCR and PEXPIRE inside MULTI so concurrent attempts never lose an
// increment, and the key TTL doubles as the lockout window.
type RedisThrottle struct {
	client redis.UniversalClient
	prefix string
	max    int64
	jail   time.Duration
}

// NewRedisThrottle returns a throttle backed by client
func NewRedisThrottle(client redis.UniversalClient, prefix string, maxFailures int, jail time.Duration) *RedisThrottle {
	if prefix == "" {
		prefix = "auth:jail:"
	}
	return &RedisThrottle{
		client: client,
		prefix: prefix,
		max:    int64(maxFailures),
		jail:   jail,
	}
}

func (t *RedisThrottle) key(identity string) string {
	return t.prefix + strings.ReplaceAll(identity, " ", "_")
}

func (t *RedisThrottle) Check(ctx context.Context, identity string) (Decision, error) {
	if t.max <= 0 {
		return Decision{Allowed: true}, nil
	}

	key := t.key(identity)
	pipe := t.client.Pipeline()
	count := pipe.Get(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Decision{}, WrapStoreError(err, "throttle check")
	}

	hits, err := count.Int64()
	if err == redis.Nil {
		return Decision{Allowed: true}, nil
	}
	if err != nil {
		return Decision{}, WrapStoreError(err, "throttle check")
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		// a key without TTL would never release the jail
		if remaining == -1 {
			_ = t.client.Del(ctx, key).Err()
		}
		return Decision{Allowed: true}, nil
	}

	if hits >= t.max {
		return Decision{
			Allowed:    false,
			RetryAfter: remaining,
			Failures:   int(hits),
		}, nil
	}

	return Decision{Allowed: true, Failures: int(hits)}, nil
}

func (t *RedisThrottle) RecordFailure(ctx context.Context, identity string) (int, error) {
	if t.max <= 0 {
		return 0, nil
	}

	key := t.key(identity)
	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.PExpire(ctx, key, t.jail)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, WrapStoreError(err, "throttle record failure")
	}

	return int(incr.Val()), nil
}

func (t *RedisThrottle) RecordSuccess(ctx context.Context, identity string) error {
	if t.max <= 0 {
		return nil
	}

	if err := t.client.Del(ctx, t.key(identity)).Err(); err != nil {
		return WrapStoreError(err, "throttle record success")
	}
	return nil
}
