package limiter

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Redis-backed limiter: a failure counter per (username, ip) that lives for one
// window, and a block key that lives for blockFor once maxFails is reached.
type Redis struct {
	client   redis.Cmdable
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

// NewRedis constructs a Redis-backed limiter.
func NewRedis(client redis.Cmdable, window time.Duration, maxFails int, blockFor time.Duration) *Redis {
	return &Redis{client: client, window: window, maxFails: maxFails, blockFor: blockFor}
}

func keys(username string, ipHash []byte) (fail, block string) {
	suffix := username + ":" + hex.EncodeToString(ipHash)
	return "login:fail:" + suffix, "login:block:" + suffix
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Redis) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	_, block := keys(username, ipHash)
	ttl, err := l.client.PTTL(ctx, block).Result()
	if err != nil {
		return false, 0, fmt.Errorf("limiter pttl: %w", err)
	}
	// -2: no key, -1: no expiry (never set by us)
	if ttl > 0 {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Success resets the failure counter for (username, ip).
func (l *Redis) Success(ctx context.Context, username string, ipHash []byte) error {
	fail, _ := keys(username, ipHash)
	return l.client.Del(ctx, fail).Err()
}

// Failure records a failed attempt; at maxFails the pair is blocked for blockFor.
func (l *Redis) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	fail, block := keys(username, ipHash)

	n, err := l.client.Incr(ctx, fail).Result()
	if err != nil {
		return false, 0, fmt.Errorf("limiter incr: %w", err)
	}
	if n == 1 {
		if err := l.client.PExpire(ctx, fail, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("limiter expire: %w", err)
		}
	}
	if int(n) < l.maxFails {
		return false, 0, nil
	}

	if _, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, block, 1, l.blockFor)
		p.Del(ctx, fail)
		return nil
	}); err != nil {
		return false, 0, fmt.Errorf("limiter block: %w", err)
	}
	return true, l.blockFor, nil
}
