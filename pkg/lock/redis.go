package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockUnavailable indicates the lock backend is unreachable.
	ErrLockUnavailable = errors.New("lock backend unavailable")
)

// releaseLua deletes the key only while it still holds our owner value.
// KEYS[1] = lock key
// ARGV[1] = owner value
var releaseLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisConfig holds configuration for the distributed locker.
type RedisConfig struct {
	Prefix       string
	TTL          time.Duration // lease; bounds how long a crashed holder blocks others
	PollInterval time.Duration
}

// RedisLocker is a Locker shared by all replicas through Redis.
type RedisLocker struct {
	redis  redis.UniversalClient
	config RedisConfig
}

// NewRedisLocker creates a new distributed locker.
func NewRedisLocker(redisClient redis.UniversalClient, cfg RedisConfig) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "idm:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 25 * time.Millisecond
	}
	return &RedisLocker{redis: redisClient, config: cfg}
}

func (l *RedisLocker) key(k string) string {
	return l.config.Prefix + k
}

// Lock implements Locker. Acquisition polls until ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	owner, err := ownerValue()
	if err != nil {
		return nil, err
	}
	k := l.key(key)

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.redis.SetNX(ctx, k, owner, l.config.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Release with a fresh context so a cancelled request still frees the key.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseLua.Run(releaseCtx, l.redis, []string{k}, owner).Err()
	}, nil
}

func ownerValue() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
