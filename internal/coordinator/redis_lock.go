package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisLockPrefix = "classroom:lock:"

// unlockScript deletes the key only if this holder still owns it.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes writers for a room across server instances. The lock expires
// after ttl. A writer that outlives its lease is still caught by the store's version check.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	local  *LocalLocker
	logger *zap.Logger
}

// NewRedisLocker creates a distributed lock. Waiters in the same process queue on a
// local lock first so only one of them polls Redis.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 20 * time.Millisecond, local: NewLocalLocker(), logger: logger}
}

func (l *RedisLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	key := redisLockPrefix + roomID
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, fmt.Errorf("acquire room lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
	return func() {
		// Release even if the request context is already cancelled.
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(relCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("release room lock", zap.String("room_id", roomID), zap.Error(err))
		}
		unlockLocal()
	}, nil
}
