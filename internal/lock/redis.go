package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"ms-bookings/internal/logger"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired holder cannot release a lock that has since passed to someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every instance pointed at the same redis.
// A holder that dies keeps the lock for at most TTL.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Retry  time.Duration
	Prefix string
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	return &Redis{
		Logger: log,
		Client: client,
		TTL:    ttl,
		Retry:  20 * time.Millisecond,
		Prefix: "op_lock:",
	}
}

func (r *Redis) Lock(ctx context.Context, name string) (Unlock, error) {
	key := r.Prefix + name
	token := uuid.NewString()

	for {
		ok, err := r.Client.SetNX(ctx, key, token, r.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", name, err)
		}
		if ok {
			return func() {
				if err := releaseScript.Run(context.Background(), r.Client, []string{key}, token).Err(); err != nil {
					r.Logger.Warn("LOCK", fmt.Sprintf("release %s failed, held until ttl %s: %v", name, r.TTL, err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", name, ctx.Err())
		case <-time.After(r.Retry):
		}
	}
}
