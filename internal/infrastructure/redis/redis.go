package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the bot's key-value collaborator. It is pinged at startup and
// backs the interactions rate limiter; no business state lives here.
type Store struct {
	Client *redis.Client
}

func New(addr, pass string, db int) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})
	return &Store{Client: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

/// AllowRequest: simple fixed window rate limit.
func (s *Store) AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error) {
	key := "ratelimit:" + ip
	count, err := s.Client.Incr(ctx, key).Result()
	if err != nil {
		return true, nil // fail open
	}
	if count == 1 {
		_ = s.Client.Expire(ctx, key, window).Err()
	}
	return count <= int64(limit), nil
}
