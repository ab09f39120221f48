package runtime

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevoker tracks revoked token ids in redis. Entries expire together
// with the token they refer to, so the set stays bounded.
type RedisRevoker struct {
	Rdb *redis.Client
}

func (r *RedisRevoker) key(jti string) string { return "taskflow:revoked:" + jti }

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return r.Rdb.Set(ctx, r.key(jti), "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.Rdb.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
