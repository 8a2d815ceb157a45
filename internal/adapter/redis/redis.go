package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{
		client: client,
	}
}

func (r *RedisAdapter) Get(key string) ([]byte, error) {
	return r.client.Get(context.Background(), key).Bytes()
}

func (r *RedisAdapter) Set(key string, value []byte, ttl time.Duration) error {
	return r.client.Set(context.Background(), key, value, ttl).Err()
}

func (r *RedisAdapter) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

// GetDel consumes single-use entries (one-time login codes) atomically.
func (r *RedisAdapter) GetDel(key string) ([]byte, error) {
	return r.client.GetDel(context.Background(), key).Bytes()
}
