package ports

import "time"

type CachePort interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	// GetDel fetches and removes the key atomically, for single-use entries
	// such as one-time codes.
	GetDel(key string) ([]byte, error)
}
