package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientSource yields the current redis client. redisholder.Holder swaps it
// after a reconnect.
type ClientSource interface {
	Get() redis.UniversalClient
}

// Cache is a namespaced view over redis.
type Cache struct {
	Source    ClientSource
	Namespace string
}

// Claim sets key only if it is absent. It returns true for the first caller
// within ttl.
func (c *Cache) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.Source.Get().SetNX(ctx, c.key(key), time.Now().Unix(), ttl).Result()
}

func (c *Cache) key(k string) string { return c.Namespace + ":" + k }

func NewCache(namespace string, src ClientSource) *Cache {
	return &Cache{
		Namespace: namespace,
		Source:    src,
	}
}
