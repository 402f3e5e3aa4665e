package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/trunov/stickerbot/internal/redisholder"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cl.Close() })
	return NewCache("stickerbot:seen", redisholder.NewHolder(cl)), mr
}

func TestClaim_FirstWins(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.Claim(ctx, "42:7", time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !ok {
		t.Fatal("first claim should win")
	}

	ok, err = c.Claim(ctx, "42:7", time.Minute)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if ok {
		t.Error("second claim should lose")
	}

	if !mr.Exists("stickerbot:seen:42:7") {
		t.Error("expected namespaced key")
	}
}

func TestClaim_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Claim(ctx, "k", time.Second); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Second)

	ok, err := c.Claim(ctx, "k", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("claim should be available again after ttl")
	}
}
