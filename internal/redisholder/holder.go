package redisholder

import (
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Holder keeps the live client; the health loop swaps it on reconnect.
type Holder struct {
	v atomic.Value // stores redis.UniversalClient
}

func NewHolder(initial redis.UniversalClient) *Holder {
	h := &Holder{}
	h.v.Store(&initial)
	return h
}

func (h *Holder) Get() redis.UniversalClient {
	c, _ := h.v.Load().(*redis.UniversalClient)
	if c == nil {
		return nil
	}
	return *c
}

func (h *Holder) swap(newc redis.UniversalClient) (old redis.UniversalClient) {
	prev, _ := h.v.Swap(&newc).(*redis.UniversalClient)
	if prev == nil {
		return nil
	}
	return *prev
}

func (h *Holder) Close() error {
	if c := h.Get(); c != nil {
		return c.Close()
	}
	return nil
}
