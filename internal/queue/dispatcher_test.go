package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/entities"
)

type countingHandler struct {
	mu    sync.Mutex
	seen  []string
	block chan struct{}
	panic bool
}

func (h *countingHandler) Handle(_ context.Context, ev entities.InboundMediaEvent) {
	if h.block != nil {
		<-h.block
	}
	if h.panic && ev.MessageID == "boom" {
		panic("handler failure")
	}
	h.mu.Lock()
	h.seen = append(h.seen, ev.MessageID)
	h.mu.Unlock()
}

type countingReporter struct{ n atomic.Int32 }

func (r *countingReporter) Report(context.Context, error, map[string]string) { r.n.Add(1) }

func TestDispatcher_ProcessesAll(t *testing.T) {
	h := &countingHandler{}
	d := NewDispatcher(3, 10, h, &countingReporter{}, zap.NewNop())
	d.Start(context.Background())

	for _, id := range []string{"1", "2", "3", "4", "5"} {
		if err := d.Enqueue(context.Background(), entities.InboundMediaEvent{MessageID: id}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	d.Close()

	if len(h.seen) != 5 {
		t.Errorf("expected 5 handled events, got %v", h.seen)
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	h := &countingHandler{block: make(chan struct{})}
	d := NewDispatcher(1, 1, h, &countingReporter{}, zap.NewNop())

	// Workers not started yet: the buffer holds exactly one event.
	if err := d.Enqueue(context.Background(), entities.InboundMediaEvent{MessageID: "1"}); err != nil {
		t.Fatal(err)
	}
	err := d.Enqueue(context.Background(), entities.InboundMediaEvent{MessageID: "2"})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	d.Start(context.Background())
	close(h.block)
	d.Close()

	if err := d.Enqueue(context.Background(), entities.InboundMediaEvent{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestDispatcher_PanicDoesNotKillWorker(t *testing.T) {
	h := &countingHandler{panic: true}
	rep := &countingReporter{}
	d := NewDispatcher(1, 10, h, rep, zap.NewNop())
	d.Start(context.Background())

	d.Submit(context.Background(), entities.InboundMediaEvent{MessageID: "boom"})
	d.Submit(context.Background(), entities.InboundMediaEvent{MessageID: "after"})
	d.Close()

	if len(h.seen) != 1 || h.seen[0] != "after" {
		t.Errorf("expected the event after the panic to be handled, got %v", h.seen)
	}
	if rep.n.Load() != 1 {
		t.Errorf("expected one report, got %d", rep.n.Load())
	}
}

func TestDispatcher_CloseTwice(t *testing.T) {
	d := NewDispatcher(1, 1, &countingHandler{}, &countingReporter{}, zap.NewNop())
	d.Start(context.Background())
	d.Close()
	d.Close()
}
