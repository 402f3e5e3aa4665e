package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/entities"
)

var (
	ErrQueueFull = errors.New("event queue is full")
	ErrClosed    = errors.New("dispatcher is closed")
)

type Handler interface {
	Handle(ctx context.Context, ev entities.InboundMediaEvent)
}

type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// Dispatcher hands inbound events to a fixed pool of workers so the
// transport's receive loop never waits on a conversion.
type Dispatcher struct {
	Workers   int
	QueueSize int

	handler  Handler
	reporter Reporter
	log      *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan entities.InboundMediaEvent
	wg     sync.WaitGroup
}

func NewDispatcher(workers, queueSize int, h Handler, reporter Reporter, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Workers:   workers,
		QueueSize: queueSize,
		handler:   h,
		reporter:  reporter,
		log:       log.With(zap.String("component", "dispatcher")),
		queue:     make(chan entities.InboundMediaEvent, queueSize),
	}
}

// Start launches the workers. They stop once Close drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	d.log.Info("worker pool started", zap.Int("workers", d.Workers), zap.Int("queue_size", d.QueueSize))
}

// Enqueue tries to put an event on the queue without blocking.
// If the queue is full, it returns ErrQueueFull immediately.
func (d *Dispatcher) Enqueue(ctx context.Context, ev entities.InboundMediaEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Submit is the transport callback: it enqueues and logs what could not be.
func (d *Dispatcher) Submit(ctx context.Context, ev entities.InboundMediaEvent) {
	if err := d.Enqueue(ctx, ev); err != nil {
		d.log.Warn("dropping inbound event",
			zap.String("conversation_id", ev.ConversationID),
			zap.String("message_id", ev.MessageID),
			zap.Error(err),
		)
	}
}

// Close waits for all queued events to be processed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("worker pool stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for ev := range d.queue {
		d.run(ctx, id, ev)
	}
}

func (d *Dispatcher) run(ctx context.Context, id int, ev entities.InboundMediaEvent) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker #%d panicked: %v", id, r)
			d.log.Error("handler panicked", zap.Error(err), zap.ByteString("stack", debug.Stack()))
			d.reporter.Report(ctx, err, map[string]string{"conversation_id": ev.ConversationID})
		}
	}()

	d.handler.Handle(ctx, ev)
}
