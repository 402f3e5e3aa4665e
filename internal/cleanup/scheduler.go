// Package cleanup deletes transient artifacts some time after they were used.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/entities"
	"github.com/trunov/stickerbot/internal/failure"
)

type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// Scheduler runs one deferred deletion per artifact pair.
type Scheduler struct {
	delay    time.Duration
	log      *zap.Logger
	reporter Reporter

	mu      sync.Mutex
	pending map[*Handle]struct{}
}

func NewScheduler(delay time.Duration, log *zap.Logger, reporter Reporter) *Scheduler {
	return &Scheduler{
		delay:    delay,
		log:      log.With(zap.String("component", "cleanup")),
		reporter: reporter,
		pending:  make(map[*Handle]struct{}),
	}
}

func (s *Scheduler) Delay() time.Duration { return s.delay }

// Schedule deletes both files of pair after the scheduler delay.
func (s *Scheduler) Schedule(pair entities.ArtifactPair) *Handle {
	h := &Handle{
		s:    s,
		pair: pair,
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.pending[h] = struct{}{}
	h.timer = time.AfterFunc(s.delay, h.fire)
	s.mu.Unlock()

	return h
}

// Pending returns the number of cleanups that have not run yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush runs every pending cleanup now and waits for them.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.pending))
	for h := range s.pending {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		_ = h.RunNow()
	}
}

func (s *Scheduler) forget(h *Handle) {
	s.mu.Lock()
	delete(s.pending, h)
	s.mu.Unlock()
}

func (s *Scheduler) remove(pair entities.ArtifactPair) error {
	err := Remove(pair.Paths()...)
	if err != nil {
		err = failure.New(failure.KindCleanup, err)
		s.log.Warn("failed to remove temporary files",
			zap.String("artifact_id", pair.ID),
			zap.Error(err),
		)
		s.reporter.Report(context.Background(), err, map[string]string{"artifact_id": pair.ID})
		return err
	}

	s.log.Info("temporary files removed", zap.String("artifact_id", pair.ID))
	return nil
}

// Handle controls one scheduled cleanup.
type Handle struct {
	s     *Scheduler
	pair  entities.ArtifactPair
	timer *time.Timer

	once     sync.Once
	done     chan struct{}
	err      error
	canceled bool
}

func (h *Handle) Pair() entities.ArtifactPair { return h.pair }

func (h *Handle) fire() {
	h.once.Do(func() {
		h.err = h.s.remove(h.pair)
		h.s.forget(h)
		close(h.done)
	})
}

// Cancel stops a cleanup that has not started. It reports whether the
// cleanup was prevented.
func (h *Handle) Cancel() bool {
	if !h.timer.Stop() {
		return false
	}
	prevented := false
	h.once.Do(func() {
		prevented = true
		h.canceled = true
		h.s.forget(h)
		close(h.done)
	})
	return prevented
}

// RunNow runs the cleanup immediately unless it already ran or was canceled,
// then returns its outcome.
func (h *Handle) RunNow() error {
	if h.timer.Stop() {
		h.fire()
	}
	<-h.done
	return h.err
}

// Wait blocks until the cleanup ran or was canceled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) Canceled() bool {
	select {
	case <-h.done:
		return h.canceled
	default:
		return false
	}
}

// Remove deletes every path. Files that are already gone are not an error.
func Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
