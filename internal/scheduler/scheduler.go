// Package scheduler detaches accepted events from the request path.
//
// Enqueue never blocks: the caller gets an immediate accept or a typed
// queue-full rejection, and a fixed pool of workers drains the queue. Each
// event is handed to exactly one worker, by value.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"hublabs.dev/tagger/common/logger"
	"hublabs.dev/tagger/internal/domain"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
// Callers should surface it as backpressure (HTTP 503), not retry inline.
var ErrQueueFull = errors.New("task queue full")

// ErrStopped is returned by Enqueue once Stop has begun.
var ErrStopped = errors.New("scheduler stopped")

// Processor handles one accepted event end to end.
type Processor interface {
	Process(ctx context.Context, event domain.InboundEvent)
}

type Config struct {
	Workers    int
	QueueDepth int
}

type Scheduler struct {
	queue     chan domain.InboundEvent
	processor Processor
	workers   int

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	done      chan struct{}
}

func New(processor Processor, cfg Config) *Scheduler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = 64
	}

	return &Scheduler{
		queue:     make(chan domain.InboundEvent, depth),
		processor: processor,
		workers:   workers,
		done:      make(chan struct{}),
	}
}

// Start launches the worker pool. The provided context is the processing
// context for all workers; cancelling it abandons in-flight work.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		for i := 0; i < s.workers; i++ {
			s.wg.Add(1)
			go s.runWorker(ctx, i)
		}
		slog.InfoContext(ctx, "scheduler started",
			"workers", s.workers,
			"queue_depth", cap(s.queue))
	})
}

// Enqueue hands an accepted event to the pool without blocking. The queue
// channel is never closed, so Enqueue is safe to race with Stop; an event
// that slips in after shutdown began is drained or abandoned with the rest.
func (s *Scheduler) Enqueue(event domain.InboundEvent) error {
	select {
	case <-s.done:
		return ErrStopped
	default:
	}

	select {
	case s.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Depth returns the number of queued, not yet claimed events.
func (s *Scheduler) Depth() int {
	return len(s.queue)
}

// Capacity returns the queue's backpressure limit.
func (s *Scheduler) Capacity() int {
	return cap(s.queue)
}

// Stop signals shutdown, lets the workers drain what is already queued and
// waits for them until ctx expires. Abandoned workers may leave records in
// the processing state; that is accepted behavior on shutdown.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.done)
	})

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler drain: %w", ctx.Err())
	}
}

func (s *Scheduler) runWorker(ctx context.Context, n int) {
	defer s.wg.Done()

	workerCtx := logger.WithLogFields(ctx, logger.LogFields{
		Component: "tagger.worker",
	})

	for {
		select {
		case <-ctx.Done():
			slog.WarnContext(workerCtx, "worker context cancelled, abandoning queue",
				"worker", n)
			return
		case <-s.done:
			s.drainQueue(workerCtx)
			return
		case event := <-s.queue:
			s.processSafe(workerCtx, event)
		}
	}
}

// drainQueue processes whatever is queued at shutdown without blocking for
// more.
func (s *Scheduler) drainQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.queue:
			s.processSafe(ctx, event)
		default:
			return
		}
	}
}

func (s *Scheduler) processSafe(ctx context.Context, event domain.InboundEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in event processing",
				"panic", r,
				"repo", event.Repo.Name,
				"discussion_num", event.Discussion.Num)
		}
	}()
	s.processor.Process(ctx, event)
}
