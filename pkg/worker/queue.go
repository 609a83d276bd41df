// Package worker distributes queued jobs to a fixed set of goroutines.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type Result int

const (
	// Success continues with the next item.
	Success Result = iota
	// Stop cancels the whole queue. Items already taken by other workers finish.
	Stop
)

type Handler[T any] func(ctx context.Context, item T) Result

type Statistics struct {
	RunTime   time.Duration
	Enqueued  uint64
	Processed uint64
	Stopped   bool
}

// Queue is unbounded. Producers never block; workers wait on a condition variable
// until an item arrives, the producer finishes or the queue is cancelled.
type Queue[T any] struct {
	logger  *zap.Logger
	workers int
	handler Handler[T]

	mu           sync.Mutex
	cond         *sync.Cond
	items        []T
	producerDone bool
	cancelled    bool

	wg        sync.WaitGroup
	startTime time.Time
	runTime   time.Duration
	enqueued  atomic.Uint64
	processed atomic.Uint64
}

func NewQueue[T any](logger *zap.Logger, workers int, handler Handler[T]) *Queue[T] {
	if workers < 1 {
		workers = 1
	}
	q := &Queue[T]{
		logger:  logger,
		workers: workers,
		handler: handler,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds one item and wakes a single waiting worker.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.enqueued.Add(1)
	q.cond.Signal()
}

// EnqueueBatch adds items in order and wakes every waiting worker.
func (q *Queue[T]) EnqueueBatch(items []T) {
	if len(items) == 0 {
		return
	}

	q.mu.Lock()
	q.items = append(q.items, items...)
	q.mu.Unlock()

	q.enqueued.Add(uint64(len(items)))
	q.cond.Broadcast()
}

// MarkProducerDone lets workers exit once the queue drains.
func (q *Queue[T]) MarkProducerDone() {
	q.mu.Lock()
	q.producerDone = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Cancel stops dequeuing. Items left in the queue are dropped.
func (q *Queue[T]) Cancel() {
	q.mu.Lock()
	q.cancelled = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Start spawns the workers. Cancelling ctx cancels the queue.
func (q *Queue[T]) Start(ctx context.Context) {
	q.startTime = time.Now()

	for id := 0; id < q.workers; id++ {
		q.wg.Add(1)
		go q.work(ctx, id)
	}

	go func() {
		select {
		case <-ctx.Done():
			q.Cancel()
		case <-q.finished():
		}
	}()
}

// Wait blocks until every worker has exited.
func (q *Queue[T]) Wait() {
	q.wg.Wait()
	q.runTime = time.Since(q.startTime)
}

func (q *Queue[T]) Statistics() Statistics {
	q.mu.Lock()
	stopped := q.cancelled
	q.mu.Unlock()

	return Statistics{
		RunTime:   q.runTime,
		Enqueued:  q.enqueued.Load(),
		Processed: q.processed.Load(),
		Stopped:   stopped,
	}
}

func (q *Queue[T]) work(ctx context.Context, id int) {
	defer q.wg.Done()

	var processed int
	defer func() {
		q.logger.Debug("worker exited", zap.Int("worker", id), zap.Int("processed", processed))
	}()

	for {
		item, ok := q.next()
		if !ok {
			return
		}

		result := q.handler(ctx, item)
		processed++
		q.processed.Add(1)

		if result == Stop {
			q.logger.Debug("worker requested stop", zap.Int("worker", id))
			q.Cancel()
			return
		}
	}
}

// next blocks until an item is available. It returns false when the queue is cancelled
// or drained after the producer is done.
func (q *Queue[T]) next() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.cancelled {
			var zero T
			return zero, false
		}
		if len(q.items) > 0 {
			item := q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			return item, true
		}
		if q.producerDone {
			var zero T
			return zero, false
		}
		q.cond.Wait()
	}
}

func (q *Queue[T]) finished() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	return done
}
