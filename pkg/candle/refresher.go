package candle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/worker"
)

const (
	defaultRefreshWorkers  = 4
	defaultRefreshAttempts = 3
	defaultRefreshBackoff  = 500 * time.Millisecond
)

type RefreshRequest struct {
	Broker    string
	Market    string
	Timeframe common.Timeframe
	From      time.Time
	To        time.Time
}

func (r RefreshRequest) String() string {
	return fmt.Sprintf("%s %s %s", r.Broker, r.Market, r.Timeframe)
}

type RefresherOption func(*Refresher)

func WithRefreshWorkers(workers int) RefresherOption {
	return func(r *Refresher) {
		r.workers = workers
	}
}

// WithRetry sets how often a failing refresh is attempted and the pause between attempts.
func WithRetry(attempts int, backoff time.Duration) RefresherOption {
	return func(r *Refresher) {
		r.attempts = attempts
		r.backoff = backoff
	}
}

// Refresher updates many series in parallel through a Provider.
type Refresher struct {
	logger   *zap.Logger
	provider Provider
	workers  int
	attempts int
	backoff  time.Duration
}

func NewRefresher(logger *zap.Logger, provider Provider, options ...RefresherOption) *Refresher {
	r := &Refresher{
		logger:   logger,
		provider: provider,
		workers:  defaultRefreshWorkers,
		attempts: defaultRefreshAttempts,
		backoff:  defaultRefreshBackoff,
	}

	for _, option := range options {
		option(r)
	}
	if r.attempts < 1 {
		r.attempts = 1
	}

	return r
}

// Refresh blocks until every request is done. Requests failing after all attempts are
// abandoned and reported together in the returned error.
func (r *Refresher) Refresh(ctx context.Context, requests []RefreshRequest) error {
	var (
		mu       sync.Mutex
		failures []error
	)

	queue := worker.NewQueue(r.logger, r.workers, func(ctx context.Context, req RefreshRequest) worker.Result {
		if err := r.refresh(ctx, req); err != nil {
			if ctx.Err() != nil {
				return worker.Stop
			}
			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
		}
		return worker.Success
	})

	queue.EnqueueBatch(requests)
	queue.MarkProducerDone()
	queue.Start(ctx)
	queue.Wait()

	stats := queue.Statistics()
	r.logger.Info("candle refresh finished",
		zap.Uint64("requested", stats.Enqueued),
		zap.Uint64("processed", stats.Processed),
		zap.Int("failed", len(failures)),
		zap.Duration("run_time", stats.RunTime))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("candle refresh interrupted: %w", err)
	}
	return errors.Join(failures...)
}

func (r *Refresher) refresh(ctx context.Context, req RefreshRequest) error {
	var err error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.provider.UpdateCandles(ctx, req.Broker, req.Market, req.Timeframe, req.From, req.To)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNoData) {
			break
		}

		r.logger.Warn("candle refresh failed",
			zap.String("request", req.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == r.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff):
		}
	}

	return fmt.Errorf("refresh of %s abandoned: %w", req, err)
}
