package candle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
)

type countingSource struct {
	inner *MemorySource
	loads atomic.Int64
	fails atomic.Int64
}

func (c *countingSource) LoadCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) ([]common.Candle, error) {
	c.loads.Add(1)
	if c.fails.Load() > 0 {
		c.fails.Add(-1)
		return nil, errors.New("temporary failure")
	}
	return c.inner.LoadCandles(ctx, broker, market, timeframe, from, to)
}

func newCountingSource() *countingSource {
	mem := NewMemorySource()
	mem.Add("test", "EURUSD", common.M1, minuteCandles(60)...)
	mem.Add("test", "GBPUSD", common.M1, minuteCandles(60)...)
	return &countingSource{inner: mem}
}

func TestStore_CachesCoveredWindow(t *testing.T) {
	source := newCountingSource()
	store := NewStore(zap.NewNop(), source)
	ctx := context.Background()

	s, err := store.GetCandles(ctx, "test", "EURUSD", common.M1, epoch, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 60, s.Len())

	s, err = store.GetCandles(ctx, "TEST", "eurusd", common.M1, epoch.Add(10*time.Minute), epoch.Add(20*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, int64(1), source.loads.Load())

	store.UnloadCandles("test", "EURUSD", common.M1)
	_, err = store.GetCandles(ctx, "test", "EURUSD", common.M1, epoch, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), source.loads.Load())
}

func TestStore_MissingMarket(t *testing.T) {
	store := NewStore(zap.NewNop(), newCountingSource())

	_, err := store.GetCandles(context.Background(), "test", "USDJPY", common.M1, epoch, epoch.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = store.GetCandles(context.Background(), "test", "EURUSD", common.M1, epoch.Add(24*time.Hour), epoch.Add(25*time.Hour))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRefresher_RetriesTransientFailures(t *testing.T) {
	source := newCountingSource()
	source.fails.Store(1)
	store := NewStore(zap.NewNop(), source)
	refresher := NewRefresher(zap.NewNop(), store, WithRefreshWorkers(1), WithRetry(3, time.Millisecond))

	err := refresher.Refresh(context.Background(), []RefreshRequest{
		{Broker: "test", Market: "EURUSD", Timeframe: common.M1, From: epoch, To: epoch.Add(time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), source.loads.Load())

	_, err = store.GetCandles(context.Background(), "test", "EURUSD", common.M1, epoch, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), source.loads.Load())
}

func TestRefresher_ReportsAbandonedRequests(t *testing.T) {
	source := newCountingSource()
	source.fails.Store(100)
	refresher := NewRefresher(zap.NewNop(), NewStore(zap.NewNop(), source), WithRefreshWorkers(2), WithRetry(2, time.Millisecond))

	err := refresher.Refresh(context.Background(), []RefreshRequest{
		{Broker: "test", Market: "EURUSD", Timeframe: common.M1, From: epoch, To: epoch.Add(time.Hour)},
		{Broker: "test", Market: "GBPUSD", Timeframe: common.M1, From: epoch, To: epoch.Add(time.Hour)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EURUSD")
	assert.Contains(t, err.Error(), "GBPUSD")
	assert.Equal(t, int64(4), source.loads.Load())
}

func TestRefresher_MissingMarketIsNotRetried(t *testing.T) {
	source := newCountingSource()
	refresher := NewRefresher(zap.NewNop(), NewStore(zap.NewNop(), source), WithRetry(5, time.Millisecond))

	err := refresher.Refresh(context.Background(), []RefreshRequest{
		{Broker: "test", Market: "USDJPY", Timeframe: common.M1, From: epoch, To: epoch.Add(time.Hour)},
	})
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, int64(1), source.loads.Load())
}
