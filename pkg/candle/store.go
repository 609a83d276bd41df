package candle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
)

var ErrNoData = errors.New("no candle data")

// Provider serves candle series per (broker, market, timeframe).
type Provider interface {
	GetCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) (*Series, error)
	UpdateCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) error
	UnloadCandles(broker, market string, timeframe common.Timeframe)
}

// Source loads raw candles from a backing store. It returns ErrNoData when the market
// is unknown to it.
type Source interface {
	LoadCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) ([]common.Candle, error)
}

type key struct {
	broker    string
	market    string
	timeframe common.Timeframe
}

func newKey(broker, market string, timeframe common.Timeframe) key {
	return key{strings.ToUpper(broker), strings.ToUpper(market), timeframe}
}

type entry struct {
	series *Series
	from   time.Time
	to     time.Time
}

// Store is a Provider caching what its Source loaded. It is safe for concurrent use.
type Store struct {
	logger *zap.Logger
	source Source

	mu    sync.RWMutex
	cache map[key]entry
}

func NewStore(logger *zap.Logger, source Source) *Store {
	return &Store{
		logger: logger,
		source: source,
		cache:  make(map[key]entry),
	}
}

// GetCandles serves the window from cache when a previous load covered it.
func (s *Store) GetCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) (*Series, error) {
	k := newKey(broker, market, timeframe)

	s.mu.RLock()
	cached, ok := s.cache[k]
	s.mu.RUnlock()

	if ok && !cached.from.After(from) && !cached.to.Before(to) {
		return cached.series.Between(from, to), nil
	}

	series, err := s.load(ctx, broker, market, timeframe, from, to)
	if err != nil {
		return nil, err
	}
	return series.Between(from, to), nil
}

// UpdateCandles reloads the window from the source and replaces the cached entry.
func (s *Store) UpdateCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) error {
	_, err := s.load(ctx, broker, market, timeframe, from, to)
	return err
}

func (s *Store) UnloadCandles(broker, market string, timeframe common.Timeframe) {
	s.mu.Lock()
	delete(s.cache, newKey(broker, market, timeframe))
	s.mu.Unlock()
}

func (s *Store) load(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) (*Series, error) {
	candles, err := s.source.LoadCandles(ctx, broker, market, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s %s %s: %w", broker, market, timeframe, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s %s %s: %w", broker, market, timeframe, ErrNoData)
	}

	series, err := NewSeries(broker, market, timeframe, candles)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[newKey(broker, market, timeframe)] = entry{series: series, from: from, to: to}
	s.mu.Unlock()

	s.logger.Debug("candles loaded",
		zap.String("broker", broker),
		zap.String("market", market),
		zap.String("timeframe", timeframe.String()),
		zap.Int("count", series.Len()))

	return series, nil
}
