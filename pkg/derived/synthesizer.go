// Package derived builds candle series for pairs no source quotes directly, by crossing
// two series through a bridge asset.
package derived

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/search"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var ErrMarketNotFound = errors.New("market not found")

var DefaultBridges = []string{"USDT", "BTC", "BNB"}

type Option func(*Synthesizer)

// WithBridges replaces the bridge assets, tried in the given order.
func WithBridges(bridges ...string) Option {
	return func(s *Synthesizer) {
		s.bridges = bridges
	}
}

type cacheKey struct {
	broker    string
	first     string
	second    string
	timeframe common.Timeframe
}

type cacheEntry struct {
	series *candle.Series
	from   time.Time
	to     time.Time
}

type Synthesizer struct {
	logger   *zap.Logger
	provider candle.Provider
	bridges  []string

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

func NewSynthesizer(logger *zap.Logger, provider candle.Provider, options ...Option) *Synthesizer {
	s := &Synthesizer{
		logger:   logger,
		provider: provider,
		bridges:  DefaultBridges,
		cache:    make(map[cacheKey]cacheEntry),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// CreateSeries returns the first/second series for [from, to). A directly quoted pair is
// returned as is; otherwise the pair is crossed through the first bridge quoting both
// assets, and as a last resort the reciprocal pair is built and inverted.
func (s *Synthesizer) CreateSeries(ctx context.Context, broker, first, second string, timeframe common.Timeframe, from, to time.Time) (*candle.Series, error) {
	first, second = strings.ToUpper(first), strings.ToUpper(second)
	key := cacheKey{strings.ToUpper(broker), first, second, timeframe}

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok && !cached.from.After(from) && !cached.to.Before(to) {
		return cached.series.Between(from, to), nil
	}

	series, err := s.resolve(ctx, broker, first, second, timeframe, from, to, true)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{series: series, from: from, to: to}
	s.mu.Unlock()

	return series, nil
}

func (s *Synthesizer) resolve(ctx context.Context, broker, first, second string, timeframe common.Timeframe, from, to time.Time, allowSwap bool) (*candle.Series, error) {
	direct, err := s.load(ctx, broker, first+second, timeframe, from, to)
	if err != nil {
		return nil, err
	}
	if direct != nil {
		return direct, nil
	}

	for _, bridge := range s.bridges {
		if bridge == first || bridge == second {
			continue
		}

		c1, err := s.component(ctx, broker, first, bridge, timeframe, from, to)
		if err != nil {
			return nil, err
		}
		if c1 == nil {
			continue
		}
		c2, err := s.component(ctx, broker, second, bridge, timeframe, from, to)
		if err != nil {
			return nil, err
		}
		if c2 == nil {
			continue
		}

		s.logger.Debug("crossing through bridge",
			zap.String("first", first),
			zap.String("second", second),
			zap.String("bridge", bridge),
			zap.String("timeframe", timeframe.String()))

		return Cross(broker, first+second, timeframe, c1, c2, to)
	}

	if allowSwap {
		reciprocal, err := s.resolve(ctx, broker, second, first, timeframe, from, to, false)
		if err == nil {
			s.logger.Debug("inverting reciprocal pair", zap.String("first", first), zap.String("second", second))
			return Invert(first+second, reciprocal)
		}
		if !errors.Is(err, ErrMarketNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%s%s %s: %w", first, second, timeframe, ErrMarketNotFound)
}

// component returns asset/bridge quotes, inverting bridge/asset when only that is quoted.
// A nil series means neither is available.
func (s *Synthesizer) component(ctx context.Context, broker, asset, bridge string, timeframe common.Timeframe, from, to time.Time) (*candle.Series, error) {
	series, err := s.load(ctx, broker, asset+bridge, timeframe, from, to)
	if err != nil || series != nil {
		return series, err
	}

	series, err = s.load(ctx, broker, bridge+asset, timeframe, from, to)
	if err != nil || series == nil {
		return nil, err
	}
	return Invert(asset+bridge, series)
}

func (s *Synthesizer) load(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) (*candle.Series, error) {
	series, err := s.provider.GetCandles(ctx, broker, market, timeframe, from, to)
	if errors.Is(err, candle.ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", market, err)
	}
	if series.Len() == 0 {
		return nil, nil
	}
	return series, nil
}

// Invert returns the reciprocal series under a new market name.
func Invert(market string, series *candle.Series) (*candle.Series, error) {
	inverted := make([]common.Candle, series.Len())
	for i, c := range series.Candles() {
		inverted[i] = c.Inverted()
	}
	return candle.NewSeries(series.Broker(), market, series.Timeframe(), inverted)
}

// Cross divides c1 by c2 into buckets of one timeframe. Buckets start at the later first
// close of the two series. A bucket [d, d+period) collects the c1 candles closing in
// (d, d+period], each paired with the last c2 candle closing at or before it. Buckets
// without c1 candles are skipped; a bucket reaching past to is marked incomplete.
func Cross(broker, market string, timeframe common.Timeframe, c1, c2 *candle.Series, to time.Time) (*candle.Series, error) {
	first1, ok1 := c1.First()
	first2, ok2 := c2.First()
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%s %s: %w", market, timeframe, ErrMarketNotFound)
	}

	period := timeframe.Duration()
	d := first1.CloseTime
	if first2.CloseTime.After(d) {
		d = first2.CloseTime
	}

	var (
		out     []common.Candle
		cursor1 int
		cursor2 int
		quotes1 = c1.Candles()
		quotes2 = c2.Candles()
	)

	for ; d.Before(to); d = d.Add(period) {
		end := d.Add(period)

		lo := c1.SearchClose(cursor1, d, search.NextHigherValue)
		if lo == search.NotFound {
			break
		}
		hi := c1.SearchClose(lo, end, search.PrevLowerValueOrEqual)
		if hi == search.NotFound {
			cursor1 = lo
			continue
		}
		cursor1 = hi + 1

		var (
			bucket   common.Candle
			filled   bool
			complete = !end.After(to)
		)
		for i := lo; i <= hi; i++ {
			j := c2.SearchClose(cursor2, quotes1[i].CloseTime, search.PrevLowerValueOrEqual)
			if j == search.NotFound {
				continue
			}
			cursor2 = j

			bid := quotes1[i].CloseBid.Div(quotes2[j].CloseBid)
			ask := quotes1[i].CloseAsk.Div(quotes2[j].CloseAsk)
			complete = complete && quotes1[i].IsComplete && quotes2[j].IsComplete

			if !filled {
				bucket = common.Candle{
					OpenTime: d, CloseTime: end,
					OpenBid: bid, OpenAsk: ask,
					HighBid: bid, HighAsk: ask,
					LowBid: bid, LowAsk: ask,
				}
				filled = true
			}
			bucket.HighBid = bucket.HighBid.Max(bid)
			bucket.HighAsk = bucket.HighAsk.Max(ask)
			bucket.LowBid = bucket.LowBid.Min(bid)
			bucket.LowAsk = bucket.LowAsk.Min(ask)
			bucket.CloseBid = bid
			bucket.CloseAsk = ask
		}

		if filled {
			bucket.Volume = fixed.Zero
			bucket.IsComplete = complete
			out = append(out, bucket)
		}
	}

	return candle.NewSeries(broker, market, timeframe, out)
}
