package candle

import (
	"errors"
	"fmt"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/search"
)

var ErrInvalidSeries = errors.New("invalid candle series")

// Series is an immutable, open time ordered run of candles of one market and timeframe.
type Series struct {
	broker    string
	market    string
	timeframe common.Timeframe
	candles   []common.Candle
}

// NewSeries copies and validates the candles. Open times must be strictly ascending.
func NewSeries(broker, market string, timeframe common.Timeframe, candles []common.Candle) (*Series, error) {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s %s candle %d: %w", ErrInvalidSeries, market, timeframe, i, err)
		}
		if i > 0 && !candles[i-1].OpenTime.Before(c.OpenTime) {
			return nil, fmt.Errorf("%w: %s %s candle %d opens at %s, not after %s",
				ErrInvalidSeries, market, timeframe, i, c.OpenTime, candles[i-1].OpenTime)
		}
	}

	return &Series{
		broker:    broker,
		market:    market,
		timeframe: timeframe,
		candles:   append([]common.Candle(nil), candles...),
	}, nil
}

func MustNewSeries(broker, market string, timeframe common.Timeframe, candles []common.Candle) *Series {
	s, err := NewSeries(broker, market, timeframe, candles)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Series) Broker() string              { return s.broker }
func (s *Series) Market() string              { return s.market }
func (s *Series) Timeframe() common.Timeframe { return s.timeframe }
func (s *Series) Len() int                    { return len(s.candles) }
func (s *Series) At(i int) common.Candle      { return s.candles[i] }

// Candles exposes the backing slice. Callers must not modify it.
func (s *Series) Candles() []common.Candle { return s.candles }

func (s *Series) First() (common.Candle, bool) {
	if len(s.candles) == 0 {
		return common.Candle{}, false
	}
	return s.candles[0], true
}

func (s *Series) Last() (common.Candle, bool) {
	if len(s.candles) == 0 {
		return common.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// SearchClose searches candle close times from index start.
func (s *Series) SearchClose(start int, t time.Time, mode search.Mode) int {
	return search.Index(s.candles, common.CloseTimeKey, start, t.UnixNano(), mode)
}

// SearchOpen searches candle open times from index start.
func (s *Series) SearchOpen(start int, t time.Time, mode search.Mode) int {
	return search.Index(s.candles, common.OpenTimeKey, start, t.UnixNano(), mode)
}

// Between returns the candles opening in [from, to). The result shares storage with s.
func (s *Series) Between(from, to time.Time) *Series {
	out := &Series{broker: s.broker, market: s.market, timeframe: s.timeframe}

	first := s.SearchOpen(0, from, search.NextHigherValueOrEqual)
	if first == search.NotFound {
		return out
	}
	last := s.SearchOpen(first, to, search.PrevLowerValue)
	if last == search.NotFound {
		return out
	}

	out.candles = s.candles[first : last+1]
	return out
}

// Complete drops partial candles.
func (s *Series) Complete() *Series {
	out := &Series{broker: s.broker, market: s.market, timeframe: s.timeframe}
	for _, c := range s.candles {
		if c.IsComplete {
			out.candles = append(out.candles, c)
		}
	}
	return out
}

func (s *Series) String() string {
	return fmt.Sprintf("%s %s %s (%d candles)", s.broker, s.market, s.timeframe, len(s.candles))
}
