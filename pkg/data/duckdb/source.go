package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
)

// Source adapts a Reader to candle.Source.
type Source struct {
	reader *Reader
}

func NewSource(reader *Reader) *Source {
	return &Source{reader: reader}
}

func (s *Source) LoadCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) ([]common.Candle, error) {
	table, err := TableName(broker, market, timeframe)
	if err != nil {
		return nil, err
	}

	ok, err := s.reader.HasTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, candle.ErrNoData)
	}

	var candles []common.Candle
	err = s.reader.LoadCandles(ctx, broker, market, timeframe, from, to, func(c common.Candle) error {
		candles = append(candles, c)
		return nil
	})
	return candles, err
}
