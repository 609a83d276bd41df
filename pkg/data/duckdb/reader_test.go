package duckdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testCandle(i int) common.Candle {
	p := fixed.FromInt(100+i, 0)
	return common.Candle{
		OpenTime:   epoch.Add(time.Duration(i) * time.Hour),
		CloseTime:  epoch.Add(time.Duration(i+1) * time.Hour),
		OpenBid:    p,
		OpenAsk:    p.Add(fixed.One),
		HighBid:    p.Add(fixed.Two),
		HighAsk:    p.Add(fixed.Ten),
		LowBid:     p.Sub(fixed.One),
		LowAsk:     p,
		CloseBid:   p,
		CloseAsk:   p.Add(fixed.One),
		Volume:     fixed.MustFromString("12.5"),
		IsComplete: true,
	}
}

func TestTableName(t *testing.T) {
	name, err := TableName("Dukascopy", "EURUSD", common.H1)
	require.NoError(t, err)
	assert.Equal(t, "dukascopy_eurusd_h1", name)

	_, err = TableName("x; DROP TABLE y", "EURUSD", common.H1)
	assert.Error(t, err)
}

func TestReader_RoundTrip(t *testing.T) {
	ctx := context.Background()
	reader := NewReader("")
	require.NoError(t, reader.Connect())
	defer reader.Close()

	require.NoError(t, reader.CreateTable(ctx, "test", "EURUSD", common.H1))
	var candles []common.Candle
	for i := 0; i < 24; i++ {
		candles = append(candles, testCandle(i))
	}
	require.NoError(t, reader.InsertCandles(ctx, "test", "EURUSD", common.H1, candles))

	source := NewSource(reader)
	loaded, err := source.LoadCandles(ctx, "test", "EURUSD", common.H1, epoch.Add(2*time.Hour), epoch.Add(6*time.Hour))
	require.NoError(t, err)
	require.Len(t, loaded, 4)

	assert.True(t, loaded[0].OpenTime.Equal(candles[2].OpenTime))
	assert.Equal(t, "112", loaded[0].HighAsk.String())
	assert.Equal(t, "12.5", loaded[0].Volume.String())
	require.NoError(t, loaded[3].Validate())

	_, err = source.LoadCandles(ctx, "test", "GBPUSD", common.H1, epoch, epoch.Add(time.Hour))
	assert.ErrorIs(t, err, candle.ErrNoData)
}
