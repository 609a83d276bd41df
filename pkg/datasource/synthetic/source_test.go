package synthetic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
)

var anchor = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSource_Deterministic(t *testing.T) {
	source := NewSource(42, anchor)
	source.Register("EURUSD", EURUSD(0.01, 0.1))

	a, err := source.LoadCandles(context.Background(), "sim", "EURUSD", common.H1, anchor, anchor.Add(48*time.Hour))
	require.NoError(t, err)
	b, err := source.LoadCandles(context.Background(), "sim", "eurusd", common.H1, anchor.Add(24*time.Hour), anchor.Add(48*time.Hour))
	require.NoError(t, err)

	require.Len(t, a, 48)
	require.Len(t, b, 24)
	for i := range b {
		assert.True(t, a[24+i].CloseBid.Eq(b[i].CloseBid))
	}
}

func TestSource_CandlesAreValid(t *testing.T) {
	source := NewSource(7, anchor)
	source.Register("EURUSD", EURUSD(0, 0.2))

	candles, err := source.LoadCandles(context.Background(), "sim", "EURUSD", common.M15, anchor, anchor.Add(24*time.Hour))
	require.NoError(t, err)

	series, err := candle.NewSeries("sim", "EURUSD", common.M15, candles)
	require.NoError(t, err)
	assert.Equal(t, 96, series.Len())
}

func TestSource_UnknownMarket(t *testing.T) {
	_, err := NewSource(1, anchor).LoadCandles(context.Background(), "sim", "GBPUSD", common.H1, anchor, anchor.Add(time.Hour))
	assert.ErrorIs(t, err, candle.ErrNoData)
}
