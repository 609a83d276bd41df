package candle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/search"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func minuteCandle(i int, price int) common.Candle {
	p := fixed.FromInt(price, 0)
	return common.Candle{
		OpenTime:   epoch.Add(time.Duration(i) * time.Minute),
		CloseTime:  epoch.Add(time.Duration(i+1) * time.Minute),
		OpenBid:    p,
		OpenAsk:    p,
		HighBid:    p,
		HighAsk:    p,
		LowBid:     p,
		LowAsk:     p,
		CloseBid:   p,
		CloseAsk:   p,
		IsComplete: true,
	}
}

func minuteCandles(n int) []common.Candle {
	out := make([]common.Candle, n)
	for i := range out {
		out[i] = minuteCandle(i, 100+i)
	}
	return out
}

func TestNewSeries_RejectsUnorderedCandles(t *testing.T) {
	candles := minuteCandles(3)
	candles[2] = candles[1]

	_, err := NewSeries("test", "EURUSD", common.M1, candles)
	assert.ErrorIs(t, err, ErrInvalidSeries)
}

func TestNewSeries_RejectsInvalidCandle(t *testing.T) {
	candles := minuteCandles(3)
	candles[1].LowBid = fixed.FromInt(1000, 0)

	_, err := NewSeries("test", "EURUSD", common.M1, candles)
	assert.ErrorIs(t, err, ErrInvalidSeries)
	assert.ErrorIs(t, err, common.ErrInvalidCandle)
}

func TestNewSeries_CopiesInput(t *testing.T) {
	candles := minuteCandles(2)
	s := MustNewSeries("test", "EURUSD", common.M1, candles)

	candles[0].CloseBid = fixed.Zero
	assert.Equal(t, "100", s.At(0).CloseBid.String())
}

func TestSeries_Between(t *testing.T) {
	s := MustNewSeries("test", "EURUSD", common.M1, minuteCandles(10))

	part := s.Between(epoch.Add(2*time.Minute), epoch.Add(5*time.Minute))
	require.Equal(t, 3, part.Len())
	assert.Equal(t, "102", part.At(0).OpenBid.String())
	assert.Equal(t, "104", part.At(2).OpenBid.String())

	assert.Equal(t, 10, s.Between(epoch.Add(-time.Hour), epoch.Add(time.Hour)).Len())
	assert.Equal(t, 0, s.Between(epoch.Add(time.Hour), epoch.Add(2*time.Hour)).Len())
	assert.Equal(t, 0, s.Between(epoch.Add(-time.Hour), epoch).Len())
}

func TestSeries_SearchClose(t *testing.T) {
	s := MustNewSeries("test", "EURUSD", common.M1, minuteCandles(10))

	assert.Equal(t, 2, s.SearchClose(0, epoch.Add(3*time.Minute), search.PrevLowerValueOrEqual))
	assert.Equal(t, 3, s.SearchClose(0, epoch.Add(3*time.Minute), search.NextHigherValue))
	assert.Equal(t, search.NotFound, s.SearchClose(0, epoch, search.PrevLowerValueOrEqual))
}

func TestSeries_Complete(t *testing.T) {
	candles := minuteCandles(4)
	candles[3].IsComplete = false

	s := MustNewSeries("test", "EURUSD", common.M1, candles).Complete()
	assert.Equal(t, 3, s.Len())

	last, ok := s.Last()
	require.True(t, ok)
	assert.True(t, last.IsComplete)
}
