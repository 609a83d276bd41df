package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

func testCandle() Candle {
	return Candle{
		OpenTime:   time.Unix(0, 0),
		CloseTime:  time.Unix(60, 0),
		OpenBid:    fixed.FromInt(2, 0),
		OpenAsk:    fixed.FromInt(4, 0),
		HighBid:    fixed.FromInt(5, 0),
		HighAsk:    fixed.FromInt(8, 0),
		LowBid:     fixed.FromInt(1, 0),
		LowAsk:     fixed.FromInt(2, 0),
		CloseBid:   fixed.FromInt(4, 0),
		CloseAsk:   fixed.FromInt(5, 0),
		IsComplete: true,
	}
}

func TestCandle_Validate(t *testing.T) {
	require.NoError(t, testCandle().Validate())

	c := testCandle()
	c.CloseTime = c.OpenTime
	assert.ErrorIs(t, c.Validate(), ErrInvalidCandle)

	c = testCandle()
	c.CloseBid = fixed.FromInt(6, 0)
	assert.ErrorIs(t, c.Validate(), ErrInvalidCandle)

	c = testCandle()
	c.LowAsk = fixed.FromInt(9, 0)
	assert.ErrorIs(t, c.Validate(), ErrInvalidCandle)

	c = testCandle()
	c.LowBid = fixed.Zero
	c.OpenBid = fixed.Zero
	assert.ErrorContains(t, c.Validate(), "bid low 0 is not positive")

	c = testCandle()
	c.LowAsk = fixed.NegOne
	assert.ErrorIs(t, c.Validate(), ErrInvalidCandle)
}

func TestCandle_Inverted(t *testing.T) {
	inv := testCandle().Inverted()

	require.NoError(t, inv.Validate())
	assert.Equal(t, "0.25", inv.OpenBid.String())
	assert.Equal(t, "0.5", inv.OpenAsk.String())
	assert.Equal(t, "0.5", inv.HighBid.String())
	assert.Equal(t, "1", inv.HighAsk.String())
	assert.Equal(t, "0.125", inv.LowBid.String())
	assert.Equal(t, "0.2", inv.LowAsk.String())
	assert.Equal(t, "0.2", inv.CloseBid.String())
	assert.Equal(t, "0.25", inv.CloseAsk.String())
	assert.True(t, inv.IsComplete)
}

func TestCandle_InvertedTwiceIsIdentity(t *testing.T) {
	c := testCandle()
	twice := c.Inverted().Inverted()

	assert.True(t, twice.OpenBid.Eq(c.OpenBid))
	assert.True(t, twice.HighAsk.Eq(c.HighAsk))
	assert.True(t, twice.LowBid.Eq(c.LowBid))
	assert.True(t, twice.CloseAsk.Eq(c.CloseAsk))
}

func TestTimeframe_Parse(t *testing.T) {
	tf, err := ParseTimeframe("h4")
	require.NoError(t, err)
	assert.Equal(t, H4, tf)
	assert.Equal(t, 4*time.Hour, tf.Duration())

	_, err = ParseTimeframe("W1")
	assert.ErrorIs(t, err, ErrUnknownTimeframe)
	assert.Panics(t, func() { Timeframe("W1").Duration() })
}
