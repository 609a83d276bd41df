package historical

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func hourCandle(i int) common.Candle {
	p := fixed.FromFloat64(1.1 + float64(i)/100)
	spread := fixed.FromFloat64(0.0002)
	return common.Candle{
		OpenTime:   epoch.Add(time.Duration(i) * time.Hour),
		CloseTime:  epoch.Add(time.Duration(i+1) * time.Hour),
		OpenBid:    p,
		OpenAsk:    p.Add(spread),
		HighBid:    p,
		HighAsk:    p.Add(spread),
		LowBid:     p,
		LowAsk:     p.Add(spread),
		CloseBid:   p,
		CloseAsk:   p.Add(spread),
		Volume:     fixed.FromInt(10, 0),
		IsComplete: true,
	}
}

func TestBinarySource_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := BinaryPath(dir, "test", "EURUSD", common.H1)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	var candles []common.Candle
	for i := 0; i < 48; i++ {
		candles = append(candles, hourCandle(i))
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteCandles(f, candles))
	require.NoError(t, f.Close())

	source := NewBinarySource(dir)
	loaded, err := source.LoadCandles(context.Background(), "test", "EURUSD", common.H1, epoch.Add(10*time.Hour), epoch.Add(20*time.Hour))
	require.NoError(t, err)
	require.Len(t, loaded, 10)

	assert.True(t, candles[10].OpenTime.Equal(loaded[0].OpenTime))
	assert.True(t, candles[10].OpenAsk.Eq(loaded[0].OpenAsk))
	assert.True(t, loaded[9].IsComplete)
	assert.True(t, candles[19].CloseTime.Equal(loaded[9].CloseTime))
}

func TestBinarySource_MissingFile(t *testing.T) {
	_, err := NewBinarySource(t.TempDir()).LoadCandles(context.Background(), "test", "EURUSD", common.H1, epoch, epoch.Add(time.Hour))
	assert.ErrorIs(t, err, candle.ErrNoData)
}

const jsonExport = `[
  {"open_time": "2024-01-01T00:00:00Z", "close_time": "2024-01-01T01:00:00Z",
   "bid": {"o": 1.1, "h": 1.2, "l": 1.0, "c": 1.15}, "ask": {"o": "1.1002", "h": "1.2002", "l": "1.0002", "c": "1.1502"},
   "volume": 42},
  {"open_time": "2024-01-01T01:00:00Z", "close_time": "2024-01-01T02:00:00Z",
   "bid": {"o": 1.15, "h": 1.15, "l": 1.15, "c": 1.15}, "ask": {"o": 1.16, "h": 1.16, "l": 1.16, "c": 1.16},
   "complete": false}
]`

func TestJSONSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := JSONPath(dir, "test", "EURUSD", common.H1)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(jsonExport), 0o600))

	loaded, err := NewJSONSource(dir).LoadCandles(context.Background(), "test", "EURUSD", common.H1, epoch, epoch.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "1.1", loaded[0].OpenBid.String())
	assert.Equal(t, "1.2002", loaded[0].HighAsk.String())
	assert.Equal(t, "42", loaded[0].Volume.String())
	assert.True(t, loaded[0].IsComplete)
	assert.False(t, loaded[1].IsComplete)
	require.NoError(t, loaded[0].Validate())
}

func TestJSONSource_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := JSONPath(dir, "test", "EURUSD", common.H1)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`[{"open_time": "yesterday"}]`), 0o600))

	_, err := NewJSONSource(dir).LoadCandles(context.Background(), "test", "EURUSD", common.H1, epoch, epoch.Add(time.Hour))
	assert.Error(t, err)

	_, err = NewJSONSource(t.TempDir()).LoadCandles(context.Background(), "test", "EURUSD", common.H1, epoch, epoch.Add(time.Hour))
	assert.ErrorIs(t, err, candle.ErrNoData)
}
