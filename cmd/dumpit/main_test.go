package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/datasource/historical"
)

const input = `open_time,open_bid,high_bid,low_bid,close_bid,open_ask,high_ask,low_ask,close_ask,volume
2024-01-02T00:00:00Z,1.1000,1.1010,1.0990,1.1005,1.1001,1.1011,1.0991,1.1006,120
2024-01-02T00:01:00Z,1.1005,1.1008,1.1000,1.1002,1.1006,1.1009,1.1001,1.1003,80
`

func TestReadCandles(t *testing.T) {
	candles, err := readCandles(strings.NewReader(input), common.M1)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, "1.1010", candles[0].HighBid.String())
	assert.Equal(t, "1.1003", candles[1].CloseAsk.String())
	assert.Equal(t, "120", candles[0].Volume.String())
	assert.True(t, candles[0].CloseTime.Equal(candles[1].OpenTime))

	_, err = readCandles(strings.NewReader("header\n2024-01-02T00:00:00Z,1,2\n"), common.M1)
	assert.ErrorContains(t, err, "line 2")
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	csvPath := dir + "/eurusd.csv"
	require.NoError(t, os.WriteFile(csvPath, []byte(input), 0o644))

	require.NoError(t, dump(zap.NewNop(), dir, "sim", "eurusd", common.M1, []string{csvPath}))

	file, err := historical.OpenFile[historical.BinaryCandle](historical.BinaryPath(dir, "sim", "EURUSD", common.M1))
	require.NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	n, err := file.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
