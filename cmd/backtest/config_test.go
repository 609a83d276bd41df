package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/middleware"
)

func TestLoadConfig_Flags(t *testing.T) {
	cfg, err := loadConfig([]string{
		"-env", "does-not-exist.env",
		"-source", "json",
		"-data", "/tmp/candles",
		"-markets", "EURUSD, ETH/BTC",
		"-timeframes", "M5,H1",
		"-from", "2024-02-01",
		"-monitor", "opened,balance",
		"-fee", "0.001",
	})
	require.NoError(t, err)

	assert.Equal(t, []common.Subscription{
		{Market: "EURUSD", Timeframe: common.M5},
		{Market: "ETH/BTC", Timeframe: common.H1},
	}, cfg.Subscriptions())
	assert.Equal(t, "0.001", cfg.FeeRate.String())
	assert.Equal(t, middleware.MonitorTradesOpened|middleware.MonitorBalance, cfg.Monitor)
	assert.Equal(t, 2024, cfg.From.Year())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("BACKTEST_MARKETS", "USDJPY")
	t.Setenv("BACKTEST_WORKERS", "2")

	cfg, err := loadConfig([]string{"-env", "does-not-exist.env"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USDJPY"}, cfg.Markets)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig([]string{"-env", "none", "-source", "csv", "-timeframes", "M7", "-balance", "lots"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnknownTimeframe)

	_, err = loadConfig([]string{"-env", "none", "-source", "binary"})
	assert.ErrorContains(t, err, "needs a data path")

	_, err = loadConfig([]string{"-env", "none", "-markets", "A,B,C", "-timeframes", "M1,M5"})
	assert.ErrorContains(t, err, "2 timeframes for 3 markets")
}
