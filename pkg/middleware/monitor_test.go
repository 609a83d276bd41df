package middleware

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Hallupa/CommonCode-sub001/pkg/bus"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

func closedTrade(t *testing.T) common.Trade {
	trade, err := common.NewTrade(common.Order{
		Market:   "EURUSD",
		Type:     common.OrderTypeMarket,
		Time:     time.Unix(0, 0),
		Quantity: fixed.One,
	})
	require.NoError(t, err)
	trade.Fill(fixed.One, time.Unix(1, 0))
	trade.Close(fixed.Two, time.Unix(2, 0), common.HitLimit)
	return *trade
}

func TestMonitor_LogsEnabledEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewMonitor(zap.New(core), MonitorTradesClosed)

	var called int
	handlers := m.Wrap(bus.Handlers{
		TradeClosed: func(context.Context, common.Trade) { called++ },
	})

	handlers.OnTradeClosed(context.Background(), closedTrade(t))
	handlers.OnBalance(context.Background(), common.Balance{})

	assert.Equal(t, 1, called)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "trade closed", entry.Message)
	assert.Equal(t, "hit_limit", entry.ContextMap()["reason"])
}

func TestMonitor_All(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handlers := NewMonitor(zap.New(core), MonitorAll).Wrap(bus.Handlers{})

	handlers.OnTradeClosed(context.Background(), closedTrade(t))
	handlers.OnBalance(context.Background(), common.Balance{Value: fixed.One})

	assert.Equal(t, 2, logs.Len())
}

type failingExecer struct {
	calls int
}

func (f *failingExecer) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestJournal_WritesTerminalTrades(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	db := &failingExecer{}
	j := NewJournal(zap.New(core), db)

	var passed int
	handlers := j.Wrap(bus.Handlers{
		TradeClosed: func(context.Context, common.Trade) { passed++ },
	})
	handlers.OnTradeClosed(context.Background(), closedTrade(t))

	assert.Equal(t, 1, db.calls)
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, j.Failed())
	assert.Equal(t, 1, logs.Len())
}
