package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/bus"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
)

type MonitorFlags uint16

const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorTradesOpened
	MonitorTradesClosed
	MonitorTradesWithdrawn
	MonitorBalance
)

// Monitor logs runner notifications before passing them on.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) Wrap(handlers bus.Handlers) bus.Handlers {
	return bus.Handlers{
		TradeOpened:    m.WithTradeOpened(handlers.TradeOpened),
		TradeClosed:    m.WithTradeClosed(handlers.TradeClosed),
		TradeWithdrawn: m.WithTradeWithdrawn(handlers.TradeWithdrawn),
		Balance:        m.WithBalance(handlers.Balance),
	}
}

func (m *Monitor) WithTradeOpened(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		if m.enabled(MonitorTradesOpened) {
			entry, _ := trade.Entry()
			m.logger.Info("trade opened",
				zap.String("id", trade.Id.String()),
				zap.String("market", trade.Market),
				zap.String("direction", trade.Direction.String()),
				zap.String("price", entry.Price.String()),
				zap.String("quantity", entry.Quantity.String()),
				zap.Time("time", entry.Time))
		}
		call(ctx, handler, trade)
	}
}

func (m *Monitor) WithTradeClosed(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		if m.enabled(MonitorTradesClosed) {
			exit, _ := trade.Exit()
			m.logger.Info("trade closed",
				zap.String("id", trade.Id.String()),
				zap.String("market", trade.Market),
				zap.String("reason", exit.Reason.String()),
				zap.String("price", exit.Price.String()),
				zap.String("net_profit", trade.NetProfitLoss().String()),
				zap.Time("time", exit.Time))
		}
		call(ctx, handler, trade)
	}
}

func (m *Monitor) WithTradeWithdrawn(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		if m.enabled(MonitorTradesWithdrawn) {
			exit, _ := trade.Exit()
			m.logger.Info("order withdrawn",
				zap.String("id", trade.Id.String()),
				zap.String("market", trade.Market),
				zap.String("reason", exit.Reason.String()),
				zap.Time("time", exit.Time))
		}
		call(ctx, handler, trade)
	}
}

func (m *Monitor) WithBalance(handler bus.BalanceEventHandler) bus.BalanceEventHandler {
	return func(ctx context.Context, balance common.Balance) {
		if m.enabled(MonitorBalance) {
			m.logger.Info("balance",
				zap.String("value", balance.Value.String()),
				zap.String("total_value", balance.TotalValue.String()),
				zap.Time("time", balance.TimeStamp))
		}
		call(ctx, handler, balance)
	}
}

func (m *Monitor) enabled(flag MonitorFlags) bool {
	return m.flags&flag != 0 || m.flags&MonitorAll != 0
}

func call[T any](ctx context.Context, handler bus.EventHandler[T], event T) {
	if handler != nil {
		handler(ctx, event)
	}
}
