// Package bus holds the notification hooks the simulation runner calls synchronously
// on its replay goroutine.
package bus

import (
	"context"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type TradeEventHandler = EventHandler[common.Trade]
type BalanceEventHandler = EventHandler[common.Balance]

// Handlers groups the hooks of one runner. Nil members are skipped.
type Handlers struct {
	TradeOpened    TradeEventHandler
	TradeClosed    TradeEventHandler
	TradeWithdrawn TradeEventHandler
	Balance        BalanceEventHandler
}

func (h Handlers) OnTradeOpened(ctx context.Context, trade common.Trade) {
	dispatch(ctx, h.TradeOpened, trade)
}

func (h Handlers) OnTradeClosed(ctx context.Context, trade common.Trade) {
	dispatch(ctx, h.TradeClosed, trade)
}

func (h Handlers) OnTradeWithdrawn(ctx context.Context, trade common.Trade) {
	dispatch(ctx, h.TradeWithdrawn, trade)
}

func (h Handlers) OnBalance(ctx context.Context, balance common.Balance) {
	dispatch(ctx, h.Balance, balance)
}

func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			if handler != nil {
				handler(ctx, event)
			}
		}
	}
}

func dispatch[T any](ctx context.Context, handler EventHandler[T], event T) {
	if handler != nil {
		handler(ctx, event)
	}
}
