package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/bus"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/data/psql"
)

// Journal persists every terminal trade. Failed writes are logged and do not stop the run.
type Journal struct {
	logger *zap.Logger
	db     psql.Execer
	failed int
}

func NewJournal(logger *zap.Logger, db psql.Execer) *Journal {
	return &Journal{
		logger: logger,
		db:     db,
	}
}

func (j *Journal) Wrap(handlers bus.Handlers) bus.Handlers {
	handlers.TradeClosed = j.WithTerminalTrade(handlers.TradeClosed)
	handlers.TradeWithdrawn = j.WithTerminalTrade(handlers.TradeWithdrawn)
	return handlers
}

func (j *Journal) WithTerminalTrade(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		if err := psql.InsertTrade(ctx, j.db, &trade); err != nil {
			j.failed++
			j.logger.Warn("unable to journal trade", zap.String("id", trade.Id.String()), zap.Error(err))
		}
		call(ctx, handler, trade)
	}
}

func (j *Journal) Failed() int {
	return j.failed
}
