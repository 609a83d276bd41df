package psql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var ErrTradeNotTerminal = errors.New("trade is not terminal")

const CreateTradesTable = `
CREATE TABLE IF NOT EXISTS backtest_trades (
	trade_id      UUID PRIMARY KEY,
	execution_id  UUID NOT NULL,
	broker        TEXT NOT NULL,
	market        TEXT NOT NULL,
	direction     TEXT NOT NULL,
	order_type    TEXT NOT NULL,
	order_price   NUMERIC,
	order_time    TIMESTAMPTZ NOT NULL,
	entry_price   NUMERIC,
	entry_time    TIMESTAMPTZ,
	quantity      NUMERIC,
	exit_price    NUMERIC,
	exit_time     TIMESTAMPTZ NOT NULL,
	close_reason  TEXT NOT NULL,
	initial_stop  NUMERIC,
	initial_limit NUMERIC,
	net_profit    NUMERIC NOT NULL
);`

func Connect(ctx context.Context, connStr string) (*sql.DB, error) {
	dbConn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to open postgres connection: %w", err)
	}

	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("unable to reach postgres: %w", err)
	}

	return dbConn, nil
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func CreateSchema(ctx context.Context, db Execer) error {
	if _, err := db.ExecContext(ctx, CreateTradesTable); err != nil {
		return fmt.Errorf("unable to create trades table: %w", err)
	}
	return nil
}

// InsertTrade journals a terminal trade. Rows are keyed by trade id, re-inserts are ignored.
func InsertTrade(ctx context.Context, db Execer, trade *common.Trade) error {
	exit, ok := trade.Exit()
	if !ok {
		return fmt.Errorf("trade %s: %w", trade.Id, ErrTradeNotTerminal)
	}

	query := `
	INSERT INTO backtest_trades (
		trade_id, execution_id, broker, market, direction, order_type, order_price, order_time,
		entry_price, entry_time, quantity, exit_price, exit_time, close_reason,
		initial_stop, initial_limit, net_profit
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (trade_id) DO NOTHING;
	`

	var entryPrice, entryTime, quantity, exitPrice any
	if entry, ok := trade.Entry(); ok {
		entryPrice = entry.Price.String()
		entryTime = entry.Time
		quantity = entry.Quantity.String()
		exitPrice = exit.Price.String()
	}

	_, err := db.ExecContext(
		ctx,
		query,
		trade.Id.String(),
		trade.ExecutionID.String(),
		trade.Broker,
		trade.Market,
		trade.Direction.String(),
		trade.OrderType.String(),
		nullable(trade.OrderPrice),
		trade.OrderTime,
		entryPrice,
		entryTime,
		quantity,
		exitPrice,
		exit.Time,
		exit.Reason.String(),
		nullable(trade.InitialStop),
		nullable(trade.InitialLimit),
		trade.NetProfitLoss().String(),
	)
	if err != nil {
		return fmt.Errorf("unable to insert trade %s: %w", trade.Id, err)
	}
	return nil
}

func nullable(p fixed.Point) any {
	if p.IsZero() {
		return nil
	}
	return p.String()
}
