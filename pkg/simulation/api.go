package simulation

import (
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/tools/store"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

// OrderRequest is what a strategy asks for. Exactly one of Quantity and Notional is set;
// zero Stop, Limit and Expiry mean none.
type OrderRequest struct {
	Market    string
	Direction common.Direction
	// Price is the entry level of a pending order, ignored by MarketOrder.
	Price fixed.Point
	// Type of a pending order. Left as OrderTypeMarket it is inferred from the current price.
	Type     common.OrderType
	Quantity fixed.Point
	Notional fixed.Point
	Stop     fixed.Point
	Limit    fixed.Point
	Expiry   time.Time
}

// Api is the surface a strategy acts through during OnCandles. Trades are returned as
// snapshots; changing them has no effect on the simulation.
type Api interface {
	MarketOrder(req OrderRequest) (common.Trade, error)
	PlaceOrder(req OrderRequest) (common.Trade, error)
	CloseTrade(id utility.TradeID) error
	CancelOrder(id utility.TradeID) error
	UpdateStop(id utility.TradeID, price fixed.Point) error
	UpdateLimit(id utility.TradeID, price fixed.Point) error

	Balance() fixed.Point
	TotalValue() fixed.Point
	Trades() []common.Trade
	OpenTrades() []common.Trade
	PendingTrades() []common.Trade

	// Candles returns the closed candles of a subscription seen so far, oldest first.
	Candles(sub common.Subscription) []common.Candle
	Time() time.Time
	MarketInfo(market string) (store.MarketInfo, error)
}

type Strategy interface {
	Subscriptions() []common.Subscription
	OnCandles(api Api, advanced []common.Subscription)
}

// Initializer is implemented by strategies that act before the first candle.
type Initializer interface {
	Init(api Api) error
}
