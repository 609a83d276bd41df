package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/utility"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var ErrInvalidOrder = errors.New("invalid order")

type Direction int

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimitEntry
	OrderTypeStopEntry
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimitEntry:
		return "limit"
	case OrderTypeStopEntry:
		return "stop"
	}
	return "market"
}

type CloseReason int

const (
	CloseReasonNone CloseReason = iota
	HitStop
	HitLimit
	Expired
	ManualClose
	Cancelled
)

func (r CloseReason) String() string {
	switch r {
	case HitStop:
		return "hit_stop"
	case HitLimit:
		return "hit_limit"
	case Expired:
		return "expired"
	case ManualClose:
		return "manual_close"
	case Cancelled:
		return "cancelled"
	}
	return "none"
}

type TradeStatus int

const (
	TradeStatusPending TradeStatus = iota
	TradeStatusOpen
	TradeStatusClosed
	TradeStatusExpired
	TradeStatusCancelled
)

func (s TradeStatus) String() string {
	switch s {
	case TradeStatusOpen:
		return "open"
	case TradeStatusClosed:
		return "closed"
	case TradeStatusExpired:
		return "expired"
	case TradeStatusCancelled:
		return "cancelled"
	}
	return "pending"
}

// Order is the request a strategy submits. A zero Price makes it a market order.
// Exactly one of Quantity and Notional must be set.
type Order struct {
	Broker    string
	Market    string
	Direction Direction
	Type      OrderType
	Price     fixed.Point
	Time      time.Time
	Expiry    time.Time
	Quantity  fixed.Point
	Notional  fixed.Point
	Stop      fixed.Point
	Limit     fixed.Point
	FeeRate   fixed.Point
}

func (o Order) Validate() error {
	var errs []error

	if o.Market == "" {
		errs = append(errs, errors.New("market is empty"))
	}
	if o.Quantity.IsZero() == o.Notional.IsZero() {
		errs = append(errs, errors.New("exactly one of quantity and notional must be set"))
	}
	if o.Quantity.IsNeg() || o.Notional.IsNeg() {
		errs = append(errs, errors.New("size must be positive"))
	}
	if o.Price.IsNeg() || o.Stop.IsNeg() || o.Limit.IsNeg() {
		errs = append(errs, errors.New("prices must not be negative"))
	}
	if o.FeeRate.IsNeg() || o.FeeRate.Gte(fixed.One) {
		errs = append(errs, fmt.Errorf("fee rate %s outside [0, 1)", o.FeeRate))
	}
	if o.Price.IsZero() && o.Type != OrderTypeMarket {
		errs = append(errs, fmt.Errorf("%s order without price", o.Type))
	}
	if !o.Price.IsZero() && o.Type == OrderTypeMarket {
		errs = append(errs, errors.New("market order with price"))
	}
	if !o.Expiry.IsZero() && !o.Expiry.After(o.Time) {
		errs = append(errs, fmt.Errorf("expiry %s not after order time %s", o.Expiry, o.Time))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, errors.Join(errs...))
	}
	return nil
}

type Entry struct {
	Price    fixed.Point
	Time     time.Time
	Quantity fixed.Point
}

type Exit struct {
	Price  fixed.Point
	Time   time.Time
	Reason CloseReason
}

// Trade follows one order through Pending, Open and Closed (or Expired, Cancelled).
// Entry and exit are written once through Fill, Close, Expire and Cancel; a second
// write is a programming error and panics. Zero StopPrice or LimitPrice means unset.
type Trade struct {
	Id          utility.TradeID
	ExecutionID utility.ExecutionID
	Broker      string
	Market      string
	Direction   Direction
	OrderType   OrderType
	OrderPrice  fixed.Point
	OrderTime   time.Time
	Expiry      time.Time
	Quantity    fixed.Point
	Notional    fixed.Point
	FeeRate     fixed.Point

	StopPrice    fixed.Point
	LimitPrice   fixed.Point
	InitialStop  fixed.Point
	InitialLimit fixed.Point

	entry         *Entry
	exit          *Exit
	netProfitLoss fixed.Point
}

func NewTrade(order Order) (*Trade, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return &Trade{
		Id:          utility.NewTradeID(),
		ExecutionID: utility.GetExecutionID(),
		Broker:      order.Broker,
		Market:      order.Market,
		Direction:   order.Direction,
		OrderType:   order.Type,
		OrderPrice:  order.Price,
		OrderTime:   order.Time,
		Expiry:      order.Expiry,
		Quantity:    order.Quantity,
		Notional:    order.Notional,
		FeeRate:     order.FeeRate,
		StopPrice:   order.Stop,
		LimitPrice:  order.Limit,
	}, nil
}

func (t *Trade) IsMarketOrder() bool { return t.OrderPrice.IsZero() }
func (t *Trade) IsTerminal() bool    { return t.exit != nil }
func (t *Trade) IsOpen() bool        { return t.entry != nil && t.exit == nil }
func (t *Trade) IsPending() bool     { return t.entry == nil && t.exit == nil }

func (t *Trade) Status() TradeStatus {
	switch {
	case t.exit != nil && t.exit.Reason == Expired:
		return TradeStatusExpired
	case t.exit != nil && t.exit.Reason == Cancelled:
		return TradeStatusCancelled
	case t.exit != nil:
		return TradeStatusClosed
	case t.entry != nil:
		return TradeStatusOpen
	}
	return TradeStatusPending
}

func (t *Trade) Entry() (Entry, bool) {
	if t.entry == nil {
		return Entry{}, false
	}
	return *t.entry, true
}

func (t *Trade) Exit() (Exit, bool) {
	if t.exit == nil {
		return Exit{}, false
	}
	return *t.exit, true
}

// NetProfitLoss is zero until the trade is closed.
func (t *Trade) NetProfitLoss() fixed.Point { return t.netProfitLoss }

// Fill opens the trade. The quantity is the requested one, or notional / price.
func (t *Trade) Fill(price fixed.Point, at time.Time) {
	if t.entry != nil || t.exit != nil {
		panic(fmt.Sprintf("trade %s: fill in state %s", t.Id, t.Status()))
	}

	quantity := t.Quantity
	if quantity.IsZero() {
		quantity = t.Notional.Div(price)
	}

	t.entry = &Entry{Price: price, Time: at, Quantity: quantity}
	t.InitialStop = t.StopPrice
	t.InitialLimit = t.LimitPrice
}

// Close exits an open trade and realizes its profit or loss.
func (t *Trade) Close(price fixed.Point, at time.Time, reason CloseReason) {
	if t.entry == nil || t.exit != nil {
		panic(fmt.Sprintf("trade %s: close in state %s", t.Id, t.Status()))
	}
	if reason == CloseReasonNone || reason == Expired || reason == Cancelled {
		panic(fmt.Sprintf("trade %s: close with reason %s", t.Id, reason))
	}

	t.exit = &Exit{Price: price, Time: at, Reason: reason}
	t.netProfitLoss = t.ProfitLossAt(price)
}

// Expire withdraws a pending order whose expiry passed.
func (t *Trade) Expire(at time.Time) {
	t.withdraw(at, Expired)
}

// Cancel withdraws a pending order on request.
func (t *Trade) Cancel(at time.Time) {
	t.withdraw(at, Cancelled)
}

func (t *Trade) withdraw(at time.Time, reason CloseReason) {
	if t.entry != nil || t.exit != nil {
		panic(fmt.Sprintf("trade %s: %s in state %s", t.Id, reason, t.Status()))
	}
	t.exit = &Exit{Time: at, Reason: reason}
}

func (t *Trade) SetStop(price fixed.Point) {
	if t.exit != nil {
		panic(fmt.Sprintf("trade %s: stop update in state %s", t.Id, t.Status()))
	}
	t.StopPrice = price
}

func (t *Trade) SetLimit(price fixed.Point) {
	if t.exit != nil {
		panic(fmt.Sprintf("trade %s: limit update in state %s", t.Id, t.Status()))
	}
	t.LimitPrice = price
}

// ProfitLossAt marks an open trade at the given exit price, fees included on both legs.
// Pending and withdrawn trades have none.
func (t *Trade) ProfitLossAt(price fixed.Point) fixed.Point {
	if t.entry == nil {
		return fixed.Zero
	}

	q := t.entry.Quantity
	buyFee := fixed.One.Add(t.FeeRate)
	sellFee := fixed.One.Sub(t.FeeRate)

	if t.Direction == Long {
		return q.Mul(price).Mul(sellFee).Sub(q.Mul(t.entry.Price).Mul(buyFee))
	}
	return q.Mul(t.entry.Price).Mul(sellFee).Sub(q.Mul(price).Mul(buyFee))
}

func (t *Trade) String() string {
	return fmt.Sprintf("%s %s %s %s", t.Id, t.Market, t.Direction, t.Status())
}
