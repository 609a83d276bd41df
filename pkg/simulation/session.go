package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/tools/store"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

type cursor struct {
	sub       common.Subscription
	series    *candle.Series
	next      int
	execution bool
}

func (c *cursor) done() bool { return c.next >= c.series.Len() }

// session is the state of one run and the Api handed to the strategy.
type session struct {
	ctx     context.Context
	runner  *Runner
	cursors []*cursor
	audit   *Audit

	now      time.Time
	ticks    int
	realized fixed.Point
	history  map[common.Subscription][]common.Candle
	latest   map[string]common.Candle
	// markets holding an execution cursor, the only ones trades can be placed on
	markets map[string]struct{}

	trades []*common.Trade
	active []*common.Trade
	byId   map[utility.TradeID]*common.Trade
}

func newSession(ctx context.Context, runner *Runner, cursors []*cursor) *session {
	markets := make(map[string]struct{})
	for _, c := range cursors {
		if c.execution {
			markets[c.sub.Market] = struct{}{}
		}
	}

	return &session{
		ctx:      ctx,
		runner:   runner,
		cursors:  cursors,
		audit:    NewAudit(runner.configuration.SnapshotInterval),
		realized: fixed.Zero,
		history:  make(map[common.Subscription][]common.Candle, len(cursors)),
		latest:   make(map[string]common.Candle),
		markets:  markets,
		byId:     make(map[utility.TradeID]*common.Trade),
	}
}

// advance moves every cursor whose next candle closes at the earliest pending close
// time, simulates the trades of markets whose execution candle closed, and samples the
// account. It returns the advanced subscriptions in registration order.
func (s *session) advance() []common.Subscription {
	var next time.Time
	found := false
	for _, c := range s.cursors {
		if c.done() {
			continue
		}
		closeTime := c.series.At(c.next).CloseTime
		if !found || closeTime.Before(next) {
			next, found = closeTime, true
		}
	}
	if !found {
		return nil
	}

	s.now = next
	s.ticks++

	var advanced []*cursor
	for _, c := range s.cursors {
		if !c.done() && c.series.At(c.next).CloseTime.Equal(next) {
			advanced = append(advanced, c)
		}
	}

	for _, c := range advanced {
		if c.execution {
			current := c.series.At(c.next)
			s.latest[c.sub.Market] = current
			s.simulateMarket(c.sub.Market, current)
		}
	}

	subs := make([]common.Subscription, 0, len(advanced))
	for _, c := range advanced {
		s.history[c.sub] = append(s.history[c.sub], c.series.At(c.next))
		c.next++
		subs = append(subs, c.sub)
	}

	s.audit.AddAccountSnapshot(s.Balance(), s.TotalValue(), s.now)

	return subs
}

func (s *session) simulateMarket(market string, c common.Candle) {
	for _, trade := range s.active {
		if trade.Market != market {
			continue
		}
		if SimulateTrade(trade, c) {
			s.publish(trade)
		}
	}
	s.prune()
}

// publish realizes a state change of the trade and notifies the handlers.
func (s *session) publish(trade *common.Trade) {
	handlers := s.runner.handlers

	switch trade.Status() {
	case common.TradeStatusOpen:
		handlers.OnTradeOpened(s.ctx, *trade)
	case common.TradeStatusClosed:
		s.realized = s.realized.Add(trade.NetProfitLoss())
		s.audit.AddTerminalTrade(*trade)
		handlers.OnTradeClosed(s.ctx, *trade)
		handlers.OnBalance(s.ctx, common.Balance{
			ExecutionID: trade.ExecutionID,
			TimeStamp:   s.now,
			Value:       s.Balance(),
			TotalValue:  s.TotalValue(),
		})
	case common.TradeStatusExpired, common.TradeStatusCancelled:
		s.audit.AddTerminalTrade(*trade)
		handlers.OnTradeWithdrawn(s.ctx, *trade)
	}
}

func (s *session) prune() {
	active := s.active[:0]
	for _, trade := range s.active {
		if !trade.IsTerminal() {
			active = append(active, trade)
		}
	}
	clear(s.active[len(active):])
	s.active = active
}

func (s *session) add(trade *common.Trade) {
	s.trades = append(s.trades, trade)
	s.active = append(s.active, trade)
	s.byId[trade.Id] = trade
}

func (s *session) order(req OrderRequest, orderType common.OrderType) common.Order {
	cfg := s.runner.configuration
	return common.Order{
		Broker:    cfg.Broker,
		Market:    req.Market,
		Direction: req.Direction,
		Type:      orderType,
		Price:     req.Price,
		Time:      s.now,
		Expiry:    req.Expiry,
		Quantity:  req.Quantity,
		Notional:  req.Notional,
		Stop:      req.Stop,
		Limit:     req.Limit,
		FeeRate:   cfg.FeeRate,
	}
}

// MarketOrder fills at the close of the market's execution candle when that candle
// closed this tick. Otherwise the order waits for the next one.
func (s *session) MarketOrder(req OrderRequest) (common.Trade, error) {
	if err := s.tradable(req.Market); err != nil {
		return common.Trade{}, err
	}

	req.Price = fixed.Zero
	trade, err := common.NewTrade(s.order(req, common.OrderTypeMarket))
	if err != nil {
		return common.Trade{}, err
	}

	s.add(trade)
	if latest, ok := s.latest[req.Market]; ok && latest.CloseTime.Equal(s.now) {
		fillMarketOrder(trade, latest)
		s.publish(trade)
	}

	return *trade, nil
}

// PlaceOrder registers a pending order. Without an explicit type, a price on the
// favourable side of the current one is a limit entry and anything else a stop entry.
func (s *session) PlaceOrder(req OrderRequest) (common.Trade, error) {
	if req.Price.IsZero() {
		return common.Trade{}, fmt.Errorf("pending order on %s without price: %w", req.Market, common.ErrInvalidOrder)
	}
	if err := s.tradable(req.Market); err != nil {
		return common.Trade{}, err
	}

	orderType := req.Type
	if orderType == common.OrderTypeMarket {
		latest, ok := s.latest[req.Market]
		if !ok {
			return common.Trade{}, fmt.Errorf("%s: %w", req.Market, ErrNoPrice)
		}
		orderType = inferOrderType(req.Direction, req.Price, latest)
	}

	trade, err := common.NewTrade(s.order(req, orderType))
	if err != nil {
		return common.Trade{}, err
	}

	s.add(trade)

	return *trade, nil
}

func (s *session) tradable(market string) error {
	if _, ok := s.markets[market]; !ok {
		return fmt.Errorf("%s is not subscribed: %w", market, ErrNoPrice)
	}
	return nil
}

func inferOrderType(direction common.Direction, price fixed.Point, latest common.Candle) common.OrderType {
	if direction == common.Long {
		if price.Lte(latest.CloseAsk) {
			return common.OrderTypeLimitEntry
		}
		return common.OrderTypeStopEntry
	}
	if price.Gte(latest.CloseBid) {
		return common.OrderTypeLimitEntry
	}
	return common.OrderTypeStopEntry
}

// CloseTrade exits an open trade at the close of its market's latest execution candle.
func (s *session) CloseTrade(id utility.TradeID) error {
	trade, err := s.find(id)
	if err != nil {
		return err
	}
	if !trade.IsOpen() {
		return fmt.Errorf("close %s: %w", trade, ErrInvalidTradeState)
	}

	trade.Close(exitPrice(trade.Direction, s.latest[trade.Market]), s.now, common.ManualClose)
	s.publish(trade)
	s.prune()

	return nil
}

func (s *session) CancelOrder(id utility.TradeID) error {
	trade, err := s.find(id)
	if err != nil {
		return err
	}
	if !trade.IsPending() {
		return fmt.Errorf("cancel %s: %w", trade, ErrInvalidTradeState)
	}

	trade.Cancel(s.now)
	s.publish(trade)
	s.prune()

	return nil
}

func (s *session) UpdateStop(id utility.TradeID, price fixed.Point) error {
	trade, err := s.modifiable(id, price)
	if err != nil {
		return err
	}
	trade.SetStop(price)
	return nil
}

func (s *session) UpdateLimit(id utility.TradeID, price fixed.Point) error {
	trade, err := s.modifiable(id, price)
	if err != nil {
		return err
	}
	trade.SetLimit(price)
	return nil
}

func (s *session) modifiable(id utility.TradeID, price fixed.Point) (*common.Trade, error) {
	trade, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if trade.IsTerminal() {
		return nil, fmt.Errorf("update %s: %w", trade, ErrInvalidTradeState)
	}
	if price.IsNeg() {
		return nil, fmt.Errorf("update %s to %s: %w", trade, price, common.ErrInvalidOrder)
	}
	return trade, nil
}

func (s *session) find(id utility.TradeID) (*common.Trade, error) {
	trade, ok := s.byId[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrTradeNotFound)
	}
	return trade, nil
}

// Balance is the initial balance plus all realized profit and loss.
func (s *session) Balance() fixed.Point {
	return s.runner.configuration.InitialBalance.Add(s.realized)
}

// TotalValue adds the open trades marked at their market's latest close.
func (s *session) TotalValue() fixed.Point {
	value := s.Balance()
	for _, trade := range s.active {
		if !trade.IsOpen() {
			continue
		}
		if latest, ok := s.latest[trade.Market]; ok {
			value = value.Add(trade.ProfitLossAt(exitPrice(trade.Direction, latest)))
		}
	}
	return value
}

func exitPrice(direction common.Direction, c common.Candle) fixed.Point {
	if direction == common.Long {
		return c.CloseBid
	}
	return c.CloseAsk
}

func (s *session) Trades() []common.Trade {
	return s.snapshot(func(*common.Trade) bool { return true })
}

func (s *session) OpenTrades() []common.Trade {
	return s.snapshot((*common.Trade).IsOpen)
}

func (s *session) PendingTrades() []common.Trade {
	return s.snapshot((*common.Trade).IsPending)
}

func (s *session) snapshot(keep func(*common.Trade) bool) []common.Trade {
	var out []common.Trade
	for _, trade := range s.trades {
		if keep(trade) {
			out = append(out, *trade)
		}
	}
	return out
}

func (s *session) Candles(sub common.Subscription) []common.Candle {
	h := s.history[sub]
	return h[:len(h):len(h)]
}

func (s *session) Time() time.Time { return s.now }

func (s *session) MarketInfo(market string) (store.MarketInfo, error) {
	if s.runner.markets == nil {
		return store.MarketInfo{}, ErrNoMarketStore
	}
	return s.runner.markets.Get(s.runner.configuration.Broker, market)
}

func (s *session) result() Result {
	return Result{
		Trades:     s.Trades(),
		Balance:    s.Balance(),
		TotalValue: s.TotalValue(),
		Ticks:      s.ticks,
		Report:     s.audit.GenerateReport(),
	}
}
