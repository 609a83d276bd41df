package simulation

import (
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

// SimulateTrade advances a trade by one closed candle of its market and reports whether
// the trade changed. Per call at most one transition happens, in this order: exit of an
// open trade (stop before limit), fill of an unfilled order, expiry of an unfilled order.
//
// Exits are checked on the side that closes the position (bid for long, ask for short),
// entries on the side that opens it. Fill and exit times are the candle close time.
func SimulateTrade(trade *common.Trade, c common.Candle) bool {
	if trade.IsTerminal() {
		return false
	}

	if trade.IsOpen() {
		return checkExit(trade, c)
	}

	if trade.IsMarketOrder() {
		if !c.CloseTime.Before(trade.OrderTime) {
			fillMarketOrder(trade, c)
			return true
		}
	} else if c.CloseTime.After(trade.OrderTime) {
		if price, ok := pendingFillPrice(trade, c); ok {
			trade.Fill(price, c.CloseTime)
			return true
		}
	}

	if !trade.Expiry.IsZero() && !c.CloseTime.Before(trade.Expiry) {
		trade.Expire(c.CloseTime)
		return true
	}

	return false
}

func fillMarketOrder(trade *common.Trade, c common.Candle) {
	if trade.Direction == common.Long {
		trade.Fill(c.CloseAsk, c.CloseTime)
	} else {
		trade.Fill(c.CloseBid, c.CloseTime)
	}
}

// checkExit closes at the level, or at the candle extreme when the whole candle is
// already past it.
func checkExit(trade *common.Trade, c common.Candle) bool {
	stop, limit := trade.StopPrice, trade.LimitPrice

	if trade.Direction == common.Long {
		if !stop.IsZero() && c.LowBid.Lte(stop) {
			trade.Close(c.HighBid.Min(stop), c.CloseTime, common.HitStop)
			return true
		}
		if !limit.IsZero() && c.HighBid.Gte(limit) {
			trade.Close(c.LowBid.Max(limit), c.CloseTime, common.HitLimit)
			return true
		}
		return false
	}

	if !stop.IsZero() && c.HighAsk.Gte(stop) {
		trade.Close(c.LowAsk.Max(stop), c.CloseTime, common.HitStop)
		return true
	}
	if !limit.IsZero() && c.LowAsk.Lte(limit) {
		trade.Close(c.HighAsk.Min(limit), c.CloseTime, common.HitLimit)
		return true
	}
	return false
}

// pendingFillPrice fills at the order price when the candle straddles it, and at the
// better candle extreme when the whole candle already moved past it.
func pendingFillPrice(trade *common.Trade, c common.Candle) (fixed.Point, bool) {
	p := trade.OrderPrice

	switch {
	case trade.OrderType == common.OrderTypeLimitEntry && trade.Direction == common.Long:
		if straddles(c.LowAsk, c.HighAsk, p) {
			return p, true
		}
		if c.HighAsk.Lt(p) {
			return c.HighAsk, true
		}
	case trade.OrderType == common.OrderTypeLimitEntry && trade.Direction == common.Short:
		if straddles(c.LowBid, c.HighBid, p) {
			return p, true
		}
		if c.LowBid.Gt(p) {
			return c.LowBid, true
		}
	case trade.OrderType == common.OrderTypeStopEntry && trade.Direction == common.Long:
		if straddles(c.LowAsk, c.HighAsk, p) {
			return p, true
		}
		if c.LowAsk.Gt(p) {
			return c.LowAsk, true
		}
	case trade.OrderType == common.OrderTypeStopEntry && trade.Direction == common.Short:
		if straddles(c.LowBid, c.HighBid, p) {
			return p, true
		}
		if c.HighBid.Lt(p) {
			return c.HighBid, true
		}
	}

	return fixed.Zero, false
}

func straddles(low, high, p fixed.Point) bool {
	return low.Lte(p) && high.Gte(p)
}
