// Package indicators holds candle indicators written as pure folds: each step takes the
// previous state and one candle and returns the next state, so the replay can keep them
// in value fields and rewind by keeping an old state.
package indicators

import (
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

// Atr is the Wilder smoothed average true range of the bid prices.
type Atr struct {
	Window    int
	Count     int
	LastClose fixed.Point
	TrueRange fixed.Point
	Value     fixed.Point
}

func NewAtr(window int) Atr {
	return Atr{Window: window}
}

// Ready reports whether a full window of true ranges went into the value.
func (a Atr) Ready() bool {
	return a.Count >= a.Window
}

// Next folds one candle into the state. The first candle only seeds the previous close.
func (a Atr) Next(c common.Candle) Atr {
	next := a
	next.LastClose = c.CloseBid

	if a.LastClose.IsZero() {
		return next
	}

	next.TrueRange = trueRange(a.LastClose, c.HighBid, c.LowBid)
	next.Count = a.Count + 1

	if a.Count == 0 {
		next.Value = next.TrueRange
	} else {
		window := a.Window
		if next.Count < window {
			window = next.Count
		}
		next.Value = a.Value.MulInt(window - 1).Add(next.TrueRange).DivInt(window)
	}

	return next
}

// Fold runs the candles through a fresh state.
func FoldAtr(window int, candles []common.Candle) Atr {
	state := NewAtr(window)
	for _, c := range candles {
		state = state.Next(c)
	}
	return state
}

func trueRange(lastClose, high, low fixed.Point) fixed.Point {
	tr := high.Sub(low).Abs()
	tr = tr.Max(high.Sub(lastClose).Abs())
	return tr.Max(low.Sub(lastClose).Abs())
}
