package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var ErrInvalidCandle = errors.New("invalid candle")

// Candle is a bid/ask snapshot of one market over [OpenTime, CloseTime).
type Candle struct {
	OpenTime   time.Time   `json:"open_time"`
	CloseTime  time.Time   `json:"close_time"`
	OpenBid    fixed.Point `json:"open_bid"`
	OpenAsk    fixed.Point `json:"open_ask"`
	HighBid    fixed.Point `json:"high_bid"`
	HighAsk    fixed.Point `json:"high_ask"`
	LowBid     fixed.Point `json:"low_bid"`
	LowAsk     fixed.Point `json:"low_ask"`
	CloseBid   fixed.Point `json:"close_bid"`
	CloseAsk   fixed.Point `json:"close_ask"`
	Volume     fixed.Point `json:"volume"`
	IsComplete bool        `json:"complete"`
}

// OpenTimeKey and CloseTimeKey are the search keys used over candle series.
func OpenTimeKey(c Candle) int64  { return c.OpenTime.UnixNano() }
func CloseTimeKey(c Candle) int64 { return c.CloseTime.UnixNano() }

func (c Candle) Validate() error {
	var errs []error

	if !c.OpenTime.Before(c.CloseTime) {
		errs = append(errs, fmt.Errorf("open time %s is not before close time %s", c.OpenTime, c.CloseTime))
	}
	if err := validateSide("bid", c.OpenBid, c.HighBid, c.LowBid, c.CloseBid); err != nil {
		errs = append(errs, err)
	}
	if err := validateSide("ask", c.OpenAsk, c.HighAsk, c.LowAsk, c.CloseAsk); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCandle, errors.Join(errs...))
	}
	return nil
}

// Inverted maps every price to its reciprocal. High and low swap places, and so do
// bid and ask, so the result keeps Low <= Open, Close <= High.
func (c Candle) Inverted() Candle {
	return Candle{
		OpenTime:   c.OpenTime,
		CloseTime:  c.CloseTime,
		OpenBid:    c.OpenAsk.Inv(),
		OpenAsk:    c.OpenBid.Inv(),
		HighBid:    c.LowAsk.Inv(),
		HighAsk:    c.LowBid.Inv(),
		LowBid:     c.HighAsk.Inv(),
		LowAsk:     c.HighBid.Inv(),
		CloseBid:   c.CloseAsk.Inv(),
		CloseAsk:   c.CloseBid.Inv(),
		Volume:     c.Volume,
		IsComplete: c.IsComplete,
	}
}

func validateSide(side string, open, high, low, close fixed.Point) error {
	if low.Gt(high) {
		return fmt.Errorf("%s low %s above high %s", side, low, high)
	}
	if open.Lt(low) || open.Gt(high) {
		return fmt.Errorf("%s open %s outside [%s, %s]", side, open, low, high)
	}
	if close.Lt(low) || close.Gt(high) {
		return fmt.Errorf("%s close %s outside [%s, %s]", side, close, low, high)
	}
	if !low.IsPos() {
		return fmt.Errorf("%s low %s is not positive", side, low)
	}
	return nil
}
