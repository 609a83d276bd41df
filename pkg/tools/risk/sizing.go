// Package risk turns an account balance and a stop distance into order sizes and exit levels.
package risk

import (
	"errors"
	"fmt"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/tools/store"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var (
	ErrZeroStopDistance = errors.New("stop distance is zero")
	ErrBelowMinLot      = errors.New("size is below minimum lot size")
)

type Configuration struct {
	// RiskPercent of the balance lost when the stop is hit, e.g. 1 for 1%.
	RiskPercent fixed.Point
	// MaxPercent caps the notional of one trade relative to the balance, zero means no cap.
	MaxPercent fixed.Point
}

func (c Configuration) Validate() error {
	var errs []error
	if !c.RiskPercent.IsPos() || c.RiskPercent.Gt(fixed.Hundred) {
		errs = append(errs, fmt.Errorf("risk percent %s outside (0, 100]", c.RiskPercent))
	}
	if c.MaxPercent.IsNeg() {
		errs = append(errs, fmt.Errorf("max percent %s is negative", c.MaxPercent))
	}
	return errors.Join(errs...)
}

// Sizer computes the quantity risking a fixed share of the balance between entry and stop.
type Sizer struct {
	configuration Configuration
	markets       *store.MarketStore
}

func NewSizer(configuration Configuration, markets *store.MarketStore) (*Sizer, error) {
	if err := configuration.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk configuration: %w", err)
	}
	return &Sizer{
		configuration: configuration,
		markets:       markets,
	}, nil
}

// Quantity rounds down to the market's lot step and fails when that drops below the minimum lot.
func (s *Sizer) Quantity(broker, market string, balance, entry, stop fixed.Point) (fixed.Point, error) {
	distance := entry.Sub(stop).Abs()
	if distance.IsZero() {
		return fixed.Zero, ErrZeroStopDistance
	}

	info, err := s.markets.Get(broker, market)
	if err != nil {
		return fixed.Zero, err
	}

	quantity := balance.Mul(s.configuration.RiskPercent).DivInt(100).Div(distance)

	if s.configuration.MaxPercent.IsPos() {
		maxQuantity := balance.Mul(s.configuration.MaxPercent).DivInt(100).Div(entry)
		quantity = quantity.Min(maxQuantity)
	}

	if info.LotStep.IsPos() {
		steps := quantity.Div(info.LotStep).Rescale(0)
		if steps.Gt(quantity.Div(info.LotStep)) {
			steps = steps.Sub(fixed.One)
		}
		quantity = steps.Mul(info.LotStep)
	}

	if quantity.Lt(info.MinLotSize) || !quantity.IsPos() {
		return fixed.Zero, fmt.Errorf("%s quantity %s: %w", market, quantity, ErrBelowMinLot)
	}
	return quantity, nil
}

// StopFromAtr places the stop multiplier ATRs behind the entry.
func StopFromAtr(direction common.Direction, entry, atr, multiplier fixed.Point) fixed.Point {
	offset := atr.Mul(multiplier)
	if direction == common.Long {
		return entry.Sub(offset)
	}
	return entry.Add(offset)
}

// LimitFromRiskReward places the limit ratio times the stop distance in front of the entry.
func LimitFromRiskReward(direction common.Direction, entry, stop, ratio fixed.Point) fixed.Point {
	reward := entry.Sub(stop).Abs().Mul(ratio)
	if direction == common.Long {
		return entry.Add(reward)
	}
	return entry.Sub(reward)
}
