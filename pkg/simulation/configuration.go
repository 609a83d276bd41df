package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

type Configuration struct {
	Broker         string
	From           time.Time
	To             time.Time
	InitialBalance fixed.Point
	// FeeRate is charged on both legs of every trade, e.g. 0.001 for 0.1%.
	FeeRate fixed.Point
	// SnapshotInterval is the minimum spacing of account samples taken for the report.
	SnapshotInterval time.Duration
}

func (c Configuration) Validate() error {
	var errs []error

	if c.Broker == "" {
		errs = append(errs, errors.New("broker is empty"))
	}
	if !c.From.Before(c.To) {
		errs = append(errs, fmt.Errorf("window start %s is not before end %s", c.From, c.To))
	}
	if !c.InitialBalance.IsPos() {
		errs = append(errs, fmt.Errorf("initial balance %s is not positive", c.InitialBalance))
	}
	if c.FeeRate.IsNeg() || c.FeeRate.Gte(fixed.One) {
		errs = append(errs, fmt.Errorf("fee rate %s outside [0, 1)", c.FeeRate))
	}
	if c.SnapshotInterval < 0 {
		errs = append(errs, fmt.Errorf("snapshot interval %s is negative", c.SnapshotInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(errs...))
	}
	return nil
}
