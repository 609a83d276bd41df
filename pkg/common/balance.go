package common

import (
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/utility"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

// Balance reports the account after a realized change.
type Balance struct {
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
	Value       fixed.Point         `json:"value"`
	TotalValue  fixed.Point         `json:"total_value"`
}
