package utility

import (
	"sync"

	"github.com/google/uuid"
)

// ExecutionID identifies one backtest run. Every trade and journal row written by the
// run carries it.
type ExecutionID = uuid.UUID

type TradeID = uuid.UUID

var (
	executionID   ExecutionID
	executionOnce sync.Once
	executionMu   sync.RWMutex
)

func GetExecutionID() ExecutionID {
	executionOnce.Do(func() {
		executionMu.Lock()
		executionID = uuid.Must(uuid.NewV7())
		executionMu.Unlock()
	})

	executionMu.RLock()
	defer executionMu.RUnlock()
	return executionID
}

// ResetExecutionID starts a new run identity, used when one process replays several sessions.
func ResetExecutionID() ExecutionID {
	GetExecutionID()

	executionMu.Lock()
	defer executionMu.Unlock()
	executionID = uuid.Must(uuid.NewV7())
	return executionID
}

// NewTradeID returns a time ordered id, so sorting ids sorts trades by creation.
func NewTradeID() TradeID {
	return uuid.Must(uuid.NewV7())
}
