package candle

import (
	"context"
	"sync"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
)

// MemorySource serves candles registered in process, used by tests and synthetic runs.
type MemorySource struct {
	mu      sync.RWMutex
	candles map[key][]common.Candle
}

func NewMemorySource() *MemorySource {
	return &MemorySource{candles: make(map[key][]common.Candle)}
}

func (m *MemorySource) Add(broker, market string, timeframe common.Timeframe, candles ...common.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := newKey(broker, market, timeframe)
	m.candles[k] = append(m.candles[k], candles...)
}

func (m *MemorySource) LoadCandles(_ context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) ([]common.Candle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all, ok := m.candles[newKey(broker, market, timeframe)]
	if !ok {
		return nil, ErrNoData
	}

	var out []common.Candle
	for _, c := range all {
		if !c.OpenTime.Before(from) && c.OpenTime.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}
