package synthetic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
)

// Source generates candles for registered markets. The random stream is seeded from
// the seed and the market name, so the same request always yields the same candles.
type Source struct {
	seed   int64
	anchor time.Time

	mu      sync.RWMutex
	markets map[string]Parameters
}

// NewSource anchors every generated series at anchor, so windows starting later are
// slices of the same path.
func NewSource(seed int64, anchor time.Time) *Source {
	return &Source{
		seed:    seed,
		anchor:  anchor,
		markets: make(map[string]Parameters),
	}
}

func (s *Source) Register(market string, params Parameters) {
	s.mu.Lock()
	s.markets[strings.ToUpper(market)] = params
	s.mu.Unlock()
}

func (s *Source) LoadCandles(ctx context.Context, _, market string, timeframe common.Timeframe, from, to time.Time) ([]common.Candle, error) {
	s.mu.RLock()
	params, ok := s.markets[strings.ToUpper(market)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("synthetic %s: %w", market, candle.ErrNoData)
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToUpper(market) + "/" + timeframe.String()))
	rng := rand.New(rand.NewSource(s.seed ^ int64(h.Sum64()))) // #nosec G404

	gen := NewCandleGenerator(params, rng, timeframe, s.anchor)

	var candles []common.Candle
	for i := 0; ; i++ {
		if i%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c := gen.Next()
		if !c.OpenTime.Before(to) {
			break
		}
		if !c.OpenTime.Before(from) {
			candles = append(candles, c)
		}
	}

	return candles, nil
}
