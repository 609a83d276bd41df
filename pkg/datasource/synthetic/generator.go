package synthetic

import (
	"math"
	"math/rand"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

const (
	secondsPerYear = 365.25 * 24 * 3600
	stepsPerCandle = 16
)

// Parameters describe a geometric brownian motion of the mid price with a constant spread.
type Parameters struct {
	StartPrice  float64
	Spread      float64
	Mu          float64
	Sigma       float64
	PriceDigits int
	AvgVolume   float64
}

// EURUSD resembles the euro dollar pair: 0.3 pip spread, 5 digit quotes.
func EURUSD(mu, sigma float64) Parameters {
	return Parameters{
		StartPrice:  1.0550,
		Spread:      0.00003,
		Mu:          mu,
		Sigma:       sigma,
		PriceDigits: 5,
		AvgVolume:   100,
	}
}

// CandleGenerator produces consecutive complete candles of one timeframe.
type CandleGenerator struct {
	params    Parameters
	rng       *rand.Rand
	period    time.Duration
	lastTime  time.Time
	lastPrice float64

	drift     float64
	diffusion float64
}

func NewCandleGenerator(params Parameters, rng *rand.Rand, timeframe common.Timeframe, start time.Time) *CandleGenerator {
	period := timeframe.Duration()
	deltaT := period.Seconds() / stepsPerCandle / secondsPerYear

	return &CandleGenerator{
		params:    params,
		rng:       rng,
		period:    period,
		lastTime:  start,
		lastPrice: params.StartPrice,
		drift:     (params.Mu - 0.5*params.Sigma*params.Sigma) * deltaT,
		diffusion: params.Sigma * math.Sqrt(deltaT),
	}
}

func (g *CandleGenerator) Next() common.Candle {
	open := g.lastPrice
	high, low := open, open

	price := open
	for i := 0; i < stepsPerCandle; i++ {
		price *= math.Exp(g.drift + g.diffusion*g.rng.NormFloat64())
		high = math.Max(high, price)
		low = math.Min(low, price)
	}
	g.lastPrice = price

	half := g.params.Spread / 2
	volume := g.params.AvgVolume * math.Exp(0.5*g.rng.NormFloat64())

	c := common.Candle{
		OpenTime:   g.lastTime,
		CloseTime:  g.lastTime.Add(g.period),
		OpenBid:    g.quote(open - half),
		OpenAsk:    g.quote(open + half),
		HighBid:    g.quote(high - half),
		HighAsk:    g.quote(high + half),
		LowBid:     g.quote(low - half),
		LowAsk:     g.quote(low + half),
		CloseBid:   g.quote(price - half),
		CloseAsk:   g.quote(price + half),
		Volume:     fixed.FromFloat64(volume).Rescale(2),
		IsComplete: true,
	}
	g.lastTime = c.CloseTime

	return c
}

func (g *CandleGenerator) quote(v float64) fixed.Point {
	return fixed.FromFloat64(v).Rescale(g.params.PriceDigits)
}
