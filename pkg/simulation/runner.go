package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/pkg/bus"
	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/derived"
	"github.com/Hallupa/CommonCode-sub001/pkg/tools/store"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var (
	ErrInvalidConfiguration = errors.New("invalid simulation configuration")
	ErrNoSubscriptions      = errors.New("strategy has no subscriptions")
	ErrSeriesMissing        = errors.New("candle series missing")
	ErrNoPrice              = errors.New("no price for market")
	ErrTradeNotFound        = errors.New("trade not found")
	ErrInvalidTradeState    = errors.New("operation not allowed in trade state")
	ErrNoMarketStore        = errors.New("no market store configured")
)

// derivedSeparator marks subscriptions like "ETH/BTC" that may be synthesized.
const derivedSeparator = "/"

type Result struct {
	Trades     []common.Trade
	Balance    fixed.Point
	TotalValue fixed.Point
	Ticks      int
	Report     Report
}

// Runner replays the candles of a strategy's subscriptions in close time order on a
// single goroutine. Identical inputs produce identical results.
type Runner struct {
	logger        *zap.Logger
	provider      candle.Provider
	configuration Configuration

	synthesizer *derived.Synthesizer
	refresher   *candle.Refresher
	handlers    bus.Handlers
	progress    ProgressFunc
	markets     *store.MarketStore
}

func NewRunner(logger *zap.Logger, provider candle.Provider, configuration Configuration, options ...Option) *Runner {
	r := &Runner{
		logger:        logger,
		provider:      provider,
		configuration: configuration,
	}

	for _, option := range options {
		option(r)
	}

	return r
}

func (r *Runner) Run(ctx context.Context, strategy Strategy) (Result, error) {
	if err := r.configuration.Validate(); err != nil {
		return Result{}, err
	}

	subs, err := uniqueSubscriptions(strategy.Subscriptions())
	if err != nil {
		return Result{}, err
	}

	if r.refresher != nil {
		if err := r.refresher.Refresh(ctx, r.refreshRequests(subs)); err != nil {
			if ctx.Err() != nil {
				return Result{}, err
			}
			r.logger.Warn("candle refresh incomplete", zap.Error(err))
		}
	}

	cursors, err := r.load(ctx, subs)
	if err != nil {
		return Result{}, err
	}

	s := newSession(ctx, r, cursors)
	if initializer, ok := strategy.(Initializer); ok {
		if err := initializer.Init(s); err != nil {
			return Result{}, fmt.Errorf("strategy init failed: %w", err)
		}
	}

	total := 0
	for _, c := range cursors {
		total += c.series.Len()
	}

	start := time.Now()
	r.logger.Info("simulation started",
		zap.Int("subscriptions", len(subs)),
		zap.Int("candles", total),
		zap.Time("from", r.configuration.From),
		zap.Time("to", r.configuration.To))

	done := 0
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("simulation interrupted at %s: %w", s.now, err)
		}

		advanced := s.advance()
		if len(advanced) == 0 {
			break
		}

		strategy.OnCandles(s, advanced)

		done += len(advanced)
		if r.progress != nil {
			r.progress(done, total)
		}
	}

	result := s.result()
	r.logger.Info("simulation finished",
		zap.Int("ticks", result.Ticks),
		zap.Int("trades", len(result.Trades)),
		zap.String("balance", result.Balance.String()),
		zap.String("total_value", result.TotalValue.String()),
		zap.Duration("run_time", time.Since(start)))

	return result, nil
}

func (r *Runner) refreshRequests(subs []common.Subscription) []candle.RefreshRequest {
	var requests []candle.RefreshRequest
	for _, sub := range subs {
		if strings.Contains(sub.Market, derivedSeparator) {
			continue
		}
		requests = append(requests, candle.RefreshRequest{
			Broker:    r.configuration.Broker,
			Market:    sub.Market,
			Timeframe: sub.Timeframe,
			From:      r.configuration.From,
			To:        r.configuration.To,
		})
	}
	return requests
}

// load builds one cursor per subscription over its complete candles and marks the
// smallest timeframe of every market as the one trades are simulated on.
func (r *Runner) load(ctx context.Context, subs []common.Subscription) ([]*cursor, error) {
	cursors := make([]*cursor, 0, len(subs))
	execution := make(map[string]*cursor)

	for _, sub := range subs {
		series, err := r.series(ctx, sub)
		if err != nil {
			return nil, err
		}

		series = series.Complete()
		if series.Len() == 0 {
			return nil, fmt.Errorf("%s has no complete candles in window: %w", sub, ErrSeriesMissing)
		}

		c := &cursor{sub: sub, series: series}
		cursors = append(cursors, c)

		if current, ok := execution[sub.Market]; !ok || sub.Timeframe.Duration() < current.sub.Timeframe.Duration() {
			execution[sub.Market] = c
		}
	}

	for _, c := range execution {
		c.execution = true
	}

	return cursors, nil
}

func (r *Runner) series(ctx context.Context, sub common.Subscription) (*candle.Series, error) {
	cfg := r.configuration

	if first, second, ok := strings.Cut(sub.Market, derivedSeparator); ok {
		if r.synthesizer == nil {
			return r.providerSeries(ctx, sub, first+second)
		}
		series, err := r.synthesizer.CreateSeries(ctx, cfg.Broker, first, second, sub.Timeframe, cfg.From, cfg.To)
		if errors.Is(err, derived.ErrMarketNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", sub, ErrSeriesMissing, err)
		}
		if err != nil {
			return nil, fmt.Errorf("unable to synthesize %s: %w", sub, err)
		}
		return series, nil
	}

	return r.providerSeries(ctx, sub, sub.Market)
}

func (r *Runner) providerSeries(ctx context.Context, sub common.Subscription, market string) (*candle.Series, error) {
	cfg := r.configuration

	series, err := r.provider.GetCandles(ctx, cfg.Broker, market, sub.Timeframe, cfg.From, cfg.To)
	if errors.Is(err, candle.ErrNoData) {
		return nil, fmt.Errorf("%s: %w: %w", sub, ErrSeriesMissing, err)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", sub, err)
	}
	return series, nil
}

func uniqueSubscriptions(subs []common.Subscription) ([]common.Subscription, error) {
	if len(subs) == 0 {
		return nil, ErrNoSubscriptions
	}

	seen := make(map[common.Subscription]struct{}, len(subs))
	out := make([]common.Subscription, 0, len(subs))
	for _, sub := range subs {
		if !sub.Timeframe.Valid() {
			return nil, fmt.Errorf("subscription %s: %w", sub, common.ErrUnknownTimeframe)
		}
		if _, ok := seen[sub]; ok {
			continue
		}
		seen[sub] = struct{}{}
		out = append(out, sub)
	}
	return out, nil
}
