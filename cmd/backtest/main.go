package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/examples/strategy"
	"github.com/Hallupa/CommonCode-sub001/internal/dbg"
	"github.com/Hallupa/CommonCode-sub001/pkg/bus"
	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/data/duckdb"
	"github.com/Hallupa/CommonCode-sub001/pkg/data/psql"
	"github.com/Hallupa/CommonCode-sub001/pkg/datasource/historical"
	"github.com/Hallupa/CommonCode-sub001/pkg/datasource/synthetic"
	"github.com/Hallupa/CommonCode-sub001/pkg/derived"
	"github.com/Hallupa/CommonCode-sub001/pkg/middleware"
	"github.com/Hallupa/CommonCode-sub001/pkg/simulation"
	"github.com/Hallupa/CommonCode-sub001/pkg/tools/risk"
	"github.com/Hallupa/CommonCode-sub001/pkg/tools/store"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := dbg.NewLogger(cfg.Production, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("backtest interrupted")
			return
		}
		logger.Error("backtest failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, cfg Config) error {
	source, closeSource, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	provider := candle.NewStore(logger, source)
	markets := marketStore(cfg)

	sizer, err := risk.NewSizer(risk.Configuration{RiskPercent: cfg.RiskPercent}, markets)
	if err != nil {
		return err
	}

	var portfolio strategy.Portfolio
	for _, sub := range cfg.Subscriptions() {
		breakout, err := strategy.NewBreakout(logger.Named(sub.String()), strategy.BreakoutConfiguration{
			Subscription:   sub,
			Lookback:       cfg.Lookback,
			AtrWindow:      cfg.AtrWindow,
			StopMultiplier: cfg.StopMultiplier,
			RiskReward:     cfg.RiskReward,
		}, sizer)
		if err != nil {
			return fmt.Errorf("strategy for %s: %w", sub, err)
		}
		portfolio = append(portfolio, breakout)
	}

	handlers := middleware.NewMonitor(logger, cfg.Monitor).Wrap(bus.Handlers{})

	var journal *middleware.Journal
	if cfg.JournalDSN != "" {
		db, err := psql.Connect(ctx, cfg.JournalDSN)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()
		if err := psql.CreateSchema(ctx, db); err != nil {
			return err
		}
		journal = middleware.NewJournal(logger, db)
		handlers = journal.Wrap(handlers)
	}

	options := []simulation.Option{
		simulation.WithSynthesizer(derived.NewSynthesizer(logger, provider)),
		simulation.WithRefresher(candle.NewRefresher(logger, provider, candle.WithRefreshWorkers(cfg.Workers))),
		simulation.WithHandlers(handlers),
		simulation.WithMarketStore(markets),
	}

	if cfg.Progress {
		var bar *progressbar.ProgressBar
		options = append(options, simulation.WithProgress(func(done, total int) {
			if bar == nil {
				bar = newProgressBar(total)
			}
			_ = bar.Set(done)
		}))
		defer func() {
			if bar != nil {
				_ = bar.Finish()
			}
		}()
	}

	runner := simulation.NewRunner(logger, provider, simulation.Configuration{
		Broker:           cfg.Broker,
		From:             cfg.From,
		To:               cfg.To,
		InitialBalance:   cfg.InitialBalance,
		FeeRate:          cfg.FeeRate,
		SnapshotInterval: cfg.Subscriptions()[0].Timeframe.Duration(),
	}, options...)

	result, err := runner.Run(ctx, portfolio)
	if err != nil {
		return err
	}

	result.Report.Print(logger)
	if journal != nil && journal.Failed() > 0 {
		logger.Warn("trades missing from journal", zap.Int("count", journal.Failed()))
	}
	return nil
}

func newSource(cfg Config) (candle.Source, func(), error) {
	noop := func() {}

	switch cfg.Source {
	case "binary":
		return historical.NewBinarySource(cfg.DataPath), noop, nil
	case "json":
		return historical.NewJSONSource(cfg.DataPath), noop, nil
	case "duckdb":
		reader := duckdb.NewReader(cfg.DataPath)
		if err := reader.Connect(); err != nil {
			return nil, noop, err
		}
		return duckdb.NewSource(reader), reader.Close, nil
	case "synthetic":
		source := synthetic.NewSource(cfg.Seed, cfg.From)
		for _, market := range cfg.Markets {
			source.Register(strings.ReplaceAll(market, "/", ""), synthetic.EURUSD(0, 0.08))
		}
		return source, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown source %q", cfg.Source)
}

// marketStore knows the forex test markets and gives every other market the configured lots.
func marketStore(cfg Config) *store.MarketStore {
	markets := store.NewForexTestStore(cfg.Broker)
	for _, market := range cfg.Markets {
		if !markets.Contains(cfg.Broker, market) {
			markets.Add(store.MarketInfo{
				Broker:     cfg.Broker,
				Market:     market,
				Digits:     5,
				MinLotSize: cfg.MinLot,
				LotStep:    cfg.LotStep,
			})
		}
	}
	return markets
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
