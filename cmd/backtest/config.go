package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/middleware"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

const dateLayout = "2006-01-02"

var sourceKinds = []string{"binary", "json", "duckdb", "synthetic"}

// Config is read from the environment, optionally seeded by a .env file, and then
// overridden by command line flags.
type Config struct {
	LogLevel   string
	Production bool

	Source   string
	DataPath string
	Seed     int64

	Broker     string
	Markets    []string
	Timeframes []common.Timeframe
	From       time.Time
	To         time.Time

	InitialBalance fixed.Point
	FeeRate        fixed.Point
	Workers        int
	JournalDSN     string
	Monitor        middleware.MonitorFlags
	Progress       bool

	Lookback       int
	AtrWindow      int
	StopMultiplier fixed.Point
	RiskReward     fixed.Point
	RiskPercent    fixed.Point
	MinLot         fixed.Point
	LotStep        fixed.Point
}

func loadConfig(args []string) (Config, error) {
	envFile := ".env"
	for i, arg := range args {
		if v, ok := strings.CutPrefix(arg, "-env="); ok {
			envFile = v
		} else if arg == "-env" && i+1 < len(args) {
			envFile = args[i+1]
		}
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	fs.String("env", envFile, "environment file")

	logLevel := fs.String("log-level", env("BACKTEST_LOG_LEVEL", "info"), "log level")
	production := fs.Bool("production", envBool("BACKTEST_PRODUCTION", false), "json logging")
	source := fs.String("source", env("BACKTEST_SOURCE", "synthetic"), "candle source: "+strings.Join(sourceKinds, ", "))
	dataPath := fs.String("data", env("BACKTEST_DATA", ""), "data directory, or duckdb database file")
	seed := fs.Int64("seed", envInt64("BACKTEST_SEED", 1), "seed of the synthetic source")
	broker := fs.String("broker", env("BACKTEST_BROKER", "sim"), "broker name")
	markets := fs.String("markets", env("BACKTEST_MARKETS", "EURUSD"), "comma separated markets, FIRST/SECOND for derived")
	timeframes := fs.String("timeframes", env("BACKTEST_TIMEFRAMES", "H1"), "comma separated timeframes, one per market or one for all")
	from := fs.String("from", env("BACKTEST_FROM", "2024-01-01"), "window start, "+dateLayout)
	to := fs.String("to", env("BACKTEST_TO", "2024-04-01"), "window end, "+dateLayout)
	balance := fs.String("balance", env("BACKTEST_BALANCE", "10000"), "initial balance")
	fee := fs.String("fee", env("BACKTEST_FEE", "0"), "fee rate per leg")
	workers := fs.Int("workers", int(envInt64("BACKTEST_WORKERS", 4)), "candle refresh workers")
	journal := fs.String("journal", env("BACKTEST_JOURNAL_DSN", ""), "postgres connection string of the trade journal")
	monitor := fs.String("monitor", env("BACKTEST_MONITOR", "closed"), "logged events: all, opened, closed, withdrawn, balance, none")
	progress := fs.Bool("progress", envBool("BACKTEST_PROGRESS", true), "show progress bar")
	lookback := fs.Int("lookback", int(envInt64("BACKTEST_LOOKBACK", 20)), "breakout channel length")
	atrWindow := fs.Int("atr", int(envInt64("BACKTEST_ATR", 14)), "atr window")
	stopMultiplier := fs.String("stop-atr", env("BACKTEST_STOP_ATR", "2"), "stop distance in atr")
	riskReward := fs.String("rrr", env("BACKTEST_RRR", "2"), "limit distance in stop distances")
	riskPercent := fs.String("risk", env("BACKTEST_RISK", "1"), "percent of balance risked per trade")
	minLot := fs.String("min-lot", env("BACKTEST_MIN_LOT", "1000"), "minimum quantity of markets not in the market store")
	lotStep := fs.String("lot-step", env("BACKTEST_LOT_STEP", "1000"), "quantity step of markets not in the market store")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogLevel:   *logLevel,
		Production: *production,
		Source:     *source,
		DataPath:   *dataPath,
		Seed:       *seed,
		Broker:     *broker,
		Markets:    splitList(*markets),
		Workers:    *workers,
		JournalDSN: *journal,
		Progress:   *progress,
		Lookback:   *lookback,
		AtrWindow:  *atrWindow,
	}

	var errs []error
	parse := func(name, value string, target *fixed.Point) {
		p, err := fixed.FromString(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		*target = p
	}
	parse("balance", *balance, &cfg.InitialBalance)
	parse("fee", *fee, &cfg.FeeRate)
	parse("stop-atr", *stopMultiplier, &cfg.StopMultiplier)
	parse("rrr", *riskReward, &cfg.RiskReward)
	parse("risk", *riskPercent, &cfg.RiskPercent)
	parse("min-lot", *minLot, &cfg.MinLot)
	parse("lot-step", *lotStep, &cfg.LotStep)

	for _, s := range splitList(*timeframes) {
		tf, err := common.ParseTimeframe(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cfg.Timeframes = append(cfg.Timeframes, tf)
	}

	var err error
	if cfg.From, err = time.Parse(dateLayout, *from); err != nil {
		errs = append(errs, fmt.Errorf("from: %w", err))
	}
	if cfg.To, err = time.Parse(dateLayout, *to); err != nil {
		errs = append(errs, fmt.Errorf("to: %w", err))
	}
	if cfg.Monitor, err = parseMonitorFlags(*monitor); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error

	known := false
	for _, kind := range sourceKinds {
		known = known || kind == c.Source
	}
	if !known {
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}
	if c.Source != "synthetic" && c.DataPath == "" {
		errs = append(errs, fmt.Errorf("source %s needs a data path", c.Source))
	}
	if len(c.Markets) == 0 {
		errs = append(errs, errors.New("no markets"))
	}
	if len(c.Timeframes) != 1 && len(c.Timeframes) != len(c.Markets) {
		errs = append(errs, fmt.Errorf("%d timeframes for %d markets", len(c.Timeframes), len(c.Markets)))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be positive"))
	}

	return errors.Join(errs...)
}

// Subscriptions pairs every market with its timeframe.
func (c Config) Subscriptions() []common.Subscription {
	subs := make([]common.Subscription, 0, len(c.Markets))
	for i, market := range c.Markets {
		tf := c.Timeframes[0]
		if len(c.Timeframes) > 1 {
			tf = c.Timeframes[i]
		}
		subs = append(subs, common.Subscription{Market: market, Timeframe: tf})
	}
	return subs
}

func parseMonitorFlags(s string) (middleware.MonitorFlags, error) {
	var flags middleware.MonitorFlags
	for _, name := range splitList(s) {
		switch strings.ToLower(name) {
		case "all":
			flags |= middleware.MonitorAll
		case "opened":
			flags |= middleware.MonitorTradesOpened
		case "closed":
			flags |= middleware.MonitorTradesClosed
		case "withdrawn":
			flags |= middleware.MonitorTradesWithdrawn
		case "balance":
			flags |= middleware.MonitorBalance
		case "none":
			flags |= middleware.MonitorNone
		default:
			return 0, fmt.Errorf("unknown monitor flag %q", name)
		}
	}
	return flags, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v, err := strconv.ParseInt(env(key, ""), 10, 64)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(env(key, ""))
	if err != nil {
		return def
	}
	return v
}
