package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Hallupa/CommonCode-sub001/internal/dbg"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/datasource/historical"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

// columns of an input row after the open time, in order
const priceColumns = 8

// readCandles parses rows of
// open_time,open_bid,high_bid,low_bid,close_bid,open_ask,high_ask,low_ask,close_ask[,volume]
// with the open time in RFC 3339. The first row is a header.
func readCandles(r io.Reader, timeframe common.Timeframe) ([]common.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("unable to read header: %w", err)
	}

	var candles []common.Candle
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		c, err := parseRecord(record, timeframe)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, c)
	}

	return candles, nil
}

func parseRecord(record []string, timeframe common.Timeframe) (common.Candle, error) {
	if len(record) < 1+priceColumns {
		return common.Candle{}, fmt.Errorf("%d columns, want at least %d", len(record), 1+priceColumns)
	}

	openTime, err := time.Parse(time.RFC3339Nano, record[0])
	if err != nil {
		return common.Candle{}, err
	}

	var prices [priceColumns]fixed.Point
	for i := range prices {
		if prices[i], err = fixed.FromString(record[i+1]); err != nil {
			return common.Candle{}, err
		}
	}

	volume := fixed.Zero
	if len(record) > 1+priceColumns {
		if volume, err = fixed.FromString(record[1+priceColumns]); err != nil {
			return common.Candle{}, err
		}
	}

	c := common.Candle{
		OpenTime:   openTime,
		CloseTime:  openTime.Add(timeframe.Duration()),
		OpenBid:    prices[0],
		HighBid:    prices[1],
		LowBid:     prices[2],
		CloseBid:   prices[3],
		OpenAsk:    prices[4],
		HighAsk:    prices[5],
		LowAsk:     prices[6],
		CloseAsk:   prices[7],
		Volume:     volume,
		IsComplete: true,
	}
	return c, c.Validate()
}

func dump(logger *zap.Logger, out, broker, market string, timeframe common.Timeframe, inputs []string) error {
	var candles []common.Candle
	for _, input := range inputs {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		parsed, err := readCandles(f, timeframe)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		candles = append(candles, parsed...)
		logger.Info("file parsed", zap.String("file", input), zap.Int("candles", len(parsed)))
	}

	path := historical.BinaryPath(out, broker, market, timeframe)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := historical.WriteCandles(f, candles); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("dump finished", zap.String("path", path), zap.Int("candles", len(candles)))
	return nil
}

func main() {
	broker := flag.String("broker", "sim", "broker")
	market := flag.String("market", "", "market")
	tf := flag.String("timeframe", "M1", "timeframe of the candles")
	out := flag.String("out", ".", "output directory")
	flag.Parse()

	logger := dbg.NewDevLogger()
	defer func() {
		_ = logger.Sync()
	}()

	timeframe, err := common.ParseTimeframe(*tf)
	if err != nil {
		logger.Fatal("invalid timeframe", zap.Error(err))
	}
	if *market == "" || flag.NArg() == 0 {
		logger.Fatal("market and at least one csv file are required")
	}

	if err := dump(logger, *out, *broker, *market, timeframe, flag.Args()); err != nil {
		logger.Fatal("failed to dump", zap.Error(err))
	}
}
