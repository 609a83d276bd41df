package historical

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

// BinaryCandle is the on-disk record of candle files, written little endian.
type BinaryCandle struct {
	OpenTime  int64
	CloseTime int64
	OpenBid   float64
	OpenAsk   float64
	HighBid   float64
	HighAsk   float64
	LowBid    float64
	LowAsk    float64
	CloseBid  float64
	CloseAsk  float64
	Volume    float64
	Complete  int64
}

func (b BinaryCandle) ToCandle() common.Candle {
	return common.Candle{
		OpenTime:   time.Unix(0, b.OpenTime).UTC(),
		CloseTime:  time.Unix(0, b.CloseTime).UTC(),
		OpenBid:    fixed.FromFloat64(b.OpenBid),
		OpenAsk:    fixed.FromFloat64(b.OpenAsk),
		HighBid:    fixed.FromFloat64(b.HighBid),
		HighAsk:    fixed.FromFloat64(b.HighAsk),
		LowBid:     fixed.FromFloat64(b.LowBid),
		LowAsk:     fixed.FromFloat64(b.LowAsk),
		CloseBid:   fixed.FromFloat64(b.CloseBid),
		CloseAsk:   fixed.FromFloat64(b.CloseAsk),
		Volume:     fixed.FromFloat64(b.Volume),
		IsComplete: b.Complete != 0,
	}
}

func FromCandle(c common.Candle) BinaryCandle {
	f := func(p fixed.Point) float64 {
		v, _ := p.Float64()
		return v
	}
	var complete int64
	if c.IsComplete {
		complete = 1
	}
	return BinaryCandle{
		OpenTime:  c.OpenTime.UnixNano(),
		CloseTime: c.CloseTime.UnixNano(),
		OpenBid:   f(c.OpenBid),
		OpenAsk:   f(c.OpenAsk),
		HighBid:   f(c.HighBid),
		HighAsk:   f(c.HighAsk),
		LowBid:    f(c.LowBid),
		LowAsk:    f(c.LowAsk),
		CloseBid:  f(c.CloseBid),
		CloseAsk:  f(c.CloseAsk),
		Volume:    f(c.Volume),
		Complete:  complete,
	}
}

// WriteCandles appends candles to w in the BinaryCandle layout.
func WriteCandles(w io.Writer, candles []common.Candle) error {
	for _, c := range candles {
		if err := binary.Write(w, binary.LittleEndian, FromCandle(c)); err != nil {
			return fmt.Errorf("unable to write candle at %s: %w", c.OpenTime, err)
		}
	}
	return nil
}

// BinaryPath is where the binary source looks for a series: <dir>/<broker>/<MARKET>_<tf>.bin.
func BinaryPath(dir, broker, market string, timeframe common.Timeframe) string {
	return filepath.Join(dir, strings.ToLower(broker), fmt.Sprintf("%s_%s.bin", strings.ToUpper(market), timeframe))
}

// BinarySource reads candles from memory mapped BinaryCandle files.
type BinarySource struct {
	dir string
}

func NewBinarySource(dir string) *BinarySource {
	return &BinarySource{dir: dir}
}

func (s *BinarySource) LoadCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) ([]common.Candle, error) {
	path := BinaryPath(s.dir, broker, market, timeframe)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, candle.ErrNoData)
	}

	file, err := OpenFile[BinaryCandle](path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	idx, err := file.LowerBound(func(b BinaryCandle) int64 { return b.OpenTime }, from.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("unable to locate start of %q: %w", path, err)
	}

	var (
		candles []common.Candle
		record  BinaryCandle
	)
	for ; ; idx++ {
		if idx%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := file.Read(idx, &record); err != nil {
			if errors.Is(err, ErrEof) {
				break
			}
			return nil, err
		}
		if record.OpenTime >= to.UnixNano() {
			break
		}
		candles = append(candles, record.ToCandle())
	}

	return candles, nil
}
