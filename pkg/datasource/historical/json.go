package historical

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Hallupa/CommonCode-sub001/pkg/candle"
	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

// JSONPath is where the JSON source looks for a series: <dir>/<broker>/<MARKET>_<tf>.json.
func JSONPath(dir, broker, market string, timeframe common.Timeframe) string {
	return filepath.Join(dir, strings.ToLower(broker), fmt.Sprintf("%s_%s.json", strings.ToUpper(market), timeframe))
}

// JSONSource reads candle exports shaped as
//
//	[{"open_time": RFC3339, "close_time": RFC3339,
//	  "bid": {"o":..,"h":..,"l":..,"c":..}, "ask": {...}, "volume":.., "complete": bool}]
//
// Prices may be numbers or strings. A missing "complete" means complete.
type JSONSource struct {
	dir string
}

func NewJSONSource(dir string) *JSONSource {
	return &JSONSource{dir: dir}
}

func (s *JSONSource) LoadCandles(_ context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time) ([]common.Candle, error) {
	path := JSONPath(s.dir, broker, market, timeframe)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, candle.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %q: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%q is not valid json", path)
	}

	var candles []common.Candle
	for idx, item := range gjson.ParseBytes(data).Array() {
		c, err := ParseJSONCandle(item)
		if err != nil {
			return nil, fmt.Errorf("%q entry %d: %w", path, idx, err)
		}
		if c.OpenTime.Before(from) || !c.OpenTime.Before(to) {
			continue
		}
		candles = append(candles, c)
	}

	return candles, nil
}

func ParseJSONCandle(item gjson.Result) (common.Candle, error) {
	var (
		c   common.Candle
		err error
	)

	if c.OpenTime, err = time.Parse(time.RFC3339Nano, item.Get("open_time").String()); err != nil {
		return c, fmt.Errorf("parsing open time: %w", err)
	}
	if c.CloseTime, err = time.Parse(time.RFC3339Nano, item.Get("close_time").String()); err != nil {
		return c, fmt.Errorf("parsing close time: %w", err)
	}

	fields := []struct {
		path string
		dst  *fixed.Point
	}{
		{"bid.o", &c.OpenBid}, {"bid.h", &c.HighBid}, {"bid.l", &c.LowBid}, {"bid.c", &c.CloseBid},
		{"ask.o", &c.OpenAsk}, {"ask.h", &c.HighAsk}, {"ask.l", &c.LowAsk}, {"ask.c", &c.CloseAsk},
	}
	for _, field := range fields {
		if *field.dst, err = parsePrice(item.Get(field.path)); err != nil {
			return c, fmt.Errorf("parsing %s: %w", field.path, err)
		}
	}

	if volume := item.Get("volume"); volume.Exists() {
		if c.Volume, err = parsePrice(volume); err != nil {
			return c, fmt.Errorf("parsing volume: %w", err)
		}
	}

	c.IsComplete = true
	if complete := item.Get("complete"); complete.Exists() {
		c.IsComplete = complete.Bool()
	}

	return c, nil
}

func parsePrice(value gjson.Result) (fixed.Point, error) {
	switch value.Type {
	case gjson.Number:
		return fixed.FromString(value.Raw)
	case gjson.String:
		return fixed.FromString(value.Str)
	}
	return fixed.Point{}, fmt.Errorf("unexpected value %q", value.Raw)
}
