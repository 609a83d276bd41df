package common

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownTimeframe = errors.New("unknown timeframe")

type Timeframe string

const (
	M1  Timeframe = "M1"
	M5  Timeframe = "M5"
	M15 Timeframe = "M15"
	M30 Timeframe = "M30"
	H1  Timeframe = "H1"
	H2  Timeframe = "H2"
	H4  Timeframe = "H4"
	H8  Timeframe = "H8"
	D1  Timeframe = "D1"
)

var timeframeDurations = map[Timeframe]time.Duration{
	M1:  time.Minute,
	M5:  5 * time.Minute,
	M15: 15 * time.Minute,
	M30: 30 * time.Minute,
	H1:  time.Hour,
	H2:  2 * time.Hour,
	H4:  4 * time.Hour,
	H8:  8 * time.Hour,
	D1:  24 * time.Hour,
}

func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := timeframeDurations[tf]; !ok {
		return "", fmt.Errorf("unable to parse %q: %w", s, ErrUnknownTimeframe)
	}
	return tf, nil
}

// Duration panics for timeframes not created through the declared constants or ParseTimeframe.
func (tf Timeframe) Duration() time.Duration {
	d, ok := timeframeDurations[tf]
	if !ok {
		panic(fmt.Errorf("%s: %w", string(tf), ErrUnknownTimeframe))
	}
	return d
}

func (tf Timeframe) Valid() bool {
	_, ok := timeframeDurations[tf]
	return ok
}

func (tf Timeframe) String() string { return string(tf) }

// Subscription names one (market, timeframe) stream a strategy consumes.
type Subscription struct {
	Market    string
	Timeframe Timeframe
}

func (s Subscription) String() string {
	return s.Market + "@" + s.Timeframe.String()
}
