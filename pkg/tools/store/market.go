package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var (
	ErrMarketNotPresent = errors.New("market is not present in market table")
)

// MarketInfo is the static trading metadata of a market at one broker.
type MarketInfo struct {
	Broker     string
	Market     string
	Digits     int
	PointSize  fixed.Point
	MinLotSize fixed.Point
	LotStep    fixed.Point
}

type MarketStore struct {
	markets []MarketInfo
}

func NewMarketStore(markets ...MarketInfo) *MarketStore {
	return &MarketStore{
		markets: markets,
	}
}

func (s *MarketStore) Add(info MarketInfo) {
	s.markets = append(s.markets, info)
}

func (s *MarketStore) Contains(broker, market string) bool {
	_, err := s.Get(broker, market)
	return err == nil
}

func (s *MarketStore) Get(broker, market string) (MarketInfo, error) {
	for _, info := range s.markets {
		if strings.EqualFold(info.Broker, broker) && strings.EqualFold(info.Market, market) {
			return info, nil
		}
	}
	return MarketInfo{}, fmt.Errorf("unable to get market %s at %s: %w", market, broker, ErrMarketNotPresent)
}

func (s *MarketStore) MustGet(broker, market string) MarketInfo {
	info, err := s.Get(broker, market)
	if err != nil {
		panic(err.Error())
	}
	return info
}

// PointSize falls back to 10^-digits when the size was not given explicitly.
func (s *MarketStore) PointSize(broker, market string) (fixed.Point, error) {
	info, err := s.Get(broker, market)
	if err != nil {
		return fixed.Zero, err
	}
	if info.PointSize.IsZero() {
		return fixed.FromInt(1, info.Digits), nil
	}
	return info.PointSize, nil
}

func (s *MarketStore) MinLotSize(broker, market string) (fixed.Point, error) {
	info, err := s.Get(broker, market)
	if err != nil {
		return fixed.Zero, err
	}
	return info.MinLotSize, nil
}

func NewForexTestStore(broker string) *MarketStore {
	return NewMarketStore(
		MarketInfo{
			Broker:     broker,
			Market:     "EURUSD",
			Digits:     5,
			PointSize:  fixed.FromInt(1, 4),
			MinLotSize: fixed.FromInt(1000, 0),
			LotStep:    fixed.FromInt(1000, 0),
		},
		MarketInfo{
			Broker:     broker,
			Market:     "USDJPY",
			Digits:     3,
			PointSize:  fixed.FromInt(1, 2),
			MinLotSize: fixed.FromInt(1000, 0),
			LotStep:    fixed.FromInt(1000, 0),
		},
	)
}
