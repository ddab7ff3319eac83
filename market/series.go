package market

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dnldd/breakout/shared"
	"github.com/pkg/errors"
)

// CandlestickSeries represents a date ordered, deduplicated series of candlesticks
// for a single market and timeframe.
type CandlestickSeries struct {
	market    string
	timeframe shared.Timeframe
	maxSize   int
	data      []shared.Candlestick
	dataMtx   sync.RWMutex
}

// NewCandlestickSeries initializes a new candlestick series. A positive max size bounds
// the retained history, evicting the oldest candles first.
func NewCandlestickSeries(market string, timeframe shared.Timeframe, maxSize int) (*CandlestickSeries, error) {
	if market == "" {
		return nil, fmt.Errorf("series market cannot be an empty string")
	}
	if maxSize < 0 {
		return nil, fmt.Errorf("series max size cannot be negative")
	}

	return &CandlestickSeries{
		market:    market,
		timeframe: timeframe,
		maxSize:   maxSize,
		data:      make([]shared.Candlestick, 0, maxSize),
	}, nil
}

// compareDate orders candlesticks by date.
func compareDate(c shared.Candlestick, t time.Time) int {
	return c.Date.Compare(t)
}

// Append adds the provided candlestick to the series. A candlestick sharing a date with
// an existing entry replaces it. The returned flag reports whether the series changed.
func (s *CandlestickSeries) Append(candle shared.Candlestick) (bool, error) {
	if candle.Market != s.market || candle.Timeframe != s.timeframe {
		return false, fmt.Errorf("candle (%s, %s) does not belong to series (%s, %s)",
			candle.Market, candle.Timeframe, s.market, s.timeframe)
	}

	s.dataMtx.Lock()
	defer s.dataMtx.Unlock()

	count := len(s.data)
	switch {
	case count == 0 || candle.Date.After(s.data[count-1].Date):
		// Broker feeds are mostly in order, append directly.
		s.data = append(s.data, candle)
	default:
		idx, found := slices.BinarySearchFunc(s.data, candle.Date, compareDate)
		if found {
			if s.data[idx].Equal(&candle) {
				return false, nil
			}

			s.data[idx] = candle
			break
		}

		s.data = slices.Insert(s.data, idx, candle)
	}

	if s.maxSize > 0 && len(s.data) > s.maxSize {
		s.data = slices.Delete(s.data, 0, len(s.data)-s.maxSize)
	}

	return true, s.verify()
}

// AppendAll adds the provided candlesticks to the series, returning the number of
// candlesticks that changed the series.
func (s *CandlestickSeries) AppendAll(candles []shared.Candlestick) (int, error) {
	var changed int
	for idx := range candles {
		ok, err := s.Append(candles[idx])
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}

	return changed, nil
}

// verify asserts the series is strictly ordered by date. It must be called with the
// data lock held.
func (s *CandlestickSeries) verify() error {
	for idx := 1; idx < len(s.data); idx++ {
		if !s.data[idx].Date.After(s.data[idx-1].Date) {
			return errors.WithStack(fmt.Errorf("%w: %s %s series not strictly ordered at %d (%s >= %s)",
				shared.ErrInvariantViolation, s.market, s.timeframe, idx,
				s.data[idx-1].Date.Format(time.RFC3339), s.data[idx].Date.Format(time.RFC3339)))
		}
	}

	return nil
}

// Latest returns the most recent candlestick of the series.
func (s *CandlestickSeries) Latest() (shared.Candlestick, error) {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	if len(s.data) == 0 {
		return shared.Candlestick{}, fmt.Errorf("%s %s series: %w", s.market, s.timeframe, shared.ErrEmptySeries)
	}

	return s.data[len(s.data)-1], nil
}

// HasTimestamp checks whether the series has a candlestick at the provided date.
func (s *CandlestickSeries) HasTimestamp(t time.Time) bool {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	_, found := slices.BinarySearchFunc(s.data, t, compareDate)
	return found
}

// Len returns the number of candlesticks in the series.
func (s *CandlestickSeries) Len() int {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	return len(s.data)
}

// Candles returns a copy of the series candlesticks.
func (s *CandlestickSeries) Candles() []shared.Candlestick {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	return slices.Clone(s.data)
}

// Dates returns the dates of the series candlesticks.
func (s *CandlestickSeries) Dates() []time.Time {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	dates := make([]time.Time, len(s.data))
	for idx := range s.data {
		dates[idx] = s.data[idx].Date
	}

	return dates
}

// Market returns the market of the series.
func (s *CandlestickSeries) Market() string {
	return s.market
}

// Timeframe returns the timeframe of the series.
func (s *CandlestickSeries) Timeframe() shared.Timeframe {
	return s.timeframe
}
