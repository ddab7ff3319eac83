package shared

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume uint64
	Date   time.Time

	// Metadata fields.
	Market    string
	Timeframe Timeframe
}

// Equal checks whether the provided candlestick carries the same data.
func (c *Candlestick) Equal(other *Candlestick) bool {
	return c.Date.Equal(other.Date) &&
		c.Open == other.Open &&
		c.High == other.High &&
		c.Low == other.Low &&
		c.Close == other.Close &&
		c.Volume == other.Volume &&
		c.Market == other.Market &&
		c.Timeframe == other.Timeframe
}

// ParseCandlesticks parses candlesticks from the provided json data. Candle times are
// expected as unix seconds, the way broker rate arrays report them.
func ParseCandlesticks(data []gjson.Result, market string, timeframe Timeframe) ([]Candlestick, error) {
	candles := make([]Candlestick, 0, len(data))

	for idx := range data {
		ts := data[idx].Get("time")
		if !ts.Exists() {
			return nil, fmt.Errorf("candlestick %d for %s has no time field", idx, market)
		}

		volume := data[idx].Get("tick_volume")
		if !volume.Exists() {
			volume = data[idx].Get("volume")
		}
		if volume.Float() < 0 {
			return nil, fmt.Errorf("candlestick %d for %s has negative volume", idx, market)
		}

		candle := Candlestick{
			Open:      data[idx].Get("open").Float(),
			High:      data[idx].Get("high").Float(),
			Low:       data[idx].Get("low").Float(),
			Close:     data[idx].Get("close").Float(),
			Volume:    volume.Uint(),
			Date:      time.Unix(ts.Int(), 0).UTC(),
			Market:    market,
			Timeframe: timeframe,
		}

		candles = append(candles, candle)
	}

	return candles, nil
}
