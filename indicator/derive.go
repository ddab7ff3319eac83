package indicator

import (
	"time"

	"github.com/dnldd/breakout/shared"
)

// DerivedPoint represents the higher timeframe values derived for a single candle.
type DerivedPoint struct {
	Date       time.Time
	ShortMA    Value
	LongMA     Value
	Support    Value
	Resistance Value
}

// Derive computes the moving averages, support and resistance for every candle provided.
// The candles are expected sorted by date; the result is recomputed in full on each call.
func Derive(candles []shared.Candlestick, params *shared.StrategyParams) []DerivedPoint {
	closes := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	for idx := range candles {
		closes[idx] = candles[idx].Close
		lows[idx] = candles[idx].Low
		highs[idx] = candles[idx].High
	}

	shortMA := MovingAverage(closes, params.ShortMAPeriod)
	longMA := MovingAverage(closes, params.LongMAPeriod)
	support := RollingMin(lows, params.SupportResistanceWindow)
	resistance := RollingMax(highs, params.SupportResistanceWindow)

	points := make([]DerivedPoint, len(candles))
	for idx := range candles {
		points[idx] = DerivedPoint{
			Date:       candles[idx].Date,
			ShortMA:    shortMA[idx],
			LongMA:     longMA[idx],
			Support:    support[idx],
			Resistance: resistance[idx],
		}
	}

	return points
}
