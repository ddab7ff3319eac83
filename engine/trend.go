package engine

import (
	"github.com/dnldd/breakout/indicator"
	"github.com/dnldd/breakout/shared"
)

// TrendTracker classifies the higher timeframe trend from consecutive moving
// average pairs. It is advanced once per closed higher timeframe candle.
type TrendTracker struct {
	state     shared.TrendState
	prevShort indicator.Value
	prevLong  indicator.Value
}

// NewTrendTracker initializes a new trend tracker in the unknown state.
func NewTrendTracker() *TrendTracker {
	return &TrendTracker{state: shared.TrendUnknown}
}

// classify determines the trend state from the previous and current moving average pairs.
func classify(prevShort, prevLong, curShort, curLong indicator.Value) shared.TrendState {
	if !prevShort.Valid || !prevLong.Valid || !curShort.Valid || !curLong.Valid {
		return shared.TrendUnknown
	}

	switch {
	case prevShort.Float < prevLong.Float && curShort.Float > curLong.Float:
		return shared.TrendBullish
	case prevShort.Float > prevLong.Float && curShort.Float < curLong.Float:
		return shared.TrendBearish
	default:
		return shared.TrendNeutral
	}
}

// Advance transitions the tracker using the provided current moving average pair.
// The current pair always becomes the previous pair for the next transition.
func (t *TrendTracker) Advance(short, long indicator.Value) shared.TrendState {
	t.state = classify(t.prevShort, t.prevLong, short, long)
	t.prevShort = short
	t.prevLong = long

	return t.state
}

// State returns the current trend state.
func (t *TrendTracker) State() shared.TrendState {
	return t.state
}

// Reset returns the tracker to its initial state.
func (t *TrendTracker) Reset() {
	t.state = shared.TrendUnknown
	t.prevShort = indicator.Value{}
	t.prevLong = indicator.Value{}
}
