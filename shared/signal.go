package shared

import (
	"time"
)

// Signal represents a breakout signal for a market. Signals are produced and consumed
// within a single evaluation cycle.
type Signal struct {
	Market         string
	Direction      Direction
	EntryPrice     float64
	ReferenceLevel float64
	Support        float64
	Resistance     float64
	Date           time.Time
}

// NewSignal initializes a new signal. The reference level is the resistance for buys
// and the support for sells.
func NewSignal(market string, direction Direction, entryPrice float64, support float64,
	resistance float64, date time.Time) Signal {
	sig := Signal{
		Market:     market,
		Direction:  direction,
		EntryPrice: entryPrice,
		Support:    support,
		Resistance: resistance,
		Date:       date,
	}

	switch direction {
	case Buy:
		sig.ReferenceLevel = resistance
	case Sell:
		sig.ReferenceLevel = support
	}

	return sig
}
