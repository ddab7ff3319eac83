package engine

import (
	"fmt"
	"time"

	"github.com/dnldd/breakout/indicator"
	"github.com/dnldd/breakout/shared"
	"github.com/rs/zerolog"
)

// DetectorConfig represents the breakout detector configuration.
type DetectorConfig struct {
	// Market is the market the detector evaluates.
	Market string
	// CooldownEvaluations suppresses repeat signals of the same direction for the
	// provided number of evaluations. Zero allows signals to refire every evaluation.
	CooldownEvaluations int
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Evaluation represents the market state evaluated for breakouts.
type Evaluation struct {
	Close      float64
	Support    indicator.Value
	Resistance indicator.Value
	Trend      shared.TrendState
	Date       time.Time
}

// Detector finds support and resistance breakouts confirmed by the higher timeframe trend.
type Detector struct {
	cfg         *DetectorConfig
	evaluations uint64
	lastFired   map[shared.Direction]uint64
}

// NewDetector initializes a new breakout detector.
func NewDetector(cfg *DetectorConfig) (*Detector, error) {
	if cfg.Market == "" {
		return nil, fmt.Errorf("detector market cannot be an empty string")
	}
	if cfg.CooldownEvaluations < 0 {
		return nil, fmt.Errorf("detector cooldown cannot be negative")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("detector logger cannot be nil")
	}

	return &Detector{
		cfg:       cfg,
		lastFired: make(map[shared.Direction]uint64),
	}, nil
}

// coolingDown checks whether the provided direction fired within the cooldown window.
func (d *Detector) coolingDown(direction shared.Direction) bool {
	if d.cfg.CooldownEvaluations == 0 {
		return false
	}

	last, ok := d.lastFired[direction]
	if !ok {
		return false
	}

	return d.evaluations-last <= uint64(d.cfg.CooldownEvaluations)
}

// fire records the provided direction as fired in the current evaluation.
func (d *Detector) fire(direction shared.Direction) {
	d.lastFired[direction] = d.evaluations
}

// Evaluate checks the provided market state for breakouts. Both directions are
// checked independently, at most one signal per direction is returned.
func (d *Detector) Evaluate(e Evaluation) []shared.Signal {
	d.evaluations++

	if !e.Support.Valid || !e.Resistance.Valid {
		d.cfg.Logger.Debug().Msgf("%s support/resistance undefined at %s, skipping breakout evaluation",
			d.cfg.Market, e.Date.Format(time.RFC3339))
		return nil
	}

	var signals []shared.Signal

	if e.Close > e.Resistance.Float && e.Trend == shared.TrendBullish {
		switch {
		case d.coolingDown(shared.Buy):
			d.cfg.Logger.Info().Msgf("%s buy breakout at %f suppressed by cooldown", d.cfg.Market, e.Close)
		default:
			d.fire(shared.Buy)
			signals = append(signals, shared.NewSignal(d.cfg.Market, shared.Buy, e.Close,
				e.Support.Float, e.Resistance.Float, e.Date))
		}
	}

	if e.Close < e.Support.Float && e.Trend == shared.TrendBearish {
		switch {
		case d.coolingDown(shared.Sell):
			d.cfg.Logger.Info().Msgf("%s sell breakout at %f suppressed by cooldown", d.cfg.Market, e.Close)
		default:
			d.fire(shared.Sell)
			signals = append(signals, shared.NewSignal(d.cfg.Market, shared.Sell, e.Close,
				e.Support.Float, e.Resistance.Float, e.Date))
		}
	}

	return signals
}
