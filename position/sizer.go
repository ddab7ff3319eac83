package position

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// MinVolume is the broker minimum order volume.
	MinVolume = 0.01
	// volumePrecision is the number of decimal places order volumes are rounded to.
	volumePrecision = 2
	// pipMultiplier converts a pip distance and pip value into a per lot risk.
	pipMultiplier = 10
)

// BalanceFetcher defines the requirements for fetching the account balance.
type BalanceFetcher interface {
	// AccountBalance returns the current account balance.
	AccountBalance(ctx context.Context) (float64, error)
}

// SizerConfig represents the position sizer configuration.
type SizerConfig struct {
	// Market is the market positions are sized for.
	Market string
	// RiskPercent is the percentage of the account balance risked per trade.
	RiskPercent float64
	// Account provides the account balance.
	Account BalanceFetcher
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Sizer converts stop loss distances into risk based order volumes.
type Sizer struct {
	cfg *SizerConfig
}

// NewSizer initializes a new position sizer.
func NewSizer(cfg *SizerConfig) (*Sizer, error) {
	if cfg.RiskPercent <= 0 || cfg.RiskPercent > 100 {
		return nil, fmt.Errorf("risk percent must be in (0, 100], got %v", cfg.RiskPercent)
	}
	if cfg.Account == nil {
		return nil, fmt.Errorf("account balance fetcher cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("sizer logger cannot be nil")
	}

	return &Sizer{cfg: cfg}, nil
}

// PipValue returns the pip value for a market quoted with the provided number of digits.
func PipValue(digits int) float64 {
	if digits > 2 {
		return 0.0001
	}

	return 0.01
}

// StopLossPips returns the distance between the entry and the stop loss in pips.
func StopLossPips(entry float64, stopLoss float64, pipValue float64) float64 {
	return math.Abs(entry-stopLoss) / pipValue
}

// roundTo rounds the provided value to the provided number of decimal places.
func roundTo(value float64, places int32) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(places).Float64()
	return rounded
}

// Size returns the order volume risking the configured percentage of the account
// balance over the provided stop loss distance. Sizing never fails, it falls back to
// the broker minimum volume when a size cannot be determined.
func (s *Sizer) Size(ctx context.Context, stopLossPips float64, pipValue float64) float64 {
	balance, err := s.cfg.Account.AccountBalance(ctx)
	if err != nil {
		s.cfg.Logger.Error().Err(err).Msgf("fetching account balance to size %s position, "+
			"defaulting to minimum volume %.2f", s.cfg.Market, MinVolume)
		return MinVolume
	}

	riskAmount := balance * (s.cfg.RiskPercent / 100)

	if stopLossPips == 0 {
		s.cfg.Logger.Warn().Msgf("%s stop loss pips is zero, defaulting to minimum volume %.2f",
			s.cfg.Market, MinVolume)
		return MinVolume
	}
	if pipValue <= 0 || math.IsNaN(stopLossPips) || stopLossPips < 0 {
		s.cfg.Logger.Warn().Msgf("%s invalid sizing inputs (pips: %v, pip value: %v), "+
			"defaulting to minimum volume %.2f", s.cfg.Market, stopLossPips, pipValue, MinVolume)
		return MinVolume
	}

	volume := roundTo(riskAmount/(stopLossPips*pipValue*pipMultiplier), volumePrecision)
	if volume < MinVolume {
		return MinVolume
	}

	return volume
}
