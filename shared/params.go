package shared

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StrategyParams represents the per market breakout strategy parameters. Params are
// treated as immutable once a strategy is constructed.
type StrategyParams struct {
	// TakeProfitPercent is the take profit distance from entry as a percentage.
	TakeProfitPercent float64 `yaml:"take_profit_percent"`
	// StopLossPercent is the stop loss distance from entry as a percentage.
	StopLossPercent float64 `yaml:"stop_loss_percent"`
	// ShortMAPeriod is the higher timeframe short moving average period.
	ShortMAPeriod int `yaml:"short_ma_period"`
	// LongMAPeriod is the higher timeframe long moving average period.
	LongMAPeriod int `yaml:"long_ma_period"`
	// SupportResistanceWindow is the higher timeframe rolling window for support and resistance.
	SupportResistanceWindow int `yaml:"support_resistance_window"`
	// PrimaryTimeframe is the timeframe orders are executed on.
	PrimaryTimeframe Timeframe `yaml:"primary_timeframe"`
	// HigherTimeframe is the timeframe trend and levels are derived from.
	HigherTimeframe Timeframe `yaml:"higher_timeframe"`
	// RiskPercent is the percentage of the account balance risked per trade.
	RiskPercent float64 `yaml:"risk_percent"`
	// CooldownEvaluations suppresses repeat signals of the same direction for the
	// provided number of evaluations. Zero disables the cooldown.
	CooldownEvaluations int `yaml:"cooldown_evaluations"`
}

// DefaultStrategyParams returns the default breakout strategy parameters.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		TakeProfitPercent:       14,
		StopLossPercent:         11,
		ShortMAPeriod:           20,
		LongMAPeriod:            50,
		SupportResistanceWindow: 10,
		PrimaryTimeframe:        FiveMinute,
		HigherTimeframe:         OneHour,
		RiskPercent:             1,
		CooldownEvaluations:     0,
	}
}

// Validate asserts the params sane inputs.
func (p *StrategyParams) Validate() error {
	var errs error

	if p.TakeProfitPercent <= 0 || p.TakeProfitPercent >= 100 {
		errs = errors.Join(errs, fmt.Errorf("take profit percent must be in (0, 100), got %v", p.TakeProfitPercent))
	}
	if p.StopLossPercent <= 0 || p.StopLossPercent >= 100 {
		errs = errors.Join(errs, fmt.Errorf("stop loss percent must be in (0, 100), got %v", p.StopLossPercent))
	}
	if p.ShortMAPeriod <= 0 {
		errs = errors.Join(errs, fmt.Errorf("short ma period must be positive, got %d", p.ShortMAPeriod))
	}
	if p.LongMAPeriod <= p.ShortMAPeriod {
		errs = errors.Join(errs, fmt.Errorf("long ma period (%d) must be greater than short ma period (%d)",
			p.LongMAPeriod, p.ShortMAPeriod))
	}
	if p.SupportResistanceWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("support resistance window must be positive, got %d", p.SupportResistanceWindow))
	}
	if p.PrimaryTimeframe.Duration() == 0 {
		errs = errors.Join(errs, fmt.Errorf("unknown primary timeframe"))
	}
	if p.HigherTimeframe.Duration() <= p.PrimaryTimeframe.Duration() {
		errs = errors.Join(errs, fmt.Errorf("higher timeframe (%s) must be longer than primary timeframe (%s)",
			p.HigherTimeframe, p.PrimaryTimeframe))
	}
	if p.RiskPercent <= 0 || p.RiskPercent > 100 {
		errs = errors.Join(errs, fmt.Errorf("risk percent must be in (0, 100], got %v", p.RiskPercent))
	}
	if p.CooldownEvaluations < 0 {
		errs = errors.Join(errs, fmt.Errorf("cooldown evaluations cannot be negative, got %d", p.CooldownEvaluations))
	}

	return errs
}

// ParamsSet represents the default strategy params and their per market overrides.
type ParamsSet struct {
	Default StrategyParams
	Markets map[string]StrategyParams
}

// paramsFile represents the layout of a strategy params override file.
type paramsFile struct {
	Default yaml.Node            `yaml:"default"`
	Markets map[string]yaml.Node `yaml:"markets"`
}

// For returns the strategy params of the provided market.
func (s *ParamsSet) For(market string) StrategyParams {
	params, ok := s.Markets[market]
	if !ok {
		return s.Default
	}

	return params
}

// LoadParamsSet loads strategy params overrides from the yaml file at the provided
// path. Fields left unset in the file keep the provided base values and per market
// sections override the file's defaults. An empty path returns the base params.
func LoadParamsSet(path string, base StrategyParams) (*ParamsSet, error) {
	set := &ParamsSet{
		Default: base,
		Markets: make(map[string]StrategyParams),
	}

	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading params file: %w", err)
	}

	var file paramsFile
	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("parsing params file: %w", err)
	}

	if !file.Default.IsZero() {
		err = file.Default.Decode(&set.Default)
		if err != nil {
			return nil, fmt.Errorf("decoding default params: %w", err)
		}
	}

	err = set.Default.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating default params: %w", err)
	}

	for market, node := range file.Markets {
		params := set.Default
		err = node.Decode(&params)
		if err != nil {
			return nil, fmt.Errorf("decoding %s params: %w", market, err)
		}

		err = params.Validate()
		if err != nil {
			return nil, fmt.Errorf("validating %s params: %w", market, err)
		}

		set.Markets[market] = params
	}

	return set, nil
}
