package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/breakout/database"
	"github.com/dnldd/breakout/engine"
	"github.com/dnldd/breakout/indicator"
	"github.com/dnldd/breakout/market"
	"github.com/dnldd/breakout/metrics"
	"github.com/dnldd/breakout/notify"
	"github.com/dnldd/breakout/position"
	"github.com/dnldd/breakout/shared"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// initialCandles is the number of candles fetched per timeframe on initialization.
	initialCandles = 500
	// updateCandles is the number of most recent candles fetched per timeframe on update.
	updateCandles = 2
	// maxSeriesSize is the maximum number of candles retained per series.
	maxSeriesSize = 2000
)

// BreakoutConfig represents the breakout strategy configuration.
type BreakoutConfig struct {
	// Market is the market traded.
	Market string
	// Params are the strategy parameters for the market.
	Params shared.StrategyParams
	// Broker is the brokerage connection.
	Broker shared.Broker
	// Notifier delivers signal and order notifications.
	Notifier shared.Notifier
	// Journal stores submitted orders, optional.
	Journal database.OrderStorer
	// Magic is the identifier attached to submitted orders.
	Magic int
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Stats represents a snapshot of the strategy's activity.
type Stats struct {
	Cycles   uint64
	Signals  uint64
	Orders   uint64
	Rejected uint64
}

// Breakout trades higher timeframe support and resistance breakouts on the primary
// timeframe, confirmed by a fresh higher timeframe moving average cross.
type Breakout struct {
	cfg      *BreakoutConfig
	primary  *market.CandlestickSeries
	higher   *market.CandlestickSeries
	syncer   *market.Synchronizer
	tracker  *engine.TrendTracker
	detector *engine.Detector
	sizer    *position.Sizer

	// lastEvaluated is the date of the most recently evaluated higher timeframe candle.
	lastEvaluated time.Time

	cycles   atomic.Uint64
	signals  atomic.Uint64
	orders   atomic.Uint64
	rejected atomic.Uint64
}

// Ensure the breakout strategy implements the Strategy interface.
var _ Strategy = (*Breakout)(nil)

// NewBreakout initializes a new breakout strategy.
func NewBreakout(cfg *BreakoutConfig) (*Breakout, error) {
	if cfg.Market == "" {
		return nil, fmt.Errorf("strategy market cannot be an empty string")
	}
	if cfg.Broker == nil {
		return nil, fmt.Errorf("strategy broker cannot be nil")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("strategy notifier cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("strategy logger cannot be nil")
	}

	err := cfg.Params.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating %s strategy params: %w", cfg.Market, err)
	}

	primary, err := market.NewCandlestickSeries(cfg.Market, cfg.Params.PrimaryTimeframe, maxSeriesSize)
	if err != nil {
		return nil, fmt.Errorf("creating primary series: %w", err)
	}

	higher, err := market.NewCandlestickSeries(cfg.Market, cfg.Params.HigherTimeframe, maxSeriesSize)
	if err != nil {
		return nil, fmt.Errorf("creating higher series: %w", err)
	}

	detector, err := engine.NewDetector(&engine.DetectorConfig{
		Market:              cfg.Market,
		CooldownEvaluations: cfg.Params.CooldownEvaluations,
		Logger:              cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating detector: %w", err)
	}

	sizer, err := position.NewSizer(&position.SizerConfig{
		Market:      cfg.Market,
		RiskPercent: cfg.Params.RiskPercent,
		Account:     cfg.Broker,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sizer: %w", err)
	}

	return &Breakout{
		cfg:      cfg,
		primary:  primary,
		higher:   higher,
		syncer:   market.NewSynchronizer(),
		tracker:  engine.NewTrendTracker(),
		detector: detector,
		sizer:    sizer,
	}, nil
}

// Market returns the market the strategy trades.
func (b *Breakout) Market() string {
	return b.cfg.Market
}

// Interval returns the duration between evaluation cycles.
func (b *Breakout) Interval() time.Duration {
	return b.cfg.Params.PrimaryTimeframe.Duration()
}

// Stats returns a snapshot of the strategy's activity.
func (b *Breakout) Stats() Stats {
	return Stats{
		Cycles:   b.cycles.Load(),
		Signals:  b.signals.Load(),
		Orders:   b.orders.Load(),
		Rejected: b.rejected.Load(),
	}
}

// Trend returns the current higher timeframe trend state.
func (b *Breakout) Trend() shared.TrendState {
	return b.tracker.State()
}

// fetch retrieves and stores the most recent count candles of the provided series,
// returning the number of candles that changed the series.
func (b *Breakout) fetch(ctx context.Context, series *market.CandlestickSeries, count int) (int, error) {
	candles, err := b.cfg.Broker.FetchCandles(ctx, b.cfg.Market, series.Timeframe(), count)
	if err != nil {
		return 0, err
	}

	changed, err := series.AppendAll(candles)
	if err != nil {
		return changed, fmt.Errorf("appending %s %s candles: %w", b.cfg.Market,
			series.Timeframe().String(), err)
	}

	return changed, nil
}

// resync recomputes the higher timeframe derived series and hands it to the synchronizer.
func (b *Breakout) resync() {
	derived := indicator.Derive(b.higher.Candles(), &b.cfg.Params)
	b.syncer.Update(derived)
}

// FetchInitialData loads the history required to evaluate the market.
func (b *Breakout) FetchInitialData(ctx context.Context) error {
	_, err := b.fetch(ctx, b.primary, initialCandles)
	if err != nil {
		return fmt.Errorf("fetching initial primary data: %w", err)
	}

	_, err = b.fetch(ctx, b.higher, initialCandles)
	if err != nil {
		return fmt.Errorf("fetching initial higher data: %w", err)
	}

	b.resync()
	b.cfg.Logger.Info().Msgf("initial data loaded for %s: %d %s candles, %d %s candles",
		b.cfg.Market, b.primary.Len(), b.primary.Timeframe().String(),
		b.higher.Len(), b.higher.Timeframe().String())

	return nil
}

// UpdateData refreshes both series with the latest candles, recomputing the higher
// timeframe indicators when its series changed.
func (b *Breakout) UpdateData(ctx context.Context) error {
	changed, err := b.fetch(ctx, b.primary, updateCandles)
	if err != nil {
		return fmt.Errorf("updating primary data: %w", err)
	}
	if changed == 0 {
		b.cfg.Logger.Debug().Msgf("no new %s data for %s", b.primary.Timeframe().String(), b.cfg.Market)
	}

	changed, err = b.fetch(ctx, b.higher, updateCandles)
	if err != nil {
		return fmt.Errorf("updating higher data: %w", err)
	}
	if changed == 0 {
		b.cfg.Logger.Debug().Msgf("no new %s data for %s", b.higher.Timeframe().String(), b.cfg.Market)
		return nil
	}

	b.resync()

	return nil
}

// AnalyzeMarket runs a full evaluation cycle, executing orders for detected signals.
func (b *Breakout) AnalyzeMarket(ctx context.Context) error {
	b.cycles.Inc()

	err := b.UpdateData(ctx)
	if err != nil {
		return err
	}

	latest, err := b.primary.Latest()
	if err != nil {
		return fmt.Errorf("fetching latest %s candle: %w", b.cfg.Market, err)
	}

	// Evaluations only happen on primary candles opening with a new higher timeframe candle.
	point, ok := b.syncer.IsHigherClose(latest.Date)
	if !ok {
		b.cfg.Logger.Debug().Msgf("no new %s candle for %s at %s", b.higher.Timeframe().String(),
			b.cfg.Market, latest.Date.Format(shared.DateLayout))
		return nil
	}
	if point.Date.Equal(b.lastEvaluated) {
		b.cfg.Logger.Debug().Msgf("%s candle at %s already evaluated for %s", b.higher.Timeframe().String(),
			point.Date.Format(shared.DateLayout), b.cfg.Market)
		return nil
	}
	b.lastEvaluated = point.Date

	trend := b.tracker.Advance(point.ShortMA, point.LongMA)
	metrics.RecordTrend(b.cfg.Market, trend)
	b.cfg.Logger.Info().Msgf("%s higher timeframe trend is %s", b.cfg.Market, trend.String())

	signals := b.detector.Evaluate(engine.Evaluation{
		Close:      latest.Close,
		Support:    point.Support,
		Resistance: point.Resistance,
		Trend:      trend,
		Date:       latest.Date,
	})

	var errs error
	for idx := range signals {
		signal := signals[idx]
		b.signals.Inc()
		metrics.RecordSignal(signal)
		b.cfg.Logger.Info().Msgf("%s signal detected for %s at %v", signal.Direction.String(),
			signal.Market, signal.EntryPrice)
		b.cfg.Notifier.Notify(notify.SignalMessage(signal))

		err := b.ExecuteOrder(ctx, signal)
		if err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}

// ExecuteOrder sizes and submits an order for the provided signal. Rejected orders
// are never retried.
func (b *Breakout) ExecuteOrder(ctx context.Context, signal shared.Signal) error {
	err := signal.Direction.Validate()
	if err != nil {
		return fmt.Errorf("executing %s order: %w", signal.Market, err)
	}

	symbol, err := b.cfg.Broker.SymbolInfo(ctx, signal.Market)
	if err != nil {
		return fmt.Errorf("fetching %s symbol info: %w", signal.Market, err)
	}

	req, err := b.sizer.BuildOrder(ctx, position.OrderParams{
		Signal:   signal,
		Strategy: &b.cfg.Params,
		Symbol:   symbol,
		Magic:    b.cfg.Magic,
	})
	if err != nil {
		return err
	}

	submittedOn := time.Now()
	result, err := b.cfg.Broker.SubmitOrder(ctx, req)
	if err != nil {
		b.cfg.Notifier.Notify(notify.OrderFailedMessage(req, shared.OrderResult{Message: err.Error()}))
		return fmt.Errorf("submitting %s order: %w", req.Market, err)
	}

	b.orders.Inc()
	metrics.RecordOrder(req, result)

	if b.cfg.Journal != nil {
		err := b.cfg.Journal.PersistOrder(ctx, req, result, submittedOn)
		if err != nil {
			b.cfg.Logger.Error().Err(err).Msgf("journaling %s order %s", req.Market, req.ID)
		}
	}

	if !result.Success {
		b.rejected.Inc()
		b.cfg.Notifier.Notify(notify.OrderFailedMessage(req, result))
		return fmt.Errorf("%s %s order (retcode %d, %s): %w", req.Market, req.Direction.String(),
			result.ReturnCode, result.Message, shared.ErrBrokerRejected)
	}

	b.cfg.Logger.Info().Msgf("executed %s order for %s at %v with sl=%v, tp=%v, volume=%v",
		req.Direction.String(), req.Market, req.EntryPrice, req.StopLoss, req.TakeProfit, req.Volume)
	b.cfg.Notifier.Notify(notify.OrderExecutedMessage(req))

	return nil
}
