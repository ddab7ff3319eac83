package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dnldd/breakout/database"
	"github.com/dnldd/breakout/metrics"
	"github.com/dnldd/breakout/notify"
	"github.com/dnldd/breakout/shared"
	"github.com/dnldd/breakout/strategy"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// ErrNoStrategies is returned when no market could be set up for trading.
var ErrNoStrategies = errors.New("no strategies initialized")

// Connector defines the requirements for an authenticated brokerage connection.
type Connector interface {
	shared.Broker
	// Connect authenticates with the broker.
	Connect(ctx context.Context) error
}

// TraderConfig represents the configuration struct for the trader service.
type TraderConfig struct {
	// Broker is the brokerage connection.
	Broker Connector
	// Markets represents the traded markets. All broker symbols are considered when empty.
	Markets []string
	// ExcludedMarkets are markets that are never traded.
	ExcludedMarkets []string
	// SymbolFilters restricts traded markets to symbols containing any of the filters.
	SymbolFilters []string
	// Params are the strategy params per market.
	Params *shared.ParamsSet
	// Magic is the identifier attached to submitted orders.
	Magic int
	// Sender delivers notifications, notifications are logged when nil.
	Sender notify.Sender
	// Journal stores submitted orders, optional.
	Journal database.OrderStorer
	// MetricsAddr is the address metrics are served on, metrics are not served when empty.
	MetricsAddr string
	// FetchTimeout bounds the broker requests of a single evaluation cycle.
	FetchTimeout time.Duration
}

// Validate asserts the config sane inputs.
func (cfg *TraderConfig) Validate() error {
	var errs error

	if cfg.Broker == nil {
		errs = errors.Join(errs, fmt.Errorf("broker cannot be nil"))
	}
	if cfg.Params == nil {
		errs = errors.Join(errs, fmt.Errorf("strategy params cannot be nil"))
	}
	if cfg.Magic < 0 {
		errs = errors.Join(errs, fmt.Errorf("magic number cannot be negative"))
	}
	if cfg.FetchTimeout < 0 {
		errs = errors.Join(errs, fmt.Errorf("fetch timeout cannot be negative"))
	}

	return errs
}

// Trader represents a multi market breakout trading service.
type Trader struct {
	cfg             *TraderConfig
	strategies      []strategy.Strategy
	notifyManager   *notify.Manager
	strategyManager *strategy.Manager
	logger          *zerolog.Logger
	wg              sync.WaitGroup
}

// NewTrader initializes a new trader service. Failing to connect to the broker is
// fatal, markets that cannot be set up are skipped.
func NewTrader(ctx context.Context, cfg *TraderConfig) (*Trader, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "trader").Logger()

	err = cfg.Broker.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}

	markets, err := resolveMarkets(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sender := cfg.Sender
	if sender == nil {
		notifierLogger := logger.With().Str("component", "notifier").Logger()
		sender = &notify.LogSender{Logger: &notifierLogger}
	}

	notifyMgrLogger := logger.With().Str("component", "notifymanager").Logger()
	notifyMgr, err := notify.NewManager(&notify.ManagerConfig{
		Sender: sender,
		Logger: &notifyMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating notification manager: %w", err)
	}

	strategies := make([]strategy.Strategy, 0, len(markets))
	for _, market := range markets {
		strategyLogger := logger.With().Str("component", "strategy").Str("market", market).Logger()
		strat, err := setupStrategy(ctx, cfg, market, notifyMgr, &strategyLogger)
		if err != nil {
			logger.Error().Err(err).Msgf("skipping %s", market)
			continue
		}

		strategies = append(strategies, strat)
	}

	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}

	strategyMgrLogger := logger.With().Str("component", "strategymanager").Logger()
	strategyMgr, err := strategy.NewManager(&strategy.ManagerConfig{
		Strategies:   strategies,
		CycleTimeout: cfg.FetchTimeout,
		JobScheduler: gocron.NewScheduler(time.UTC),
		Logger:       &strategyMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating strategy manager: %w", err)
	}

	logger.Info().Msgf("trading %d markets", len(strategies))

	return &Trader{
		cfg:             cfg,
		strategies:      strategies,
		notifyManager:   notifyMgr,
		strategyManager: strategyMgr,
		logger:          &logger,
	}, nil
}

// resolveMarkets returns the markets to trade, discovering them from the broker when
// none are configured.
func resolveMarkets(ctx context.Context, cfg *TraderConfig) ([]string, error) {
	candidates := cfg.Markets
	if len(candidates) == 0 {
		symbols, err := cfg.Broker.Symbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching broker symbols: %w", err)
		}

		candidates = symbols
	}

	return strategy.FilterSymbols(candidates, cfg.SymbolFilters, cfg.ExcludedMarkets), nil
}

// setupStrategy selects the provided market and loads its strategy's initial data.
func setupStrategy(ctx context.Context, cfg *TraderConfig, market string, notifier shared.Notifier, logger *zerolog.Logger) (*strategy.Breakout, error) {
	err := cfg.Broker.SelectSymbol(ctx, market)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.NewBreakout(&strategy.BreakoutConfig{
		Market:   market,
		Params:   cfg.Params.For(market),
		Broker:   cfg.Broker,
		Notifier: notifier,
		Journal:  cfg.Journal,
		Magic:    cfg.Magic,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	fetchCtx := ctx
	if cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
	}

	err = strat.FetchInitialData(fetchCtx)
	if err != nil {
		return nil, err
	}

	return strat, nil
}

// Markets returns the traded markets.
func (t *Trader) Markets() []string {
	markets := make([]string, 0, len(t.strategies))
	for idx := range t.strategies {
		markets = append(markets, t.strategies[idx].Market())
	}

	return markets
}

// Run handles the lifecycle processes of the trader service. The broker connection
// is released once all managers have stopped.
func (t *Trader) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var srv *http.Server
	if t.cfg.MetricsAddr != "" {
		metricsLogger := t.logger.With().Str("component", "metrics").Logger()
		srv = metrics.Serve(t.cfg.MetricsAddr, &metricsLogger)
	}

	// The notifier stops only after the strategy manager has returned.
	notifyCtx, cancelNotify := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelNotify()

	t.wg.Add(2)

	go func() {
		t.notifyManager.Run(notifyCtx)
		t.wg.Done()
	}()

	go func() {
		err := t.strategyManager.Run(ctx)
		if err != nil {
			t.logger.Error().Err(err).Msg("running strategy manager")
			cancel()
		}
		cancelNotify()
		t.wg.Done()
	}()

	t.wg.Wait()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			t.logger.Error().Err(err).Msg("shutting down metrics server")
		}
	}

	err := t.cfg.Broker.Close()
	if err != nil {
		t.logger.Error().Err(err).Msg("closing broker connection")
	}

	t.logger.Info().Msg("trader service stopped")
}
