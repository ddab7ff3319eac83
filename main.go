package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnldd/breakout/database"
	"github.com/dnldd/breakout/fetch"
	"github.com/dnldd/breakout/notify"
	"github.com/dnldd/breakout/service"
	"github.com/dnldd/breakout/shared"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt, syscall.SIGTERM}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

// setLogLevel sets the global log level.
func setLogLevel(level string) {
	if level == "" {
		return
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return
	}

	zerolog.SetGlobalLevel(lvl)
}

// run wires the trader service from the provided config and runs it until cancelled.
func run(ctx context.Context, cfg *Config) error {
	base := shared.DefaultStrategyParams()
	if cfg.Risk > 0 {
		base.RiskPercent = cfg.Risk
	}

	params, err := shared.LoadParamsSet(cfg.ParamsFile, base)
	if err != nil {
		return err
	}

	brokerLogger := log.With().Str("component", "broker").Logger()
	broker, err := fetch.NewBridgeClient(&fetch.BridgeConfig{
		BaseURL: cfg.BrokerURL,
		Token:   cfg.BrokerToken,
		Logger:  &brokerLogger,
	})
	if err != nil {
		return err
	}

	traderCfg := &service.TraderConfig{
		Broker:          broker,
		Markets:         cfg.Markets,
		ExcludedMarkets: cfg.ExcludedMarkets,
		SymbolFilters:   cfg.SymbolFilter,
		Params:          params,
		Magic:           cfg.Magic,
		MetricsAddr:     cfg.MetricsAddr,
		FetchTimeout:    cfg.FetchTimeout,
	}

	if cfg.TelegramToken != "" {
		telegramLogger := log.With().Str("component", "telegram").Logger()
		telegram, err := notify.NewTelegramNotifier(&notify.TelegramConfig{
			Token:  cfg.TelegramToken,
			ChatID: cfg.TelegramChat,
			Logger: &telegramLogger,
		})
		if err != nil {
			return err
		}

		traderCfg.Sender = telegram
	}

	if cfg.DBEndpoint != "" {
		dbLogger := log.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return err
		}

		traderCfg.Journal = db
	}

	trader, err := service.NewTrader(ctx, traderCfg)
	if err != nil {
		return err
	}

	trader.Run(ctx)

	return nil
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Error().Err(err).Msg("loading config")
		os.Exit(1)
	}

	setLogLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleTermination(ctx, cancel)

	err = run(ctx, &cfg)
	switch {
	case errors.Is(err, service.ErrNoStrategies):
		log.Info().Msg("no markets to trade, exiting")
	case err != nil:
		log.Error().Err(err).Msg("running trader service")
		cancel()
		os.Exit(1)
	}
}
