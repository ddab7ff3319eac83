package strategy

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dnldd/breakout/metrics"
	"github.com/dnldd/breakout/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

const (
	// defaultCycleTimeout is the default bound on a single evaluation cycle.
	defaultCycleTimeout = time.Second * 30
)

// ManagerConfig represents the strategy manager configuration.
type ManagerConfig struct {
	// Strategies are the managed per market strategies.
	Strategies []Strategy
	// CycleTimeout bounds the broker requests of a single evaluation cycle.
	CycleTimeout time.Duration
	// JobScheduler represents the job scheduler.
	JobScheduler *gocron.Scheduler
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// statsReporter defines the requirements for strategies reporting their activity.
type statsReporter interface {
	Stats() Stats
}

// Manager schedules evaluation cycles for each managed strategy. Cycles of a strategy
// never overlap, strategies run independently of one another.
type Manager struct {
	cfg *ManagerConfig
}

// NewManager initializes a new strategy manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if len(cfg.Strategies) == 0 {
		return nil, fmt.Errorf("no strategies provided for strategy manager")
	}
	if cfg.JobScheduler == nil {
		return nil, fmt.Errorf("job scheduler cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("strategy manager logger cannot be nil")
	}

	if cfg.CycleTimeout == 0 {
		cfg.CycleTimeout = defaultCycleTimeout
	}

	return &Manager{cfg: cfg}, nil
}

// Stats returns the activity of the managed strategies that report it, keyed by market.
func (m *Manager) Stats() map[string]Stats {
	stats := make(map[string]Stats, len(m.cfg.Strategies))
	for idx := range m.cfg.Strategies {
		reporter, ok := m.cfg.Strategies[idx].(statsReporter)
		if !ok {
			continue
		}

		stats[m.cfg.Strategies[idx].Market()] = reporter.Stats()
	}

	return stats
}

// runCycle runs a single evaluation cycle of the provided strategy. Errors and panics
// are logged and never escape the cycle.
func (m *Manager) runCycle(ctx context.Context, strategy Strategy) {
	cycleCtx, cancel := context.WithTimeout(ctx, m.cfg.CycleTimeout)
	defer cancel()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s cycle panicked: %v", shared.ErrInvariantViolation,
				strategy.Market(), r)
			m.cfg.Logger.Error().Err(err).Str("stack", string(debug.Stack())).Send()
		}

		metrics.RecordCycle(strategy.Market(), err)
	}()

	err = strategy.AnalyzeMarket(cycleCtx)
	if err == nil {
		return
	}

	switch {
	case shared.IsRecoverable(err):
		m.cfg.Logger.Warn().Err(err).Msgf("%s cycle skipped", strategy.Market())
	default:
		m.cfg.Logger.Error().Stack().Err(err).Msgf("%s cycle failed", strategy.Market())
	}
}

// Run schedules the evaluation cycles of all managed strategies and blocks until the
// provided context is cancelled. In-flight cycles complete before Run returns.
func (m *Manager) Run(ctx context.Context) error {
	for idx := range m.cfg.Strategies {
		strategy := m.cfg.Strategies[idx]
		_, err := m.cfg.JobScheduler.Every(strategy.Interval()).
			Tag(strategy.Market()).
			SingletonMode().
			Do(m.runCycle, ctx, strategy)
		if err != nil {
			return fmt.Errorf("scheduling %s strategy: %w", strategy.Market(), err)
		}

		m.cfg.Logger.Info().Msgf("scheduled %s strategy every %s", strategy.Market(), strategy.Interval())
	}

	m.cfg.JobScheduler.StartAsync()

	<-ctx.Done()
	m.cfg.JobScheduler.Stop()

	for market, stats := range m.Stats() {
		m.cfg.Logger.Info().Msgf("%s stats: cycles=%d, signals=%d, orders=%d, rejected=%d",
			market, stats.Cycles, stats.Signals, stats.Orders, stats.Rejected)
	}

	return nil
}
