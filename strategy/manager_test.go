package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dnldd/breakout/shared"
	"github.com/go-co-op/gocron"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// testStrategy counts evaluation cycles, optionally failing or panicking.
type testStrategy struct {
	market   string
	interval time.Duration
	err      error
	panics   bool
	cycles   atomic.Int32
	active   atomic.Int32
	overlaps atomic.Int32
}

func (s *testStrategy) Market() string                           { return s.market }
func (s *testStrategy) Interval() time.Duration                  { return s.interval }
func (s *testStrategy) FetchInitialData(_ context.Context) error { return nil }
func (s *testStrategy) UpdateData(_ context.Context) error       { return nil }

func (s *testStrategy) ExecuteOrder(_ context.Context, _ shared.Signal) error {
	return nil
}

func (s *testStrategy) AnalyzeMarket(ctx context.Context) error {
	if s.active.Inc() > 1 {
		s.overlaps.Inc()
	}
	defer s.active.Dec()

	s.cycles.Inc()

	_, ok := ctx.Deadline()
	if !ok {
		return errors.New("cycle context has no deadline")
	}

	if s.panics {
		panic("unexpected state")
	}

	return s.err
}

func TestNewManager(t *testing.T) {
	scheduler := gocron.NewScheduler(time.UTC)
	strategies := []Strategy{&testStrategy{market: "EURUSD", interval: time.Second}}

	// Ensure manager configs are validated.
	_, err := NewManager(&ManagerConfig{JobScheduler: scheduler, Logger: &log.Logger})
	assert.Error(t, err)

	_, err = NewManager(&ManagerConfig{Strategies: strategies, Logger: &log.Logger})
	assert.Error(t, err)

	_, err = NewManager(&ManagerConfig{Strategies: strategies, JobScheduler: scheduler})
	assert.Error(t, err)

	// Ensure the default cycle timeout is applied.
	mgr, err := NewManager(&ManagerConfig{Strategies: strategies, JobScheduler: scheduler, Logger: &log.Logger})
	assert.NoError(t, err)
	assert.Equal(t, mgr.cfg.CycleTimeout, defaultCycleTimeout)
}

func TestRunCycle(t *testing.T) {
	mgr, err := NewManager(&ManagerConfig{
		Strategies:   []Strategy{&testStrategy{market: "EURUSD"}},
		JobScheduler: gocron.NewScheduler(time.UTC),
		Logger:       &log.Logger,
	})
	assert.NoError(t, err)

	ctx := context.Background()

	// Ensure recoverable and unrecoverable errors are contained.
	recoverable := &testStrategy{market: "EURUSD", err: shared.ErrNoDataAvailable}
	mgr.runCycle(ctx, recoverable)
	assert.Equal(t, recoverable.cycles.Load(), int32(1))

	invariant := &testStrategy{market: "GBPUSD", err: shared.ErrInvariantViolation}
	mgr.runCycle(ctx, invariant)
	assert.Equal(t, invariant.cycles.Load(), int32(1))

	// Ensure panics are recovered.
	panicking := &testStrategy{market: "USDJPY", panics: true}
	mgr.runCycle(ctx, panicking)
	assert.Equal(t, panicking.cycles.Load(), int32(1))
}

func TestManagerRun(t *testing.T) {
	healthy := &testStrategy{market: "EURUSD", interval: time.Millisecond * 100}
	panicking := &testStrategy{market: "USDJPY", interval: time.Millisecond * 100, panics: true}

	mgr, err := NewManager(&ManagerConfig{
		Strategies:   []Strategy{healthy, panicking},
		JobScheduler: gocron.NewScheduler(time.UTC),
		Logger:       &log.Logger,
	})
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error)
	go func() {
		done <- mgr.Run(ctx)
	}()

	// Ensure strategies keep cycling despite a failing sibling.
	deadline := time.Now().Add(time.Second * 5)
	for healthy.cycles.Load() < 3 || panicking.cycles.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting on strategy cycles")
		}
		time.Sleep(time.Millisecond * 20)
	}

	// Ensure the manager can be shut down.
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second * 5):
		t.Fatal("timed out waiting on manager shutdown")
	}

	assert.Equal(t, healthy.overlaps.Load(), int32(0))
}

func TestManagerStats(t *testing.T) {
	broker := newTestBroker()
	breakout, _, _ := setupBreakout(t, broker)
	mgr, err := NewManager(&ManagerConfig{
		Strategies:   []Strategy{breakout, &testStrategy{market: "USDJPY"}},
		JobScheduler: gocron.NewScheduler(time.UTC),
		Logger:       &log.Logger,
	})
	assert.NoError(t, err)

	// Ensure only strategies reporting activity are included.
	stats := mgr.Stats()
	assert.Equal(t, len(stats), 1)
	assert.Equal(t, stats[testMarket], Stats{})

	// Ensure failed cycles are counted.
	mgr.runCycle(context.Background(), breakout)
	assert.Equal(t, mgr.Stats()[testMarket].Cycles, uint64(1))
	assert.Equal(t, mgr.Stats()[testMarket].Orders, uint64(0))
}
