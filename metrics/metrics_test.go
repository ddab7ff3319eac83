package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dnldd/breakout/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestFailureKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invariant", fmt.Errorf("append: %w", shared.ErrInvariantViolation), "invariant"},
		{"no data", fmt.Errorf("fetch: %w", shared.ErrNoDataAvailable), "nodata"},
		{"rejected", fmt.Errorf("submit: %w", shared.ErrBrokerRejected), "rejected"},
		{"timeout", fmt.Errorf("fetch: %w", context.DeadlineExceeded), "timeout"},
		{"other", errors.New("boom"), "other"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, FailureKind(test.err), test.want)
		})
	}
}

func TestRecorders(t *testing.T) {
	market := "TESTMKT"

	// Ensure cycles and failures are counted.
	RecordCycle(market, nil)
	RecordCycle(market, shared.ErrNoDataAvailable)
	assert.Equal(t, testutil.ToFloat64(CyclesTotal.WithLabelValues(market)), float64(2))
	assert.Equal(t, testutil.ToFloat64(CycleFailuresTotal.WithLabelValues(market, "nodata")), float64(1))

	// Ensure signals are counted by direction.
	RecordSignal(shared.Signal{Market: market, Direction: shared.Buy})
	assert.Equal(t, testutil.ToFloat64(SignalsTotal.WithLabelValues(market, "buy")), float64(1))

	// Ensure orders are counted by outcome.
	req := shared.OrderRequest{Market: market, Direction: shared.Sell}
	RecordOrder(req, shared.OrderResult{Success: true})
	RecordOrder(req, shared.OrderResult{ReturnCode: 10019})
	RecordOrder(req, shared.OrderResult{ReturnCode: 10019})
	assert.Equal(t, testutil.ToFloat64(OrdersTotal.WithLabelValues(market, "sell", "filled")), float64(1))
	assert.Equal(t, testutil.ToFloat64(OrdersTotal.WithLabelValues(market, "sell", "rejected")), float64(2))

	// Ensure the trend gauge tracks the latest state.
	RecordTrend(market, shared.TrendBearish)
	assert.Equal(t, testutil.ToFloat64(TrendState.WithLabelValues(market)), float64(shared.TrendBearish))
}

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve("127.0.0.1:0", &log.Logger)
	defer srv.Close()

	CyclesTotal.WithLabelValues("SERVEMKT").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	assert.NoError(t, err)

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "breakout_cycles_total" {
			found = true
			break
		}
	}
	assert.True(t, found)
}
