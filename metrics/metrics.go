package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dnldd/breakout/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// CyclesTotal counts completed evaluation cycles per market.
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "breakout_cycles_total", Help: "Evaluation cycles run"},
		[]string{"market"},
	)
	// CycleFailuresTotal counts failed evaluation cycles per market and error kind.
	CycleFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "breakout_cycle_failures_total", Help: "Evaluation cycles that failed"},
		[]string{"market", "kind"},
	)
	// SignalsTotal counts emitted breakout signals.
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "breakout_signals_total", Help: "Breakout signals emitted"},
		[]string{"market", "direction"},
	)
	// OrdersTotal counts submitted orders by outcome.
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "breakout_orders_total", Help: "Orders submitted"},
		[]string{"market", "direction", "outcome"},
	)
	// TrendState tracks the current higher timeframe trend per market.
	TrendState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "breakout_trend_state", Help: "Higher timeframe trend state (0 unknown, 1 bullish, 2 bearish, 3 neutral)"},
		[]string{"market"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, CycleFailuresTotal, SignalsTotal, OrdersTotal, TrendState)
}

// FailureKind classifies the provided cycle error for labelling.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, shared.ErrInvariantViolation):
		return "invariant"
	case errors.Is(err, shared.ErrNoDataAvailable):
		return "nodata"
	case errors.Is(err, shared.ErrBrokerRejected):
		return "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "other"
	}
}

// RecordCycle records the outcome of an evaluation cycle.
func RecordCycle(market string, err error) {
	CyclesTotal.WithLabelValues(market).Inc()
	if err != nil {
		CycleFailuresTotal.WithLabelValues(market, FailureKind(err)).Inc()
	}
}

// RecordSignal records an emitted signal.
func RecordSignal(signal shared.Signal) {
	SignalsTotal.WithLabelValues(signal.Market, signal.Direction.String()).Inc()
}

// RecordOrder records a submitted order and its outcome.
func RecordOrder(req shared.OrderRequest, result shared.OrderResult) {
	outcome := "rejected"
	if result.Success {
		outcome = "filled"
	}

	OrdersTotal.WithLabelValues(req.Market, req.Direction.String(), outcome).Inc()
}

// RecordTrend records the current trend state of a market.
func RecordTrend(market string, state shared.TrendState) {
	TrendState.WithLabelValues(market).Set(float64(state))
}

// Serve exposes the registered metrics on the provided address.
func Serve(addr string, logger *zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: time.Second * 5,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("serving metrics")
		}
	}()

	return srv
}
