package position

import (
	"context"
	"fmt"

	"github.com/dnldd/breakout/shared"
	"github.com/google/uuid"
)

// StopLevels returns the stop loss and take profit for an entry in the provided direction.
func StopLevels(direction shared.Direction, entry float64, params *shared.StrategyParams) (float64, float64, error) {
	switch direction {
	case shared.Buy:
		stopLoss := entry * (1 - params.StopLossPercent/100)
		takeProfit := entry * (1 + params.TakeProfitPercent/100)
		return stopLoss, takeProfit, nil
	case shared.Sell:
		stopLoss := entry * (1 + params.StopLossPercent/100)
		takeProfit := entry * (1 - params.TakeProfitPercent/100)
		return stopLoss, takeProfit, nil
	default:
		return 0, 0, direction.Validate()
	}
}

// OrderParams represents the inputs for building an order request.
type OrderParams struct {
	Signal   shared.Signal
	Strategy *shared.StrategyParams
	Symbol   shared.SymbolInfo
	Magic    int
}

// BuildOrder creates a sized order request for the provided signal.
func (s *Sizer) BuildOrder(ctx context.Context, p OrderParams) (shared.OrderRequest, error) {
	sig := p.Signal
	stopLoss, takeProfit, err := StopLevels(sig.Direction, sig.EntryPrice, p.Strategy)
	if err != nil {
		return shared.OrderRequest{}, fmt.Errorf("building %s order: %w", sig.Market, err)
	}

	// Price levels are quoted at the symbol's precision.
	if p.Symbol.Digits > 0 {
		stopLoss = roundTo(stopLoss, int32(p.Symbol.Digits))
		takeProfit = roundTo(takeProfit, int32(p.Symbol.Digits))
	}

	pipValue := PipValue(p.Symbol.Digits)
	volume := s.Size(ctx, StopLossPips(sig.EntryPrice, stopLoss, pipValue), pipValue)

	req := shared.OrderRequest{
		ID:         uuid.New().String(),
		Market:     sig.Market,
		Direction:  sig.Direction,
		Volume:     volume,
		EntryPrice: sig.EntryPrice,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Tag:        shared.DefaultOrderTag,
		Magic:      p.Magic,
		Deviation:  shared.DefaultDeviation,
	}

	return req, nil
}
