package strategy

import (
	"context"
	"strings"
	"time"

	"github.com/dnldd/breakout/shared"
)

// Strategy defines the capabilities of a per market trading strategy.
type Strategy interface {
	// Market returns the market the strategy trades.
	Market() string
	// Interval returns the duration between evaluation cycles.
	Interval() time.Duration
	// FetchInitialData loads the history required to evaluate the market.
	FetchInitialData(ctx context.Context) error
	// UpdateData refreshes the market data with the latest candles.
	UpdateData(ctx context.Context) error
	// AnalyzeMarket runs a full evaluation cycle, executing orders for detected signals.
	AnalyzeMarket(ctx context.Context) error
	// ExecuteOrder sizes and submits an order for the provided signal.
	ExecuteOrder(ctx context.Context, signal shared.Signal) error
}

// FilterSymbols returns the symbols containing any of the provided filters, minus the
// excluded symbols. All symbols are eligible when no filters are provided.
func FilterSymbols(symbols []string, filters []string, excluded []string) []string {
	skip := make(map[string]struct{}, len(excluded))
	for idx := range excluded {
		skip[strings.ToUpper(excluded[idx])] = struct{}{}
	}

	selected := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if _, ok := skip[strings.ToUpper(symbol)]; ok {
			continue
		}

		if len(filters) == 0 {
			selected = append(selected, symbol)
			continue
		}

		for _, filter := range filters {
			if strings.Contains(strings.ToUpper(symbol), strings.ToUpper(filter)) {
				selected = append(selected, symbol)
				break
			}
		}
	}

	return selected
}
