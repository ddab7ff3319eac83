package shared

import (
	"context"
)

// Broker defines the requirements for the brokerage connection.
type Broker interface {
	// FetchCandles fetches the count most recent candles for the provided market and timeframe.
	FetchCandles(ctx context.Context, market string, timeframe Timeframe, count int) ([]Candlestick, error)
	// SubmitOrder submits the provided order request.
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	// AccountBalance returns the current account balance.
	AccountBalance(ctx context.Context) (float64, error)
	// SymbolInfo returns broker metadata for the provided market.
	SymbolInfo(ctx context.Context, market string) (SymbolInfo, error)
	// Symbols returns the names of all symbols offered by the broker.
	Symbols(ctx context.Context) ([]string, error)
	// SelectSymbol enables the provided symbol for market data and trading.
	SelectSymbol(ctx context.Context, market string) error
	// Close releases the broker connection.
	Close() error
}

// Notifier defines the requirements for delivering notifications.
type Notifier interface {
	// Notify sends the provided message without waiting on delivery.
	Notify(message string)
}
