package shared

const (
	// DefaultDeviation is the maximum price deviation in points accepted for market orders.
	DefaultDeviation = 20
	// DefaultOrderTag is the comment attached to submitted orders.
	DefaultOrderTag = "breakout mtf"
)

// OrderRequest represents a sized market order ready for submission.
type OrderRequest struct {
	ID         string
	Market     string
	Direction  Direction
	Volume     float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Tag        string
	Magic      int
	Deviation  int
}

// OrderResult represents the broker's response to an order submission.
type OrderResult struct {
	Success    bool
	ReturnCode int
	Message    string
}

// SymbolInfo represents broker metadata for a market.
type SymbolInfo struct {
	Name   string
	Digits int
}
