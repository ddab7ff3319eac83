package shared

// TrendState represents the higher timeframe trend classification.
type TrendState int

const (
	TrendUnknown TrendState = iota
	TrendBullish
	TrendBearish
	TrendNeutral
)

// String stringifies the provided trend state.
func (t TrendState) String() string {
	switch t {
	case TrendUnknown:
		return "unknown"
	case TrendBullish:
		return "bullish"
	case TrendBearish:
		return "bearish"
	case TrendNeutral:
		return "neutral"
	default:
		return "invalid"
	}
}
