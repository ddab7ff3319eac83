package shared

import "fmt"

// Direction represents the direction of a trade.
type Direction int

const (
	Buy Direction = iota + 1
	Sell
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Validate asserts the direction is either a buy or a sell.
func (d Direction) Validate() error {
	switch d {
	case Buy, Sell:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidOrderType, d)
	}
}
