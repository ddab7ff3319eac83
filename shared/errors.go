package shared

import "errors"

var (
	// ErrEmptySeries is returned when a series has no entries.
	ErrEmptySeries = errors.New("empty series")
	// ErrNoDataAvailable is returned when the broker returns no market data.
	ErrNoDataAvailable = errors.New("no data available")
	// ErrInvariantViolation is returned when a data integrity guard fails.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrAccountInfoUnavailable is returned when account information cannot be retrieved.
	ErrAccountInfoUnavailable = errors.New("account info unavailable")
	// ErrInvalidOrderType is returned when an order is neither a buy nor a sell.
	ErrInvalidOrderType = errors.New("invalid order type")
	// ErrBrokerRejected is returned when the broker rejects an order.
	ErrBrokerRejected = errors.New("broker rejected order")
)

// IsRecoverable checks whether the provided error is an expected runtime condition that
// only skips the current cycle or order. Invariant violations and unclassified errors
// are not recoverable.
func IsRecoverable(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrInvariantViolation):
		return false
	case errors.Is(err, ErrEmptySeries),
		errors.Is(err, ErrNoDataAvailable),
		errors.Is(err, ErrAccountInfoUnavailable),
		errors.Is(err, ErrInvalidOrderType),
		errors.Is(err, ErrBrokerRejected):
		return true
	default:
		return false
	}
}
